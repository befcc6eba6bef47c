package iso7816

// A Trace is the chronological list of Transactions needed to complete one logical command:
// the command itself, then any GET RESPONSE or re-send triggered by 61XX, 9FXX or 6CXX.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  Command
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace.
// Returns nil if the trace is empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the FINAL transaction in the trace was successful.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Status returns the status word the card gave to the original command, which is what a
// script expects (9F22 for a GSM SELECT, not the 9000 of the GET RESPONSE that follows).
// A 6CXX answer only corrects Le, so the status of the re-sent command counts instead.
func (t Trace) Status() StatusWord {
	var sw StatusWord
	for _, tx := range t {
		if tx.Response == nil {
			break
		}
		sw = tx.Response.Status
		if !sw.IsWrongLength() {
			break
		}
	}
	return sw
}

// Data returns the response data of the final transaction.
func (t Trace) Data() []byte {
	last := t.Last()
	if last == nil || last.Response == nil {
		return nil
	}
	return last.Response.Data
}
