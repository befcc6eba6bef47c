package iso7816

import (
	"testing"
)

func makeTx(sw StatusWord, data ...byte) Transaction {
	return Transaction{
		Response: &ResponseAPDU{Data: data, Status: sw},
	}
}

func TestTransaction_IsSuccess(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want bool
	}{
		{
			name: "Successful Transaction (9000)",
			tx:   makeTx(SW_NO_ERROR),
			want: true,
		},
		{
			name: "Response available (9F22)",
			tx:   makeTx(NewStatusWord(0x9F, 0x22)),
			want: true,
		},
		{
			name: "Error Transaction (6A82)",
			tx:   makeTx(SW_ERR_FILE_NOT_FOUND),
			want: false,
		},
		{
			name: "Nil Response (Incomplete Transaction)",
			tx:   Transaction{Response: nil},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tx.IsSuccess(); got != tt.want {
				t.Errorf("Transaction.IsSuccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrace_Logic(t *testing.T) {
	t.Run("Empty Trace", func(t *testing.T) {
		var tr Trace
		if tr.Last() != nil {
			t.Error("Empty trace Last() should be nil")
		}
		if tr.IsSuccess() {
			t.Error("Empty trace IsSuccess() should be false")
		}
		if tr.Status() != 0 || tr.Data() != nil {
			t.Error("Empty trace should have no status and no data")
		}
	})

	t.Run("Multi-Step Trace (9F0F then 9000)", func(t *testing.T) {
		tr := Trace{
			makeTx(NewStatusWord(0x9F, 0x0F)),
			makeTx(SW_NO_ERROR, 0x01, 0x02),
		}
		if !tr.IsSuccess() {
			t.Error("Trace ending in 9000 should be successful")
		}
		if got, want := tr.Status(), NewStatusWord(0x9F, 0x0F); got != want {
			t.Errorf("Status() = %s, want %s", got, want)
		}
		if got := len(tr.Data()); got != 2 {
			t.Errorf("len(Data()) = %d, want 2", got)
		}
	})

	t.Run("Wrong length then re-send (6C02 then 9000)", func(t *testing.T) {
		tr := Trace{
			makeTx(NewStatusWord(0x6C, 0x02)),
			makeTx(SW_NO_ERROR, 0xAA, 0xBB),
		}
		if got := tr.Status(); got != SW_NO_ERROR {
			t.Errorf("Status() = %s, want 9000", got)
		}
	})

	t.Run("Failed after GET RESPONSE", func(t *testing.T) {
		tr := Trace{
			makeTx(NewStatusWord(0x61, 0x10)),
			makeTx(SW_ERR_WRONG_LENGTH),
		}
		if tr.IsSuccess() {
			t.Error("Trace ending in 6700 should fail")
		}
	})
}
