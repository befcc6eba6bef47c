/*
Package iso7816 models the ISO/IEC 7816-4 exchanges found in SIM personalization traces.

Personalization scripts and machine logs carry APDUs as hex text. This package turns that text
back into structured values: the four byte command header (CLA, INS, P1, P2), status words
(SW1-SW2) and complete command APDUs that can be replayed against a card.

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000: Success (OK).
  - 0x61XX: Success, XX bytes of response data are waiting (GET RESPONSE).
  - 0x9FXX: The same for GSM class (A0) commands.
  - 0x6CXX: Wrong length, XX is the correct Le.
  - Other: Warnings (62XX, 63XX) and errors (64XX to 6FXX).

# Replaying Commands

A Client sends raw commands through a Transmitter and follows the transport level status words
(61XX, 9FXX, 6CXX) itself. Send returns the whole conversation as a Trace:

	client := iso7816.NewClient(card)
	cmd, err := iso7816.ParseCommand("00A40000022FE2")
	if err != nil {
	    return err
	}
	trace, err := client.Send(cmd)
	if err != nil {
	    return err
	}
	fmt.Println(trace.Status(), trace.IsSuccess())
*/
package iso7816
