package wire

import (
	"strings"
	"testing"

	"github.com/tradeflow/fixvenue/constants"
)

// TestBuilderEncode_RoundTrip verifies that a message encoded by Builder
// decodes back to the same field values and passes Verify.
func TestBuilderEncode_RoundTrip(t *testing.T) {
	t.Helper()
	raw := NewBuilder(constants.MsgTypeLogon).
		Set(constants.TagEncryptMethod, constants.EncryptMethodNone).
		Set(constants.TagHeartBtInt, "30").
		Set(constants.TagResetSeqNumFlag, constants.ResetSeqNumYes).
		Encode("CLIENT", "VENUE", "QUOTE", "QUOTE", 1, "20260101-00:00:00.000")

	if !Verify(raw) {
		t.Fatalf("expected encoded message to verify, got: %q", raw)
	}

	msg := Decode(raw)
	if msg.MsgType() != constants.MsgTypeLogon {
		t.Fatalf("expected MsgType %q, got %q", constants.MsgTypeLogon, msg.MsgType())
	}
	if v, ok := msg.Field(constants.TagHeartBtInt); !ok || v != "30" {
		t.Fatalf("expected HeartBtInt=30, got %q (ok=%v)", v, ok)
	}
	if msg.SeqNum() != 1 {
		t.Fatalf("expected SeqNum 1, got %d", msg.SeqNum())
	}
}

// TestBuilderEncode_HeaderFieldOrder verifies the raw encoded bytes
// carry the header fields in the exact order 35,49,56,57,50,34,52 —
// TargetSubID (57) before SenderSubID (50) — matching the logon-success
// scenario's literal wire example.
func TestBuilderEncode_HeaderFieldOrder(t *testing.T) {
	raw := NewBuilder(constants.MsgTypeLogon).
		Set(constants.TagEncryptMethod, constants.EncryptMethodNone).
		Set(constants.TagHeartBtInt, "30").
		Set(constants.TagUsername, "u").
		Set(constants.TagPassword, "p").
		Set(constants.TagResetSeqNumFlag, constants.ResetSeqNumYes).
		Encode("c.u", "cServer", "QUOTE", "QUOTE", 1, "20260101-00:00:00.000")

	body := string(raw)
	idx35 := strings.Index(body, "35=A\x01")
	idx49 := strings.Index(body, "49=c.u\x01")
	idx56 := strings.Index(body, "56=cServer\x01")
	idx57 := strings.Index(body, "57=QUOTE\x01")
	idx50 := strings.Index(body, "50=QUOTE\x01")
	idx34 := strings.Index(body, "34=1\x01")
	idx52 := strings.Index(body, "52=20260101")

	for name, idx := range map[string]int{"35": idx35, "49": idx49, "56": idx56, "57": idx57, "50": idx50, "34": idx34, "52": idx52} {
		if idx < 0 {
			t.Fatalf("expected tag %s present in encoded message, got: %q", name, body)
		}
	}
	if !(idx35 < idx49 && idx49 < idx56 && idx56 < idx57 && idx57 < idx50 && idx50 < idx34 && idx34 < idx52) {
		t.Fatalf("expected header order 35,49,56,57,50,34,52, got indices 35=%d 49=%d 56=%d 57=%d 50=%d 34=%d 52=%d",
			idx35, idx49, idx56, idx57, idx50, idx34, idx52)
	}
}

// TestVerify_RejectsTamperedBody checks that Verify fails when a byte in
// the body is mutated after encoding, invalidating the checksum.
func TestVerify_RejectsTamperedBody(t *testing.T) {
	raw := NewBuilder(constants.MsgTypeHeartbeat).
		Encode("CLIENT", "VENUE", "", "", 5, "20260101-00:00:00.000")

	tampered := strings.Replace(string(raw), "CLIENT", "CLIENX", 1)
	if Verify([]byte(tampered)) {
		t.Fatalf("expected tampered message to fail verification")
	}
}

// TestDecode_DuplicateTagsPreserveOrderAndFirstIndex verifies that Decode
// keeps every occurrence of a repeated tag in wire order while Field
// returns the first.
func TestDecode_DuplicateTagsPreserveOrderAndFirstIndex(t *testing.T) {
	raw := "35=W\x0155=BTC-USD\x01268=2\x01269=0\x01270=100.00\x01269=1\x01270=101.00\x0110=000\x01"
	msg := Decode([]byte(raw))

	var bidCount int
	for _, f := range msg.fields {
		if f.Tag == constants.TagMDEntryType {
			bidCount++
		}
	}
	if bidCount != 2 {
		t.Fatalf("expected 2 occurrences of MDEntryType, got %d", bidCount)
	}
	if v, _ := msg.Field(constants.TagMDEntryType); v != "0" {
		t.Fatalf("expected first MDEntryType to be 0, got %q", v)
	}
}

// TestRepeatingGroup_ExtractsEntriesByCount verifies group extraction
// stops at the declared count and groups fields by start/end tag pairs.
func TestRepeatingGroup_ExtractsEntriesByCount(t *testing.T) {
	raw := "35=W\x0155=BTC-USD\x01268=2\x01" +
		"269=0\x01270=100.00\x01271=1.5\x01" +
		"269=1\x01270=101.00\x01271=2.0\x01" +
		"10=000\x01"
	msg := Decode([]byte(raw))

	groups := msg.RepeatingGroup(constants.TagNoMDEntries, constants.TagMDEntryType, constants.TagMDEntrySize)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if px, ok := groups[0].Field(constants.TagMDEntryPx); !ok || px != "100.00" {
		t.Fatalf("expected first group price 100.00, got %q (ok=%v)", px, ok)
	}
	if px, ok := groups[1].Field(constants.TagMDEntryPx); !ok || px != "101.00" {
		t.Fatalf("expected second group price 101.00, got %q (ok=%v)", px, ok)
	}
}

// TestRepeatingGroup_MissingCountTagReturnsNil verifies absence of the
// count tag yields a nil group slice rather than a panic.
func TestRepeatingGroup_MissingCountTagReturnsNil(t *testing.T) {
	msg := Decode([]byte("35=W\x0155=BTC-USD\x0110=000\x01"))
	groups := msg.RepeatingGroup(constants.TagNoMDEntries, constants.TagMDEntryType, constants.TagMDEntrySize)
	if groups != nil {
		t.Fatalf("expected nil groups, got %v", groups)
	}
}

// TestRepeatingGroupByStart_HandlesVariableFieldEntries verifies entries
// with differing field sets (a spot bid/ask pair with no MDEntrySize)
// are still split correctly by start-tag recurrence.
func TestRepeatingGroupByStart_HandlesVariableFieldEntries(t *testing.T) {
	raw := "35=W\x0155=1\x01268=2\x01269=0\x01270=1.06625\x01269=1\x01270=1.0663\x0110=000\x01"
	msg := Decode([]byte(raw))

	groups := msg.RepeatingGroupByStart(constants.TagNoMDEntries, constants.TagMDEntryType)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if v, _ := groups[0].Field(constants.TagMDEntryPx); v != "1.06625" {
		t.Fatalf("expected first entry price 1.06625, got %q", v)
	}
	if v, _ := groups[1].Field(constants.TagMDEntryPx); v != "1.0663" {
		t.Fatalf("expected second entry price 1.0663, got %q", v)
	}
}
