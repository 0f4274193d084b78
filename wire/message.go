// Package wire implements the FIX 4.4 byte-level codec: encoding a set of
// tag/value pairs into a framed message with a correct BodyLength and
// CheckSum, and decoding a raw message back into an ordered, indexed set
// of fields including repeating-group extraction.
//
// Messages on the wire are SOH (0x01) delimited TAG=VALUE pairs. This
// package never interprets field semantics beyond the header/trailer
// tags it has to compute; everything else is opaque strings to the
// caller.
package wire

import (
	"strconv"
	"strings"

	"github.com/tradeflow/fixvenue/constants"
)

// SOH is the FIX field delimiter.
const SOH = "\x01"

// Field is a single tag/value pair in wire order.
type Field struct {
	Tag   constants.Tag
	Value string
}

// Builder accumulates body fields (everything between BeginString/BodyLength
// and CheckSum) and encodes them into a complete framed message.
type Builder struct {
	msgType string
	fields  []Field
}

// NewBuilder starts a new message of the given MsgType (tag 35).
func NewBuilder(msgType string) *Builder {
	return &Builder{msgType: msgType}
}

// MsgType returns the message's tag 35 value, mostly useful for
// labeling outbound-message metrics before Encode is called.
func (b *Builder) MsgType() string { return b.msgType }

// Set appends a tag/value pair to the message body, in call order. Tags
// 8, 9, 35 and 10 are managed by Encode and must not be set directly.
func (b *Builder) Set(tag constants.Tag, value string) *Builder {
	b.fields = append(b.fields, Field{Tag: tag, Value: value})
	return b
}

// SetIfNotEmpty is Set, skipped when value is empty. Matches the
// optional-field pattern used throughout the request builders.
func (b *Builder) SetIfNotEmpty(tag constants.Tag, value string) *Builder {
	if value == "" {
		return b
	}
	return b.Set(tag, value)
}

// SetInt is Set for an integer field.
func (b *Builder) SetInt(tag constants.Tag, value int) *Builder {
	return b.Set(tag, strconv.Itoa(value))
}

// Encode renders the header, accumulated body and trailer into a
// complete framed FIX message, computing BodyLength and CheckSum.
func (b *Builder) Encode(senderCompID, targetCompID, senderSubID, targetSubID string, seqNum int, sendingTime string) []byte {
	var body strings.Builder
	writeField(&body, constants.TagMsgType, b.msgType)
	writeField(&body, constants.TagSenderCompID, senderCompID)
	writeField(&body, constants.TagTargetCompID, targetCompID)
	if targetSubID != "" {
		writeField(&body, constants.TagTargetSubID, targetSubID)
	}
	if senderSubID != "" {
		writeField(&body, constants.TagSenderSubID, senderSubID)
	}
	writeField(&body, constants.TagMsgSeqNum, strconv.Itoa(seqNum))
	writeField(&body, constants.TagSendingTime, sendingTime)
	for _, f := range b.fields {
		writeField(&body, f.Tag, f.Value)
	}

	bodyStr := body.String()
	var head strings.Builder
	writeField(&head, constants.TagBeginString, constants.FixBeginString)
	writeField(&head, constants.TagBodyLength, strconv.Itoa(len(bodyStr)))

	msg := head.String() + bodyStr
	sum := checksum(msg)

	var full strings.Builder
	full.WriteString(msg)
	writeField(&full, constants.TagCheckSum, fmt3(sum))
	return []byte(full.String())
}

func writeField(w *strings.Builder, tag constants.Tag, value string) {
	w.WriteString(strconv.Itoa(int(tag)))
	w.WriteByte('=')
	w.WriteString(value)
	w.WriteString(SOH)
}

func checksum(s string) int {
	sum := 0
	for i := 0; i < len(s); i++ {
		sum += int(s[i])
	}
	return sum % 256
}

func fmt3(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

// Verify recomputes CheckSum and BodyLength over a raw framed message and
// reports whether both match the values the message itself declares.
func Verify(raw []byte) bool {
	s := string(raw)
	bodyStart := strings.Index(s, SOH+strconv.Itoa(int(constants.TagBodyLength))+"=")
	if bodyStart < 0 {
		return false
	}
	bodyStart++ // past the leading SOH
	bodyFieldEnd := strings.Index(s[bodyStart:], SOH)
	if bodyFieldEnd < 0 {
		return false
	}
	bodyFieldEnd += bodyStart
	declaredLen, err := strconv.Atoi(s[bodyStart+len(strconv.Itoa(int(constants.TagBodyLength)))+1 : bodyFieldEnd])
	if err != nil {
		return false
	}

	checksumTag := SOH + strconv.Itoa(int(constants.TagCheckSum)) + "="
	csIdx := strings.LastIndex(s, checksumTag)
	if csIdx < 0 {
		return false
	}
	declaredSum, err := strconv.Atoi(strings.TrimSuffix(s[csIdx+len(checksumTag):], SOH))
	if err != nil {
		return false
	}

	bodyBegin := bodyFieldEnd + 1
	// BodyLength and CheckSum both cover the SOH that precedes "10=".
	trailerStart := csIdx + 1
	if bodyBegin+declaredLen > trailerStart {
		return false
	}
	if bodyBegin+declaredLen != trailerStart {
		return false
	}
	actualSum := checksum(s[:trailerStart])
	return actualSum == declaredSum
}
