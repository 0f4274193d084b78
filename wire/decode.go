package wire

import (
	"strconv"
	"strings"

	"github.com/tradeflow/fixvenue/constants"
	"github.com/tradeflow/fixvenue/venueerr"
)

// Message is a decoded FIX message: the ordered field list plus a
// first-occurrence index for O(1) scalar field lookup. Decode copies
// the raw bytes into the Message, so a Message stays valid after the
// caller's byte slice is reused.
type Message struct {
	raw    string
	fields []Field
	index  map[constants.Tag]int // tag -> first index into fields
}

// Decode splits a single complete framed message (SOH-delimited, no
// trailing bytes past the CheckSum field) into a Message. It does not
// validate CheckSum or BodyLength; callers that need that guarantee
// call Verify.
func Decode(raw []byte) *Message {
	s := string(raw)
	segments := strings.Split(strings.TrimSuffix(s, SOH), SOH)
	fields := make([]Field, 0, len(segments))
	index := make(map[constants.Tag]int, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		eq := strings.IndexByte(seg, '=')
		if eq < 0 {
			continue
		}
		tagNum, err := strconv.Atoi(seg[:eq])
		if err != nil {
			continue
		}
		tag := constants.Tag(tagNum)
		if _, seen := index[tag]; !seen {
			index[tag] = len(fields)
		}
		fields = append(fields, Field{Tag: tag, Value: seg[eq+1:]})
	}
	return &Message{raw: s, fields: fields, index: index}
}

// MsgType returns tag 35.
func (m *Message) MsgType() string {
	v, _ := m.Field(constants.TagMsgType)
	return v
}

// SeqNum returns tag 34 parsed as an int, or 0 if absent/unparsable.
func (m *Message) SeqNum() int {
	v, ok := m.Field(constants.TagMsgSeqNum)
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(v)
	return n
}

// Field returns the first occurrence of tag in the message.
func (m *Message) Field(tag constants.Tag) (string, bool) {
	i, ok := m.index[tag]
	if !ok {
		return "", false
	}
	return m.fields[i].Value, true
}

// MustField is Field but returns venueerr.ErrFieldNotFound instead of a
// bool, for callers that treat a missing required tag as a hard error.
func (m *Message) MustField(tag constants.Tag) (string, error) {
	v, ok := m.Field(tag)
	if !ok {
		return "", venueerr.ErrFieldNotFound
	}
	return v, nil
}

// FieldInt is Field parsed as an int.
func (m *Message) FieldInt(tag constants.Tag) (int, bool) {
	v, ok := m.Field(tag)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Raw returns the complete undecoded message string.
func (m *Message) Raw() string { return m.raw }

// Group is one repeating-group entry: the slice of fields between one
// occurrence of startTag (inclusive) and the one before the next
// occurrence of startTag (or the end of the group).
type Group struct {
	fields []Field
}

// Field returns the first occurrence of tag within this group entry.
func (g Group) Field(tag constants.Tag) (string, bool) {
	for _, f := range g.fields {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return "", false
}

// RepeatingGroup extracts a repeating group given its count tag, the tag
// that starts each entry, and the tag that ends each entry. Each entry
// spans from one occurrence of startTag through the next occurrence of
// endTag, inclusive; extraction stops once countTag's value worth of
// entries have been collected, or the fields run out, whichever first.
// This mirrors the (count, start, end) extraction the venue's repeating
// groups use throughout (NoMDEntries/MDEntryType.../MDEntrySize,
// NoRelatedSym/Symbol, NoPositions/..., and so on).
func (m *Message) RepeatingGroup(countTag, startTag, endTag constants.Tag) []Group {
	countIdx, ok := m.index[countTag]
	if !ok {
		return nil
	}
	count, _ := strconv.Atoi(m.fields[countIdx].Value)

	var groups []Group
	var cur []Field
	inEntry := false
	for i := countIdx + 1; i < len(m.fields) && len(groups) < count; i++ {
		f := m.fields[i]
		if f.Tag == startTag && !inEntry {
			cur = []Field{f}
			inEntry = true
			continue
		}
		if !inEntry {
			continue
		}
		cur = append(cur, f)
		if f.Tag == endTag {
			groups = append(groups, Group{fields: cur})
			cur = nil
			inEntry = false
		}
	}
	return groups
}

// RepeatingGroupByStart extracts a repeating group given only its count
// tag and start tag, closing an entry when startTag recurs rather than
// on a designated end tag. Used where an entry's field set is variable
// (e.g. a spot MDEntry carries no MDEntrySize while a depth MDEntry
// does), so there is no single tag guaranteed to end every entry.
func (m *Message) RepeatingGroupByStart(countTag, startTag constants.Tag) []Group {
	countIdx, ok := m.index[countTag]
	if !ok {
		return nil
	}
	count, _ := strconv.Atoi(m.fields[countIdx].Value)

	var groups []Group
	var cur []Field
	for i := countIdx + 1; i < len(m.fields); i++ {
		f := m.fields[i]
		if f.Tag == startTag {
			if cur != nil {
				groups = append(groups, Group{fields: cur})
				if len(groups) >= count {
					return groups
				}
			}
			cur = []Field{f}
			continue
		}
		if cur != nil {
			cur = append(cur, f)
		}
	}
	if cur != nil && len(groups) < count {
		groups = append(groups, Group{fields: cur})
	}
	return groups
}
