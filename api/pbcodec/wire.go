package pbcodec

import (
	"fmt"
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
)

// Encoder appends proto3 fields. Scalars holding their zero value are
// omitted, as the protobuf runtime does for non-optional proto3 fields.
type Encoder struct {
	b   []byte
	err error
}

// String appends a string field. Strings must be valid UTF-8.
func (e *Encoder) String(num protowire.Number, v string) {
	if v == "" || e.err != nil {
		return
	}
	if !utf8.ValidString(v) {
		e.err = fmt.Errorf("field %d: invalid UTF-8", num)
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

// Double appends a double field. Negative zero is kept.
func (e *Encoder) Double(num protowire.Number, v float64) {
	if v == 0 && !math.Signbit(v) {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.Fixed64Type)
	e.b = protowire.AppendFixed64(e.b, math.Float64bits(v))
}

// Bool appends a bool field.
func (e *Encoder) Bool(num protowire.Number, v bool) {
	if !v {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, protowire.EncodeBool(v))
}

// Int32 appends an int32 or enum field. Negative values are sign extended to
// ten bytes.
func (e *Encoder) Int32(num protowire.Number, v int32) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, uint64(int64(v)))
}

// Message appends an embedded message. The caller skips unset (nil) fields.
func (e *Encoder) Message(num protowire.Number, m Message) {
	if e.err != nil {
		return
	}
	body, err := m.MarshalProto()
	if err != nil {
		e.err = fmt.Errorf("field %d: %w", num, err)
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, body)
}

// Proto appends an embedded message produced by the protobuf runtime, such as
// a well-known type. A nil m is skipped.
func (e *Encoder) Proto(num protowire.Number, m proto.Message) {
	if e.err != nil || m == nil || !m.ProtoReflect().IsValid() {
		return
	}
	body, err := proto.Marshal(m)
	if err != nil {
		e.err = fmt.Errorf("field %d: %w", num, err)
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, body)
}

// Bytes returns the encoded message or the first error.
func (e *Encoder) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.b == nil {
		return []byte{}, nil
	}
	return e.b, nil
}

// Decoder walks the fields of one message. Typical use:
//
//	d := pbcodec.NewDecoder(b)
//	for d.Next() {
//		switch d.Field() {
//		case 1:
//			m.ID = d.ReadString()
//		default:
//			d.Skip()
//		}
//	}
//	return d.Err()
//
// A field whose wire type does not match the reader called is skipped and
// reads as the zero value, which is how the protobuf runtime treats it.
type Decoder struct {
	b   []byte
	num protowire.Number
	typ protowire.Type
	err error
}

// NewDecoder returns a Decoder over b.
func NewDecoder(b []byte) *Decoder { return &Decoder{b: b} }

// Next advances to the next field tag.
func (d *Decoder) Next() bool {
	if d.err != nil || len(d.b) == 0 {
		return false
	}
	num, typ, n := protowire.ConsumeTag(d.b)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return false
	}
	d.b = d.b[n:]
	d.num, d.typ = num, typ
	return true
}

// Field is the number of the current field.
func (d *Decoder) Field() protowire.Number { return d.num }

// Err reports the first malformed input.
func (d *Decoder) Err() error { return d.err }

// Skip discards the current field value.
func (d *Decoder) Skip() {
	n := protowire.ConsumeFieldValue(d.num, d.typ, d.b)
	if n < 0 {
		d.fail(n)
		return
	}
	d.b = d.b[n:]
}

// ReadString reads a string field.
func (d *Decoder) ReadString() string {
	v, ok := d.bytes()
	if !ok {
		return ""
	}
	if !utf8.Valid(v) {
		d.err = fmt.Errorf("field %d: invalid UTF-8", d.num)
		return ""
	}
	return string(v)
}

// ReadDouble reads a double field.
func (d *Decoder) ReadDouble() float64 {
	if d.typ != protowire.Fixed64Type {
		d.Skip()
		return 0
	}
	v, n := protowire.ConsumeFixed64(d.b)
	if n < 0 {
		d.fail(n)
		return 0
	}
	d.b = d.b[n:]
	return math.Float64frombits(v)
}

// ReadBool reads a bool field.
func (d *Decoder) ReadBool() bool {
	return protowire.DecodeBool(d.varint())
}

// ReadInt32 reads an int32 or enum field.
func (d *Decoder) ReadInt32() int32 {
	return int32(d.varint())
}

// ReadMessage merges an embedded message into m.
func (d *Decoder) ReadMessage(m Message) {
	v, ok := d.bytes()
	if !ok {
		return
	}
	if err := m.UnmarshalProto(v); err != nil {
		d.err = fmt.Errorf("field %d: %w", d.num, err)
	}
}

// ReadProto merges an embedded message into m using the protobuf runtime.
func (d *Decoder) ReadProto(m proto.Message) {
	v, ok := d.bytes()
	if !ok {
		return
	}
	if err := (proto.UnmarshalOptions{Merge: true}).Unmarshal(v, m); err != nil {
		d.err = fmt.Errorf("field %d: %w", d.num, err)
	}
}

func (d *Decoder) varint() uint64 {
	if d.typ != protowire.VarintType {
		d.Skip()
		return 0
	}
	v, n := protowire.ConsumeVarint(d.b)
	if n < 0 {
		d.fail(n)
		return 0
	}
	d.b = d.b[n:]
	return v
}

func (d *Decoder) bytes() ([]byte, bool) {
	if d.typ != protowire.BytesType {
		d.Skip()
		return nil, false
	}
	v, n := protowire.ConsumeBytes(d.b)
	if n < 0 {
		d.fail(n)
		return nil, false
	}
	d.b = d.b[n:]
	return v, true
}

func (d *Decoder) fail(n int) {
	d.err = fmt.Errorf("field %d: %w", d.num, protowire.ParseError(n))
}
