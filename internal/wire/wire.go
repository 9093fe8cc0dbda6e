// Package wire holds the protobuf wire format helpers shared by the game
// packets and the canvas change sets. Messages are encoded by hand with
// protowire; zero values are omitted like proto3 does.
package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

var ErrUnexpectedType = errors.New("unexpected-wire-type")

func AppendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// AppendBytes always writes the field, so an empty payload stays present.
func AppendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func AppendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func AppendSint(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func AppendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func AppendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func AppendPacked(b []byte, num protowire.Number, vs []uint64) []byte {
	if len(vs) == 0 {
		return b
	}
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, v)
	}
	return AppendBytes(b, num, packed)
}

// Field is one decoded field. Only the member matching Type is set.
type Field struct {
	Num    protowire.Number
	Type   protowire.Type
	Varint uint64
	Fixed  uint64
	Bytes  []byte
}

func (f Field) String() string {
	return string(f.Bytes)
}

func (f Field) Bool() bool {
	return protowire.DecodeBool(f.Varint)
}

func (f Field) Sint() int64 {
	return protowire.DecodeZigZag(f.Varint)
}

func (f Field) Double() float64 {
	return math.Float64frombits(f.Fixed)
}

// Packed decodes a repeated varint field in either packed or unpacked form.
func (f Field) Packed() ([]uint64, error) {
	if f.Type == protowire.VarintType {
		return []uint64{f.Varint}, nil
	}
	if f.Type != protowire.BytesType {
		return nil, fmt.Errorf("%w: field %d", ErrUnexpectedType, f.Num)
	}
	var vs []uint64
	b := f.Bytes
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		vs = append(vs, v)
		b = b[n:]
	}
	return vs, nil
}

// Expect fails when the field was not encoded with the given wire type.
func (f Field) Expect(typ protowire.Type) error {
	if f.Type != typ {
		return fmt.Errorf("%w: field %d has type %d", ErrUnexpectedType, f.Num, f.Type)
	}
	return nil
}

// Range walks every field of b in order. Unknown wire types are skipped.
func Range(b []byte, fn func(f Field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			f.Varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.Fixed, n = protowire.ConsumeFixed64(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.Fixed = uint64(v)
		case protowire.BytesType:
			f.Bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// FirstField reports the number of the first field in b without decoding
// anything else.
func FirstField(b []byte) (protowire.Number, bool) {
	num, _, n := protowire.ConsumeTag(b)
	return num, n >= 0
}
