// Package pbcodec carries the radar, IFF and datalink contracts in protobuf
// binary form. The message types in api/* encode themselves with protowire;
// this package registers a gRPC codec under the standard "proto" name that
// dispatches to them and falls back to the protobuf runtime for every other
// message, so generated clients in the same process keep working.
package pbcodec

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	_ "google.golang.org/grpc/encoding/proto" // registered first, replaced below
	"google.golang.org/protobuf/proto"
)

// Name is the content subtype; it matches the default gRPC codec so plain
// "application/grpc" peers interoperate.
const Name = "proto"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Message is implemented by the hand-encoded contract types.
//
// UnmarshalProto merges b into the receiver: scalars are overwritten, repeated
// fields appended. Callers wanting replace semantics call Reset first.
type Message interface {
	MarshalProto() ([]byte, error)
	UnmarshalProto(b []byte) error
	Reset()
}

// Codec implements encoding.Codec.
type Codec struct{}

// Marshal implements encoding.Codec.
func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case Message:
		b, err := m.MarshalProto()
		if err != nil {
			return nil, fmt.Errorf("pbcodec: marshal %T: %w", v, err)
		}
		return b, nil
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("pbcodec: cannot marshal %T", v)
	}
}

// Unmarshal implements encoding.Codec.
func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case Message:
		m.Reset()
		if err := m.UnmarshalProto(data); err != nil {
			return fmt.Errorf("pbcodec: unmarshal %T: %w", v, err)
		}
		return nil
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("pbcodec: cannot unmarshal into %T", v)
	}
}

// Name implements encoding.Codec.
func (Codec) Name() string { return Name }
