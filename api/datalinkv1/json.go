package datalinkv1

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/signalsfoundry/datalink-fusion/api/pbcodec"
)

// Message is a datalink.proto message with a descriptor in File.
type Message interface {
	pbcodec.Message
	messageName() protoreflect.Name
}

func (*DatalinkTrack) messageName() protoreflect.Name      { return "DatalinkTrack" }
func (*GetTrackRequest) messageName() protoreflect.Name    { return "GetTrackRequest" }
func (*GetTrackResponse) messageName() protoreflect.Name   { return "GetTrackResponse" }
func (*ListTracksRequest) messageName() protoreflect.Name  { return "ListTracksRequest" }
func (*ListTracksResponse) messageName() protoreflect.Name { return "ListTracksResponse" }
func (*SetManualIdentificationRequest) messageName() protoreflect.Name {
	return "SetManualIdentificationRequest"
}
func (*SetManualIdentificationResponse) messageName() protoreflect.Name {
	return "SetManualIdentificationResponse"
}
func (*ClearManualIdentificationRequest) messageName() protoreflect.Name {
	return "ClearManualIdentificationRequest"
}
func (*ClearManualIdentificationResponse) messageName() protoreflect.Name {
	return "ClearManualIdentificationResponse"
}

var jsonMarshal = protojson.MarshalOptions{EmitUnpopulated: true}

// ToJSON renders m in the canonical proto3 JSON mapping: lowerCamelCase
// names, enum value names and RFC 3339 timestamps.
func ToJSON(m Message) ([]byte, error) {
	dm, err := toDynamic(m)
	if err != nil {
		return nil, err
	}
	return jsonMarshal.Marshal(dm)
}

// FromJSON parses the proto3 JSON form of m. Unknown names are rejected.
func FromJSON(data []byte, m Message) error {
	dm := dynamicpb.NewMessage(MessageDescriptor(m.messageName()))
	if err := protojson.Unmarshal(data, dm); err != nil {
		return fmt.Errorf("datalinkv1: %s from json: %w", m.messageName(), err)
	}
	b, err := proto.Marshal(dm)
	if err != nil {
		return fmt.Errorf("datalinkv1: %s from json: %w", m.messageName(), err)
	}
	m.Reset()
	return m.UnmarshalProto(b)
}

func toDynamic(m Message) (*dynamicpb.Message, error) {
	b, err := m.MarshalProto()
	if err != nil {
		return nil, fmt.Errorf("datalinkv1: %s to json: %w", m.messageName(), err)
	}
	dm := dynamicpb.NewMessage(MessageDescriptor(m.messageName()))
	if err := proto.Unmarshal(b, dm); err != nil {
		return nil, fmt.Errorf("datalinkv1: %s to json: %w", m.messageName(), err)
	}
	return dm, nil
}
