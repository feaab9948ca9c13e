package datalinkv1

import (
	"fmt"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// File describes datalink.proto. It is built from the same field numbers
// the hand-written encoders use, so dynamic messages over it decode their
// output.
var File = sync.OnceValue(func() protoreflect.FileDescriptor {
	fd, err := protodesc.NewFile(fileProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("datalinkv1: build descriptor: %v", err))
	}
	return fd
})

// MessageDescriptor returns the descriptor of the named message in
// datalink.proto, or nil.
func MessageDescriptor(name protoreflect.Name) protoreflect.MessageDescriptor {
	return File().Messages().ByName(name)
}

type fieldType = descriptorpb.FieldDescriptorProto_Type

func field(name string, num int32, typ fieldType, typeName string) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
	if typeName != "" {
		f.TypeName = proto.String(typeName)
	}
	return f
}

func repeated(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func enum(name string, values map[int32]string) *descriptorpb.EnumDescriptorProto {
	e := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	for n := int32(0); n < int32(len(values)); n++ {
		e.Value = append(e.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(values[n]),
			Number: proto.Int32(n),
		})
	}
	return e
}

func fileProto() *descriptorpb.FileDescriptorProto {
	const (
		tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
		tDouble  = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
		tEnum    = descriptorpb.FieldDescriptorProto_TYPE_ENUM
		tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE

		track     = ".datalink.DatalinkTrack"
		ident     = ".datalink.Identification"
		identSrc  = ".datalink.IdentificationSource"
		timestamp = ".google.protobuf.Timestamp"
	)
	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String("datalink.proto"),
		Package:    proto.String("datalink"),
		Syntax:     proto.String("proto3"),
		Dependency: []string{"google/protobuf/timestamp.proto"},
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/signalsfoundry/datalink-fusion/api/datalinkv1"),
		},
		EnumType: []*descriptorpb.EnumDescriptorProto{
			enum("Identification", Identification_name),
			enum("IdentificationSource", IdentificationSource_name),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			message("DatalinkTrack",
				field("track_id", 1, tString, ""),
				field("latitude", 2, tDouble, ""),
				field("longitude", 3, tDouble, ""),
				field("altitude_m", 4, tDouble, ""),
				field("speed", 5, tDouble, ""),
				field("heading", 6, tDouble, ""),
				field("platform", 7, tString, ""),
				field("callsign", 8, tString, ""),
				field("identification", 9, tEnum, ident),
				field("identification_source", 10, tEnum, identSrc),
				field("updated_at", 11, tMessage, timestamp),
				field("created_at", 12, tMessage, timestamp),
			),
			message("GetTrackRequest", field("track_id", 1, tString, "")),
			message("GetTrackResponse", field("track", 1, tMessage, track)),
			message("ListTracksRequest"),
			message("ListTracksResponse", repeated(field("tracks", 1, tMessage, track))),
			message("SetManualIdentificationRequest",
				field("track_id", 1, tString, ""),
				field("identification", 2, tEnum, ident),
			),
			message("SetManualIdentificationResponse", field("track", 1, tMessage, track)),
			message("ClearManualIdentificationRequest", field("track_id", 1, tString, "")),
			message("ClearManualIdentificationResponse", field("track", 1, tMessage, track)),
		},
	}
}
