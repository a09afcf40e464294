package booksummary

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

const FileName = "booksummary.proto"

// File describes rpc/proto/booksummary.proto. It is registered with the
// global registry so server reflection can serve the schema.
var File protoreflect.FileDescriptor

func init() {
	fd, err := protodesc.NewFile(fileDescriptorProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(err)
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(err)
	}
	File = fd
}

func fileDescriptorProto() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(FileName),
		Package: proto.String("booksummary"),
		Syntax:  proto.String("proto3"),
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/spooky-finn/go-cryptomarkets-aggregator/rpc/booksummary"),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			message("Empty"),
			message("Symbols",
				repeated(field("symbols", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING)),
			),
			message("SummaryRequest",
				field("symbol", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				field("levels", 2, descriptorpb.FieldDescriptorProto_TYPE_UINT32),
				field("min_price", 3, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
				field("max_price", 4, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
				field("decimals", 5, descriptorpb.FieldDescriptorProto_TYPE_UINT32),
			),
			message("Summary",
				field("spread", 1, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
				repeated(levelField("bids", 2)),
				repeated(levelField("asks", 3)),
			),
			message("Level",
				field("exchange", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				field("price", 2, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
				field("amount", 3, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
			),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("OrderbookAggregator"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("GetSymbols", "Empty", "Symbols", false),
				method("GetSummary", "SummaryRequest", "Summary", false),
				method("WatchSummary", "SummaryRequest", "Summary", true),
			},
		}},
	}
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func field(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		JsonName: proto.String(jsonName(name)),
		Number:   proto.Int32(num),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:     typ.Enum(),
	}
}

func levelField(name string, num int32) *descriptorpb.FieldDescriptorProto {
	f := field(name, num, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	f.TypeName = proto.String(".booksummary.Level")
	return f
}

func repeated(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

func method(name, in, out string, serverStreaming bool) *descriptorpb.MethodDescriptorProto {
	m := &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String(".booksummary." + in),
		OutputType: proto.String(".booksummary." + out),
	}
	if serverStreaming {
		m.ServerStreaming = proto.Bool(true)
	}
	return m
}

// jsonName is protoc's lowerCamelCase rendering of a field name.
func jsonName(name string) string {
	b := make([]byte, 0, len(name))
	upper := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' {
			upper = true
			continue
		}
		if upper && 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		b = append(b, c)
	}
	return string(b)
}
