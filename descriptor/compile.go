// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package descriptor

import (
	"github.com/13MaxG/avroproto"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Package is the proto package compiled descriptors are placed in.
const Package = "avroproto.generated"

// Compile resolves dp into a message descriptor usable with dynamicpb. The
// descriptor is placed alone in a proto2 file of its own; dp is not retained.
func Compile(dp *descriptorpb.DescriptorProto) (protoreflect.MessageDescriptor, error) {
	fdp := &descriptorpb.FileDescriptorProto{
		Name:        proto.String(dp.GetName() + ".proto"),
		Package:     proto.String(Package),
		Syntax:      proto.String("proto2"),
		MessageType: []*descriptorpb.DescriptorProto{proto.Clone(dp).(*descriptorpb.DescriptorProto)},
	}
	fd, err := protodesc.NewFile(fdp, new(protoregistry.Files))
	if err != nil {
		return nil, &avroproto.SchemaError{Type: dp.GetName(), Msg: err.Error()}
	}
	return fd.Messages().Get(0), nil
}

// BuildMessage builds the descriptor of t and compiles it.
func BuildMessage(t *avroproto.Type, opts ...Option) (protoreflect.MessageDescriptor, error) {
	dp, err := Build(t, opts...)
	if err != nil {
		return nil, err
	}
	return Compile(dp)
}

// HasChangeDataCapture reports whether md carries both CDC columns.
func HasChangeDataCapture(md protoreflect.MessageDescriptor) bool {
	fields := md.Fields()
	return fields.ByName(ChangeTypeColumn) != nil && fields.ByName(ChangeSequenceNumberColumn) != nil
}
