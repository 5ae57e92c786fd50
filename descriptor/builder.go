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

// Package descriptor builds proto2 message descriptors from record schemas.
//
// Field names are the lowercased source names, tag numbers follow the source
// field order starting at 1, and every nested record, array of records or map
// gets a nested descriptor of its own, even when the same source type appears
// more than once. Nested descriptors are given synthesized names; look them up
// through the field's type name rather than the source type name.
package descriptor

import (
	"fmt"
	"strings"

	"github.com/13MaxG/avroproto"
	"github.com/13MaxG/avroproto/internal/debug"
	"github.com/huandu/xstrings"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Option configures Build.
type Option func(*config)

type config struct {
	cdc bool
}

// WithChangeDataCapture appends the ChangeTypeColumn and
// ChangeSequenceNumberColumn fields after the schema fields.
func WithChangeDataCapture(enabled bool) Option {
	return func(c *config) {
		c.cdc = enabled
	}
}

// Build returns the descriptor of messages holding records of type t.
//
// Build is deterministic: equal types produce equal descriptors. It returns a
// *avroproto.SchemaError when a field has no wire mapping or when two field
// names collide once lowercased.
func Build(t *avroproto.Type, opts ...Option) (*descriptorpb.DescriptorProto, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	if t == nil {
		return nil, avroproto.NewSchemaError("", "", "nil record type")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	b := &builder{}
	dp, err := b.message(t, t.Name)
	if err != nil {
		return nil, err
	}

	if cfg.cdc {
		next := int32(len(dp.Field)) + 1
		for _, name := range []string{ChangeTypeColumn, ChangeSequenceNumberColumn} {
			dp.Field = append(dp.Field, &descriptorpb.FieldDescriptorProto{
				Name:   proto.String(name),
				Number: proto.Int32(next),
				Type:   descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
				Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			})
			next++
		}
	}

	debug.Assert(contiguous(dp), "descriptor: field numbers are not contiguous")
	return dp, nil
}

// builder numbers synthesized nested type names so that every occurrence of
// a nested type gets a distinct descriptor.
type builder struct {
	seq int
}

func (b *builder) message(t *avroproto.Type, name string) (*descriptorpb.DescriptorProto, error) {
	if !protoreflect.Name(name).IsValid() {
		return nil, avroproto.NewSchemaError(t.FullName(), "", "%q is not a valid message name", name)
	}

	dp := &descriptorpb.DescriptorProto{Name: proto.String(name)}
	for i, f := range t.Fields {
		fdp, err := b.field(dp, t, f, int32(i+1))
		if err != nil {
			return nil, err
		}
		dp.Field = append(dp.Field, fdp)
	}
	return dp, nil
}

func (b *builder) field(parent *descriptorpb.DescriptorProto, t *avroproto.Type, f avroproto.Field, number int32) (*descriptorpb.FieldDescriptorProto, error) {
	name := strings.ToLower(f.Name)
	if !protoreflect.Name(name).IsValid() {
		return nil, avroproto.NewSchemaError(t.FullName(), f.Name, "%q is not a valid field name", name)
	}
	wt, err := WireType(f.Type)
	if err != nil {
		return nil, annotate(err, t, f)
	}

	fdp := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Type:   wt.Enum(),
		Label:  LabelOf(f).Enum(),
	}

	var nested *descriptorpb.DescriptorProto
	switch dt := f.Type; {
	case dt.Kind == avroproto.RECORD:
		nested, err = b.message(dt.Record, b.nestedName(name))
	case dt.Kind == avroproto.ARRAY && dt.Elem.Kind == avroproto.RECORD:
		nested, err = b.message(dt.Elem.Record, b.nestedName(name))
	case dt.Kind == avroproto.MAP:
		nested, err = b.mapEntry(t, f)
	}
	if err != nil {
		return nil, err
	}
	if nested != nil {
		parent.NestedType = append(parent.NestedType, nested)
		fdp.TypeName = proto.String(nested.GetName())
	}
	return fdp, nil
}

// mapEntry builds the repeated key/value message standing in for a map.
func (b *builder) mapEntry(t *avroproto.Type, f avroproto.Field) (*descriptorpb.DescriptorProto, error) {
	key := f.Type.Key
	if key == nil {
		key = avroproto.PrimitiveOf(avroproto.STRING)
	}
	entryType := avroproto.NewType(f.Name+"Entry",
		avroproto.Field{Name: "key", Type: key},
		avroproto.Field{Name: "value", Type: f.Type.Elem, Nullable: true},
	)
	entry, err := b.message(entryType, b.nestedName(strings.ToLower(f.Name)+"_entry"))
	if err != nil {
		return nil, annotate(err, t, f)
	}
	return entry, nil
}

func (b *builder) nestedName(field string) string {
	b.seq++
	return fmt.Sprintf("Nested_%s_%d", xstrings.ToCamelCase(field), b.seq)
}

func annotate(err error, t *avroproto.Type, f avroproto.Field) error {
	if se, ok := err.(*avroproto.SchemaError); ok && se.Type == "" {
		se.Type, se.Field = t.FullName(), f.Name
	}
	return err
}

func contiguous(dp *descriptorpb.DescriptorProto) bool {
	for i, f := range dp.Field {
		if f.GetNumber() != int32(i+1) {
			return false
		}
	}
	return true
}
