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

package descriptor_test

import (
	"fmt"
	"testing"

	"github.com/13MaxG/avroproto"
	"github.com/13MaxG/avroproto/descriptor"
	"github.com/13MaxG/avroproto/internal/testdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

type (
	fieldType  = descriptorpb.FieldDescriptorProto_Type
	fieldLabel = descriptorpb.FieldDescriptorProto_Label
)

const (
	typeBytes   = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	typeInt32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
	typeInt64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
	typeDouble  = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
	typeString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	typeBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	typeMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE

	optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	required = descriptorpb.FieldDescriptorProto_LABEL_REQUIRED
	repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
)

type wantField struct {
	name  string
	typ   fieldType
	label fieldLabel
}

func assertFields(t *testing.T, want []wantField, dp *descriptorpb.DescriptorProto) {
	t.Helper()
	require.Len(t, dp.GetField(), len(want))
	for i, w := range want {
		f := dp.GetField()[i]
		assert.Equal(t, w.name, f.GetName(), "field %d", i)
		assert.EqualValues(t, i+1, f.GetNumber(), w.name)
		assert.Equal(t, w.typ, f.GetType(), w.name)
		assert.Equal(t, w.label, f.GetLabel(), w.name)
	}
}

var baseFields = []wantField{
	{"bytesvalue", typeBytes, optional},
	{"bytebuffervalue", typeBytes, optional},
	{"intvalue", typeInt32, required},
	{"longvalue", typeInt64, optional},
	{"floatvalue", typeDouble, optional},
	{"doublevalue", typeDouble, optional},
	{"stringvalue", typeString, optional},
	{"booleanvalue", typeBool, optional},
	{"arrayvalue", typeString, repeated},
	{"enumvalue", typeString, optional},
	{"fixedvalue", typeBytes, required},
}

func nestedByTypeName(t *testing.T, parent *descriptorpb.DescriptorProto, field string) *descriptorpb.DescriptorProto {
	t.Helper()
	for _, f := range parent.GetField() {
		if f.GetName() != field {
			continue
		}
		for _, n := range parent.GetNestedType() {
			if n.GetName() == f.GetTypeName() {
				return n
			}
		}
	}
	t.Fatalf("no nested descriptor for field %q", field)
	return nil
}

func TestBuildBase(t *testing.T) {
	dp, err := descriptor.Build(testdata.BaseType())
	require.NoError(t, err)
	assert.Equal(t, "TestRecord", dp.GetName())
	assertFields(t, baseFields, dp)
	assert.Empty(t, dp.GetNestedType())
}

func TestBuildLogicalTypes(t *testing.T) {
	dp, err := descriptor.Build(testdata.LogicalTypesType())
	require.NoError(t, err)
	assertFields(t, []wantField{
		{"numericvalue", typeBytes, required},
		{"bignumericvalue", typeBytes, required},
		{"datevalue", typeInt32, required},
		{"timemicrosvalue", typeInt64, required},
		{"timemillisvalue", typeInt64, required},
		{"timestampmicrosvalue", typeInt64, required},
		{"timestampmillisvalue", typeInt64, required},
		{"localtimestampmicrosvalue", typeInt64, required},
		{"localtimestampmillisvalue", typeInt64, required},
		{"uuidvalue", typeString, required},
	}, dp)
}

func TestBuildFlatLabels(t *testing.T) {
	typ := avroproto.NewType("Flat",
		avroproto.Field{Name: "bytesValue", Type: avroproto.PrimitiveOf(avroproto.BYTES), Nullable: true},
		avroproto.Field{Name: "intValue", Type: avroproto.PrimitiveOf(avroproto.INT32), Nullable: true},
		avroproto.Field{Name: "arrayValue", Type: avroproto.ArrayOf(avroproto.PrimitiveOf(avroproto.STRING)), Nullable: true},
		avroproto.Field{Name: "enumValue", Type: avroproto.EnumOf(testdata.EnumSymbols...), Nullable: true},
		avroproto.Field{Name: "fixedValue", Type: avroproto.FixedOf(16)},
	)
	dp, err := descriptor.Build(typ)
	require.NoError(t, err)

	var labels []fieldLabel
	for _, f := range dp.GetField() {
		labels = append(labels, f.GetLabel())
	}
	assert.Equal(t, []fieldLabel{optional, optional, repeated, optional, required}, labels)
}

func TestBuildNestedMatchesStandalone(t *testing.T) {
	standalone, err := descriptor.Build(testdata.BaseType())
	require.NoError(t, err)

	dp, err := descriptor.Build(testdata.NestedType())
	require.NoError(t, err)
	assertFields(t, []wantField{
		{"nested", typeMessage, optional},
		{"nestedarray", typeMessage, repeated},
	}, dp)
	require.Len(t, dp.GetNestedType(), 2)

	seen := map[string]bool{}
	for _, field := range []string{"nested", "nestedarray"} {
		nested := proto.Clone(nestedByTypeName(t, dp, field)).(*descriptorpb.DescriptorProto)
		assert.False(t, seen[nested.GetName()], "nested names must be distinct")
		seen[nested.GetName()] = true

		nested.Name = standalone.Name
		assert.True(t, proto.Equal(standalone, nested), "nested descriptor of %s differs from standalone", field)
	}
}

func TestBuildDeterministic(t *testing.T) {
	for _, typ := range []*avroproto.Type{
		testdata.BaseType(),
		testdata.LogicalTypesType(),
		testdata.NestedType(),
		testdata.MapType(),
		testdata.NullableArrayType(),
	} {
		t.Run(typ.Name, func(t *testing.T) {
			a, err := descriptor.Build(typ, descriptor.WithChangeDataCapture(true))
			require.NoError(t, err)
			b, err := descriptor.Build(typ, descriptor.WithChangeDataCapture(true))
			require.NoError(t, err)
			assert.True(t, proto.Equal(a, b))
		})
	}
}

func TestBuildChangeDataCapture(t *testing.T) {
	dp, err := descriptor.Build(testdata.BaseType(), descriptor.WithChangeDataCapture(true))
	require.NoError(t, err)

	want := append(append([]wantField{}, baseFields...),
		wantField{descriptor.ChangeTypeColumn, typeString, optional},
		wantField{descriptor.ChangeSequenceNumberColumn, typeString, optional},
	)
	assertFields(t, want, dp)

	dp, err = descriptor.Build(testdata.BaseType(), descriptor.WithChangeDataCapture(false))
	require.NoError(t, err)
	assertFields(t, baseFields, dp)
}

func TestBuildMap(t *testing.T) {
	dp, err := descriptor.Build(testdata.MapType())
	require.NoError(t, err)
	assertFields(t, []wantField{
		{"nested", typeMessage, optional},
		{"amap", typeMessage, repeated},
	}, dp)

	entry := nestedByTypeName(t, dp, "amap")
	assertFields(t, []wantField{
		{"key", typeString, required},
		{"value", typeString, optional},
	}, entry)
	assert.Nil(t, entry.GetOptions(), "map entries are plain messages")
}

func TestBuildMapOfRecords(t *testing.T) {
	typ := avroproto.NewType("Outer",
		avroproto.Field{Name: "byName", Type: avroproto.MapOf(avroproto.RecordOf(testdata.BaseType()))},
	)
	dp, err := descriptor.Build(typ)
	require.NoError(t, err)

	entry := nestedByTypeName(t, dp, "byname")
	assertFields(t, []wantField{
		{"key", typeString, required},
		{"value", typeMessage, optional},
	}, entry)
	value := nestedByTypeName(t, entry, "value")
	assertFields(t, baseFields, value)
}

func TestBuildErrors(t *testing.T) {
	str := avroproto.PrimitiveOf(avroproto.STRING)
	tests := []struct {
		name string
		typ  *avroproto.Type
	}{
		{"nil", nil},
		{"collision", avroproto.NewType("T",
			avroproto.Field{Name: "Value", Type: str},
			avroproto.Field{Name: "value", Type: str},
		)},
		{"array of array", avroproto.NewType("T",
			avroproto.Field{Name: "a", Type: avroproto.ArrayOf(avroproto.ArrayOf(str))},
		)},
		{"bad decimal", avroproto.NewType("T",
			avroproto.Field{Name: "d", Type: avroproto.DecimalOf(2, 3)},
		)},
		{"invalid name", avroproto.NewType("T",
			avroproto.Field{Name: "not-a-name", Type: str},
		)},
		{"invalid type name", avroproto.NewType("1T",
			avroproto.Field{Name: "a", Type: str},
		)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := descriptor.Build(tt.typ)
			assert.ErrorIs(t, err, avroproto.ErrSchema)
			var se *avroproto.SchemaError
			assert.ErrorAs(t, err, &se)
		})
	}
}

func TestWireType(t *testing.T) {
	tests := []struct {
		dt   *avroproto.DataType
		want fieldType
	}{
		{avroproto.PrimitiveOf(avroproto.BYTES), typeBytes},
		{avroproto.FixedOf(4), typeBytes},
		{avroproto.PrimitiveOf(avroproto.INT32), typeInt32},
		{avroproto.LogicalOf(avroproto.INT32, avroproto.Date), typeInt32},
		{avroproto.LogicalOf(avroproto.INT32, avroproto.TimeMillis), typeInt64},
		{avroproto.LogicalOf(avroproto.INT64, avroproto.TimeMicros), typeInt64},
		{avroproto.LogicalOf(avroproto.INT64, avroproto.LocalTimestampMillis), typeInt64},
		{avroproto.PrimitiveOf(avroproto.FLOAT32), typeDouble},
		{avroproto.PrimitiveOf(avroproto.FLOAT64), typeDouble},
		{avroproto.EnumOf("A"), typeString},
		{avroproto.LogicalOf(avroproto.STRING, avroproto.UUID), typeString},
		{avroproto.DecimalOf(40, 2), typeBytes},
		{avroproto.PrimitiveOf(avroproto.BOOL), typeBool},
		{avroproto.ArrayOf(avroproto.PrimitiveOf(avroproto.INT64)), typeInt64},
		{avroproto.MapOf(avroproto.PrimitiveOf(avroproto.INT64)), typeMessage},
		{avroproto.RecordOf(testdata.BaseType()), typeMessage},
	}
	for _, tt := range tests {
		t.Run(tt.dt.String(), func(t *testing.T) {
			got, err := descriptor.WireType(tt.dt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumericEncodingOf(t *testing.T) {
	assert.Equal(t, descriptor.Numeric, descriptor.NumericEncodingOf(1))
	assert.Equal(t, descriptor.Numeric, descriptor.NumericEncodingOf(38))
	assert.Equal(t, descriptor.BigNumeric, descriptor.NumericEncodingOf(39))
	assert.Equal(t, "BIGNUMERIC", descriptor.NumericEncodingOf(77).String())
}

func TestCompile(t *testing.T) {
	md, err := descriptor.BuildMessage(testdata.NestedType(), descriptor.WithChangeDataCapture(true))
	require.NoError(t, err)

	assert.Equal(t, protoreflect.FullName(descriptor.Package+".TestNestedRecord"), md.FullName())
	assert.Equal(t, protoreflect.Proto2, md.Syntax())
	assert.Equal(t, 4, md.Fields().Len())
	assert.True(t, descriptor.HasChangeDataCapture(md))

	nested := md.Fields().ByName("nested")
	require.NotNil(t, nested)
	assert.Equal(t, protoreflect.MessageKind, nested.Kind())
	assert.Equal(t, 11, nested.Message().Fields().Len())

	arr := md.Fields().ByName("nestedarray")
	require.NotNil(t, arr)
	assert.True(t, arr.IsList())
	assert.NotEqual(t, nested.Message().FullName(), arr.Message().FullName())

	md, err = descriptor.BuildMessage(testdata.MapType())
	require.NoError(t, err)
	assert.False(t, descriptor.HasChangeDataCapture(md))
	amap := md.Fields().ByName("amap")
	require.NotNil(t, amap)
	assert.True(t, amap.IsList(), "maps are repeated entry messages")
	assert.False(t, amap.IsMap())
}

func TestCompileInvalid(t *testing.T) {
	dp := &descriptorpb.DescriptorProto{
		Name: proto.String("Broken"),
		Field: []*descriptorpb.FieldDescriptorProto{{
			Name:     proto.String("x"),
			Number:   proto.Int32(1),
			Type:     typeMessage.Enum(),
			Label:    optional.Enum(),
			TypeName: proto.String("Missing"),
		}},
	}
	_, err := descriptor.Compile(dp)
	assert.ErrorIs(t, err, avroproto.ErrSchema)
}

func TestCache(t *testing.T) {
	cache, err := descriptor.NewCache(0)
	require.NoError(t, err)

	a, err := cache.Get(testdata.BaseType())
	require.NoError(t, err)
	b, err := cache.Get(testdata.BaseType())
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, cache.Len())

	c, err := cache.Get(testdata.BaseType(), descriptor.WithChangeDataCapture(true))
	require.NoError(t, err)
	assert.Equal(t, 13, c.Fields().Len())
	assert.Equal(t, 2, cache.Len())

	_, err = cache.Get(avroproto.NewType("Bad"))
	assert.NoError(t, err, "a record without fields is valid")

	_, err = cache.Get(nil)
	assert.ErrorIs(t, err, avroproto.ErrSchema)
}

func TestCacheConcurrent(t *testing.T) {
	cache, err := descriptor.NewCache(4)
	require.NoError(t, err)

	const n = 16
	got := make([]protoreflect.MessageDescriptor, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			md, err := cache.Get(testdata.NestedType())
			if err != nil {
				return fmt.Errorf("get %d: %w", i, err)
			}
			got[i] = md
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for _, md := range got[1:] {
		assert.Same(t, got[0], md)
	}
}
