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

package avroproto_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/13MaxG/avroproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseType() *avroproto.Type {
	return avroproto.NewType("TestRecord",
		avroproto.Field{Name: "bytesValue", Type: avroproto.PrimitiveOf(avroproto.BYTES), Nullable: true},
		avroproto.Field{Name: "intValue", Type: avroproto.PrimitiveOf(avroproto.INT32)},
		avroproto.Field{Name: "arrayValue", Type: avroproto.ArrayOf(avroproto.PrimitiveOf(avroproto.STRING))},
		avroproto.Field{Name: "enumValue", Type: avroproto.EnumOf("ONE", "TWO"), Nullable: true},
		avroproto.Field{Name: "fixedValue", Type: avroproto.FixedOf(16)},
	)
}

func TestTypeString(t *testing.T) {
	typ := baseType()
	assert.Equal(t,
		"record TestRecord {bytesValue: bytes?, intValue: int32, arrayValue: array<string>, enumValue: enum(ONE|TWO)?, fixedValue: fixed(16)}",
		typ.String())

	nested := avroproto.NewType("Outer",
		avroproto.Field{Name: "n", Type: avroproto.RecordOf(typ), Nullable: true},
		avroproto.Field{Name: "m", Type: avroproto.MapOf(avroproto.DecimalOf(4, 2))},
		avroproto.Field{Name: "t", Type: avroproto.LogicalOf(avroproto.INT64, avroproto.TimestampMicros)},
	)
	assert.Equal(t,
		"record Outer {n: "+typ.String()+"?, m: map<string, bytes/decimal(4,2)>, t: int64/timestamp-micros}",
		nested.String())
}

func TestFingerprintDeterministic(t *testing.T) {
	assert.Equal(t, baseType().Fingerprint(), baseType().Fingerprint())

	other := baseType()
	other.Fields[1].Nullable = true
	assert.NotEqual(t, baseType().Fingerprint(), other.Fingerprint())
}

func TestFieldByName(t *testing.T) {
	typ := baseType()
	got := typ.FieldByName("INTVALUE")
	require.Len(t, got, 1)
	assert.Equal(t, "intValue", got[0].Name)
	assert.Empty(t, typ.FieldByName("missing"))
}

func TestValidate(t *testing.T) {
	require.NoError(t, baseType().Validate())

	tests := []struct {
		name  string
		field avroproto.Field
		msg   string
	}{
		{"collision", avroproto.Field{Name: "INTVALUE", Type: avroproto.PrimitiveOf(avroproto.INT64)}, "collides"},
		{"zero precision", avroproto.Field{Name: "d", Type: avroproto.DecimalOf(0, 0)}, "precision must be positive"},
		{"scale over precision", avroproto.Field{Name: "d", Type: avroproto.DecimalOf(2, 3)}, "scale 3 out of range"},
		{"fixed size", avroproto.Field{Name: "f", Type: avroproto.FixedOf(0)}, "fixed size"},
		{"empty enum", avroproto.Field{Name: "e", Type: avroproto.EnumOf()}, "enum without symbols"},
		{"nested array", avroproto.Field{Name: "a", Type: avroproto.ArrayOf(avroproto.ArrayOf(avroproto.PrimitiveOf(avroproto.INT32)))}, "no wire mapping"},
		{"map of map", avroproto.Field{Name: "m", Type: avroproto.MapOf(avroproto.MapOf(avroproto.PrimitiveOf(avroproto.INT32)))}, "no wire mapping"},
		{"date on long", avroproto.Field{Name: "d", Type: avroproto.LogicalOf(avroproto.INT64, avroproto.Date)}, "must annotate int32"},
		{"missing type", avroproto.Field{Name: "x"}, "missing type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := baseType()
			typ.Fields = append(typ.Fields, tt.field)
			err := typ.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, avroproto.ErrSchema)
			assert.Contains(t, err.Error(), tt.msg)

			var se *avroproto.SchemaError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "TestRecord", se.Type)
		})
	}
}

func TestValidateRecursive(t *testing.T) {
	node := avroproto.NewType("Node")
	node.Fields = append(node.Fields, avroproto.Field{Name: "next", Type: avroproto.RecordOf(node), Nullable: true})
	err := node.Validate()
	assert.ErrorIs(t, err, avroproto.ErrSchema)
	assert.Contains(t, err.Error(), "recursive")
}

func TestLogicalTypeOf(t *testing.T) {
	for _, l := range []avroproto.LogicalType{
		avroproto.Decimal, avroproto.UUID, avroproto.Date, avroproto.TimeMillis,
		avroproto.TimeMicros, avroproto.TimestampMillis, avroproto.TimestampMicros,
		avroproto.LocalTimestampMillis, avroproto.LocalTimestampMicros,
	} {
		got, ok := avroproto.LogicalTypeOf(l.String())
		assert.True(t, ok, l.String())
		assert.Equal(t, l, got)
	}
	_, ok := avroproto.LogicalTypeOf("duration")
	assert.False(t, ok)
	_, ok = avroproto.LogicalTypeOf("")
	assert.False(t, ok)
}

func TestConversionErrorPath(t *testing.T) {
	err := error(avroproto.NewConversionError("intvalue", "x", "expected integer, got %T", "x"))
	err = avroproto.WithParent("[1]", err)
	err = avroproto.WithParent("nestedarray", err)

	var ce *avroproto.ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "nestedarray[1].intvalue", ce.FieldPath())
	assert.ErrorIs(t, err, avroproto.ErrConversion)
	assert.Contains(t, err.Error(), "expected integer, got string")

	plain := fmt.Errorf("boom")
	assert.Same(t, plain, avroproto.WithParent("x", plain))
}
