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

// Package testdata holds the schemas and records shared by the package tests.
package testdata

import (
	"crypto/md5"
	"math/big"
	"time"

	"github.com/13MaxG/avroproto"
	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

// EnumSymbols are the symbols of the enumValue field of BaseType.
var EnumSymbols = []string{"ONE", "TWO", "RED", "BLUE"}

// Bytes is the payload of the bytes fields of BaseValues.
var Bytes = []byte("BYTE BYTE BYTE")

// MD5 is the fixed(16) payload of BaseValues.
var MD5 = md5.Sum(Bytes)

// ArrayValue is the arrayValue payload of BaseValues.
var ArrayValue = []string{"one", "two", "red", "blue"}

// UUID is the uuid payload of the logical type records.
var UUID = uuid.MustParse("8d8ac610-566d-4ef0-9c22-186b2a5ed793")

func BaseType() *avroproto.Type {
	return avroproto.NewType("TestRecord",
		avroproto.Field{Name: "bytesValue", Type: avroproto.PrimitiveOf(avroproto.BYTES), Nullable: true},
		avroproto.Field{Name: "byteBufferValue", Type: avroproto.PrimitiveOf(avroproto.BYTES), Nullable: true},
		avroproto.Field{Name: "intValue", Type: avroproto.PrimitiveOf(avroproto.INT32)},
		avroproto.Field{Name: "longValue", Type: avroproto.PrimitiveOf(avroproto.INT64), Nullable: true},
		avroproto.Field{Name: "floatValue", Type: avroproto.PrimitiveOf(avroproto.FLOAT32), Nullable: true},
		avroproto.Field{Name: "doubleValue", Type: avroproto.PrimitiveOf(avroproto.FLOAT64), Nullable: true},
		avroproto.Field{Name: "stringValue", Type: avroproto.PrimitiveOf(avroproto.STRING), Nullable: true},
		avroproto.Field{Name: "booleanValue", Type: avroproto.PrimitiveOf(avroproto.BOOL), Nullable: true},
		avroproto.Field{Name: "arrayValue", Type: avroproto.ArrayOf(avroproto.PrimitiveOf(avroproto.STRING))},
		avroproto.Field{Name: "enumValue", Type: avroproto.EnumOf(EnumSymbols...), Nullable: true},
		avroproto.Field{Name: "fixedValue", Type: avroproto.FixedOf(16)},
	)
}

func LogicalTypesType() *avroproto.Type {
	return avroproto.NewType("LogicalTypesRecord",
		avroproto.Field{Name: "numericValue", Type: avroproto.DecimalOf(2, 1)},
		avroproto.Field{Name: "bigNumericValue", Type: avroproto.DecimalOf(77, 38)},
		avroproto.Field{Name: "dateValue", Type: avroproto.LogicalOf(avroproto.INT32, avroproto.Date)},
		avroproto.Field{Name: "timeMicrosValue", Type: avroproto.LogicalOf(avroproto.INT64, avroproto.TimeMicros)},
		avroproto.Field{Name: "timeMillisValue", Type: avroproto.LogicalOf(avroproto.INT32, avroproto.TimeMillis)},
		avroproto.Field{Name: "timestampMicrosValue", Type: avroproto.LogicalOf(avroproto.INT64, avroproto.TimestampMicros)},
		avroproto.Field{Name: "timestampMillisValue", Type: avroproto.LogicalOf(avroproto.INT64, avroproto.TimestampMillis)},
		avroproto.Field{Name: "localTimestampMicrosValue", Type: avroproto.LogicalOf(avroproto.INT64, avroproto.LocalTimestampMicros)},
		avroproto.Field{Name: "localTimestampMillisValue", Type: avroproto.LogicalOf(avroproto.INT64, avroproto.LocalTimestampMillis)},
		avroproto.Field{Name: "uuidValue", Type: avroproto.LogicalOf(avroproto.STRING, avroproto.UUID)},
	)
}

func NestedType() *avroproto.Type {
	base := BaseType()
	return avroproto.NewType("TestNestedRecord",
		avroproto.Field{Name: "nested", Type: avroproto.RecordOf(base), Nullable: true},
		avroproto.Field{Name: "nestedArray", Type: avroproto.ArrayOf(avroproto.RecordOf(base))},
	)
}

func MapType() *avroproto.Type {
	return avroproto.NewType("TestMap",
		avroproto.Field{Name: "nested", Type: avroproto.RecordOf(BaseType()), Nullable: true},
		avroproto.Field{Name: "aMap", Type: avroproto.MapOf(avroproto.PrimitiveOf(avroproto.STRING))},
	)
}

func NullableArrayType() *avroproto.Type {
	return avroproto.NewType("TestNullableArray",
		avroproto.Field{Name: "aNullableArray", Type: avroproto.ArrayOf(avroproto.PrimitiveOf(avroproto.STRING)), Nullable: true},
	)
}

// BaseValues returns a record of BaseType.
func BaseValues() map[string]any {
	return map[string]any{
		"bytesValue":      Bytes,
		"byteBufferValue": Bytes,
		"intValue":        3,
		"longValue":       int64(4),
		"floatValue":      float32(3.14),
		"doubleValue":     2.68,
		"stringValue":     "I am a string. Hear me roar.",
		"booleanValue":    true,
		"arrayValue":      []any{"one", "two", "red", "blue"},
		"enumValue":       "TWO",
		"fixedValue":      MD5,
	}
}

// BaseExpected holds the message field values BaseValues encodes to, keyed
// by field name. Repeated fields are given as slices.
func BaseExpected() map[string]any {
	return map[string]any{
		"bytesvalue":      Bytes,
		"bytebuffervalue": Bytes,
		"intvalue":        int32(3),
		"longvalue":       int64(4),
		"floatvalue":      float64(float32(3.14)),
		"doublevalue":     2.68,
		"stringvalue":     "I am a string. Hear me roar.",
		"booleanvalue":    true,
		"arrayvalue":      []any{"one", "two", "red", "blue"},
		"enumvalue":       "TWO",
		"fixedvalue":      MD5[:],
	}
}

// NumericBytes is 4.2 as decimal(2, 1).
var NumericBytes = []byte{42}

// BigNumeric is 4.2 with a scale of 38.
func BigNumeric() *big.Rat { return big.NewRat(42, 10) }

// BigNumericBytes is BigNumeric as decimal(77, 38).
func BigNumericBytes() []byte {
	unscaled := new(big.Int).Mul(big.NewInt(42), new(big.Int).Exp(big.NewInt(10), big.NewInt(37), nil))
	return unscaled.Bytes()
}

// PackedTime is 00:00:42 in packed civil time form.
const PackedTime = int64(42) << 20

// RawLogicalValues returns a LogicalTypesType record whose logical values
// are given in their underlying representation.
func RawLogicalValues() map[string]any {
	return map[string]any{
		"numericValue":              NumericBytes,
		"bigNumericValue":           BigNumericBytes(),
		"dateValue":                 int32(42),
		"timeMicrosValue":           int64(42_000_000),
		"timeMillisValue":           int32(42_000),
		"timestampMicrosValue":      int64(42_000_000),
		"timestampMillisValue":      int64(42_000),
		"localTimestampMicrosValue": int64(42_000_000),
		"localTimestampMillisValue": int64(42_000),
		"uuidValue":                 UUID.String(),
	}
}

// CivilLogicalValues returns a LogicalTypesType record using civil types.
func CivilLogicalValues() map[string]any {
	return map[string]any{
		"numericValue":              big.NewRat(42, 10),
		"bigNumericValue":           BigNumeric(),
		"dateValue":                 civil.Date{Year: 1970, Month: time.January, Day: 1}.AddDays(42),
		"timeMicrosValue":           civil.Time{Second: 42},
		"timeMillisValue":           civil.Time{Second: 42},
		"timestampMicrosValue":      time.Unix(42, 0),
		"timestampMillisValue":      time.Unix(42, 0),
		"localTimestampMicrosValue": civil.DateTimeOf(time.Unix(42, 0).UTC()),
		"localTimestampMillisValue": civil.DateTimeOf(time.Unix(42, 0).UTC()),
		"uuidValue":                 UUID,
	}
}

// TimeLogicalValues returns a LogicalTypesType record using the standard
// library time types, the way a generic Avro decoder produces them.
func TimeLogicalValues() map[string]any {
	return map[string]any{
		"numericValue":              big.NewRat(42, 10),
		"bigNumericValue":           BigNumeric(),
		"dateValue":                 time.Unix(42*24*60*60, 0).UTC(),
		"timeMicrosValue":           42 * time.Second,
		"timeMillisValue":           42 * time.Second,
		"timestampMicrosValue":      time.Unix(42, 0).In(time.FixedZone("UTC+2", 2*60*60)),
		"timestampMillisValue":      time.Unix(42, 0).UTC(),
		"localTimestampMicrosValue": time.Date(1970, time.January, 1, 0, 0, 42, 0, time.UTC),
		"localTimestampMillisValue": time.Date(1970, time.January, 1, 0, 0, 42, 0, time.UTC),
		"uuidValue":                 [16]byte(UUID),
	}
}

// LogicalExpected holds the message field values of the logical type
// records, keyed by field name.
func LogicalExpected() map[string]any {
	return map[string]any{
		"numericvalue":              NumericBytes,
		"bignumericvalue":           BigNumericBytes(),
		"datevalue":                 int32(42),
		"timemicrosvalue":           PackedTime,
		"timemillisvalue":           PackedTime,
		"timestampmicrosvalue":      int64(42_000_000),
		"timestampmillisvalue":      int64(42_000_000),
		"localtimestampmicrosvalue": int64(42_000_000),
		"localtimestampmillisvalue": int64(42_000_000),
		"uuidvalue":                 UUID.String(),
	}
}
