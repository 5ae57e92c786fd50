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

package avroproto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Kind is the physical shape of a source value.
type Kind int

const (
	// BYTES is a variable length byte sequence
	BYTES Kind = iota
	// FIXED is a byte sequence of a declared length
	FIXED
	// INT32 is a signed 32-bit integer
	INT32
	// INT64 is a signed 64-bit integer
	INT64
	// FLOAT32 is a single precision IEEE 754 number, widened on the wire
	FLOAT32
	// FLOAT64 is a double precision IEEE 754 number
	FLOAT64
	// STRING is a unicode character sequence
	STRING
	// BOOL is a binary value
	BOOL
	// ENUM is one of a declared list of symbols
	ENUM
	// ARRAY is an ordered sequence of values of one type
	ARRAY
	// MAP associates string keys with values of one type
	MAP
	// RECORD is a nested named record type
	RECORD
)

var kindNames = [...]string{
	BYTES:   "bytes",
	FIXED:   "fixed",
	INT32:   "int32",
	INT64:   "int64",
	FLOAT32: "float32",
	FLOAT64: "float64",
	STRING:  "string",
	BOOL:    "bool",
	ENUM:    "enum",
	ARRAY:   "array",
	MAP:     "map",
	RECORD:  "record",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// LogicalType refines the meaning of a Kind.
type LogicalType int

const (
	None LogicalType = iota
	// Decimal annotates BYTES or FIXED holding a two's-complement big-endian
	// unscaled integer.
	Decimal
	// UUID annotates STRING.
	UUID
	// Date annotates INT32 days since the unix epoch.
	Date
	// TimeMillis annotates INT32 milliseconds after midnight.
	TimeMillis
	// TimeMicros annotates INT64 microseconds after midnight.
	TimeMicros
	// TimestampMillis annotates INT64 milliseconds since the epoch, UTC.
	TimestampMillis
	// TimestampMicros annotates INT64 microseconds since the epoch, UTC.
	TimestampMicros
	// LocalTimestampMillis annotates INT64 milliseconds since the epoch in an
	// unspecified local time zone.
	LocalTimestampMillis
	// LocalTimestampMicros is LocalTimestampMillis with microsecond precision.
	LocalTimestampMicros
)

var logicalNames = [...]string{
	None:                 "",
	Decimal:              "decimal",
	UUID:                 "uuid",
	Date:                 "date",
	TimeMillis:           "time-millis",
	TimeMicros:           "time-micros",
	TimestampMillis:      "timestamp-millis",
	TimestampMicros:      "timestamp-micros",
	LocalTimestampMillis: "local-timestamp-millis",
	LocalTimestampMicros: "local-timestamp-micros",
}

func (l LogicalType) String() string {
	if l < 0 || int(l) >= len(logicalNames) {
		return "LogicalType(" + strconv.Itoa(int(l)) + ")"
	}
	return logicalNames[l]
}

// LogicalTypeOf returns the LogicalType for an Avro logical type name.
func LogicalTypeOf(name string) (LogicalType, bool) {
	for i, n := range logicalNames {
		if i > 0 && n == name {
			return LogicalType(i), true
		}
	}
	return None, false
}

// IsTime reports whether l is a time of day.
func (l LogicalType) IsTime() bool { return l == TimeMillis || l == TimeMicros }

// IsTimestamp reports whether l is any of the timestamp variants.
func (l LogicalType) IsTimestamp() bool {
	switch l {
	case TimestampMillis, TimestampMicros, LocalTimestampMillis, LocalTimestampMicros:
		return true
	}
	return false
}

// IsLocal reports whether l is a time zone naive timestamp.
func (l LogicalType) IsLocal() bool {
	return l == LocalTimestampMillis || l == LocalTimestampMicros
}

// IsMillis reports whether l is declared with millisecond precision.
func (l LogicalType) IsMillis() bool {
	return l == TimeMillis || l == TimestampMillis || l == LocalTimestampMillis
}

// DataType describes the values a field may hold.
type DataType struct {
	Kind    Kind
	Logical LogicalType

	// Size is the byte length of FIXED.
	Size int
	// Precision and Scale parametrize Decimal.
	Precision int
	Scale     int
	// Symbols lists the values of ENUM.
	Symbols []string

	// Elem is the item type of ARRAY and the value type of MAP.
	Elem *DataType
	// ElemNullable reports whether Elem admits nulls.
	ElemNullable bool
	// Key is the key type of MAP.
	Key *DataType
	// Record is the nested type of RECORD.
	Record *Type
}

// PrimitiveOf returns a DataType of kind k without logical annotation.
func PrimitiveOf(k Kind) *DataType { return &DataType{Kind: k} }

// LogicalOf returns a DataType of kind k annotated with l.
func LogicalOf(k Kind, l LogicalType) *DataType { return &DataType{Kind: k, Logical: l} }

// FixedOf returns a FIXED DataType of the given size.
func FixedOf(size int) *DataType { return &DataType{Kind: FIXED, Size: size} }

// DecimalOf returns a BYTES DataType annotated as decimal(precision, scale).
func DecimalOf(precision, scale int) *DataType {
	return &DataType{Kind: BYTES, Logical: Decimal, Precision: precision, Scale: scale}
}

// EnumOf returns an ENUM DataType with the given symbols.
func EnumOf(symbols ...string) *DataType { return &DataType{Kind: ENUM, Symbols: symbols} }

// ArrayOf returns an ARRAY DataType of non-null elem items.
func ArrayOf(elem *DataType) *DataType { return &DataType{Kind: ARRAY, Elem: elem} }

// MapOf returns a MAP DataType with string keys and non-null values of type value.
func MapOf(value *DataType) *DataType {
	return &DataType{Kind: MAP, Key: PrimitiveOf(STRING), Elem: value}
}

// RecordOf returns a RECORD DataType nesting t.
func RecordOf(t *Type) *DataType { return &DataType{Kind: RECORD, Record: t} }

// Field is a named member of a record Type.
type Field struct {
	Name     string
	Type     *DataType
	Nullable bool
	Doc      string
}

// Type is a named record type whose field order is significant.
type Type struct {
	Name      string
	Namespace string
	Fields    []Field
}

// NewType returns a record type holding fields in the given order.
func NewType(name string, fields ...Field) *Type {
	return &Type{Name: name, Fields: fields}
}

// FullName returns the namespace qualified name of t.
func (t *Type) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// FieldByName returns the fields whose lowercased name equals
// strings.ToLower(name). A valid type never yields more than one.
func (t *Type) FieldByName(name string) []Field {
	var out []Field
	lower := strings.ToLower(name)
	for _, f := range t.Fields {
		if strings.ToLower(f.Name) == lower {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks that t and every nested type has a wire mapping.
func (t *Type) Validate() error {
	return t.validate(map[*Type]bool{})
}

func (t *Type) validate(visiting map[*Type]bool) error {
	if t.Name == "" {
		return NewSchemaError("", "", "record type without a name")
	}
	if visiting[t] {
		return NewSchemaError(t.FullName(), "", "recursive record types are not supported")
	}
	visiting[t] = true
	defer delete(visiting, t)

	seen := make(map[string]string, len(t.Fields))
	for _, f := range t.Fields {
		if f.Name == "" {
			return NewSchemaError(t.FullName(), "", "field without a name")
		}
		lower := strings.ToLower(f.Name)
		if prev, ok := seen[lower]; ok {
			return NewSchemaError(t.FullName(), f.Name, "name collides with %q once lowercased", prev)
		}
		seen[lower] = f.Name
		if err := validateDataType(t, f.Name, f.Type, visiting); err != nil {
			return err
		}
	}
	return nil
}

func validateDataType(t *Type, field string, dt *DataType, visiting map[*Type]bool) error {
	if dt == nil {
		return NewSchemaError(t.FullName(), field, "missing type")
	}
	switch dt.Logical {
	case None:
	case Decimal:
		if dt.Kind != BYTES && dt.Kind != FIXED {
			return NewSchemaError(t.FullName(), field, "decimal must annotate bytes or fixed, not %s", dt.Kind)
		}
		if dt.Precision <= 0 {
			return NewSchemaError(t.FullName(), field, "decimal precision must be positive, got %d", dt.Precision)
		}
		if dt.Scale < 0 || dt.Scale > dt.Precision {
			return NewSchemaError(t.FullName(), field, "decimal scale %d out of range [0, %d]", dt.Scale, dt.Precision)
		}
	case UUID:
		if dt.Kind != STRING && dt.Kind != FIXED {
			return NewSchemaError(t.FullName(), field, "uuid must annotate string or fixed, not %s", dt.Kind)
		}
	case Date, TimeMillis:
		if dt.Kind != INT32 {
			return NewSchemaError(t.FullName(), field, "%s must annotate int32, not %s", dt.Logical, dt.Kind)
		}
	case TimeMicros, TimestampMillis, TimestampMicros, LocalTimestampMillis, LocalTimestampMicros:
		if dt.Kind != INT64 {
			return NewSchemaError(t.FullName(), field, "%s must annotate int64, not %s", dt.Logical, dt.Kind)
		}
	default:
		return NewSchemaError(t.FullName(), field, "unsupported logical type %s", dt.Logical)
	}

	switch dt.Kind {
	case BYTES, INT32, INT64, FLOAT32, FLOAT64, STRING, BOOL:
	case FIXED:
		if dt.Size <= 0 {
			return NewSchemaError(t.FullName(), field, "fixed size must be positive, got %d", dt.Size)
		}
	case ENUM:
		if len(dt.Symbols) == 0 {
			return NewSchemaError(t.FullName(), field, "enum without symbols")
		}
	case ARRAY:
		if dt.Elem == nil {
			return NewSchemaError(t.FullName(), field, "array without item type")
		}
		if dt.Elem.Kind == ARRAY || dt.Elem.Kind == MAP {
			return NewSchemaError(t.FullName(), field, "array of %s has no wire mapping", dt.Elem.Kind)
		}
		return validateDataType(t, field, dt.Elem, visiting)
	case MAP:
		if dt.Elem == nil {
			return NewSchemaError(t.FullName(), field, "map without value type")
		}
		if dt.Key != nil && dt.Key.Kind != STRING {
			return NewSchemaError(t.FullName(), field, "map keys must be strings, got %s", dt.Key.Kind)
		}
		if dt.Elem.Kind == ARRAY || dt.Elem.Kind == MAP {
			return NewSchemaError(t.FullName(), field, "map of %s has no wire mapping", dt.Elem.Kind)
		}
		return validateDataType(t, field, dt.Elem, visiting)
	case RECORD:
		if dt.Record == nil {
			return NewSchemaError(t.FullName(), field, "record without type")
		}
		return dt.Record.validate(visiting)
	default:
		return NewSchemaError(t.FullName(), field, "unknown kind %s", dt.Kind)
	}
	return nil
}

// String renders t in a canonical, deterministic form.
func (t *Type) String() string {
	var b strings.Builder
	t.writeTo(&b)
	return b.String()
}

func (t *Type) writeTo(b *strings.Builder) {
	b.WriteString("record ")
	b.WriteString(t.FullName())
	b.WriteString(" {")
	for i, f := range t.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		f.Type.writeTo(b)
		if f.Nullable {
			b.WriteString("?")
		}
	}
	b.WriteString("}")
}

// String renders dt the way Type.String does.
func (dt *DataType) String() string {
	var b strings.Builder
	dt.writeTo(&b)
	return b.String()
}

func (dt *DataType) writeTo(b *strings.Builder) {
	if dt == nil {
		b.WriteString("<nil>")
		return
	}
	switch dt.Kind {
	case ARRAY:
		b.WriteString("array<")
		dt.Elem.writeTo(b)
		if dt.ElemNullable {
			b.WriteString("?")
		}
		b.WriteString(">")
		return
	case MAP:
		b.WriteString("map<")
		if dt.Key != nil {
			dt.Key.writeTo(b)
		} else {
			b.WriteString(STRING.String())
		}
		b.WriteString(", ")
		dt.Elem.writeTo(b)
		if dt.ElemNullable {
			b.WriteString("?")
		}
		b.WriteString(">")
		return
	case RECORD:
		if dt.Record == nil {
			b.WriteString("record <nil>")
			return
		}
		dt.Record.writeTo(b)
		return
	case ENUM:
		fmt.Fprintf(b, "enum(%s)", strings.Join(dt.Symbols, "|"))
		return
	case FIXED:
		fmt.Fprintf(b, "fixed(%d)", dt.Size)
	default:
		b.WriteString(dt.Kind.String())
	}
	switch dt.Logical {
	case None:
	case Decimal:
		fmt.Fprintf(b, "/decimal(%d,%d)", dt.Precision, dt.Scale)
	default:
		b.WriteString("/")
		b.WriteString(dt.Logical.String())
	}
}

// Fingerprint hashes the canonical form of t. Types with equal fingerprints
// map onto identical descriptors.
func (t *Type) Fingerprint() uint64 {
	return xxh3.HashString(t.String())
}
