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
	"google.golang.org/protobuf/types/descriptorpb"
)

// MaxNumericPrecision is the largest decimal precision carried with the
// NUMERIC encoding. Wider decimals use BIGNUMERIC.
const MaxNumericPrecision = 38

// NumericEncoding selects the fixed-point byte encoding of a decimal.
type NumericEncoding int

const (
	Numeric NumericEncoding = iota
	BigNumeric
)

func (n NumericEncoding) String() string {
	if n == BigNumeric {
		return "BIGNUMERIC"
	}
	return "NUMERIC"
}

// NumericEncodingOf returns the encoding used for a decimal of the given
// precision.
func NumericEncodingOf(precision int) NumericEncoding {
	if precision > MaxNumericPrecision {
		return BigNumeric
	}
	return Numeric
}

// WireType returns the protobuf field type carrying values of dt. Arrays
// carry the wire type of their items; maps and records are messages.
func WireType(dt *avroproto.DataType) (descriptorpb.FieldDescriptorProto_Type, error) {
	if dt == nil {
		return 0, avroproto.NewSchemaError("", "", "missing type")
	}
	switch dt.Logical {
	case avroproto.Decimal:
		return descriptorpb.FieldDescriptorProto_TYPE_BYTES, nil
	case avroproto.UUID:
		return descriptorpb.FieldDescriptorProto_TYPE_STRING, nil
	case avroproto.Date:
		return descriptorpb.FieldDescriptorProto_TYPE_INT32, nil
	case avroproto.TimeMillis, avroproto.TimeMicros,
		avroproto.TimestampMillis, avroproto.TimestampMicros,
		avroproto.LocalTimestampMillis, avroproto.LocalTimestampMicros:
		return descriptorpb.FieldDescriptorProto_TYPE_INT64, nil
	}

	switch dt.Kind {
	case avroproto.BYTES, avroproto.FIXED:
		return descriptorpb.FieldDescriptorProto_TYPE_BYTES, nil
	case avroproto.INT32:
		return descriptorpb.FieldDescriptorProto_TYPE_INT32, nil
	case avroproto.INT64:
		return descriptorpb.FieldDescriptorProto_TYPE_INT64, nil
	case avroproto.FLOAT32, avroproto.FLOAT64:
		return descriptorpb.FieldDescriptorProto_TYPE_DOUBLE, nil
	case avroproto.STRING, avroproto.ENUM:
		return descriptorpb.FieldDescriptorProto_TYPE_STRING, nil
	case avroproto.BOOL:
		return descriptorpb.FieldDescriptorProto_TYPE_BOOL, nil
	case avroproto.ARRAY:
		return WireType(dt.Elem)
	case avroproto.MAP, avroproto.RECORD:
		return descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, nil
	}
	return 0, avroproto.NewSchemaError("", "", "no wire type for %s", dt.Kind)
}

// LabelOf returns the label of a field: arrays and maps are repeated whatever
// their nullability, everything else is optional when nullable and required
// otherwise.
func LabelOf(f avroproto.Field) descriptorpb.FieldDescriptorProto_Label {
	switch {
	case f.Type != nil && (f.Type.Kind == avroproto.ARRAY || f.Type.Kind == avroproto.MAP):
		return descriptorpb.FieldDescriptorProto_LABEL_REPEATED
	case f.Nullable:
		return descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	default:
		return descriptorpb.FieldDescriptorProto_LABEL_REQUIRED
	}
}
