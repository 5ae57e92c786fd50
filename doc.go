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

/*
Package avroproto maps self-describing record schemas and their records onto
protocol buffer messages.

A source schema is described by a Type: a named, ordered list of Fields whose
DataTypes carry a physical Kind and an optional LogicalType (date, time,
timestamp, decimal, uuid). The descriptor package builds a proto2 message
descriptor from a Type, and the encoder package converts records conforming to
that Type into dynamic messages for the descriptor.

Schemas

Types are usually obtained from an Avro schema through the avro package, but can
be built directly:

	t := avroproto.NewType("TestRecord",
		avroproto.Field{Name: "bytesValue", Type: avroproto.PrimitiveOf(avroproto.BYTES), Nullable: true},
		avroproto.Field{Name: "arrayValue", Type: avroproto.ArrayOf(avroproto.PrimitiveOf(avroproto.STRING))},
		avroproto.Field{Name: "fixedValue", Type: avroproto.FixedOf(16)},
	)

Types are immutable once built and may be shared between goroutines.

Errors

Problems found while mapping a schema are reported as *SchemaError and match
ErrSchema. Problems found while converting a record value are reported as
*ConversionError and match ErrConversion.
*/
package avroproto
