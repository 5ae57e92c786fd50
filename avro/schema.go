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

// Package avro maps Avro schemas and generically decoded Avro data onto the
// avroproto schema model and the encoder.Record interface.
package avro

import (
	"github.com/13MaxG/avroproto"
	"github.com/hamba/avro/v2"
)

// ParseSchema parses an Avro schema in its JSON form. The schema must be a
// record.
func ParseSchema(schema string) (*avroproto.Type, error) {
	s, err := avro.Parse(schema)
	if err != nil {
		return nil, avroproto.NewSchemaError("", "", "could not parse avro schema: %v", err)
	}
	return SchemaFromAvro(s)
}

// SchemaFromAvro converts a parsed Avro record schema.
//
// Unions of null and one other type become nullable fields, named references
// are resolved, and logical types the wire format cannot carry (duration,
// any other union, recursive records) are reported as *avroproto.SchemaError.
func SchemaFromAvro(s avro.Schema) (*avroproto.Type, error) {
	s = deref(s)
	rs, ok := s.(*avro.RecordSchema)
	if !ok {
		return nil, avroproto.NewSchemaError("", "", "top level avro schema must be a record, got %s", s.Type())
	}
	c := converter{visiting: map[string]bool{}}
	return c.record(rs)
}

type converter struct {
	visiting map[string]bool
}

func deref(s avro.Schema) avro.Schema {
	if ref, ok := s.(*avro.RefSchema); ok {
		return ref.Schema()
	}
	return s
}

func (c *converter) record(rs *avro.RecordSchema) (*avroproto.Type, error) {
	if c.visiting[rs.FullName()] {
		return nil, avroproto.NewSchemaError(rs.FullName(), "", "recursive record types are not supported")
	}
	c.visiting[rs.FullName()] = true
	defer delete(c.visiting, rs.FullName())

	t := &avroproto.Type{Name: rs.Name(), Namespace: rs.Namespace()}
	for _, f := range rs.Fields() {
		dt, nullable, err := c.nullable(rs.FullName(), f.Name(), f.Type())
		if err != nil {
			return nil, err
		}
		t.Fields = append(t.Fields, avroproto.Field{
			Name:     f.Name(),
			Type:     dt,
			Nullable: nullable,
			Doc:      f.Doc(),
		})
	}
	return t, nil
}

// nullable unwraps a ["null", T] union.
func (c *converter) nullable(owner, field string, s avro.Schema) (*avroproto.DataType, bool, error) {
	u, ok := s.(*avro.UnionSchema)
	if !ok {
		dt, err := c.dataType(owner, field, s)
		return dt, false, err
	}

	types := u.Types()
	switch {
	case len(types) == 1:
		dt, err := c.dataType(owner, field, types[0])
		return dt, false, err
	case u.Nullable():
		for _, branch := range types {
			if branch.Type() != avro.Null {
				dt, err := c.dataType(owner, field, branch)
				return dt, true, err
			}
		}
	}
	return nil, false, avroproto.NewSchemaError(owner, field, "union %s has no wire mapping, only unions of null and one type are supported", u.String())
}

func (c *converter) dataType(owner, field string, s avro.Schema) (*avroproto.DataType, error) {
	s = deref(s)
	switch st := s.(type) {
	case *avro.RecordSchema:
		t, err := c.record(st)
		if err != nil {
			return nil, err
		}
		return avroproto.RecordOf(t), nil
	case *avro.EnumSchema:
		return avroproto.EnumOf(st.Symbols()...), nil
	case *avro.FixedSchema:
		return fixedType(owner, field, st)
	case *avro.ArraySchema:
		elem, nullable, err := c.nullable(owner, field, st.Items())
		if err != nil {
			return nil, err
		}
		dt := avroproto.ArrayOf(elem)
		dt.ElemNullable = nullable
		return dt, nil
	case *avro.MapSchema:
		elem, nullable, err := c.nullable(owner, field, st.Values())
		if err != nil {
			return nil, err
		}
		dt := avroproto.MapOf(elem)
		dt.ElemNullable = nullable
		return dt, nil
	case *avro.UnionSchema:
		return nil, avroproto.NewSchemaError(owner, field, "nested union %s has no wire mapping", st.String())
	case *avro.PrimitiveSchema:
		return primitiveType(owner, field, st)
	}
	return nil, avroproto.NewSchemaError(owner, field, "avro type %s has no wire mapping", s.Type())
}

var primitiveKinds = map[avro.Type]avroproto.Kind{
	avro.Bytes:   avroproto.BYTES,
	avro.Int:     avroproto.INT32,
	avro.Long:    avroproto.INT64,
	avro.Float:   avroproto.FLOAT32,
	avro.Double:  avroproto.FLOAT64,
	avro.String:  avroproto.STRING,
	avro.Boolean: avroproto.BOOL,
}

func primitiveType(owner, field string, ps *avro.PrimitiveSchema) (*avroproto.DataType, error) {
	kind, ok := primitiveKinds[ps.Type()]
	if !ok {
		return nil, avroproto.NewSchemaError(owner, field, "avro type %s has no wire mapping", ps.Type())
	}
	if ps.Logical() == nil {
		return avroproto.PrimitiveOf(kind), nil
	}
	return logicalType(owner, field, &avroproto.DataType{Kind: kind}, ps.Logical())
}

func fixedType(owner, field string, fs *avro.FixedSchema) (*avroproto.DataType, error) {
	dt := avroproto.FixedOf(fs.Size())
	if fs.Logical() == nil {
		return dt, nil
	}
	return logicalType(owner, field, dt, fs.Logical())
}

func logicalType(owner, field string, dt *avroproto.DataType, ls avro.LogicalSchema) (*avroproto.DataType, error) {
	lt, ok := avroproto.LogicalTypeOf(string(ls.Type()))
	if !ok {
		return nil, avroproto.NewSchemaError(owner, field, "logical type %s has no wire mapping", ls.Type())
	}
	dt.Logical = lt
	if dec, ok := ls.(*avro.DecimalLogicalSchema); ok {
		dt.Precision, dt.Scale = dec.Precision(), dec.Scale()
	}
	return dt, nil
}
