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

package avro

import (
	"fmt"
	"sort"

	"github.com/13MaxG/avroproto"
	"github.com/13MaxG/avroproto/encoder"
)

// Record adapts a record decoded generically from Avro, i.e. into a
// map[string]any, to encoder.Record.
//
// Values of union fields may come wrapped in a single entry map keyed by the
// branch name; Get unwraps them. Nested records, in arrays and maps too, are
// handed out as *Record.
type Record struct {
	typ   *avroproto.Type
	datum map[string]any
}

// NewRecord wraps datum, which must be a map[string]any, as a record of t.
func NewRecord(t *avroproto.Type, datum any) (*Record, error) {
	m, ok := datum.(map[string]any)
	if !ok {
		return nil, &avroproto.ConversionError{
			Path:  []string{t.FullName()},
			Value: datum,
			Err:   fmt.Errorf("%w: avro record datum is %T", encoder.ErrTypeMismatch, datum),
		}
	}
	return &Record{typ: t, datum: m}, nil
}

func (r *Record) Type() *avroproto.Type { return r.typ }

func (r *Record) Get(name string) (any, bool) {
	v, ok := r.datum[name]
	if !ok {
		return nil, false
	}
	matches := r.typ.FieldByName(name)
	if len(matches) != 1 {
		return v, true
	}
	f := matches[0]
	return normalize(f.Type, f.Nullable, v), true
}

// Keys returns the field names present in the datum in sorted order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.datum))
	for k := range r.datum {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalize(dt *avroproto.DataType, nullable bool, v any) any {
	if v == nil {
		return nil
	}
	if nullable {
		v = unwrapUnion(dt, v)
	}

	switch dt.Kind {
	case avroproto.RECORD:
		if m, ok := v.(map[string]any); ok {
			return &Record{typ: dt.Record, datum: m}
		}
	case avroproto.ARRAY:
		items, ok := v.([]any)
		if !ok || !needsNormalizing(dt) {
			return v
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = normalize(dt.Elem, dt.ElemNullable, item)
		}
		return out
	case avroproto.MAP:
		entries, ok := v.(map[string]any)
		if !ok || !needsNormalizing(dt) {
			return v
		}
		out := make(map[string]any, len(entries))
		for k, item := range entries {
			out[k] = normalize(dt.Elem, dt.ElemNullable, item)
		}
		return out
	}
	return v
}

func needsNormalizing(dt *avroproto.DataType) bool {
	return dt.ElemNullable || dt.Elem.Kind == avroproto.RECORD
}

// unwrapUnion returns the value of a {"branch": value} union map. Maps and
// records only unwrap when keyed by their own branch name.
func unwrapUnion(dt *avroproto.DataType, v any) any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return v
	}
	for branch, inner := range m {
		switch dt.Kind {
		case avroproto.MAP:
			if branch != "map" {
				return v
			}
		case avroproto.RECORD:
			if branch != dt.Record.FullName() && branch != dt.Record.Name {
				return v
			}
		}
		return inner
	}
	return v
}

var _ encoder.KeyedRecord = (*Record)(nil)
