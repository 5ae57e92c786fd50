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

package encoder

import (
	"sort"
	"strings"

	"github.com/13MaxG/avroproto"
)

// Record gives read access to the values of one record by source field name.
type Record interface {
	// Type returns the schema of the record.
	Type() *avroproto.Type
	// Get returns the value of the named field. A missing field reports
	// false; a null field may report a nil value.
	Get(name string) (any, bool)
}

// KeyedRecord is a Record that can list the names it holds values for. The
// encoder uses the keys to reject names that collide once lowercased.
type KeyedRecord interface {
	Record
	Keys() []string
}

// MapRecord is a Record backed by a map of field names to values.
type MapRecord struct {
	typ    *avroproto.Type
	values map[string]any
}

// NewMapRecord returns a record of type t holding values. Nested records may
// be given as Record or map[string]any.
func NewMapRecord(t *avroproto.Type, values map[string]any) *MapRecord {
	return &MapRecord{typ: t, values: values}
}

func (r *MapRecord) Type() *avroproto.Type { return r.typ }

// Get looks name up verbatim and falls back to a case-insensitive match when
// exactly one key qualifies.
func (r *MapRecord) Get(name string) (any, bool) {
	if v, ok := r.values[name]; ok {
		return v, true
	}
	var (
		found any
		n     int
	)
	for k, v := range r.values {
		if strings.EqualFold(k, name) {
			found = v
			n++
		}
	}
	return found, n == 1
}

// Keys returns the field names of r in sorted order.
func (r *MapRecord) Keys() []string {
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ KeyedRecord = (*MapRecord)(nil)
