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

package json

import (
	"sort"
	"time"

	"github.com/13MaxG/avroproto"
	"github.com/13MaxG/avroproto/encoder"
	"github.com/goccy/go-json"
	"github.com/golang-sql/civil"
)

// Record is one decoded JSON object. Get turns the JSON stand-ins for bytes,
// dates and times into the values the encoder accepts; strings that do not
// parse are handed out unchanged so that encoding reports them.
type Record struct {
	typ *avroproto.Type
	obj map[string]any
}

func (r *Record) Type() *avroproto.Type { return r.typ }

func (r *Record) Get(name string) (any, bool) {
	v, ok := r.obj[name]
	if !ok {
		return nil, false
	}
	matches := r.typ.FieldByName(name)
	if len(matches) != 1 {
		return v, true
	}
	return fromJSON(matches[0].Type, v), true
}

// Keys returns the names of the object in sorted order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.obj))
	for k := range r.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fromJSON(dt *avroproto.DataType, v any) any {
	if v == nil {
		return nil
	}

	switch dt.Kind {
	case avroproto.RECORD:
		if m, ok := v.(map[string]any); ok {
			return &Record{typ: dt.Record, obj: m}
		}
		return v
	case avroproto.ARRAY:
		items, ok := v.([]any)
		if !ok {
			return v
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = fromJSON(dt.Elem, item)
		}
		return out
	case avroproto.MAP:
		entries, ok := v.(map[string]any)
		if !ok {
			return v
		}
		out := make(map[string]any, len(entries))
		for k, item := range entries {
			out[k] = fromJSON(dt.Elem, item)
		}
		return out
	}

	if n, ok := v.(json.Number); ok && dt.Logical == avroproto.Decimal {
		return n.String()
	}
	s, ok := v.(string)
	if !ok {
		return v
	}

	switch dt.Logical {
	case avroproto.Decimal, avroproto.UUID:
		return s
	case avroproto.Date:
		if d, err := civil.ParseDate(s); err == nil {
			return d
		}
	case avroproto.TimeMillis, avroproto.TimeMicros:
		if t, err := civil.ParseTime(s); err == nil {
			return t
		}
	case avroproto.LocalTimestampMillis, avroproto.LocalTimestampMicros:
		if ldt, err := civil.ParseDateTime(s); err == nil {
			return ldt
		}
	case avroproto.TimestampMillis, avroproto.TimestampMicros:
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts
		}
	case avroproto.None:
		if dt.Kind == avroproto.BYTES || dt.Kind == avroproto.FIXED {
			if b, ok := latin1(s); ok {
				return b
			}
		}
	}
	return s
}

// latin1 maps each character of s onto one byte.
func latin1(s string) ([]byte, bool) {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			return nil, false
		}
		b = append(b, byte(r))
	}
	return b, true
}

var _ encoder.KeyedRecord = (*Record)(nil)
