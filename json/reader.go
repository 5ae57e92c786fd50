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

// Package json reads newline delimited JSON objects as records of a known
// type.
//
// JSON has no bytes, date or time values, so strings stand in for them:
//
//   - bytes and fixed hold one character per byte, as in the Avro JSON encoding
//   - decimals hold the number in plain decimal notation, e.g. "4.20"
//   - dates are "2006-01-02", times of day "15:04:05.999999"
//   - timestamps are RFC 3339; local timestamps omit the offset
//
// Numbers are decoded as json.Number so that 64-bit integers keep their
// precision.
package json

import (
	"fmt"
	"io"

	"github.com/13MaxG/avroproto"
	"github.com/goccy/go-json"
)

type Option func(config)
type config interface{}

// WithDisallowUnknownFields fails objects holding names the record type does
// not declare.
func WithDisallowUnknownFields() Option {
	return func(cfg config) {
		switch cfg := cfg.(type) {
		case *Reader:
			cfg.strict = true
		default:
			panic(fmt.Errorf("avroproto/json: unknown config type %T", cfg))
		}
	}
}

// Reader decodes one record per JSON object.
type Reader struct {
	r   *json.Decoder
	typ *avroproto.Type

	cur    *Record
	err    error
	done   bool
	strict bool
	count  int64
}

// NewReader returns a reader of the JSON objects in r, each holding a
// record of type t.
func NewReader(r io.Reader, t *avroproto.Type, opts ...Option) *Reader {
	rr := &Reader{
		r:   json.NewDecoder(r),
		typ: t,
	}
	for _, o := range opts {
		o(rr)
	}
	rr.r.UseNumber()
	return rr
}

// Err returns the last encountered error.
func (r *Reader) Err() error { return r.err }

// Type returns the type of the records read.
func (r *Reader) Type() *avroproto.Type { return r.typ }

// Record returns the last read record. It is valid until the next call to
// Next.
func (r *Reader) Record() *Record { return r.cur }

// Count returns the number of records read so far.
func (r *Reader) Count() int64 { return r.count }

// Next returns true if it read a record, which is then available through
// Record, and false at the end of the input or on error.
func (r *Reader) Next() bool {
	r.cur = nil
	if r.err != nil || r.done {
		return false
	}

	var obj map[string]any
	if err := r.r.Decode(&obj); err != nil {
		r.done = true
		if err != io.EOF {
			r.err = fmt.Errorf("avroproto/json: record %d: %w", r.count, err)
		}
		return false
	}
	if r.strict {
		for k := range obj {
			if len(r.typ.FieldByName(k)) == 0 {
				r.done = true
				r.err = avroproto.NewConversionError(k, obj[k], "record %d: field is not declared by %s", r.count, r.typ.FullName())
				return false
			}
		}
	}

	r.cur = &Record{typ: r.typ, obj: obj}
	r.count++
	return true
}
