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

// Package encoder converts records into dynamic protobuf messages shaped by
// a descriptor built with package descriptor.
//
// Fields are visited in descriptor order. Each descriptor field is matched
// case-insensitively against the source field names of the record. Absent
// and null values, typed nil pointers, maps and slices included, leave
// optional and repeated fields unset; on a required field they fail the
// record with ErrRequired. Every other value is converted according to the
// source field type:
//
//   - dates become days since the epoch
//   - times of day become packed civil times
//   - timestamps become microseconds since the epoch
//   - decimals become big-endian two's-complement unscaled integers
//   - uuids become their canonical string form
//   - maps become repeated key/value entry messages in sorted key order
//
// An Encoder never returns a partially filled message: the first field that
// fails to convert fails the record with a *avroproto.ConversionError.
package encoder

import (
	"errors"
	"strconv"
	"strings"

	"github.com/13MaxG/avroproto"
	"github.com/13MaxG/avroproto/descriptor"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

var (
	ErrTypeMismatch        = errors.New("encoder: type mismatch")
	ErrOutOfRange          = errors.New("encoder: value out of range")
	ErrRequired            = errors.New("encoder: required field is null")
	ErrAmbiguousField      = errors.New("encoder: ambiguous field name")
	ErrUnknownField        = errors.New("encoder: unknown field")
	ErrNoChangeDataCapture = errors.New("encoder: descriptor has no change data capture columns")
)

// Option configures an Encoder.
type Option func(*Encoder)

// WithRejectUnknownFields makes the encoder fail records holding fields the
// descriptor does not declare instead of dropping them.
func WithRejectUnknownFields() Option {
	return func(e *Encoder) {
		e.rejectUnknown = true
	}
}

// Change carries the change data capture values of a record.
type Change struct {
	// Type is written verbatim, e.g. "UPSERT" or "DELETE".
	Type string
	// SequenceNumber is written as lowercase hexadecimal without padding.
	SequenceNumber int64
}

// Encoder converts records into messages of one descriptor. It holds no
// mutable state and is safe for concurrent use.
type Encoder struct {
	md            protoreflect.MessageDescriptor
	rejectUnknown bool
}

// NewEncoder returns an encoder producing messages of md.
func NewEncoder(md protoreflect.MessageDescriptor, opts ...Option) *Encoder {
	e := &Encoder{md: md}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Descriptor returns the descriptor of the messages e produces.
func (e *Encoder) Descriptor() protoreflect.MessageDescriptor { return e.md }

// Encode converts rec into a new message.
func (e *Encoder) Encode(rec Record) (*dynamicpb.Message, error) {
	return e.encode(rec, nil)
}

// EncodeChange converts rec and fills the change data capture columns with
// changeType and seq. The descriptor must have been built with
// descriptor.WithChangeDataCapture.
func (e *Encoder) EncodeChange(rec Record, changeType string, seq int64) (*dynamicpb.Message, error) {
	return e.encode(rec, &Change{Type: changeType, SequenceNumber: seq})
}

// EncodeRecord converts rec into a message of md. The change data capture
// columns are only set when change is not nil.
func EncodeRecord(md protoreflect.MessageDescriptor, rec Record, change *Change) (*dynamicpb.Message, error) {
	return NewEncoder(md).encode(rec, change)
}

func (e *Encoder) encode(rec Record, change *Change) (*dynamicpb.Message, error) {
	msg, err := e.message(e.md, rec)
	if err != nil {
		return nil, err
	}
	if change == nil {
		return msg, nil
	}

	fields := e.md.Fields()
	ct := fields.ByName(descriptor.ChangeTypeColumn)
	sn := fields.ByName(descriptor.ChangeSequenceNumberColumn)
	if ct == nil || sn == nil {
		return nil, &avroproto.ConversionError{Path: []string{descriptor.ChangeTypeColumn}, Value: change.Type, Err: ErrNoChangeDataCapture}
	}
	msg.Set(ct, protoreflect.ValueOfString(change.Type))
	msg.Set(sn, protoreflect.ValueOfString(strconv.FormatUint(uint64(change.SequenceNumber), 16)))
	return msg, nil
}

func (e *Encoder) message(md protoreflect.MessageDescriptor, rec Record) (*dynamicpb.Message, error) {
	if isNil(rec) {
		return nil, &avroproto.ConversionError{Path: []string{string(md.Name())}, Err: ErrRequired}
	}
	t := rec.Type()
	if t == nil {
		return nil, &avroproto.ConversionError{Path: []string{string(md.Name())}, Err: errors.New("record without type")}
	}
	if e.rejectUnknown {
		if err := checkUnknown(md, rec); err != nil {
			return nil, err
		}
	}

	msg := dynamicpb.NewMessage(md)
	fields := md.Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		name := string(fd.Name())
		if descriptor.IsChangeDataCaptureField(name) {
			continue
		}

		f, v, err := lookup(t, rec, name)
		if err != nil {
			return nil, err
		}
		if v == nil {
			if fd.Cardinality() == protoreflect.Required {
				return nil, &avroproto.ConversionError{Path: []string{name}, Err: ErrRequired}
			}
			continue
		}
		if err := e.set(msg, fd, f.Type, v); err != nil {
			return nil, wrapPath(name, v, err)
		}
	}
	return msg, nil
}

// lookup returns the schema field and value matching the descriptor field
// name. A nil value means the field is absent or null.
func lookup(t *avroproto.Type, rec Record, name string) (avroproto.Field, any, error) {
	matches := t.FieldByName(name)
	switch len(matches) {
	case 0:
		return avroproto.Field{}, nil, nil
	case 1:
	default:
		return avroproto.Field{}, nil, &avroproto.ConversionError{Path: []string{name}, Err: ErrAmbiguousField}
	}

	if kr, ok := rec.(KeyedRecord); ok {
		n := 0
		for _, k := range kr.Keys() {
			if strings.ToLower(k) == name {
				n++
			}
		}
		if n > 1 {
			return avroproto.Field{}, nil, &avroproto.ConversionError{Path: []string{name}, Err: ErrAmbiguousField}
		}
	}

	f := matches[0]
	v, ok := rec.Get(f.Name)
	if !ok || isNil(v) {
		return f, nil, nil
	}
	return f, v, nil
}

func checkUnknown(md protoreflect.MessageDescriptor, rec Record) error {
	fields := md.Fields()
	for _, f := range rec.Type().Fields {
		if fields.ByName(protoreflect.Name(strings.ToLower(f.Name))) == nil {
			return &avroproto.ConversionError{Path: []string{f.Name}, Err: ErrUnknownField}
		}
	}
	if kr, ok := rec.(KeyedRecord); ok {
		for _, k := range kr.Keys() {
			if fields.ByName(protoreflect.Name(strings.ToLower(k))) == nil {
				return &avroproto.ConversionError{Path: []string{k}, Err: ErrUnknownField}
			}
		}
	}
	return nil
}

// wrapPath prefixes err with a path element, wrapping plain errors into a
// *avroproto.ConversionError.
func wrapPath(elem string, v any, err error) error {
	var ce *avroproto.ConversionError
	if errors.As(err, &ce) {
		return avroproto.WithParent(elem, ce)
	}
	return &avroproto.ConversionError{Path: []string{elem}, Value: v, Err: err}
}
