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
	"fmt"
	"math"
	"reflect"

	"github.com/13MaxG/avroproto"
	"github.com/13MaxG/avroproto/descriptor"
	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	mapKeyField   = "key"
	mapValueField = "value"
)

func mismatch(v any, want string) error {
	return fmt.Errorf("%w: cannot use %T as %s", ErrTypeMismatch, v, want)
}

// set converts v and stores it in the field fd of msg.
func (e *Encoder) set(msg *dynamicpb.Message, fd protoreflect.FieldDescriptor, dt *avroproto.DataType, v any) error {
	repeated := dt.Kind == avroproto.ARRAY || dt.Kind == avroproto.MAP
	if fd.IsList() != repeated {
		return fmt.Errorf("%w: descriptor field %s does not hold %s values", ErrTypeMismatch, fd.Name(), dt.Kind)
	}

	switch dt.Kind {
	case avroproto.ARRAY:
		items, ok := sliceOf(v)
		if !ok {
			return mismatch(v, "array")
		}
		list := msg.NewField(fd).List()
		for i, item := range items {
			elem := fmt.Sprintf("[%d]", i)
			if isNil(item) {
				return &avroproto.ConversionError{Path: []string{elem}, Err: ErrRequired}
			}
			val, err := e.value(fd, dt.Elem, item)
			if err != nil {
				return wrapPath(elem, item, err)
			}
			list.Append(val)
		}
		if list.Len() > 0 {
			msg.Set(fd, protoreflect.ValueOfList(list))
		}
		return nil

	case avroproto.MAP:
		entries, ok := mapOf(v)
		if !ok {
			return mismatch(v, "map")
		}
		list := msg.NewField(fd).List()
		keys := maps.Keys(entries)
		slices.Sort(keys)
		for _, k := range keys {
			entry, err := e.mapEntry(fd.Message(), dt, k, entries[k])
			if err != nil {
				return wrapPath(fmt.Sprintf("[%q]", k), entries[k], err)
			}
			list.Append(protoreflect.ValueOfMessage(entry))
		}
		if list.Len() > 0 {
			msg.Set(fd, protoreflect.ValueOfList(list))
		}
		return nil
	}

	val, err := e.value(fd, dt, v)
	if err != nil {
		return err
	}
	msg.Set(fd, val)
	return nil
}

func (e *Encoder) mapEntry(md protoreflect.MessageDescriptor, dt *avroproto.DataType, key string, v any) (*dynamicpb.Message, error) {
	if md == nil {
		return nil, fmt.Errorf("%w: map field is not a message", ErrTypeMismatch)
	}
	kfd := md.Fields().ByName(mapKeyField)
	vfd := md.Fields().ByName(mapValueField)
	if kfd == nil || vfd == nil || kfd.Kind() != protoreflect.StringKind {
		return nil, fmt.Errorf("%w: %s is not a map entry", ErrTypeMismatch, md.FullName())
	}

	entry := dynamicpb.NewMessage(md)
	entry.Set(kfd, protoreflect.ValueOfString(key))
	if isNil(v) {
		return entry, nil
	}
	val, err := e.value(vfd, dt.Elem, v)
	if err != nil {
		return nil, err
	}
	entry.Set(vfd, val)
	return entry, nil
}

// value converts a single, non-repeated value of type dt for the field fd.
func (e *Encoder) value(fd protoreflect.FieldDescriptor, dt *avroproto.DataType, v any) (protoreflect.Value, error) {
	wt, err := descriptor.WireType(dt)
	if err != nil {
		return protoreflect.Value{}, err
	}
	if protoreflect.Kind(wt) != fd.Kind() {
		return protoreflect.Value{}, fmt.Errorf("%w: descriptor field %s is %s, schema declares %s",
			ErrTypeMismatch, fd.Name(), fd.Kind(), dt)
	}

	switch dt.Logical {
	case avroproto.Decimal:
		b, err := decimalBytes(dt, v)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfBytes(b), nil
	case avroproto.UUID:
		s, err := uuidString(v)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfString(s), nil
	case avroproto.Date:
		d, err := dateDays(v)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfInt32(d), nil
	case avroproto.TimeMillis, avroproto.TimeMicros:
		t, err := packedTime(dt.Logical, v)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfInt64(t), nil
	case avroproto.TimestampMillis, avroproto.TimestampMicros,
		avroproto.LocalTimestampMillis, avroproto.LocalTimestampMicros:
		ts, err := epochMicros(dt.Logical, v)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfInt64(ts), nil
	}

	switch dt.Kind {
	case avroproto.BYTES, avroproto.FIXED:
		b, ok := bytesOf(v)
		if !ok {
			return protoreflect.Value{}, mismatch(v, dt.Kind.String())
		}
		if dt.Kind == avroproto.FIXED && len(b) != dt.Size {
			return protoreflect.Value{}, fmt.Errorf("%w: %d bytes for fixed(%d)", ErrOutOfRange, len(b), dt.Size)
		}
		return protoreflect.ValueOfBytes(b), nil
	case avroproto.INT32:
		n, err := toInt64(v)
		if err != nil {
			return protoreflect.Value{}, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return protoreflect.Value{}, fmt.Errorf("%w: %d does not fit int32", ErrOutOfRange, n)
		}
		return protoreflect.ValueOfInt32(int32(n)), nil
	case avroproto.INT64:
		n, err := toInt64(v)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfInt64(n), nil
	case avroproto.FLOAT32, avroproto.FLOAT64:
		f, err := toFloat64(v)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfFloat64(f), nil
	case avroproto.STRING:
		s, ok := v.(string)
		if !ok {
			return protoreflect.Value{}, mismatch(v, "string")
		}
		return protoreflect.ValueOfString(s), nil
	case avroproto.BOOL:
		b, ok := v.(bool)
		if !ok {
			return protoreflect.Value{}, mismatch(v, "bool")
		}
		return protoreflect.ValueOfBool(b), nil
	case avroproto.ENUM:
		var s string
		switch sym := v.(type) {
		case string:
			s = sym
		case fmt.Stringer:
			s = sym.String()
		default:
			return protoreflect.Value{}, mismatch(v, "enum")
		}
		if !slices.Contains(dt.Symbols, s) {
			return protoreflect.Value{}, fmt.Errorf("%w: %q is not one of %v", ErrOutOfRange, s, dt.Symbols)
		}
		return protoreflect.ValueOfString(s), nil
	case avroproto.RECORD:
		rec, ok := recordOf(dt.Record, v)
		if !ok {
			return protoreflect.Value{}, mismatch(v, "record")
		}
		msg, err := e.message(fd.Message(), rec)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfMessage(msg), nil
	}
	return protoreflect.Value{}, mismatch(v, dt.Kind.String())
}

func recordOf(t *avroproto.Type, v any) (Record, bool) {
	if isNil(v) {
		return nil, false
	}
	switch r := v.(type) {
	case Record:
		return r, true
	case map[string]any:
		return NewMapRecord(t, r), true
	}
	return nil, false
}

// isNil reports whether v is nil or a nil pointer, map, slice or other
// nillable value held in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func bytesOf(v any) ([]byte, bool) {
	if b, ok := v.([]byte); ok {
		return b, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Array || rv.Type().Elem().Kind() != reflect.Uint8 {
		return nil, false
	}
	b := make([]byte, rv.Len())
	reflect.Copy(reflect.ValueOf(b), rv)
	return b, true
}

func sliceOf(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func mapOf(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint:
		return uintToInt64(uint64(n))
	case uint64:
		return uintToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case interface{ Int64() (int64, error) }:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return i, nil
	}
	return 0, mismatch(v, "integer")
}

func uintToInt64(n uint64) (int64, error) {
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d does not fit int64", ErrOutOfRange, n)
	}
	return int64(n), nil
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v is not an int64", ErrOutOfRange, f)
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	switch f := v.(type) {
	case float32:
		return float64(f), nil
	case float64:
		return f, nil
	case interface{ Float64() (float64, error) }:
		x, err := f.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return x, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, mismatch(v, "floating point number")
	}
	return float64(n), nil
}

// uuidString accepts the 36 character hyphenated form only; the urn, braced
// and bare hex forms uuid.Parse would take are rejected.
func uuidString(v any) (string, error) {
	switch u := v.(type) {
	case string:
		if len(u) != 36 {
			return "", fmt.Errorf("%w: %q is not a hyphenated uuid", ErrTypeMismatch, u)
		}
		id, err := uuid.Parse(u)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return id.String(), nil
	case uuid.UUID:
		return u.String(), nil
	case [16]byte:
		return uuid.UUID(u).String(), nil
	case []byte:
		id, err := uuid.FromBytes(u)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return id.String(), nil
	case fmt.Stringer:
		return uuidString(u.String())
	}
	return "", mismatch(v, "uuid")
}
