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
	"time"

	"github.com/13MaxG/avroproto"
	"github.com/13MaxG/avroproto/civiltime"
	"github.com/JohnCGriffin/overflow"
	"github.com/golang-sql/civil"
)

var epochDate = civil.Date{Year: 1970, Month: time.January, Day: 1}

// dateDays returns the days since the epoch of a date given as an integer
// day count, a time.Time or a civil.Date.
func dateDays(v any) (int32, error) {
	var days int64
	switch d := v.(type) {
	case time.Time:
		days = int64(civil.DateOf(d).DaysSince(epochDate))
	case civil.Date:
		if !d.IsValid() {
			return 0, fmt.Errorf("%w: invalid date %v", ErrOutOfRange, d)
		}
		days = int64(d.DaysSince(epochDate))
	default:
		n, err := toInt64(v)
		if err != nil {
			return 0, mismatch(v, "date")
		}
		days = n
	}
	if days < math.MinInt32 || days > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d days does not fit int32", ErrOutOfRange, days)
	}
	return int32(days), nil
}

// packedTime encodes a time of day given as an integer in the unit declared
// by l, a time.Duration since midnight, a civil.Time or the clock of a
// time.Time.
func packedTime(l avroproto.LogicalType, v any) (int64, error) {
	var (
		t   civil.Time
		err error
	)
	switch d := v.(type) {
	case civil.Time:
		t = d
	case time.Time:
		t = civil.TimeOf(d)
	case time.Duration:
		t, err = civiltime.TimeOfMicros(d.Microseconds())
	default:
		var n int64
		if n, err = toInt64(v); err != nil {
			return 0, mismatch(v, l.String())
		}
		if l.IsMillis() {
			var ok bool
			if n, ok = overflow.Mul64(n, 1000); !ok {
				return 0, fmt.Errorf("%w: %v milliseconds", ErrOutOfRange, v)
			}
		}
		t, err = civiltime.TimeOfMicros(n)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}
	packed, err := civiltime.EncodePacked64TimeMicros(t)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}
	return packed, nil
}

// epochMicros normalizes a timestamp to microseconds since the epoch. Raw
// integers are in the unit declared by l. A time.Time is an instant for
// zoned timestamps; for local timestamps its wall clock is read as UTC. A
// civil.DateTime is always read as UTC.
func epochMicros(l avroproto.LogicalType, v any) (int64, error) {
	switch ts := v.(type) {
	case time.Time:
		if l.IsLocal() {
			return civil.DateTimeOf(ts).In(time.UTC).UnixMicro(), nil
		}
		return ts.UnixMicro(), nil
	case civil.DateTime:
		if !ts.IsValid() {
			return 0, fmt.Errorf("%w: invalid date time %v", ErrOutOfRange, ts)
		}
		return ts.In(time.UTC).UnixMicro(), nil
	}

	n, err := toInt64(v)
	if err != nil {
		return 0, mismatch(v, l.String())
	}
	if !l.IsMillis() {
		return n, nil
	}
	micros, ok := overflow.Mul64(n, 1000)
	if !ok {
		return 0, fmt.Errorf("%w: %d milliseconds", ErrOutOfRange, n)
	}
	return micros, nil
}
