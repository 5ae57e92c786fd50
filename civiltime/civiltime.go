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

// Package civiltime implements the packed 64-bit encoding of a time of day
// used by TIME columns on the wire.
//
// The packed value holds, from the most significant used bit downwards:
//
//	| hour (5) | minute (6) | second (6) | microseconds (20) |
//
// Both millisecond and microsecond precision sources encode through the same
// function; millisecond values simply carry three trailing zero digits.
package civiltime

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-sql/civil"
)

const (
	microLength  = 20
	secondShift  = 0
	secondLength = 6
	minuteShift  = 6
	minuteLength = 6
	hourShift    = 12
	hourLength   = 5

	microMask  = 1<<microLength - 1
	secondMask = (1<<secondLength - 1) << secondShift
	minuteMask = (1<<minuteLength - 1) << minuteShift
	hourMask   = (1<<hourLength - 1) << hourShift

	// MicrosPerDay is the exclusive upper bound of a time of day in microseconds.
	MicrosPerDay = int64(24 * time.Hour / time.Microsecond)
)

// ErrInvalid is returned for values outside of a single day.
var ErrInvalid = errors.New("civiltime: invalid time of day")

// EncodePacked32TimeSeconds packs the hour, minute and second of t.
func EncodePacked32TimeSeconds(t civil.Time) (int32, error) {
	if !t.IsValid() {
		return 0, fmt.Errorf("%w: %v", ErrInvalid, t)
	}
	var v int32
	v |= int32(t.Hour) << hourShift
	v |= int32(t.Minute) << minuteShift
	v |= int32(t.Second) << secondShift
	return v, nil
}

// EncodePacked64TimeMicros packs t with microsecond precision. Nanoseconds
// below a microsecond are truncated.
func EncodePacked64TimeMicros(t civil.Time) (int64, error) {
	secs, err := EncodePacked32TimeSeconds(t)
	if err != nil {
		return 0, err
	}
	return int64(secs)<<microLength | int64(t.Nanosecond/1000), nil
}

// DecodePacked64TimeMicros is the inverse of EncodePacked64TimeMicros.
func DecodePacked64TimeMicros(v int64) (civil.Time, error) {
	if v < 0 || v>>(microLength+hourShift+hourLength) != 0 {
		return civil.Time{}, fmt.Errorf("%w: packed value %#x", ErrInvalid, v)
	}
	secs := v >> microLength
	t := civil.Time{
		Hour:       int((secs & hourMask) >> hourShift),
		Minute:     int((secs & minuteMask) >> minuteShift),
		Second:     int((secs & secondMask) >> secondShift),
		Nanosecond: int(v&microMask) * 1000,
	}
	if !t.IsValid() || v&microMask >= 1_000_000 {
		return civil.Time{}, fmt.Errorf("%w: packed value %#x", ErrInvalid, v)
	}
	return t, nil
}

// TimeOfMicros converts microseconds after midnight to a civil.Time.
func TimeOfMicros(micros int64) (civil.Time, error) {
	if micros < 0 || micros >= MicrosPerDay {
		return civil.Time{}, fmt.Errorf("%w: %d microseconds after midnight", ErrInvalid, micros)
	}
	d := time.Duration(micros) * time.Microsecond
	return civil.Time{
		Hour:       int(d / time.Hour),
		Minute:     int(d % time.Hour / time.Minute),
		Second:     int(d % time.Minute / time.Second),
		Nanosecond: int(d % time.Second),
	}, nil
}

// EncodeMicrosOfDay packs microseconds after midnight.
func EncodeMicrosOfDay(micros int64) (int64, error) {
	t, err := TimeOfMicros(micros)
	if err != nil {
		return 0, err
	}
	return EncodePacked64TimeMicros(t)
}
