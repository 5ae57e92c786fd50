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
	"math/big"
	"strconv"

	"github.com/13MaxG/avroproto"
	"github.com/13MaxG/avroproto/descriptor"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
	"github.com/apache/arrow/go/v17/arrow/decimal256"
)

// maxDecimal256Precision is the widest precision decimal256 can check.
const maxDecimal256Precision = 76

// decimalBytes encodes v as the unscaled value of a decimal(precision,
// scale) in big-endian, minimal two's-complement form. Raw bytes are taken
// as already encoded.
func decimalBytes(dt *avroproto.DataType, v any) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	unscaled, err := unscaledOf(dt.Scale, v)
	if err != nil {
		return nil, err
	}
	if err := checkPrecision(dt.Precision, unscaled); err != nil {
		return nil, err
	}
	return twosComplement(unscaled), nil
}

// unscaledOf returns v multiplied by 10^scale. Decimal numbers of the arrow
// decimal packages are taken as unscaled already.
func unscaledOf(scale int, v any) (*big.Int, error) {
	var r *big.Rat
	switch d := v.(type) {
	case decimal128.Num:
		return d.BigInt(), nil
	case decimal256.Num:
		return d.BigInt(), nil
	case *big.Int:
		if d == nil {
			return nil, mismatch(v, "decimal")
		}
		return new(big.Int).Set(d), nil
	case *big.Rat:
		if d == nil {
			return nil, mismatch(v, "decimal")
		}
		r = d
	case big.Rat:
		r = &d
	case string:
		var ok bool
		if r, ok = new(big.Rat).SetString(d); !ok {
			return nil, fmt.Errorf("%w: %q is not a decimal number", ErrTypeMismatch, d)
		}
	case float64:
		r, _ = new(big.Rat).SetString(strconv.FormatFloat(d, 'f', -1, 64))
		if r == nil {
			return nil, fmt.Errorf("%w: %v is not a finite number", ErrOutOfRange, d)
		}
	default:
		n, err := toInt64(v)
		if err != nil {
			return nil, mismatch(v, "decimal")
		}
		r = new(big.Rat).SetInt64(n)
	}

	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	scaled := new(big.Rat).Mul(r, new(big.Rat).SetInt(pow))
	if !scaled.IsInt() {
		return nil, fmt.Errorf("%w: %s has more than %d fractional digits", ErrOutOfRange, r.RatString(), scale)
	}
	return new(big.Int).Set(scaled.Num()), nil
}

// checkPrecision reports whether unscaled has at most precision digits.
func checkPrecision(precision int, unscaled *big.Int) error {
	var fits bool
	switch {
	case descriptor.NumericEncodingOf(precision) == descriptor.Numeric:
		fits = unscaled.BitLen() < 128 && decimal128.FromBigInt(unscaled).FitsInPrecision(int32(precision))
	case precision <= maxDecimal256Precision:
		fits = unscaled.BitLen() < 256 && decimal256.FromBigInt(unscaled).FitsInPrecision(int32(precision))
	default:
		fits = len(new(big.Int).Abs(unscaled).String()) <= precision
	}
	if !fits {
		return fmt.Errorf("%w: %s exceeds precision %d", ErrOutOfRange, unscaled, precision)
	}
	return nil
}

func twosComplement(v *big.Int) []byte {
	switch v.Sign() {
	case 0:
		return []byte{0}
	case 1:
		b := v.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	// ^v == -v-1 needs one extra bit for the sign.
	n := new(big.Int).Not(v).BitLen()/8 + 1
	x := new(big.Int).Add(v, new(big.Int).Lsh(big.NewInt(1), uint(n*8)))
	return x.FillBytes(make([]byte, n))
}
