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

package compress_test

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/13MaxG/avroproto/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	RandomDataSize       = 256 * 1024
	CompressibleDataSize = 1024 * 1024
)

var allCodecs = []compress.Compression{
	compress.Uncompressed,
	compress.Snappy,
	compress.Gzip,
	compress.Brotli,
	compress.Lz4,
	compress.Zstd,
}

func makeRandomData(size int) []byte {
	ret := make([]byte, size)
	r := rand.New(rand.NewSource(1234))
	r.Read(ret)
	return ret
}

func makeCompressibleData(size int) []byte {
	const base = "nested records become nested descriptors and every map becomes a repeated entry"

	data := make([]byte, size)
	n := copy(data, base)
	for i := n; i < len(data); i *= 2 {
		copy(data[i:], data[:i])
	}
	return data
}

func TestErrorForUnimplemented(t *testing.T) {
	_, err := compress.GetCodec(compress.Compression(42))
	assert.Error(t, err)
	assert.Equal(t, "UNKNOWN", compress.Compression(42).String())
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in   string
		want compress.Compression
	}{
		{"", compress.Uncompressed},
		{"none", compress.Uncompressed},
		{"uncompressed", compress.Uncompressed},
		{"snappy", compress.Snappy},
		{"GZIP", compress.Gzip},
		{"Brotli", compress.Brotli},
		{"lz4", compress.Lz4},
		{"zstd", compress.Zstd},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := compress.ParseCompression(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := compress.ParseCompression("lzo")
	assert.Error(t, err)
}

func TestCompressDataOneShot(t *testing.T) {
	for _, c := range allCodecs {
		t.Run(c.String(), func(t *testing.T) {
			codec, err := compress.GetCodec(c)
			require.NoError(t, err)
			data := makeCompressibleData(CompressibleDataSize)

			buf := make([]byte, 0, codec.CompressBound(int64(len(data))))
			compressed, err := codec.Encode(buf, data)
			require.NoError(t, err)
			if c != compress.Uncompressed {
				assert.Less(t, len(compressed), len(data))
			}

			uncompressed, err := codec.Decode(nil, compressed)
			require.NoError(t, err)
			assert.Exactly(t, data, uncompressed)
		})
	}
}

func TestDecodeCorrupt(t *testing.T) {
	for _, c := range []compress.Compression{compress.Snappy, compress.Gzip, compress.Zstd} {
		t.Run(c.String(), func(t *testing.T) {
			codec, err := compress.GetCodec(c)
			require.NoError(t, err)
			_, err = codec.Decode(nil, []byte("definitely not compressed"))
			assert.Error(t, err)
		})
	}
}

func TestCompressReaderWriter(t *testing.T) {
	for _, c := range allCodecs {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			codec, err := compress.GetCodec(c)
			require.NoError(t, err)
			data := makeRandomData(RandomDataSize)

			wr := codec.NewWriter(&buf)

			const chunkSize = 1111
			input := data
			for len(input) > 0 {
				var (
					n   int
					err error
				)
				if len(input) > chunkSize {
					n, err = wr.Write(input[:chunkSize])
				} else {
					n, err = wr.Write(input)
				}

				assert.NoError(t, err)
				input = input[n:]
			}
			require.NoError(t, wr.Close())

			rdr, err := codec.NewReader(&buf)
			require.NoError(t, err)
			defer rdr.Close()
			out, err := io.ReadAll(rdr)
			assert.NoError(t, err)
			assert.Exactly(t, data, out)
		})
	}
}

func TestWriterLevel(t *testing.T) {
	for _, c := range allCodecs {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			codec, err := compress.GetCodec(c)
			require.NoError(t, err)
			data := makeCompressibleData(64 * 1024)

			wr, err := codec.NewWriterLevel(&buf, compress.DefaultCompressionLevel)
			require.NoError(t, err)
			_, err = wr.Write(data)
			require.NoError(t, err)
			require.NoError(t, wr.Close())

			rdr, err := codec.NewReader(&buf)
			require.NoError(t, err)
			out, err := io.ReadAll(rdr)
			require.NoError(t, err)
			assert.Exactly(t, data, out)
		})
	}
}
