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

// Package compress provides the stream and block codecs used for encoded
// message output.
package compress

import (
	"compress/flate"
	"io"
	"strings"

	"golang.org/x/xerrors"
)

// Compression names a codec.
type Compression int8

const (
	Uncompressed Compression = iota
	Snappy
	Gzip
	Brotli
	Lz4
	Zstd
)

var compressionNames = [...]string{
	Uncompressed: "UNCOMPRESSED",
	Snappy:       "SNAPPY",
	Gzip:         "GZIP",
	Brotli:       "BROTLI",
	Lz4:          "LZ4",
	Zstd:         "ZSTD",
}

func (c Compression) String() string {
	if c < 0 || int(c) >= len(compressionNames) {
		return "UNKNOWN"
	}
	return compressionNames[c]
}

// ParseCompression returns the Compression named s, case-insensitively.
// "none" and the empty string name Uncompressed.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToUpper(s) {
	case "", "NONE":
		return Uncompressed, nil
	}
	for i, n := range compressionNames {
		if strings.EqualFold(n, s) {
			return Compression(i), nil
		}
	}
	return Uncompressed, xerrors.Errorf("compress: unknown compression %q", s)
}

// DefaultCompressionLevel will use flate.DefaultCompression since many of
// the compression libraries use that to denote "use the default".
const DefaultCompressionLevel = flate.DefaultCompression

// Codec is implemented for each compression type.
type Codec interface {
	// NewReader wraps a stream of compressed data to stream the
	// uncompressed data.
	NewReader(io.Reader) (io.ReadCloser, error)
	// NewWriter wraps a stream to compress data before writing it. Close
	// must be called to flush the compressed stream.
	NewWriter(io.Writer) io.WriteCloser
	// NewWriterLevel is like NewWriter but allows specifying the
	// compression level.
	NewWriterLevel(io.Writer, int) (io.WriteCloser, error)
	// Encode compresses src as a single block, appending to dst[:0].
	Encode(dst, src []byte) ([]byte, error)
	// Decode uncompresses a block produced by Encode, appending to dst[:0].
	Decode(dst, src []byte) ([]byte, error)
	// CompressBound returns the maximum compressed size of len bytes.
	CompressBound(len int64) int64
}

var codecs = map[Compression]Codec{}

type nocodec struct{}

type writerNopCloser struct {
	io.Writer
}

func (writerNopCloser) Close() error {
	return nil
}

func (nocodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

func (nocodec) NewWriter(w io.Writer) io.WriteCloser {
	return writerNopCloser{w}
}

func (n nocodec) NewWriterLevel(w io.Writer, _ int) (io.WriteCloser, error) {
	return n.NewWriter(w), nil
}

func (nocodec) Encode(dst, src []byte) ([]byte, error) {
	return append(dst[:0], src...), nil
}

func (nocodec) Decode(dst, src []byte) ([]byte, error) {
	return append(dst[:0], src...), nil
}

func (nocodec) CompressBound(len int64) int64 { return len }

func init() {
	codecs[Uncompressed] = nocodec{}
}

// GetCodec returns the Codec of the requested Compression type.
func GetCodec(typ Compression) (Codec, error) {
	ret, ok := codecs[typ]
	if !ok {
		return nil, xerrors.Errorf("compression for %s unimplemented", typ)
	}
	return ret, nil
}
