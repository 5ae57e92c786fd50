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

package compress

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	"golang.org/x/xerrors"
)

type brotliCodec struct{}

func (brotliCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(r)), nil
}

func (b brotliCodec) Encode(dst, src []byte) ([]byte, error) {
	maxlen := int(b.CompressBound(int64(len(src))))
	if dst == nil || cap(dst) < maxlen {
		dst = make([]byte, 0, maxlen)
	}
	buf := bytes.NewBuffer(dst[:0])
	w := brotli.NewWriterLevel(buf, brotli.DefaultCompression)
	if _, err := w.Write(src); err != nil {
		return nil, xerrors.Errorf("codec: brotli: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, xerrors.Errorf("codec: brotli: %w", err)
	}
	return buf.Bytes(), nil
}

func (brotliCodec) Decode(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst[:0])
	if _, err := buf.ReadFrom(brotli.NewReader(bytes.NewReader(src))); err != nil {
		return nil, xerrors.Errorf("codec: brotli: %w", err)
	}
	return buf.Bytes(), nil
}

// taken from brotli/enc/encode.c
func (brotliCodec) CompressBound(len int64) int64 {
	// [window bits / empty metadata] + N * [uncompressed] + [last empty]
	nlarge := len >> 14
	overhead := 2 + (4 * nlarge) + 3 + 1
	result := len + overhead
	if len == 0 {
		return 2
	}
	if result < len {
		return 0
	}
	return result
}

func (brotliCodec) NewWriter(w io.Writer) io.WriteCloser {
	return brotli.NewWriter(w)
}

func (brotliCodec) NewWriterLevel(w io.Writer, level int) (io.WriteCloser, error) {
	if level == DefaultCompressionLevel {
		level = brotli.DefaultCompression
	}
	return brotli.NewWriterLevel(w, level), nil
}

func init() {
	codecs[Brotli] = brotliCodec{}
}
