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

	"github.com/pierrec/lz4/v4"
	"golang.org/x/xerrors"
)

// lz4Codec uses the lz4 frame format for streams and blocks alike.
type lz4Codec struct{}

func (lz4Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

func (l lz4Codec) Encode(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst[:0])
	w := l.NewWriter(buf)
	if _, err := w.Write(src); err != nil {
		return nil, xerrors.Errorf("codec: lz4: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, xerrors.Errorf("codec: lz4: %w", err)
	}
	return buf.Bytes(), nil
}

func (lz4Codec) Decode(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst[:0])
	if _, err := buf.ReadFrom(lz4.NewReader(bytes.NewReader(src))); err != nil {
		return nil, xerrors.Errorf("codec: lz4: %w", err)
	}
	return buf.Bytes(), nil
}

func (lz4Codec) CompressBound(len int64) int64 {
	return int64(lz4.CompressBlockBound(int(len)))
}

func (lz4Codec) NewWriter(w io.Writer) io.WriteCloser {
	return lz4.NewWriter(w)
}

func (lz4Codec) NewWriterLevel(w io.Writer, level int) (io.WriteCloser, error) {
	out := lz4.NewWriter(w)
	if level == DefaultCompressionLevel {
		return out, out.Apply(lz4.CompressionLevelOption(lz4.Fast))
	}
	return out, out.Apply(lz4.CompressionLevelOption(lz4.CompressionLevel(1 << (8 + level))))
}

func init() {
	codecs[Lz4] = lz4Codec{}
}
