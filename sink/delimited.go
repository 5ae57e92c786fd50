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

// Package sink writes encoded messages out and keeps the records that
// failed to encode.
package sink

import (
	"bufio"
	"io"

	"github.com/13MaxG/avroproto/compress"
	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// DefaultMaxMessageSize bounds the messages a DelimitedReader accepts.
const DefaultMaxMessageSize = 64 << 20

// DelimitedWriter writes varint length-prefixed messages through a codec.
// It is not safe for concurrent use.
type DelimitedWriter struct {
	w     io.WriteCloser
	opts  proto.MarshalOptions
	count int64
}

// NewDelimitedWriter returns a writer compressing its output to w with
// codec. Close must be called to flush the compressed stream; it does not
// close w.
func NewDelimitedWriter(w io.Writer, codec compress.Codec) *DelimitedWriter {
	return &DelimitedWriter{
		w:    codec.NewWriter(w),
		opts: proto.MarshalOptions{Deterministic: true},
	}
}

// Write appends m to the stream.
func (w *DelimitedWriter) Write(m proto.Message) error {
	if _, err := protodelim.MarshalTo(w.w, m); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of messages written so far.
func (w *DelimitedWriter) Count() int64 { return w.count }

func (w *DelimitedWriter) Close() error { return w.w.Close() }

// DelimitedReader reads back the stream of a DelimitedWriter as dynamic
// messages of a single descriptor.
type DelimitedReader struct {
	rc   io.ReadCloser
	r    *bufio.Reader
	md   protoreflect.MessageDescriptor
	opts protodelim.UnmarshalOptions
}

// NewDelimitedReader returns a reader decompressing r with codec and
// decoding messages of md.
func NewDelimitedReader(r io.Reader, codec compress.Codec, md protoreflect.MessageDescriptor) (*DelimitedReader, error) {
	rc, err := codec.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &DelimitedReader{
		rc:   rc,
		r:    bufio.NewReader(rc),
		md:   md,
		opts: protodelim.UnmarshalOptions{MaxSize: DefaultMaxMessageSize},
	}, nil
}

// Next returns the next message, or io.EOF at the end of the stream.
func (r *DelimitedReader) Next() (*dynamicpb.Message, error) {
	m := dynamicpb.NewMessage(r.md)
	if err := r.opts.UnmarshalFrom(r.r, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *DelimitedReader) Close() error { return r.rc.Close() }
