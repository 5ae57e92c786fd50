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

package avro

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/13MaxG/avroproto"
	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
)

// Option configures an OCFReader.
type Option func(*OCFReader)

// WithContext stops decoding once ctx is done.
func WithContext(ctx context.Context) Option {
	return func(r *OCFReader) {
		r.readerCtx, r.readCancel = context.WithCancel(ctx)
	}
}

// WithBufferSize sets how many decoded datums may be queued ahead of Next.
func WithBufferSize(n int) Option {
	return func(r *OCFReader) {
		if n > 0 {
			r.bufSize = n
		}
	}
}

// OCFReader reads an Avro object container file and hands out its data
// items as *Record. Decoding runs in a goroutine of its own.
type OCFReader struct {
	r          *ocf.Decoder
	avroSchema string
	schema     avro.Schema
	typ        *avroproto.Type

	avroChan       chan any
	avroDatumCount int64
	bufSize        int

	readerCtx  context.Context
	readCancel context.CancelFunc

	cur *Record
	err error
	// decodeErr is written by the decoding goroutine before it closes
	// avroChan.
	decodeErr error
}

// NewOCFReader returns a reader of the OCF stream r. The writer schema of
// the file must be a record.
func NewOCFReader(r io.Reader, opts ...Option) (*OCFReader, error) {
	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("avro: could not create ocf decoder: %w", err)
	}

	rr := &OCFReader{r: dec, bufSize: 64}
	for _, opt := range opts {
		opt(rr)
	}
	if rr.readerCtx == nil {
		rr.readerCtx, rr.readCancel = context.WithCancel(context.Background())
	}

	rr.avroSchema = string(dec.Metadata()["avro.schema"])
	rr.schema, err = avro.Parse(rr.avroSchema)
	if err != nil {
		rr.readCancel()
		return nil, avroproto.NewSchemaError("", "", "could not parse ocf schema: %v", err)
	}
	rr.typ, err = SchemaFromAvro(rr.schema)
	if err != nil {
		rr.readCancel()
		return nil, err
	}

	rr.avroChan = make(chan any, rr.bufSize)
	go rr.decodeOCFToChan()
	return rr, nil
}

func (r *OCFReader) decodeOCFToChan() {
	defer close(r.avroChan)
	for r.r.HasNext() {
		if err := r.readerCtx.Err(); err != nil {
			r.decodeErr = fmt.Errorf("avro decoding cancelled, %d records read: %w", atomic.LoadInt64(&r.avroDatumCount), err)
			return
		}
		var datum any
		if err := r.r.Decode(&datum); err != nil {
			if !errors.Is(err, io.EOF) {
				r.decodeErr = err
			}
			return
		}
		select {
		case r.avroChan <- datum:
			atomic.AddInt64(&r.avroDatumCount, 1)
		case <-r.readerCtx.Done():
			r.decodeErr = fmt.Errorf("avro decoding cancelled, %d records read: %w", atomic.LoadInt64(&r.avroDatumCount), r.readerCtx.Err())
			return
		}
	}
	if err := r.r.Error(); err != nil && !errors.Is(err, io.EOF) {
		r.decodeErr = err
	}
}

// Next advances to the next record. It returns false at the end of the file
// or on error; check Err afterwards.
func (r *OCFReader) Next() bool {
	r.cur = nil
	if r.err != nil {
		return false
	}
	datum, ok := <-r.avroChan
	if !ok {
		r.err = r.decodeErr
		return false
	}
	r.cur, r.err = NewRecord(r.typ, datum)
	return r.err == nil
}

// Record returns the current record. It is valid until the next call to
// Next.
func (r *OCFReader) Record() *Record { return r.cur }

// Err returns the error that stopped the iteration, if any.
func (r *OCFReader) Err() error { return r.err }

// Type returns the record type converted from the writer schema.
func (r *OCFReader) Type() *avroproto.Type { return r.typ }

// AvroSchema returns the writer schema of the file in JSON form.
func (r *OCFReader) AvroSchema() string { return r.avroSchema }

// Count returns the number of data items decoded so far.
func (r *OCFReader) Count() int64 { return atomic.LoadInt64(&r.avroDatumCount) }

// Close stops the decoding goroutine. The underlying reader is not closed.
func (r *OCFReader) Close() {
	r.readCancel()
	for range r.avroChan {
	}
}
