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

// Package pipeline encodes a stream of records on a bounded number of
// goroutines while handing the results out in input order.
package pipeline

import (
	"context"
	"errors"
	"io"
	"runtime"

	"github.com/13MaxG/avroproto/encoder"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/dynamicpb"
)

// DefaultChunkSize is the number of records read ahead and encoded
// concurrently when WithChunk is not given.
const DefaultChunkSize = 256

// Source yields the next record, or io.EOF once the stream is exhausted.
type Source func() (encoder.Record, error)

// Iterator is the Next/Record/Err protocol of the record readers.
type Iterator[R encoder.Record] interface {
	Next() bool
	Record() R
	Err() error
}

// FromIterator adapts it into a Source.
func FromIterator[R encoder.Record](it Iterator[R]) Source {
	return func() (encoder.Record, error) {
		if it.Next() {
			return it.Record(), nil
		}
		if err := it.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
}

// FromRecords returns a Source over recs.
func FromRecords(recs ...encoder.Record) Source {
	i := 0
	return func() (encoder.Record, error) {
		if i >= len(recs) {
			return nil, io.EOF
		}
		i++
		return recs[i-1], nil
	}
}

// ChangeFunc returns the change data capture values of the record at index,
// or nil to encode it without them.
type ChangeFunc func(index int64, rec encoder.Record) *encoder.Change

type Option func(*config)

type config struct {
	workers int
	chunk   int
	change  ChangeFunc
}

// WithWorkers bounds the number of records encoded at once. The default is
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// WithChunk sets how many records are read ahead of the results handed out.
func WithChunk(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.chunk = n
		}
	}
}

// WithChangeFunc fills the change data capture columns of every record fn
// returns a change for.
func WithChangeFunc(fn ChangeFunc) Option {
	return func(cfg *config) {
		cfg.change = fn
	}
}

// Result is the outcome of encoding one record. Err holds the
// *avroproto.ConversionError of a record that failed; Message is nil then.
type Result struct {
	Index   int64
	Record  encoder.Record
	Message *dynamicpb.Message
	Err     error
}

// Stats counts the records handed out by Encode.
type Stats struct {
	Records int64
	Failed  int64
}

// ErrStopped is returned by Encode when fn returns it: it stops the
// pipeline without reporting an error.
var ErrStopped = errors.New("pipeline: stopped")

// Encode reads src to its end, encodes every record with enc and calls fn
// with the results in input order. Records failing to encode are handed to
// fn like any other; an error returned by fn, a source error or the end of
// ctx stops the pipeline and is returned.
func Encode(ctx context.Context, enc *encoder.Encoder, src Source, fn func(Result) error, opts ...Option) (Stats, error) {
	cfg := config{workers: runtime.GOMAXPROCS(0), chunk: DefaultChunkSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		stats Stats
		index int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		batch, done, err := readChunk(src, cfg.chunk)
		if err != nil {
			return stats, err
		}

		results, err := encodeChunk(ctx, enc, cfg, index, batch)
		if err != nil {
			return stats, err
		}
		for _, r := range results {
			stats.Records++
			if r.Err != nil {
				stats.Failed++
			}
			if err := fn(r); err != nil {
				if errors.Is(err, ErrStopped) {
					return stats, nil
				}
				return stats, err
			}
		}
		index += int64(len(batch))
		if done {
			return stats, nil
		}
	}
}

func readChunk(src Source, n int) ([]encoder.Record, bool, error) {
	batch := make([]encoder.Record, 0, n)
	for len(batch) < n {
		rec, err := src()
		if errors.Is(err, io.EOF) {
			return batch, true, nil
		}
		if err != nil {
			return nil, false, err
		}
		batch = append(batch, rec)
	}
	return batch, false, nil
}

func encodeChunk(ctx context.Context, enc *encoder.Encoder, cfg config, first int64, batch []encoder.Record) ([]Result, error) {
	results := make([]Result, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i, rec := range batch {
		i, rec := i, rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := Result{Index: first + int64(i), Record: rec}
			var change *encoder.Change
			if cfg.change != nil {
				change = cfg.change(r.Index, rec)
			}
			if change != nil {
				r.Message, r.Err = enc.EncodeChange(rec, change.Type, change.SequenceNumber)
			} else {
				r.Message, r.Err = enc.Encode(rec)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
