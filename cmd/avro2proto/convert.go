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

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/13MaxG/avroproto"
	"github.com/13MaxG/avroproto/avro"
	"github.com/13MaxG/avroproto/descriptor"
	"github.com/13MaxG/avroproto/encoder"
	jsonrec "github.com/13MaxG/avroproto/json"
	"github.com/13MaxG/avroproto/pipeline"
	"github.com/13MaxG/avroproto/sink"
)

// convert encodes every record of an Avro container file or a JSON lines
// file into a delimited protobuf file.
func convert(cfg config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	workers, err := workersOf(cfg.Workers)
	if err != nil {
		return err
	}
	codec, ctype, err := codecOf(cfg.Compression)
	if err != nil {
		return err
	}

	in, err := os.Open(cfg.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	t, src, closeSrc, err := openSource(ctx, cfg, bufio.NewReaderSize(in, 4096*8))
	if err != nil {
		return err
	}
	defer closeSrc()

	md, err := descriptor.BuildMessage(t, descriptor.WithChangeDataCapture(cfg.CDC))
	if err != nil {
		return err
	}
	var encOpts []encoder.Option
	if cfg.RejectUnknown {
		encOpts = append(encOpts, encoder.WithRejectUnknownFields())
	}
	enc := encoder.NewEncoder(md, encOpts...)

	var dl *sink.DeadLetter
	if cfg.DeadLetter != "" {
		if dl, err = sink.OpenDeadLetter(cfg.DeadLetter, sink.WithPayloadCompression(ctype)); err != nil {
			return err
		}
		defer dl.Close()
	}

	out, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()
	bw := bufio.NewWriter(out)
	w := sink.NewDelimitedWriter(bw, codec)

	popts := []pipeline.Option{pipeline.WithWorkers(workers)}
	if cfg.CDC {
		popts = append(popts, pipeline.WithChangeFunc(func(index int64, _ encoder.Record) *encoder.Change {
			return &encoder.Change{Type: cfg.ChangeType, SequenceNumber: index}
		}))
	}

	ts := time.Now()
	log.Printf("converting %s (%s) to %s", cfg.Input, t.FullName(), cfg.Output)
	stats, err := pipeline.Encode(ctx, enc, src, func(r pipeline.Result) error {
		if r.Err == nil {
			return w.Write(r.Message)
		}
		if dl == nil {
			return fmt.Errorf("record %d: %w", r.Index, r.Err)
		}
		return dl.Put(ctx, r.Index, r.Record, r.Err)
	}, popts...)
	if err != nil {
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	log.Printf("wrote %d messages, %d records failed, in %v", w.Count(), stats.Failed, time.Since(ts))
	return nil
}

func openSource(ctx context.Context, cfg config, r *bufio.Reader) (*avroproto.Type, pipeline.Source, func(), error) {
	if cfg.JSONInput {
		if cfg.Schema == "" {
			return nil, nil, nil, errors.New("--json-input needs --schema")
		}
		t, err := loadSchema(cfg.Schema)
		if err != nil {
			return nil, nil, nil, err
		}
		var opts []jsonrec.Option
		if cfg.RejectUnknown {
			opts = append(opts, jsonrec.WithDisallowUnknownFields())
		}
		rdr := jsonrec.NewReader(r, t, opts...)
		return t, pipeline.FromIterator[*jsonrec.Record](rdr), func() {}, nil
	}

	rdr, err := avro.NewOCFReader(r, avro.WithContext(ctx))
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Schema != "" {
		log.Printf("ignoring --schema, using the schema of %s", cfg.Input)
	}
	return rdr.Type(), pipeline.FromIterator[*avro.Record](rdr), rdr.Close, nil
}
