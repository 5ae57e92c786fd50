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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/13MaxG/avroproto/descriptor"
	"github.com/13MaxG/avroproto/sink"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
)

// describe prints the descriptor built for a schema file.
func describe(cfg config) error {
	t, err := loadSchema(cfg.SchemaFile)
	if err != nil {
		return err
	}
	dp, err := descriptor.Build(t, descriptor.WithChangeDataCapture(cfg.CDC))
	if err != nil {
		return err
	}

	out, err := render(dp, cfg.JSON, true)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// dump prints every message of a file written by convert.
func dump(cfg config) error {
	t, err := loadSchema(cfg.SchemaFile)
	if err != nil {
		return err
	}
	md, err := descriptor.BuildMessage(t, descriptor.WithChangeDataCapture(cfg.CDC))
	if err != nil {
		return err
	}
	codec, _, err := codecOf(cfg.Compression)
	if err != nil {
		return err
	}

	f, err := os.Open(cfg.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := sink.NewDelimitedReader(bufio.NewReader(f), codec, md)
	if err != nil {
		return err
	}
	defer r.Close()

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for {
		m, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		out, err := render(m, cfg.JSON, false)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)
	}
}

func render(m proto.Message, asJSON, multiline bool) (string, error) {
	if asJSON {
		b, err := protojson.MarshalOptions{Multiline: multiline}.Marshal(m)
		return string(b), err
	}
	b, err := prototext.MarshalOptions{Multiline: multiline}.Marshal(m)
	return string(b), err
}
