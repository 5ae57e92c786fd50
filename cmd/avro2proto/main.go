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
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/13MaxG/avroproto"
	"github.com/13MaxG/avroproto/avro"
	"github.com/13MaxG/avroproto/compress"
	"github.com/docopt/docopt-go"
)

const usage = `Avro to protobuf converter.
Usage:
  avro2proto -h | --help
  avro2proto describe [--cdc] [--json] <schema>
  avro2proto convert [--cdc] [--change-type=TYPE] [--schema=SCHEMA] [--json-input]
                     [--compression=CODEC] [--workers=N] [--dead-letter=DB]
                     [--reject-unknown] <input> <output>
  avro2proto dump [--cdc] [--compression=CODEC] [--json] <schema> <input>
Options:
  -h --help              Show this screen.
  --cdc                  Append the change data capture columns.
  --json                 Print JSON instead of protobuf text format.
  --change-type=TYPE     Change type written with --cdc [default: UPSERT].
  --schema=SCHEMA        Avro schema file of the input, required with --json-input.
  --json-input           Read newline delimited JSON instead of an Avro container file.
  --compression=CODEC    Output compression: none, snappy, gzip, brotli, lz4 or zstd [default: none].
  --workers=N            Records encoded at once, 0 for one per CPU [default: 0].
  --dead-letter=DB       Keep records failing to encode in this SQLite file instead of stopping.
  --reject-unknown       Fail records holding fields the schema does not declare.`

type config struct {
	Describe      bool
	Convert       bool
	Dump          bool
	CDC           bool   `docopt:"--cdc"`
	JSON          bool   `docopt:"--json"`
	ChangeType    string `docopt:"--change-type"`
	Schema        string `docopt:"--schema"`
	JSONInput     bool   `docopt:"--json-input"`
	Compression   string `docopt:"--compression"`
	Workers       string `docopt:"--workers"`
	DeadLetter    string `docopt:"--dead-letter"`
	RejectUnknown bool   `docopt:"--reject-unknown"`
	SchemaFile    string `docopt:"<schema>"`
	Input         string `docopt:"<input>"`
	Output        string `docopt:"<output>"`
}

func main() {
	opts, _ := docopt.ParseDoc(usage)
	var cfg config
	if err := opts.Bind(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	var err error
	switch {
	case cfg.Describe:
		err = describe(cfg)
	case cfg.Convert:
		err = convert(cfg)
	case cfg.Dump:
		err = dump(cfg)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func loadSchema(path string) (*avroproto.Type, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return avro.ParseSchema(string(data))
}

func codecOf(name string) (compress.Codec, compress.Compression, error) {
	c, err := compress.ParseCompression(name)
	if err != nil {
		return nil, c, err
	}
	codec, err := compress.GetCodec(c)
	return codec, c, err
}

func workersOf(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("--workers needs a non-negative integer, got %q", s)
	}
	return n, nil
}
