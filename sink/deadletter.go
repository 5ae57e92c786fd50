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

package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/13MaxG/avroproto"
	"github.com/13MaxG/avroproto/compress"
	"github.com/13MaxG/avroproto/encoder"
	"github.com/goccy/go-json"

	_ "modernc.org/sqlite"
)

const deadLetterSchema = `CREATE TABLE IF NOT EXISTS dead_letters (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	record_index INTEGER NOT NULL,
	type_name TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	field TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL,
	compression TEXT NOT NULL,
	payload BLOB,
	created_at INTEGER NOT NULL
)`

// Letter is one record kept by a DeadLetter store.
type Letter struct {
	ID    int64
	Index int64
	// TypeName is the full name of the record type.
	TypeName    string
	Fingerprint uint64
	// Field is the path of the field that failed, empty when the failure
	// was not tied to a field.
	Field  string
	Reason string
	// Payload is the record rendered as a JSON object.
	Payload   []byte
	CreatedAt time.Time
}

// DeadLetter is a SQLite store of records that failed to encode. It is safe
// for concurrent use.
type DeadLetter struct {
	db    *sql.DB
	ctype compress.Compression
	codec compress.Codec
	now   func() time.Time
}

type DeadLetterOption func(*DeadLetter)

// WithPayloadCompression compresses stored payloads with c.
func WithPayloadCompression(c compress.Compression) DeadLetterOption {
	return func(d *DeadLetter) {
		d.ctype = c
	}
}

// OpenDeadLetter opens or creates the store at path. ":memory:" gives a
// store living as long as the returned value.
func OpenDeadLetter(path string, opts ...DeadLetterOption) (*DeadLetter, error) {
	d := &DeadLetter{ctype: compress.Uncompressed, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	codec, err := compress.GetCodec(d.ctype)
	if err != nil {
		return nil, err
	}
	d.codec = codec

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sink: open dead letter store: %w", err)
	}
	// a single connection serializes writers and keeps ":memory:" alive
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(deadLetterSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sink: create dead letter table: %w", err)
	}
	d.db = db
	return d, nil
}

// Put stores rec, found at index in its stream, with the error that kept it
// from being encoded.
func (d *DeadLetter) Put(ctx context.Context, index int64, rec encoder.Record, cause error) error {
	var (
		field  string
		reason string
		ce     *avroproto.ConversionError
	)
	if errors.As(cause, &ce) {
		field = ce.FieldPath()
	}
	if cause != nil {
		reason = cause.Error()
	}

	raw := payloadJSON(rec)
	payload, err := d.codec.Encode(nil, raw)
	if err != nil {
		return fmt.Errorf("sink: compress payload: %w", err)
	}

	t := rec.Type()
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO dead_letters (record_index, type_name, fingerprint, field, reason, compression, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		index, t.FullName(), strconv.FormatUint(t.Fingerprint(), 16), field, reason,
		d.ctype.String(), payload, d.now().UnixMicro())
	if err != nil {
		return fmt.Errorf("sink: store dead letter: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (d *DeadLetter) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letters`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sink: count dead letters: %w", err)
	}
	return n, nil
}

// List returns up to limit stored records in insertion order. A limit of 0
// or less returns all of them.
func (d *DeadLetter) List(ctx context.Context, limit int) ([]Letter, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, record_index, type_name, fingerprint, field, reason, compression, payload, created_at
		FROM dead_letters ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sink: list dead letters: %w", err)
	}
	defer rows.Close()

	var out []Letter
	for rows.Next() {
		var (
			l           Letter
			fingerprint string
			ctype       string
			payload     []byte
			created     int64
		)
		if err := rows.Scan(&l.ID, &l.Index, &l.TypeName, &fingerprint, &l.Field, &l.Reason, &ctype, &payload, &created); err != nil {
			return nil, fmt.Errorf("sink: list dead letters: %w", err)
		}
		if l.Fingerprint, err = strconv.ParseUint(fingerprint, 16, 64); err != nil {
			return nil, fmt.Errorf("sink: dead letter %d: fingerprint: %w", l.ID, err)
		}
		if l.Payload, err = decodePayload(ctype, payload); err != nil {
			return nil, fmt.Errorf("sink: dead letter %d: %w", l.ID, err)
		}
		l.CreatedAt = time.UnixMicro(created)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (d *DeadLetter) Close() error { return d.db.Close() }

func decodePayload(ctype string, payload []byte) ([]byte, error) {
	c, err := compress.ParseCompression(ctype)
	if err != nil {
		return nil, err
	}
	codec, err := compress.GetCodec(c)
	if err != nil {
		return nil, err
	}
	return codec.Decode(nil, payload)
}

// payloadJSON renders rec as a JSON object. Values the encoder could not
// make sense of may not be representable; the record is then kept as its
// printed form.
func payloadJSON(rec encoder.Record) []byte {
	obj := plainRecord(rec)
	raw, err := json.Marshal(obj)
	if err != nil {
		raw, _ = json.Marshal(fmt.Sprintf("%v", obj))
	}
	return raw
}

func plainRecord(rec encoder.Record) map[string]any {
	var names []string
	if kr, ok := rec.(encoder.KeyedRecord); ok {
		names = kr.Keys()
	} else {
		for _, f := range rec.Type().Fields {
			names = append(names, f.Name)
		}
	}

	out := make(map[string]any, len(names))
	for _, name := range names {
		if v, ok := rec.Get(name); ok {
			out[name] = plain(v)
		}
	}
	return out
}

func plain(v any) any {
	switch v := v.(type) {
	case encoder.Record:
		return plainRecord(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = plain(e)
		}
		return out
	}
	return v
}
