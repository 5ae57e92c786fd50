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

package avroproto

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema is matched by every *SchemaError.
	ErrSchema = errors.New("avroproto: invalid schema")
	// ErrConversion is matched by every *ConversionError.
	ErrConversion = errors.New("avroproto: conversion failed")
)

// SchemaError is returned when a source schema cannot be mapped onto a
// message descriptor. It is fatal for the schema: retrying will not help.
type SchemaError struct {
	// Type is the name of the record type holding the offending field.
	Type string
	// Field is the name of the offending field, empty for type level errors.
	Field string
	Msg   string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: %s.%s: %s", ErrSchema, e.Type, e.Field, e.Msg)
	case e.Type != "":
		return fmt.Sprintf("%s: %s: %s", ErrSchema, e.Type, e.Msg)
	}
	return fmt.Sprintf("%s: %s", ErrSchema, e.Msg)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// NewSchemaError formats a *SchemaError for the given type and field.
func NewSchemaError(typ, field, format string, args ...any) *SchemaError {
	return &SchemaError{Type: typ, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// ConversionError is returned when a record value cannot be converted to the
// type the descriptor expects. It only concerns the record being encoded.
type ConversionError struct {
	// Path is the dotted path of the field within the record, array
	// positions and map keys included, e.g. "nestedarray[1].intvalue".
	Path  []string
	Value any
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: field %s: %v", ErrConversion, e.FieldPath(), e.Err)
}

// FieldPath joins Path into its dotted form.
func (e *ConversionError) FieldPath() string {
	var b strings.Builder
	for i, p := range e.Path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

func (e *ConversionError) Unwrap() error { return e.Err }

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// NewConversionError builds a *ConversionError for a single field.
func NewConversionError(field string, value any, format string, args ...any) *ConversionError {
	return &ConversionError{Path: []string{field}, Value: value, Err: fmt.Errorf(format, args...)}
}

// WithParent prefixes the error path with the enclosing field. It returns err
// unchanged if it is not a *ConversionError.
func WithParent(parent string, err error) error {
	var ce *ConversionError
	if !errors.As(err, &ce) {
		return err
	}
	ce.Path = append([]string{parent}, ce.Path...)
	return ce
}
