// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/jeranaias/spotcore/internal/protocol"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes dispatch failures for handling.
type ErrorKind int

const (
	// KindMalformed means the bytes were not a JSON object at all, or
	// an envelope with no "tool" key was missing the bare chat answer.
	KindMalformed ErrorKind = iota

	// KindSchemaMismatch means the tool was recognized but a required
	// field was missing or mistyped.
	KindSchemaMismatch
)

// Error describes why a response body could not be decoded. It always
// retains the original bytes so callers can log or display them.
type Error struct {
	Kind  ErrorKind
	Tool  string
	Field string
	Raw   []byte
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	switch e.Kind {
	case KindMalformed:
		b.WriteString("malformed response payload")
		if e.Field != "" {
			b.WriteString(" at field ")
			b.WriteString(e.Field)
		}
	case KindSchemaMismatch:
		b.WriteString("schema mismatch for ")
		if e.Tool == "" {
			b.WriteString("chat answer")
		} else {
			b.WriteString("tool " + e.Tool)
		}
		if e.Field != "" {
			b.WriteString(" at field ")
			b.WriteString(e.Field)
		}
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsMalformed reports whether err is a malformed-payload dispatch error.
func IsMalformed(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == KindMalformed
}

// IsSchemaMismatch reports whether err is a schema-mismatch dispatch error.
func IsSchemaMismatch(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == KindSchemaMismatch
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of dispatching one response body. Exactly one of
// Payload and Err is set.
type Result struct {
	Payload protocol.Payload
	Err     *Error
}

// OK reports whether dispatch produced a payload.
func (r Result) OK() bool {
	return r.Err == nil
}

// =============================================================================
// DISPATCH
// =============================================================================

// Dispatch decodes one raw response body from the backend.
//
// The branch order is fixed: not-an-object is malformed; an envelope
// without a "tool" key is treated as a bare chat answer; a known tool
// goes through its schema; an unknown tool passes through untouched.
func Dispatch(raw []byte) Result {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Result{Err: &Error{Kind: KindMalformed, Raw: cloneBytes(raw), Cause: err}}
	}
	if envelope == nil {
		return Result{Err: &Error{Kind: KindMalformed, Raw: cloneBytes(raw), Cause: errors.New("null payload")}}
	}

	toolRaw, hasTool := envelope["tool"]
	if !hasTool {
		// A tool-less envelope is either a bare chat answer or a broken
		// body; there is no schema to mismatch against.
		return decodeWith(protocol.BareChat, "", raw, KindMalformed)
	}

	var tool string
	if err := json.Unmarshal(toolRaw, &tool); err != nil {
		// A non-string "tool" value is a broken envelope, not an
		// unrecognized tool.
		return Result{Err: &Error{Kind: KindMalformed, Raw: cloneBytes(raw), Cause: err}}
	}

	schema, known := protocol.Lookup(tool)
	if !known {
		return Result{Payload: &protocol.UnrecognizedTool{
			Name: tool,
			Raw:  json.RawMessage(cloneBytes(raw)),
		}}
	}

	return decodeWith(schema, tool, raw, KindSchemaMismatch)
}

// decodeWith runs the shape check and strict decode, tagging any failure
// with kind.
func decodeWith(schema *protocol.Schema, tool string, raw []byte, kind ErrorKind) Result {
	if fieldErr := protocol.CheckShape(raw, "", schema.Shape); fieldErr != nil {
		return Result{Err: &Error{
			Kind:  kind,
			Tool:  tool,
			Field: fieldErr.Field,
			Raw:   cloneBytes(raw),
			Cause: fieldErr,
		}}
	}

	payload, err := schema.Decode(raw)
	if err != nil {
		var fieldErr *protocol.FieldError
		field := ""
		if errors.As(err, &fieldErr) {
			field = fieldErr.Field
		}
		return Result{Err: &Error{
			Kind:  kind,
			Tool:  tool,
			Field: field,
			Raw:   cloneBytes(raw),
			Cause: err,
		}}
	}

	return Result{Payload: payload}
}

// cloneBytes detaches retained bytes from the caller's buffer.
func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
