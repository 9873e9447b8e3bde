package api

import (
	"encoding/json"

	"github.com/medigate/medigate-cli/internal/errors"
)

// GenericFailure is reported when a rejected request carries no message.
const GenericFailure = "Request failed"

// Result is the outcome of every API call. Exactly one of Data (with
// Success) or Error (without Success) is meaningful. A success whose
// response carried no body has Empty set and a zero Data.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Empty   bool   `json:"-"`
}

// Ok wraps data in a successful result.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail builds a failed result. An empty message becomes the generic one.
func Fail[T any](msg string) Result[T] {
	if msg == "" {
		msg = GenericFailure
	}
	return Result[T]{Error: msg}
}

func (r Result[T]) OK() bool {
	return r.Success
}

// HasData reports whether the backend confirmed the call and returned an entity.
func (r Result[T]) HasData() bool {
	return r.Success && !r.Empty
}

// Err returns nil for a successful result and an AppError otherwise.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return errors.ErrRequestRejected.WithMessage(r.Error)
}

// Map converts the data of a successful result; failures pass through.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.Success {
		return Result[U]{Error: r.Error, Message: r.Message}
	}
	return Result[U]{Success: true, Data: fn(r.Data), Message: r.Message, Empty: r.Empty}
}

// decode turns a raw result into a typed one. Empty or null data decodes to
// the zero value and marks the result Empty; a decode error becomes a failure.
func decode[T any](raw Result[json.RawMessage]) Result[T] {
	if !raw.Success {
		return Result[T]{Error: raw.Error, Message: raw.Message}
	}
	var out Result[T]
	out.Success = true
	out.Message = raw.Message
	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		out.Empty = true
		return out
	}
	if err := json.Unmarshal(raw.Data, &out.Data); err != nil {
		return Result[T]{Error: errors.ErrInvalidResponse.WithCause(err).Error()}
	}
	return out
}
