package domain

import (
	"errors"
	"fmt"
)

var (
	// The requested symbol is not listed on every enabled exchange.
	ErrUnknownSymbol = errors.New("symbol is not supported by all exchanges")
	// A snapshot could not be obtained from an exchange.
	ErrUnavailable = errors.New("exchange snapshot unavailable")
	// A single exchange message could not be parsed.
	ErrMalformed = errors.New("malformed exchange message")
	// An exchange reported no levels at all while the book was initialized.
	ErrEmptySnapshot = errors.New("exchange snapshot has no levels")
	// Best bid reached or crossed best ask. Soft diagnostic, the book stays usable.
	ErrCrossedBook = errors.New("order book is crossed")
	// An exchange feed ended while a session was consuming it.
	ErrStreamClosed = errors.New("exchange stream closed")
)

// FetchError is returned by snapshot fetchers.
type FetchError struct {
	Exchange Exchange
	Err      error
}

func NewFetchError(exchange Exchange, err error) *FetchError {
	return &FetchError{Exchange: exchange, Err: err}
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Exchange, ErrUnavailable, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrUnavailable }

// AdapterError is returned when one raw message cannot be normalized.
type AdapterError struct {
	Exchange Exchange
	Err      error
}

func NewAdapterError(exchange Exchange, format string, args ...any) *AdapterError {
	return &AdapterError{Exchange: exchange, Err: fmt.Errorf(format, args...)}
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Exchange, ErrMalformed, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

func (e *AdapterError) Is(target error) bool { return target == ErrMalformed }

// StreamError reports which exchange feed terminated a multiplexed stream.
type StreamError struct {
	Exchange Exchange
	Err      error
}

func NewStreamError(exchange Exchange, err error) *StreamError {
	return &StreamError{Exchange: exchange, Err: err}
}

func (e *StreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Exchange, ErrStreamClosed)
	}
	return fmt.Sprintf("%s: %s: %v", e.Exchange, ErrStreamClosed, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

func (e *StreamError) Is(target error) bool { return target == ErrStreamClosed }
