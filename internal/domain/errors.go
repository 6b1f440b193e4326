/**
 * @description
 * Error taxonomy shared by every layer of the harness. Each failure type carries
 * enough context (key, resource, schema, request/response exchange) to be attached
 * to the test report without further lookups.
 *
 * @notes
 * - ConfigError and FixtureNotFoundError are fatal for the affected tests and are
 *   never retried.
 * - RequestTimeoutError and TransportError are network-level and retry eligible.
 */
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrConfigNotFound is wrapped by ConfigError when a required key has no value.
var ErrConfigNotFound = errors.New("config key not found")

// ErrInvalidRecord is wrapped when a record fails construct-time validation.
var ErrInvalidRecord = errors.New("invalid record")

// Kind classifies a harness failure for reporting and retry decisions.
type Kind string

const (
	KindNone      Kind = ""
	KindConfig    Kind = "CONFIG"
	KindFixture   Kind = "FIXTURE_NOT_FOUND"
	KindSchema    Kind = "SCHEMA_VALIDATION"
	KindAssertion Kind = "ASSERTION"
	KindTimeout   Kind = "REQUEST_TIMEOUT"
	KindTransport Kind = "TRANSPORT"
	KindUnknown   Kind = "UNKNOWN"
)

// ConfigError reports a missing or unparsable required setting.
type ConfigError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %q: %s: %v", e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("config %q: %s", e.Key, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FixtureNotFoundError reports a missing fixture file, sheet or section.
type FixtureNotFoundError struct {
	Resource string
	Sheet    string
	Key      string
	Err      error
}

func (e *FixtureNotFoundError) Error() string {
	var b strings.Builder
	b.WriteString("fixture not found: ")
	b.WriteString(e.Resource)
	if e.Sheet != "" {
		b.WriteString(" sheet=")
		b.WriteString(e.Sheet)
	}
	if e.Key != "" {
		b.WriteString(" key=")
		b.WriteString(e.Key)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FixtureNotFoundError) Unwrap() error { return e.Err }

// SchemaValidationError reports a response body that does not match its schema.
type SchemaValidationError struct {
	Schema   string
	Problems []string
	Payload  []byte
	Exchange *Exchange
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema %s validation failed: %s", e.Schema, strings.Join(e.Problems, "; "))
}

// AssertionFailure reports a business-field or status mismatch.
type AssertionFailure struct {
	Field    string
	Expected any
	Actual   any
	Message  string
	Exchange *Exchange
}

func (e *AssertionFailure) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "assertion failed"
	}
	return fmt.Sprintf("%s: %s expected=%v actual=%v", msg, e.Field, e.Expected, e.Actual)
}

// RequestTimeoutError reports an HTTP call that exceeded the client timeout.
type RequestTimeoutError struct {
	Method      string
	Endpoint    string
	RequestBody string
	Timeout     time.Duration
	Err         error
}

func (e *RequestTimeoutError) Error() string {
	return fmt.Sprintf("%s %s timed out after %s: %v", e.Method, e.Endpoint, e.Timeout, e.Err)
}

func (e *RequestTimeoutError) Unwrap() error { return e.Err }

// TransportError reports a network-level failure other than a timeout.
type TransportError struct {
	Method      string
	Endpoint    string
	RequestBody string
	Err         error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s transport failure: %v", e.Method, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// KindOf returns the taxonomy kind of err, looking through wrapping.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		cfgErr       *ConfigError
		fixtureErr   *FixtureNotFoundError
		schemaErr    *SchemaValidationError
		assertionErr *AssertionFailure
		timeoutErr   *RequestTimeoutError
		transportErr *TransportError
	)
	switch {
	case errors.As(err, &cfgErr):
		return KindConfig
	case errors.As(err, &fixtureErr):
		return KindFixture
	case errors.As(err, &schemaErr):
		return KindSchema
	case errors.As(err, &assertionErr):
		return KindAssertion
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.As(err, &transportErr):
		return KindTransport
	default:
		return KindUnknown
	}
}

// IsFatal reports whether err must abort the affected test without retry.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindConfig, KindFixture:
		return true
	default:
		return false
	}
}

// ExchangeOf returns the request/response context attached to err, if any.
func ExchangeOf(err error) *Exchange {
	var schemaErr *SchemaValidationError
	if errors.As(err, &schemaErr) && schemaErr.Exchange != nil {
		return schemaErr.Exchange
	}
	var assertionErr *AssertionFailure
	if errors.As(err, &assertionErr) && assertionErr.Exchange != nil {
		return assertionErr.Exchange
	}
	var timeoutErr *RequestTimeoutError
	if errors.As(err, &timeoutErr) {
		return &Exchange{
			Method:      timeoutErr.Method,
			Endpoint:    timeoutErr.Endpoint,
			RequestBody: timeoutErr.RequestBody,
			Elapsed:     timeoutErr.Timeout,
		}
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return &Exchange{Method: transportErr.Method, Endpoint: transportErr.Endpoint, RequestBody: transportErr.RequestBody}
	}
	return nil
}
