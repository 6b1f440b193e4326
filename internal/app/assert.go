package app

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/shopspring/decimal"
	"github.com/transfa/bank-api-harness/internal/domain"
	"github.com/transfa/bank-api-harness/pkg/bankclient"
)

// Check inspects a response and returns a taxonomy error on mismatch.
type Check func(resp *bankclient.Response) error

// Do runs one façade call as a named step, attaches the exchange and applies
// checks in order. The first failing check ends the step.
func (sc *ScenarioContext) Do(name string, call func() (*bankclient.Response, error), checks ...Check) (*bankclient.Response, error) {
	done := sc.Step(name)
	resp, err := call()
	sc.Attach(resp)
	if err != nil {
		done(err)
		return nil, err
	}
	for _, check := range checks {
		if err := check(resp); err != nil {
			done(err)
			return resp, err
		}
	}
	done(nil)
	return resp, nil
}

// Status expects an exact status code.
func Status(want int) Check {
	return func(resp *bankclient.Response) error {
		if resp.StatusCode != want {
			return &domain.AssertionFailure{
				Field:    "status",
				Expected: want,
				Actual:   resp.StatusCode,
				Message:  "unexpected status",
				Exchange: resp.Context(),
			}
		}
		return nil
	}
}

// ClientError expects any 4xx status.
func ClientError() Check {
	return func(resp *bankclient.Response) error {
		if resp.StatusCode < http.StatusBadRequest || resp.StatusCode >= http.StatusInternalServerError {
			return &domain.AssertionFailure{
				Field:    "status",
				Expected: "4xx",
				Actual:   resp.StatusCode,
				Message:  "expected client error",
				Exchange: resp.Context(),
			}
		}
		return nil
	}
}

// Conforms validates the body against the named schema.
func (sc *ScenarioContext) Conforms(name string) Check {
	return func(resp *bankclient.Response) error {
		return sc.Schema.Validate(name, resp.Body(), resp.Context())
	}
}

// DecodeInto unmarshals the body into out.
func DecodeInto(out any) Check {
	return func(resp *bankclient.Response) error {
		if err := resp.Decode(out); err != nil {
			return &domain.AssertionFailure{
				Field:    "body",
				Expected: fmt.Sprintf("%T", out),
				Actual:   resp.ResponseBody,
				Message:  err.Error(),
				Exchange: resp.Context(),
			}
		}
		return nil
	}
}

// Equal compares a business field. Decimals compare by value so 100 equals
// 100.00. resp may be nil when no single exchange is at fault.
func Equal(field string, expected, actual any, resp *bankclient.Response) error {
	if equalValues(expected, actual) {
		return nil
	}
	failure := &domain.AssertionFailure{Field: field, Expected: expected, Actual: actual, Message: "field mismatch"}
	if resp != nil {
		failure.Exchange = resp.Context()
	}
	return failure
}

// True fails with message when cond is false.
func True(cond bool, field, message string, resp *bankclient.Response) error {
	if cond {
		return nil
	}
	failure := &domain.AssertionFailure{Field: field, Expected: true, Actual: false, Message: message}
	if resp != nil {
		failure.Exchange = resp.Context()
	}
	return failure
}

func equalValues(expected, actual any) bool {
	if de, ok := expected.(decimal.Decimal); ok {
		if da, ok := actual.(decimal.Decimal); ok {
			return de.Equal(da)
		}
	}
	return reflect.DeepEqual(expected, actual)
}
