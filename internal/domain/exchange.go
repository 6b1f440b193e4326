package domain

import "time"

// Exchange is the request/response context of one HTTP call, attached to
// failures and report steps.
type Exchange struct {
	Method       string        `json:"method"`
	Endpoint     string        `json:"endpoint"`
	RequestBody  string        `json:"request_body,omitempty"`
	StatusCode   int           `json:"status_code"`
	ResponseBody string        `json:"response_body,omitempty"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}
