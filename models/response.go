package models

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// TargetStatus is the outcome for one target of a bulk action.
type TargetStatus struct {
	Status string `json:"status"`
	Body   string `json:"body,omitempty"`
}

// StatusMap holds per-target outcomes of a bulk action.
type StatusMap map[string]TargetStatus

func (m StatusMap) Succeed(target string) {
	m[target] = TargetStatus{Status: StatusSuccess}
}

func (m StatusMap) Fail(target string, err error) {
	body := ""
	if err != nil {
		body = err.Error()
	}
	m[target] = TargetStatus{Status: StatusFailure, Body: body}
}

// Record stores success for a nil err and failure otherwise.
func (m StatusMap) Record(target string, err error) {
	if err != nil {
		m.Fail(target, err)
		return
	}
	m.Succeed(target)
}

// Failed returns the number of failed targets.
func (m StatusMap) Failed() int {
	n := 0
	for _, s := range m {
		if s.Status != StatusSuccess {
			n++
		}
	}
	return n
}

// Status is either a single outcome or a per-target mapping. It marshals to
// a JSON string or a JSON object accordingly.
type Status struct {
	Outcome string
	Targets StatusMap
}

func SingleStatus(outcome string) Status { return Status{Outcome: outcome} }

func MapStatus(targets StatusMap) Status { return Status{Targets: targets} }

// StatusOf maps err to a single success or failure outcome.
func StatusOf(err error) Status {
	if err != nil {
		return SingleStatus(StatusFailure)
	}
	return SingleStatus(StatusSuccess)
}

func (s Status) IsMap() bool { return s.Targets != nil }

func (s Status) MarshalJSON() ([]byte, error) {
	if s.Targets != nil {
		return json.Marshal(map[string]TargetStatus(s.Targets))
	}
	return json.Marshal(s.Outcome)
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var outcome string
	if err := json.Unmarshal(b, &outcome); err == nil {
		*s = SingleStatus(outcome)
		return nil
	}
	var targets StatusMap
	if err := json.Unmarshal(b, &targets); err != nil {
		return errors.Wrap(err, "status is neither a string nor a target map")
	}
	*s = MapStatus(targets)
	return nil
}

// Response is the envelope sent back for every processed request, and the
// shape of heartbeat messages.
type Response struct {
	RequestID json.RawMessage `json:"requestId,omitempty"`
	Action    string          `json:"action"`
	Status    Status          `json:"status"`
	Data      any             `json:"data,omitempty"`
}

// ErrorData is the data of an error envelope.
type ErrorData struct {
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Request json.RawMessage `json:"request,omitempty"`
}
