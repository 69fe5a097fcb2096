package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/static/errs"
)

// ChannelIdentifier carries the addressing information a job requester
// collected for a job acceptor.
type ChannelIdentifier struct {
	RequesterIP string `json:"requesterIp"`
	ResponderIP string `json:"responderIp"`
	TargetIP    string `json:"targetIp"`
	JobID       string `json:"jobId"`
	Params      Params `json:"params"`
}

// TaskedIdentifier is a ChannelIdentifier with the task attached. It is what
// travels master -> worker -> job acceptor.
type TaskedIdentifier struct {
	ChannelIdentifier
	Task string `json:"task"`
}

// WithTask attaches a task to the identifier.
func (c ChannelIdentifier) WithTask(task string) TaskedIdentifier {
	return TaskedIdentifier{ChannelIdentifier: c, Task: task}
}

// TaskResult is produced by a worker for every framed response it receives.
type TaskResult struct {
	TaskedIdentifier TaskedIdentifier `json:"taskedIdentifier"`
	Data             json.RawMessage  `json:"data"`
}

// FailureStage tells where a task failed.
type FailureStage string

const (
	// StageConnect means the acceptor was never reached, so no load was counted.
	StageConnect FailureStage = "connect"
	// StageStream means the connection broke or carried garbage after connecting.
	StageStream FailureStage = "stream"
)

// TaskFailure is reported by a worker when a job could not complete.
type TaskFailure struct {
	TaskedIdentifier TaskedIdentifier `json:"taskedIdentifier"`
	Stage            FailureStage     `json:"stage"`
	Error            string           `json:"error"`
}

// Params is a scalar (string, number, bool, null) or an array of scalars.
type Params struct {
	raw json.RawMessage
}

// NewParams builds Params from a Go value, rejecting objects and nested arrays.
func NewParams(v interface{}) (Params, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Params{}, fmt.Errorf("failed to marshal params: %w", err)
	}
	var p Params
	if err := p.UnmarshalJSON(b); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Value decodes the params into plain Go values.
func (p Params) Value() interface{} {
	if len(p.raw) == 0 {
		return nil
	}
	var v interface{}
	_ = json.Unmarshal(p.raw, &v)
	return v
}

// IsZero reports whether no params were set.
func (p Params) IsZero() bool {
	return len(p.raw) == 0 || bytes.Equal(p.raw, []byte("null"))
}

func (p Params) MarshalJSON() ([]byte, error) {
	if len(p.raw) == 0 {
		return []byte("null"), nil
	}
	return p.raw, nil
}

func (p *Params) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		p.raw = nil
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	switch val := v.(type) {
	case map[string]interface{}:
		return fmt.Errorf("%w: objects are not allowed", errs.ErrInvalidParams)
	case []interface{}:
		for i, item := range val {
			switch item.(type) {
			case map[string]interface{}, []interface{}:
				return fmt.Errorf("%w: element %d is not a scalar", errs.ErrInvalidParams, i)
			}
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return fmt.Errorf("failed to compact params: %w", err)
	}
	p.raw = buf.Bytes()
	return nil
}
