package ipc

import (
	"encoding/json"
	"fmt"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/static/errs"
)

// Message is one frame exchanged between master and worker.
type Message struct {
	Type    byte
	Payload []byte
}

// JobRef identifies the job a load signal refers to.
type JobRef struct {
	JobID string `json:"jobId"`
}

func newMessage(t byte, v interface{}) (Message, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s payload: %w", TypeName(t), err)
	}
	return Message{Type: t, Payload: b}, nil
}

// NewTask builds the master -> worker "run this job" message.
func NewTask(t domain.TaskedIdentifier) (Message, error) {
	return newMessage(MsgTask, t)
}

// NewIncrement builds the "a job has begun" signal.
func NewIncrement(jobID string) (Message, error) {
	return newMessage(MsgIncrementRequests, JobRef{JobID: jobID})
}

// NewDecrement builds the "a job has ended" signal.
func NewDecrement(jobID string) (Message, error) {
	return newMessage(MsgDecrementRequests, JobRef{JobID: jobID})
}

// NewError builds the "the job failed" signal.
func NewError(f domain.TaskFailure) (Message, error) {
	return newMessage(MsgError, f)
}

// NewResult builds the result relay message.
func NewResult(r domain.TaskResult) (Message, error) {
	return newMessage(MsgTaskResult, r)
}

// Task decodes a MsgTask payload.
func (m Message) Task() (domain.TaskedIdentifier, error) {
	var t domain.TaskedIdentifier
	if err := m.decode(MsgTask, &t); err != nil {
		return domain.TaskedIdentifier{}, err
	}
	return t, nil
}

// JobRef decodes the payload of an increment or decrement signal.
func (m Message) JobRef() (JobRef, error) {
	if m.Type != MsgIncrementRequests && m.Type != MsgDecrementRequests {
		return JobRef{}, fmt.Errorf("%w: %s carries no job ref", errs.ErrUnknownType, TypeName(m.Type))
	}
	var ref JobRef
	if len(m.Payload) == 0 {
		return ref, nil
	}
	if err := json.Unmarshal(m.Payload, &ref); err != nil {
		return JobRef{}, fmt.Errorf("failed to parse job ref: %w", err)
	}
	return ref, nil
}

// Failure decodes a MsgError payload.
func (m Message) Failure() (domain.TaskFailure, error) {
	var f domain.TaskFailure
	if err := m.decode(MsgError, &f); err != nil {
		return domain.TaskFailure{}, err
	}
	return f, nil
}

// Result decodes a MsgTaskResult payload.
func (m Message) Result() (domain.TaskResult, error) {
	var r domain.TaskResult
	if err := m.decode(MsgTaskResult, &r); err != nil {
		return domain.TaskResult{}, err
	}
	return r, nil
}

func (m Message) decode(want byte, v interface{}) error {
	if m.Type != want {
		return fmt.Errorf("%w: expected %s, got %s", errs.ErrUnknownType, TypeName(want), TypeName(m.Type))
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to parse %s payload: %w", TypeName(want), err)
	}
	return nil
}
