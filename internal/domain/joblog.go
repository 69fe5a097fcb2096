package domain

import (
	"encoding/json"
	"time"
)

// JobResultRecord is a recorded TaskResult.
type JobResultRecord struct {
	ID         int64           `db:"id" json:"id"`
	JobID      string          `db:"job_id" json:"jobId"`
	WorkerID   int             `db:"worker_id" json:"workerId"`
	Task       string          `db:"task" json:"task"`
	Identifier json.RawMessage `db:"identifier" json:"taskedIdentifier"`
	Data       json.RawMessage `db:"data" json:"data"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// JobFailureRecord is a recorded TaskFailure.
type JobFailureRecord struct {
	ID         int64           `db:"id" json:"id"`
	JobID      string          `db:"job_id" json:"jobId"`
	WorkerID   int             `db:"worker_id" json:"workerId"`
	Task       string          `db:"task" json:"task"`
	Identifier json.RawMessage `db:"identifier" json:"taskedIdentifier"`
	Stage      string          `db:"stage" json:"stage"`
	Error      string          `db:"error" json:"error"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// UnfinishedJobRecord is a recorded JobUnfinished event.
type UnfinishedJobRecord struct {
	ID         int64           `db:"id" json:"id"`
	JobID      string          `db:"job_id" json:"jobId"`
	Task       string          `db:"task" json:"task"`
	Identifier json.RawMessage `db:"identifier" json:"taskedIdentifier"`
	Reason     string          `db:"reason" json:"reason"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}
