package jobs

import "gitlab.com/fcv-2025.net/jobinitiator/internal/domain"

// CreateJobRequest is a ChannelIdentifier with the task to run
type CreateJobRequest struct {
	domain.ChannelIdentifier
	Task string `json:"task"`
}

// CreateJobResponse represents a response to a create job request
type CreateJobResponse struct {
	JobID string `json:"jobId"`
}
