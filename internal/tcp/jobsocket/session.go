package jobsocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
)

const readBufferSize = 32 * 1024

// Reporter receives the progress of a session. The worker forwards each
// call to the master over IPC.
type Reporter interface {
	// JobStarted is called once connected, before anything is written
	JobStarted(job domain.TaskedIdentifier)
	JobResult(result domain.TaskResult)
	JobFailed(failure domain.TaskFailure)
	// JobEnded is called after every connected session, failed or not
	JobEnded(job domain.TaskedIdentifier)
}

type Config struct {
	Port        int
	DialTimeout time.Duration
}

// Session runs one job against its job acceptor. It owns its connection
// and its buffer.
type Session struct {
	job      domain.TaskedIdentifier
	cfg      Config
	dialer   secondary.Dialer
	reporter Reporter
	logger   primary.Logger
	acc      Accumulator
}

func NewSession(job domain.TaskedIdentifier, cfg Config, dialer secondary.Dialer, reporter Reporter, logger primary.Logger) *Session {
	return &Session{
		job:      job,
		cfg:      cfg,
		dialer:   dialer,
		reporter: reporter,
		logger:   logger.With("jobId", job.JobID),
	}
}

// Run blocks until the acceptor closes the stream or the stream fails.
func (s *Session) Run(ctx context.Context) {
	address := net.JoinHostPort(s.job.TargetIP, strconv.Itoa(s.cfg.Port))

	dialCtx := ctx
	if s.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, s.cfg.DialTimeout)
		defer cancel()
	}

	conn, err := s.dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		s.logger.Error("Failed to connect to job acceptor", "address", address, "error", err)
		s.fail(domain.StageConnect, fmt.Errorf("failed to connect to %s: %w", address, err))
		return
	}
	defer conn.Close()

	s.reporter.JobStarted(s.job)
	defer s.reporter.JobEnded(s.job)

	if err := s.write(conn); err != nil {
		s.logger.Error("Failed to write task", "address", address, "error", err)
		s.fail(domain.StageStream, err)
		return
	}

	if err := s.accumulate(conn); err != nil {
		s.logger.Error("Job acceptor stream failed", "address", address, "error", err)
		s.fail(domain.StageStream, err)
	}
}

func (s *Session) write(conn net.Conn) error {
	frame, err := Frame(s.job)
	if err != nil {
		return err
	}
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("failed to write task: %w", err)
	}
	return nil
}

// accumulate reads until EOF. Malformed responses are reported and do not
// end the stream.
func (s *Session) accumulate(conn net.Conn) error {
	chunk := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			if frame, ok := s.acc.Feed(chunk[:n]); ok {
				s.deliver(frame)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if s.acc.Buffered() > 0 {
					s.logger.Warn("Stream closed with unterminated data", "bytes", s.acc.Buffered())
				}
				return nil
			}
			return fmt.Errorf("failed to read response: %w", err)
		}
	}
}

func (s *Session) deliver(frame []byte) {
	if !json.Valid(frame) {
		s.logger.Error("Failed to parse response", "bytes", len(frame))
		s.fail(domain.StageStream, errors.New("failed to parse response: invalid JSON"))
		return
	}
	s.reporter.JobResult(domain.TaskResult{TaskedIdentifier: s.job, Data: json.RawMessage(frame)})
}

func (s *Session) fail(stage domain.FailureStage, err error) {
	s.reporter.JobFailed(domain.TaskFailure{TaskedIdentifier: s.job, Stage: stage, Error: err.Error()})
}
