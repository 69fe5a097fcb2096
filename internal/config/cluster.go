package config

import (
	"runtime"
	"time"
)

const (
	DefaultJobAcceptorPort = 4212
	DefaultJobsUntilDeath  = 50

	// DefaultTimeoutToForceKill covers a worker that never reaches a point
	// where it can die gracefully.
	DefaultTimeoutToForceKill = 3 * time.Hour

	// DefaultTimeoutGracefulKillFailed covers a worker that was asked to die
	// and did not.
	DefaultTimeoutGracefulKillFailed = 10 * time.Second

	DefaultDialTimeout = 30 * time.Second
)

type ClusterConfig struct {
	// TotalForks is the number of workers to spawn. <= 0 means one per CPU.
	TotalForks int
	// JobAcceptorPort is the port every job acceptor listens on.
	JobAcceptorPort int
	// JobsUntilDeath is how many jobs a worker takes before it is retired.
	JobsUntilDeath int

	DoForceKills       bool
	TimeoutToForceKill time.Duration

	DoForceKillsWhenGracefulKillsFail        bool
	TimeoutToForceKillWhenGracefulKillFailed time.Duration

	// RespawnOnExit replaces every exited worker unless awaiting death.
	RespawnOnExit bool

	DialTimeout time.Duration
}

func NewClusterConfig() *ClusterConfig {
	return &ClusterConfig{
		TotalForks:                               getIntEnv("TOTAL_FORKS", -1),
		JobAcceptorPort:                          getIntEnv("JOB_ACCEPTOR_PORT", DefaultJobAcceptorPort),
		JobsUntilDeath:                           getIntEnv("JOBS_UNTIL_DEATH", DefaultJobsUntilDeath),
		DoForceKills:                             getBoolEnv("DO_FORCE_KILLS", true),
		TimeoutToForceKill:                       getMillisEnv("TIMEOUT_TO_FORCE_KILL_MS", DefaultTimeoutToForceKill),
		DoForceKillsWhenGracefulKillsFail:        getBoolEnv("DO_FORCE_KILLS_WHEN_GRACEFUL_KILLS_FAIL", true),
		TimeoutToForceKillWhenGracefulKillFailed: getMillisEnv("TIMEOUT_TO_FORCE_KILL_WHEN_GRACEFUL_KILL_FAILED_MS", DefaultTimeoutGracefulKillFailed),
		RespawnOnExit:                            getBoolEnv("RESPAWN_ON_EXIT", true),
		DialTimeout:                              getMillisEnv("DIAL_TIMEOUT_MS", DefaultDialTimeout),
	}
}

// Forks resolves TotalForks against the host CPU count.
func (c *ClusterConfig) Forks() int {
	if c.TotalForks > 0 {
		return c.TotalForks
	}
	return runtime.NumCPU()
}

// Quota returns JobsUntilDeath, treating non-positive values as the default.
func (c *ClusterConfig) Quota() int {
	if c.JobsUntilDeath > 0 {
		return c.JobsUntilDeath
	}
	return DefaultJobsUntilDeath
}
