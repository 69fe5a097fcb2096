package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewClusterConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"TOTAL_FORKS", "JOB_ACCEPTOR_PORT", "JOBS_UNTIL_DEATH", "DO_FORCE_KILLS",
		"TIMEOUT_TO_FORCE_KILL_MS", "DO_FORCE_KILLS_WHEN_GRACEFUL_KILLS_FAIL",
		"TIMEOUT_TO_FORCE_KILL_WHEN_GRACEFUL_KILL_FAILED_MS", "RESPAWN_ON_EXIT", "DIAL_TIMEOUT_MS",
	} {
		t.Setenv(key, "")
	}

	cfg := NewClusterConfig()
	assert.Equal(t, -1, cfg.TotalForks)
	assert.Equal(t, runtime.NumCPU(), cfg.Forks())
	assert.Equal(t, 4212, cfg.JobAcceptorPort)
	assert.Equal(t, 50, cfg.Quota())
	assert.True(t, cfg.DoForceKills)
	assert.Equal(t, 3*time.Hour, cfg.TimeoutToForceKill)
	assert.True(t, cfg.DoForceKillsWhenGracefulKillsFail)
	assert.Equal(t, 10*time.Second, cfg.TimeoutToForceKillWhenGracefulKillFailed)
	assert.True(t, cfg.RespawnOnExit)
}

func TestNewClusterConfigFromEnv(t *testing.T) {
	t.Setenv("TOTAL_FORKS", "3")
	t.Setenv("JOB_ACCEPTOR_PORT", "9000")
	t.Setenv("JOBS_UNTIL_DEATH", "2")
	t.Setenv("DO_FORCE_KILLS", "false")
	t.Setenv("TIMEOUT_TO_FORCE_KILL_MS", "1500")
	t.Setenv("RESPAWN_ON_EXIT", "false")

	cfg := NewClusterConfig()
	assert.Equal(t, 3, cfg.Forks())
	assert.Equal(t, 9000, cfg.JobAcceptorPort)
	assert.Equal(t, 2, cfg.Quota())
	assert.False(t, cfg.DoForceKills)
	assert.Equal(t, 1500*time.Millisecond, cfg.TimeoutToForceKill)
	assert.False(t, cfg.RespawnOnExit)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("JOBS_UNTIL_DEATH", "many")
	t.Setenv("DO_FORCE_KILLS", "sometimes")
	t.Setenv("TIMEOUT_TO_FORCE_KILL_MS", "-5")

	cfg := NewClusterConfig()
	assert.Equal(t, 50, cfg.JobsUntilDeath)
	assert.True(t, cfg.DoForceKills)
	assert.Equal(t, DefaultTimeoutToForceKill, cfg.TimeoutToForceKill)

	cfg.JobsUntilDeath = 0
	assert.Equal(t, DefaultJobsUntilDeath, cfg.Quota())
}
