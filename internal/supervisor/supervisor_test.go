//go:build unix

package supervisor

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sleeper(role string, id int) *exec.Cmd {
	return exec.Command("sleep", "30")
}

// stubborn consumers ignore SIGTERM and have to be killed.
func stubborn(role string, id int) *exec.Cmd {
	if role == RoleConsumer {
		return exec.Command("sh", "-c", "trap '' TERM; exec sleep 30")
	}
	return sleeper(role, id)
}

func TestConfigValidate(t *testing.T) {
	ok := Config{Producers: 1, Consumers: 10, Command: sleeper}
	assert.NoError(t, ok.Validate())

	for _, c := range []Config{
		{Producers: 0, Consumers: 1, Command: sleeper},
		{Producers: 1, Consumers: 11, Command: sleeper},
		{Producers: 1, Consumers: 1},
	} {
		assert.Error(t, c.Validate())
	}
}

func TestStartAndStop(t *testing.T) {
	s := New(Config{Producers: 2, Consumers: 3, Stagger: 5 * time.Millisecond, Command: sleeper}, nil)
	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, 2, s.Alive(RoleProducer))
	assert.Equal(t, 3, s.Alive(RoleConsumer))
	agents := s.Agents()
	require.Len(t, agents, 5)
	assert.Equal(t, RoleProducer, agents[0].Role)
	assert.Equal(t, 1, agents[0].ID)
	assert.Equal(t, RoleConsumer, agents[4].Role)
	assert.Equal(t, 3, agents[4].ID)

	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)

	killed := s.Stop()
	assert.Empty(t, killed)
	assert.Zero(t, s.Alive(RoleProducer)+s.Alive(RoleConsumer))
}

func TestStopKillsAgentsIgnoringTerm(t *testing.T) {
	s := New(Config{Producers: 1, Consumers: 1, JoinTimeout: 300 * time.Millisecond, Command: stubborn}, nil)
	require.NoError(t, s.Start(context.Background()))
	// give sh time to install the trap before signalling it
	time.Sleep(200 * time.Millisecond)

	start := time.Now()
	killed := s.Stop()
	require.Len(t, killed, 1)
	assert.Equal(t, RoleConsumer, killed[0].Role)
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
	assert.Zero(t, s.Alive(RoleConsumer))
}

func TestStartFailureStopsLaunchedAgents(t *testing.T) {
	cmd := func(role string, id int) *exec.Cmd {
		if role == RoleConsumer {
			return exec.Command("/nonexistent/agent")
		}
		return sleeper(role, id)
	}
	s := New(Config{Producers: 2, Consumers: 1, Command: cmd}, nil)
	assert.Error(t, s.Start(context.Background()))
	assert.Zero(t, s.Alive(RoleProducer))
}
