// Package supervisor runs producer and consumer agents as child processes
// and tears them down in order: SIGTERM, a bounded join, then SIGKILL.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"restaurant-shm/internal/common/logger"
)

const (
	RoleProducer = "producer"
	RoleConsumer = "consumer"

	MaxAgents = 10
)

var ErrAlreadyStarted = errors.New("supervisor already started")

// CommandFunc builds the command for one agent.
type CommandFunc func(role string, id int) *exec.Cmd

type Config struct {
	Producers   int
	Consumers   int
	Stagger     time.Duration
	JoinTimeout time.Duration
	Command     CommandFunc
}

func (c Config) Validate() error {
	if c.Producers < 1 || c.Producers > MaxAgents {
		return fmt.Errorf("producers must be between 1 and %d, got %d", MaxAgents, c.Producers)
	}
	if c.Consumers < 1 || c.Consumers > MaxAgents {
		return fmt.Errorf("consumers must be between 1 and %d, got %d", MaxAgents, c.Consumers)
	}
	if c.Command == nil {
		return errors.New("no agent command configured")
	}
	return nil
}

// SelfCommand re-executes the running binary with the agent subcommand,
// forwarding extra arguments such as --config.
func SelfCommand(extra ...string) (CommandFunc, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	return func(role string, id int) *exec.Cmd {
		args := append([]string{role, "--id", strconv.Itoa(id)}, extra...)
		cmd := exec.Command(exe, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd
	}, nil
}

type Agent struct {
	Role string
	ID   int
	PID  int

	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Exited reports whether the process has been reaped.
func (a *Agent) Exited() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

type slot struct {
	role string
	id   int
}

type Supervisor struct {
	cfg Config
	log *logger.Logger

	mu      sync.Mutex
	agents  []*Agent
	started bool
}

func New(cfg Config, lg *logger.Logger) *Supervisor {
	if lg == nil {
		lg = logger.NewNop()
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = 2 * time.Second
	}
	return &Supervisor{cfg: cfg, log: lg}
}

// Start launches every producer, then every consumer, pausing Stagger between
// launches. On failure the agents already running are stopped.
func (s *Supervisor) Start(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	plan := make([]slot, 0, s.cfg.Producers+s.cfg.Consumers)
	for i := 1; i <= s.cfg.Producers; i++ {
		plan = append(plan, slot{RoleProducer, i})
	}
	for i := 1; i <= s.cfg.Consumers; i++ {
		plan = append(plan, slot{RoleConsumer, i})
	}

	for i, p := range plan {
		if i > 0 && s.cfg.Stagger > 0 {
			select {
			case <-ctx.Done():
				s.Stop()
				return ctx.Err()
			case <-time.After(s.cfg.Stagger):
			}
		}
		if err := s.spawn(p.role, p.id); err != nil {
			s.Stop()
			return err
		}
	}
	return nil
}

func (s *Supervisor) spawn(role string, id int) error {
	cmd := s.cfg.Command(role, id)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s %d: %w", role, id, err)
	}
	a := &Agent{Role: role, ID: id, PID: cmd.Process.Pid, cmd: cmd, done: make(chan struct{})}
	go func() {
		a.err = cmd.Wait()
		close(a.done)
		s.log.Info("agent_exited", map[string]any{"role": role, "id": id, "pid": a.PID, "exit": exitDesc(a.err)})
	}()

	s.mu.Lock()
	s.agents = append(s.agents, a)
	s.mu.Unlock()
	s.log.Info("agent_started", map[string]any{"role": role, "id": id, "pid": a.PID})
	return nil
}

// Agents returns a copy of the launched agents.
func (s *Supervisor) Agents() []*Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Agent(nil), s.agents...)
}

// Alive counts agents of role that have not exited.
func (s *Supervisor) Alive(role string) int {
	n := 0
	for _, a := range s.Agents() {
		if a.Role == role && !a.Exited() {
			n++
		}
	}
	return n
}

// Stop sends SIGTERM to every live agent, waits up to JoinTimeout for them
// all, then kills whatever is left. It returns the agents that had to be
// killed.
func (s *Supervisor) Stop() []*Agent {
	agents := s.Agents()
	for _, a := range agents {
		if a.Exited() {
			continue
		}
		if err := a.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.log.Warn("agent_signal_failed", map[string]any{"role": a.Role, "id": a.ID, "error": err.Error()})
		}
	}

	deadline := time.NewTimer(s.cfg.JoinTimeout)
	defer deadline.Stop()
	var killed []*Agent
	for _, a := range agents {
		select {
		case <-a.done:
			continue
		case <-deadline.C:
		}
		// deadline passed: everything still running gets killed
		for _, b := range agents {
			if b.Exited() {
				continue
			}
			_ = b.cmd.Process.Kill()
			<-b.done
			killed = append(killed, b)
			s.log.Warn("agent_killed", map[string]any{"role": b.Role, "id": b.ID, "pid": b.PID})
		}
		break
	}
	s.log.Info("agents_stopped", map[string]any{"total": len(agents), "killed": len(killed)})
	return killed
}

func exitDesc(err error) string {
	if err == nil {
		return "ok"
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ProcessState.String()
	}
	return err.Error()
}
