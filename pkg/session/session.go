package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/guardstack/guardstack/pkg/actions"
	"github.com/guardstack/guardstack/pkg/compose"
)

// Session drives one conversation over an installed policy. A session owns
// no conversation history; each turn is independent.
type Session struct {
	id      string
	runtime FlowRuntime
	metrics *Metrics
	logger  *slog.Logger
}

// New installs the policy into the runtime and returns a ready session.
// Installation failures (including action module load errors surfaced by the
// caller beforehand) abort session creation; no partially configured session
// is returned.
func New(ctx context.Context, runtime FlowRuntime, policy *compose.Policy, registry *actions.Registry, metrics *Metrics, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := runtime.Install(ctx, policy, registry); err != nil {
		return nil, err
	}
	if metrics != nil {
		metrics.SetActiveGuardrails(len(policy.Selected))
	}

	return &Session{
		id:      uuid.NewString(),
		runtime: runtime,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Turn produces the response for one user message. A failing turn returns
// its error without invalidating the session; the caller surfaces it and the
// conversation continues.
func (s *Session) Turn(ctx context.Context, userMessage string) (string, error) {
	start := time.Now()

	reply, err := s.runtime.Respond(ctx, userMessage)
	status := "ok"
	if err != nil {
		status = "error"
	}

	if s.metrics != nil {
		s.metrics.RecordTurn(status, time.Since(start))
	}
	if err != nil {
		s.logger.Warn("turn failed",
			slog.String("session_id", s.id),
			slog.String("error", err.Error()))
		return "", err
	}
	return reply, nil
}
