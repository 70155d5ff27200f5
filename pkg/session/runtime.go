package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/guardstack/guardstack/pkg/actions"
	"github.com/guardstack/guardstack/pkg/compose"
	"github.com/guardstack/guardstack/pkg/llm"
)

// FlowRuntime consumes a composed policy and produces one response per turn.
// The production interpreter for the flow language is an external system;
// implementations here only need to honor the installed policy's action
// bindings.
type FlowRuntime interface {
	// Install hands the runtime the composed policy and the dispatch table
	// for its action bindings. Called once before the first turn.
	Install(ctx context.Context, policy *compose.Policy, registry *actions.Registry) error
	// Respond produces the bot response for one user message.
	Respond(ctx context.Context, userMessage string) (string, error)
}

// SelfCheckRuntime is a deterministic in-process runtime: it drafts a
// response with the completion client, then pushes the draft through each
// output-rail flow whose derived action is registered. Flows without a
// registered action are left to the external interpreter and skipped.
type SelfCheckRuntime struct {
	completer llm.Client
	logger    *slog.Logger

	policy       *compose.Policy
	outputChecks []outputCheck
}

type outputCheck struct {
	flow   string
	action actions.Action
}

// NewSelfCheckRuntime creates a runtime drafting responses via the given
// completion client.
func NewSelfCheckRuntime(completer llm.Client, logger *slog.Logger) *SelfCheckRuntime {
	if logger == nil {
		logger = slog.Default()
	}
	return &SelfCheckRuntime{completer: completer, logger: logger}
}

// Install resolves the policy's output flows against the action registry.
// The effective config must serialize cleanly, since that is the form the
// external interpreter consumes.
func (r *SelfCheckRuntime) Install(_ context.Context, policy *compose.Policy, registry *actions.Registry) error {
	if _, err := policy.ConfigYAML(); err != nil {
		return fmt.Errorf("install policy: %w", err)
	}

	var checks []outputCheck
	for _, flow := range policy.OutputFlows() {
		name := actionNameForFlow(flow)
		action, ok := registry.Lookup(name)
		if !ok {
			r.logger.Debug("output flow has no registered action, leaving it to the flow interpreter",
				slog.String("flow", flow),
				slog.String("action", name))
			continue
		}
		checks = append(checks, outputCheck{flow: flow, action: action})
	}

	r.policy = policy
	r.outputChecks = checks

	r.logger.Info("policy installed",
		slog.Int("fragments", len(policy.Selected)),
		slog.Int("output_checks", len(checks)))
	return nil
}

// Respond drafts a response and runs each installed output check over it in
// flow order, feeding the checked result forward.
func (r *SelfCheckRuntime) Respond(ctx context.Context, userMessage string) (string, error) {
	draft, err := r.completer.Complete(ctx, userMessage)
	if err != nil {
		return "", fmt.Errorf("draft response: %w", err)
	}

	for _, check := range r.outputChecks {
		checked, err := check.action(ctx, actions.Args{
			UserMessage: userMessage,
			BotMessage:  draft,
		})
		if err != nil {
			return "", fmt.Errorf("output flow %q: %w", check.flow, err)
		}
		draft = checked
	}
	return draft, nil
}

// actionNameForFlow derives the action a flow dispatches to from the flow
// name, matching the flow language's word-separated naming ("self check
// facts" dispatches to "self_check_facts").
func actionNameForFlow(flow string) string {
	return strings.Join(strings.Fields(flow), "_")
}
