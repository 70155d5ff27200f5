package cove

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/guardstack/guardstack/pkg/domain"
	"github.com/guardstack/guardstack/pkg/telemetry"
)

// Completer is the external text-completion capability the pipeline runs on.
// Each call is a single stateless completion; implementations must honor
// context cancellation.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls the wrapped function.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Record pairs one verification question with its independently obtained
// answer. Records live only for the duration of one Verify call.
type Record struct {
	Question string
	Answer   string
}

// Pipeline runs the plan, execute, and synthesize stages. A Pipeline is
// stateless across invocations and safe for concurrent use.
type Pipeline struct {
	completer   Completer
	filter      QuestionFilter
	prompts     Prompts
	parallelism int
	logger      *slog.Logger
	tracer      trace.Tracer
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithQuestionFilter sets the acceptance rule for planned question lines.
func WithQuestionFilter(filter QuestionFilter) Option {
	return func(p *Pipeline) {
		if filter != nil {
			p.filter = filter
		}
	}
}

// WithPrompts replaces the built-in prompt templates.
func WithPrompts(prompts Prompts) Option {
	return func(p *Pipeline) { p.prompts = prompts }
}

// WithParallelism bounds how many verification completions may be in flight
// at once during the execute stage. Values below 2 keep the stage sequential.
func WithParallelism(n int) Option {
	return func(p *Pipeline) { p.parallelism = n }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a pipeline over the given completer.
func New(completer Completer, opts ...Option) *Pipeline {
	p := &Pipeline{
		completer: completer,
		filter:    LeadingMarkFilter,
		prompts:   DefaultPrompts(),
		logger:    slog.Default(),
		tracer:    otel.Tracer("guardstack/cove"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Verify fact-checks botMessage against the completer and returns the
// corrected response. When planning accepts no verification questions the
// original botMessage is returned unchanged. Any completion failure aborts
// the invocation and propagates as a *domain.CompletionError; the caller, not
// the pipeline, decides the user-visible fallback.
func (p *Pipeline) Verify(ctx context.Context, userMessage, botMessage string) (string, error) {
	invocation := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "cove.verify",
		trace.WithAttributes(attribute.String("cove.invocation_id", invocation)))
	defer span.End()

	questions, err := p.plan(ctx, userMessage, botMessage)
	if err != nil {
		return "", err
	}
	if len(questions) == 0 {
		p.logger.Debug("no verification questions accepted, returning draft unchanged",
			slog.String("invocation_id", invocation))
		telemetry.RecordVerification(ctx, telemetry.VerificationMetrics{Outcome: telemetry.OutcomeUnverified})
		return botMessage, nil
	}

	records, err := p.execute(ctx, questions)
	if err != nil {
		return "", err
	}

	final, err := p.synthesize(ctx, userMessage, botMessage, records)
	if err != nil {
		return "", err
	}

	telemetry.RecordVerification(ctx, telemetry.VerificationMetrics{
		Outcome:   telemetry.OutcomeVerified,
		Questions: len(questions),
	})
	return final, nil
}

// plan builds the planning prompt, runs one completion, and filters the
// resulting lines into accepted verification questions.
func (p *Pipeline) plan(ctx context.Context, userMessage, botMessage string) ([]string, error) {
	ctx, span := p.tracer.Start(ctx, "cove.plan")
	defer span.End()
	start := time.Now()

	raw, err := p.completer.Complete(ctx, p.prompts.planPrompt(userMessage, botMessage))
	if err != nil {
		return nil, &domain.CompletionError{Stage: "plan", Err: err}
	}

	var questions []string
	lines := strings.Split(raw, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || !p.filter(line) {
			continue
		}
		questions = append(questions, line)
	}

	span.SetAttributes(
		attribute.Int("cove.lines", len(lines)),
		attribute.Int("cove.questions", len(questions)),
	)
	telemetry.RecordStage(ctx, telemetry.StageMetrics{Stage: "plan", Duration: time.Since(start)})

	p.logger.Debug("verification planning complete",
		slog.Int("lines", len(lines)),
		slog.Int("accepted", len(questions)))
	return questions, nil
}

// execute answers each question with an independent completion. Records are
// returned in original question order regardless of completion order. On
// failure or cancellation no partial records are returned.
func (p *Pipeline) execute(ctx context.Context, questions []string) ([]Record, error) {
	ctx, span := p.tracer.Start(ctx, "cove.execute",
		trace.WithAttributes(attribute.Int("cove.questions", len(questions))))
	defer span.End()
	start := time.Now()

	records := make([]Record, len(questions))

	if p.parallelism < 2 {
		for i, question := range questions {
			answer, err := p.completer.Complete(ctx, question)
			if err != nil {
				return nil, p.executeErr(ctx, err)
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			records[i] = Record{Question: question, Answer: answer}
		}
	} else if err := p.executeParallel(ctx, questions, records); err != nil {
		return nil, err
	}

	telemetry.RecordStage(ctx, telemetry.StageMetrics{Stage: "execute", Duration: time.Since(start)})
	return records, nil
}

func (p *Pipeline) executeParallel(ctx context.Context, questions []string, records []Record) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, p.parallelism)

	for i, question := range questions {
		wg.Add(1)
		go func(i int, question string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-runCtx.Done():
				return
			}

			answer, err := p.completer.Complete(runCtx, question)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()
				return
			}
			records[i] = Record{Question: question, Answer: answer}
		}(i, question)
	}
	wg.Wait()

	// Caller cancellation wins even when every completer call managed to
	// return: goroutines that saw runCtx close left their records empty, so
	// the collected set must not reach synthesis.
	if err := ctx.Err(); err != nil {
		return err
	}
	if firstErr != nil {
		return p.executeErr(ctx, firstErr)
	}
	return nil
}

// executeErr keeps caller-initiated cancellation distinguishable from a
// completion failure.
func (p *Pipeline) executeErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &domain.CompletionError{Stage: "execute", Err: err}
}

// synthesize folds the verification records into the final prompt and runs
// the closing completion.
func (p *Pipeline) synthesize(ctx context.Context, userMessage, botMessage string, records []Record) (string, error) {
	ctx, span := p.tracer.Start(ctx, "cove.synthesize")
	defer span.End()
	start := time.Now()

	blocks := make([]string, len(records))
	for i, record := range records {
		blocks[i] = "Q: " + record.Question + "\nA: " + record.Answer
	}
	prompt := p.prompts.synthesisPrompt(userMessage, botMessage, strings.Join(blocks, "\n"))

	final, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return "", &domain.CompletionError{Stage: "synthesize", Err: err}
	}

	telemetry.RecordStage(ctx, telemetry.StageMetrics{Stage: "synthesize", Duration: time.Since(start)})
	return final, nil
}
