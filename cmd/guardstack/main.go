// Package main is the entry point for the guardstack binary.
//
// It composes the selected guardrails into one runtime policy and starts an
// interactive chat loop enforcing it.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/guardstack/guardstack/pkg/actions"
	"github.com/guardstack/guardstack/pkg/catalog"
	"github.com/guardstack/guardstack/pkg/compose"
	"github.com/guardstack/guardstack/pkg/config"
	"github.com/guardstack/guardstack/pkg/cove"
	"github.com/guardstack/guardstack/pkg/llm"
	"github.com/guardstack/guardstack/pkg/logging"
	"github.com/guardstack/guardstack/pkg/session"
	"github.com/guardstack/guardstack/pkg/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for guardstack.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "guardstack",
		Short: "Composable runtime guardrails with chain-of-verification",
		Long: `Compose a content-safety policy from a library of guardrail fragments and
chat against it. The fact-checking guardrail runs a chain-of-verification
pass over every drafted response.

Example:
  guardstack --config guardstack.yaml --select 1,3`,
		RunE: runChat,
	}

	rootCmd.Flags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.Flags().StringP("select", "s", "", "Comma-separated guardrail ids to activate (prompts interactively when omitted)")
	rootCmd.Flags().StringP("log-level", "l", "", "Log level (debug, info, warn, error); overrides config")
	rootCmd.Flags().Bool("pretty", false, "Human-friendly log output")

	return rootCmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	selectFlag, err := cmd.Flags().GetString("select")
	if err != nil {
		return fmt.Errorf("failed to get select flag: %w", err)
	}
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	pretty, err := cmd.Flags().GetBool("pretty")
	if err != nil {
		return fmt.Errorf("failed to get pretty flag: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if pretty {
		cfg.Logging.Pretty = true
	}

	logging.SetupLogger(logging.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel(cfg.Logging.Level)}))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName: "guardstack",
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownTelemetry(shutdownCtx)
	}()

	library, cleanup, err := buildCatalog(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	selection, err := resolveSelection(cmd, library, selectFlag)
	if err != nil {
		return err
	}

	base, err := cfg.LoadBaseRails()
	if err != nil {
		return err
	}

	metrics := session.NewMetrics()

	engine := compose.NewEngine(library)
	policy, err := engine.Compose(selection, base)
	if err != nil {
		metrics.RecordComposition("error")
		return err
	}
	metrics.RecordComposition("ok")

	client, err := llm.New(llm.Config{
		Provider: cfg.Provider.Name,
		Model:    cfg.Provider.Model,
		Endpoint: cfg.Provider.Endpoint,
		APIKey:   cfg.APIKey(),
		Timeout:  time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return err
	}

	registry, err := buildRegistry(cfg, client, logger)
	if err != nil {
		return err
	}
	if err := registry.Load(policy.ActionModules); err != nil {
		// A missing action would break the flow depending on it, so a load
		// failure aborts the whole composition.
		return err
	}

	runtime := session.NewSelfCheckRuntime(client, logger)
	sess, err := session.New(ctx, runtime, policy, registry, metrics, logger)
	if err != nil {
		return err
	}

	if addr := cfg.Telemetry.MetricsAddress; addr != "" {
		go serveMetrics(addr, metrics, logger)
	}

	printBanner(cmd, cfg, library, policy)
	return chatLoop(ctx, cmd, sess)
}

// buildCatalog returns the fragment library: the built-in guardrails,
// overlaid with the operator catalog file when one is configured.
func buildCatalog(cfg *config.Config) (catalog.Catalog, func(), error) {
	builtin := catalog.Builtin()
	if cfg.Rails.CatalogFile == "" {
		return builtin, func() {}, nil
	}

	provider, err := catalog.NewFileProvider(cfg.Rails.CatalogFile)
	if err != nil {
		return nil, nil, err
	}
	return catalog.NewOverlay(provider, builtin), func() { _ = provider.Close() }, nil
}

// buildRegistry registers the action modules the built-in fragments can
// reference.
func buildRegistry(cfg *config.Config, client llm.Client, logger *slog.Logger) (*actions.Registry, error) {
	prompts := cove.DefaultPrompts()
	if dir := cfg.Verifier.PromptsDir; dir != "" {
		loaded, err := cove.LoadPrompts(dir)
		if err != nil {
			return nil, err
		}
		prompts = loaded
	}

	pipeline := cove.New(client,
		cove.WithQuestionFilter(cove.FilterByName(cfg.Verifier.QuestionFilter)),
		cove.WithParallelism(cfg.Verifier.Parallelism),
		cove.WithPrompts(prompts),
		cove.WithLogger(logger),
	)

	registry := actions.NewRegistry()
	registry.RegisterModule(catalog.SelfCheckModule, func() (actions.Module, error) {
		return actions.ModuleFunc{
			Ref: catalog.SelfCheckModule,
			Map: map[string]actions.Action{
				"self_check_facts": func(ctx context.Context, args actions.Args) (string, error) {
					return pipeline.Verify(ctx, args.UserMessage, args.BotMessage)
				},
			},
		}, nil
	})
	return registry, nil
}

// resolveSelection parses the --select flag, or prompts interactively when
// it is empty.
func resolveSelection(cmd *cobra.Command, library catalog.Catalog, selectFlag string) ([]string, error) {
	if selectFlag != "" {
		return splitSelection(selectFlag), nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Available guardrails:")
	for _, fragment := range library.List() {
		fmt.Fprintf(out, "  %s: %s\n", fragment.ID, fragment.DisplayName)
	}
	fmt.Fprint(out, "\nEnter the ids of the guardrails to activate (e.g. 1 3 5), or press Enter for none: ")

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return nil, nil
	}
	return splitSelection(line), nil
}

func splitSelection(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

func printBanner(cmd *cobra.Command, cfg *config.Config, library catalog.Catalog, policy *compose.Policy) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nguardstack chat")
	fmt.Fprintln(out, "---------------")
	fmt.Fprintf(out, "Provider: %s (%s)\n", cfg.Provider.Name, cfg.Provider.Model)
	if len(policy.Selected) > 0 {
		fmt.Fprintln(out, "Active guardrails:")
		for _, id := range policy.Selected {
			if fragment, ok := library.Get(id); ok {
				fmt.Fprintf(out, "- %s\n", fragment.DisplayName)
			}
		}
	} else {
		fmt.Fprintln(out, "Active guardrails: none")
	}
	fmt.Fprintln(out, "Enter 'exit' to quit.")
	fmt.Fprintln(out)
}

func chatLoop(ctx context.Context, cmd *cobra.Command, sess *session.Session) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// Input is read on its own goroutine so an interrupt ends the loop
	// immediately instead of waiting for the next line.
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "You: ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case input, ok := <-lines:
			if !ok {
				return scanner.Err()
			}
			line = input
		}

		userMessage := strings.TrimSpace(line)
		if userMessage == "" {
			continue
		}
		if strings.EqualFold(userMessage, "exit") {
			return nil
		}

		reply, err := sess.Turn(ctx, userMessage)
		if err != nil {
			// Turn-level failures degrade to one message; the session
			// continues.
			fmt.Fprintf(out, "An error occurred: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "Bot: %s\n", reply)
	}
}

func serveMetrics(addr string, metrics *session.Metrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("serving metrics", slog.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server failed", slog.String("error", err.Error()))
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
