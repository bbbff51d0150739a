package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"interviewassistant/internal/features"
	"interviewassistant/internal/service"
	"interviewassistant/internal/tui"
	"interviewassistant/internal/utils/sse"
	logging "interviewassistant/pkg/logger/pkg"
	rabbit "interviewassistant/pkg/rabbit/pkg"
)

// defaultRunLogFile keeps log lines off the interview screen when log.file is unset.
const defaultRunLogFile = "interviewassistant.log"

var runCmd = &cobra.Command{
	Use:   "run <session-token>",
	Short: "Take the interview for a session token",
	Long: `Start or resume the interview identified by the token from the invitation link.

Examples:
  # Take the interview, keeping progress in the default store
  interviewassistant run 6f1c9a2e

  # Keep progress in memory only
  interviewassistant run 6f1c9a2e --ephemeral
`,
	Args: cobra.ExactArgs(1),
	RunE: runInterview,
}

func init() {
	runCmd.Flags().Bool("ephemeral", false, "keep progress in memory only")
	runCmd.Flags().Bool("sse", false, "stream session events over SSE")
	_ = viper.BindPFlag("sse.enabled", runCmd.Flags().Lookup("sse"))
}

func runInterview(cmd *cobra.Command, args []string) error {
	token := args[0]

	if viper.GetString("log.file") == "" {
		if err := initLogger(defaultRunLogFile); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithSessionToken(ctx, token)
	logger := logging.Logger(ctx)

	driver := viper.GetString("store.driver")
	if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
		driver = "memory"
	}
	repository, err := openRepository(ctx, driver, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repository.Close(); err != nil {
			logger.Warn("Failed to close progress store", zap.Error(err))
		}
	}()

	client := service.NewInterviewHTTPClient(service.ReadClientConfig(), logger)

	dispatcher := features.NewDispatcher(readDispatcherConfig(), logger)
	dispatcher.Start()
	defer func() {
		dispatcher.Stop()
		logger.Info("Dispatcher stopped", zap.Any("metrics", dispatcher.GetMetrics()))
	}()

	mirror := service.MultiMirror{
		service.NewHTTPMirror(client),
		service.NewAuditMirror(rabbit.New(rabbit.ReadConfig())),
	}
	chat := features.NewChatLog(token, mirror, dispatcher, logger)

	hub := sse.NewHub()
	events := make(chan sse.Event, 64)
	hub.RegisterChannel("tui", events)
	defer hub.UnregisterChannel("tui")

	if viper.GetBool("sse.enabled") {
		srv := startSSE(hub, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	runner := features.NewRunner(token, features.RunnerDeps{
		Client:     client,
		Store:      repository.Progress,
		Chat:       chat,
		Dispatcher: dispatcher,
		Hub:        hub,
		Logger:     logger,
	}, readRunnerConfig())
	defer runner.Shutdown()

	span, spanCtx := tracer.StartSpanFromContext(ctx, "interview.reconcile")
	decision, err := runner.Reconcile(spanCtx)
	span.Finish(tracer.WithError(err))
	if err != nil {
		return fmt.Errorf("reconcile session: %w", err)
	}
	logger.Info("Starting interview screen", zap.String("decision", string(decision.Kind)))

	return tui.Run(ctx, runner, events)
}
