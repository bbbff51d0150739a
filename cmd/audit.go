package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"interviewassistant/internal/service"
	logging "interviewassistant/pkg/logger/pkg"
	rabbit "interviewassistant/pkg/rabbit/pkg"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Tail transcript entries published to the audit queue",
	Long: `Consume the transcript audit queue and print each entry as it arrives.
Requires rabbitmq.enabled. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().String("session", "", "only print entries of this session token")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg := rabbit.ReadConfig()
	if !cfg.Enabled {
		return errors.New("rabbitmq is disabled, set rabbitmq.enabled to tail the audit queue")
	}
	only, _ := cmd.Flags().GetString("session")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := logging.Logger(ctx)

	out := cmd.OutOrStdout()
	return rabbit.New(cfg).Consume(ctx, func(ctx context.Context, msg amqp.Delivery) error {
		var rec service.AuditRecord
		if err := json.Unmarshal(msg.Body, &rec); err != nil {
			logger.Warn("Skipping malformed audit record", zap.Error(err))
			return nil
		}
		if only != "" && rec.SessionToken != only {
			return nil
		}
		printAuditRecord(out, rec)
		return nil
	})
}

var auditToken = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

func printAuditRecord(w io.Writer, rec service.AuditRecord) {
	label := string(rec.Entry.Kind)
	if rec.Entry.QuestionNumber > 0 {
		label = fmt.Sprintf("%s q%d", label, rec.Entry.QuestionNumber)
	}
	fmt.Fprintf(w, "%s %s [%s] %s\n",
		rec.Entry.CreatedAt.Format("15:04:05"),
		auditToken.Render(rec.SessionToken),
		label,
		rec.Entry.Text)
}
