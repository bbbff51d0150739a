package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"interviewassistant/internal/features"
	"interviewassistant/internal/service"
	logging "interviewassistant/pkg/logger/pkg"
)

var statusCmd = &cobra.Command{
	Use:   "status <session-token>",
	Short: "Show how a session would start without starting it",
	Long: `Reconcile the local progress cache with the interview service and print the decision:
fresh, continue (with the resume point) or completed.

A session that reached the retry ceiling is finalized on the service, as a run would do.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "print the decision as JSON")
}

// StatusReport is the printable form of a reconciliation decision
type StatusReport struct {
	Token           string `json:"token"`
	Decision        string `json:"decision"`
	Phase           string `json:"phase"`
	Position        string `json:"position,omitempty"`
	Answered        int    `json:"answered"`
	Total           int    `json:"total"`
	RetryCount      int    `json:"retry_count"`
	MaxRetries      int    `json:"max_retries"`
	FinalAttempt    bool   `json:"final_attempt"`
	CachedIndex     *int   `json:"cached_index,omitempty"`
	CachedRemaining *int   `json:"cached_time_remaining,omitempty"`
	Notice          string `json:"notice,omitempty"`
}

func newStatusReport(token string, total int, d *features.Decision) StatusReport {
	r := StatusReport{
		Token:        token,
		Decision:     string(d.Kind),
		Phase:        string(d.Phase),
		Total:        total,
		Answered:     d.Answered,
		FinalAttempt: d.FinalAttempt,
		Notice:       d.Notice,
	}
	if d.Info != nil {
		r.Position = d.Info.PositionTitle
	}
	if d.Status != nil {
		r.Answered = d.Status.AnsweredQuestions
		r.RetryCount = d.Status.RetryCount
		r.MaxRetries = d.Status.MaxRetries
		if d.Status.TotalQuestions > 0 {
			r.Total = d.Status.TotalQuestions
		}
	}
	if d.Cached != nil {
		index, remaining := d.Cached.CurrentQuestionIndex, d.Cached.TimeRemaining
		r.CachedIndex = &index
		r.CachedRemaining = &remaining
	}
	return r
}

func runStatus(cmd *cobra.Command, args []string) error {
	token := args[0]
	ctx := logging.WithSessionToken(cmd.Context(), token)
	logger := logging.Logger(ctx)

	repository, err := openRepository(ctx, viper.GetString("store.driver"), logger)
	if err != nil {
		return err
	}
	defer repository.Close()

	total := viper.GetInt("interview.total_questions")
	client := service.NewInterviewHTTPClient(service.ReadClientConfig(), logger)
	reconciler := features.NewReconciler(client, repository.Progress, total, logger)

	d, err := reconciler.Reconcile(ctx, token)
	if err != nil {
		return fmt.Errorf("reconcile session: %w", err)
	}

	report := newStatusReport(token, total, d)
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printStatus(cmd.OutOrStdout(), report)
	return nil
}

func printStatus(w io.Writer, r StatusReport) {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	value := lipgloss.NewStyle().Bold(true)

	line := func(name, v string) {
		fmt.Fprintf(w, "%s %s\n", label.Render(fmt.Sprintf("%-14s", name+":")), value.Render(v))
	}

	line("Session", r.Token)
	if r.Position != "" {
		line("Position", r.Position)
	}
	line("Decision", r.Decision)
	line("Phase", r.Phase)
	line("Answered", fmt.Sprintf("%d/%d", r.Answered, r.Total))
	if r.MaxRetries > 0 {
		line("Attempts", fmt.Sprintf("%d/%d", r.RetryCount, r.MaxRetries))
	}
	if r.CachedIndex != nil {
		line("Local cache", fmt.Sprintf("question %d, %ds left", *r.CachedIndex+1, *r.CachedRemaining))
	}
	if r.FinalAttempt {
		line("Warning", "final attempt")
	}
	if r.Notice != "" {
		fmt.Fprintln(w, r.Notice)
	}
}
