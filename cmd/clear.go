package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	logging "interviewassistant/pkg/logger/pkg"
)

var clearCmd = &cobra.Command{
	Use:   "clear <session-token>",
	Short: "Drop the locally cached progress of a session",
	Long: `Remove the cached question index and remaining time kept for a session.
The interview service remains the source of truth; the next run resumes from its record.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := args[0]
		ctx := logging.WithSessionToken(cmd.Context(), token)
		logger := logging.Logger(ctx)

		repository, err := openRepository(ctx, viper.GetString("store.driver"), logger)
		if err != nil {
			return err
		}
		defer repository.Close()

		if err := repository.Progress.Clear(ctx, token); err != nil {
			return fmt.Errorf("clear progress: %w", err)
		}
		logger.Info("Progress cleared")
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared cached progress for %s\n", token)
		return nil
	},
}
