package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	logging "interviewassistant/pkg/logger/pkg"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "interviewassistant",
	Short: "Candidate client for AI-assisted technical interviews",
	Long: `interviewassistant runs the candidate side of a timed technical interview.
It uploads the resume, walks through the generated questions with a per-question
clock, keeps resumable progress locally and mirrors the transcript for review.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("tracing.enabled") {
			tracer.Stop()
		}
		_ = logging.Logger(context.TODO()).Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "./config/config.yaml", "config file")
	rootCmd.PersistentFlags().String("api-url", "", "base url of the interview service")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(runCmd, statusCmd, clearCmd, auditCmd)
}

func setDefaults() {
	viper.SetDefault("api.base_url", "http://localhost:8000/api")
	viper.SetDefault("api.timeout", "30s")
	viper.SetDefault("interview.total_questions", 6)
	viper.SetDefault("interview.continue_wait", "20s")
	viper.SetDefault("interview.resume_partial_time", true)
	viper.SetDefault("store.driver", "file")
	viper.SetDefault("store.dir", ".interview-progress")
	viper.SetDefault("store.ttl", "24h")
	viper.SetDefault("redis.namespace", "interviewassistant")
	viper.SetDefault("rabbitmq.public_queue", "interview.transcript")
	viper.SetDefault("dispatch.workers", 2)
	viper.SetDefault("dispatch.queue_size", 64)
	viper.SetDefault("dispatch.enqueue_timeout", "1s")
	viper.SetDefault("dispatch.call_timeout", "30s")
	viper.SetDefault("sse.host", "127.0.0.1")
	viper.SetDefault("sse.port", 8089)
	viper.SetDefault("tracing.service", "interviewassistant")
	viper.SetDefault("log.level", "info")
}

func initConfig(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	setDefaults()
	viper.SetConfigFile(cfgFile)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}

	if err := initLogger(viper.GetString("log.file")); err != nil {
		return err
	}

	if viper.GetBool("tracing.enabled") {
		tracer.Start(
			tracer.WithService(viper.GetString("tracing.service")),
			tracer.WithEnv(viper.GetString("tracing.env")),
			tracer.WithLogStartup(false),
		)
	}

	logging.Logger(context.TODO()).Debug("Configuration loaded",
		zap.String("configFile", viper.ConfigFileUsed()),
		zap.String("apiBaseURL", viper.GetString("api.base_url")),
		zap.String("storeDriver", viper.GetString("store.driver")))
	return nil
}

func initLogger(file string) error {
	err := logging.InitLogger(logging.Config{
		Level:  viper.GetString("log.level"),
		Pretty: viper.GetBool("log.pretty"),
		File:   file,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if key := viper.GetString("log.request_id_key"); key != "" {
		logging.SetXRequestIDHeader(key)
	}
	return nil
}
