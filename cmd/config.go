package cmd

import (
	"github.com/spf13/viper"

	"interviewassistant/internal/features"
)

func readRunnerConfig() features.RunnerConfig {
	return features.RunnerConfig{
		TotalQuestions:    viper.GetInt("interview.total_questions"),
		ContinueWait:      viper.GetDuration("interview.continue_wait"),
		ResumePartialTime: viper.GetBool("interview.resume_partial_time"),
	}
}

func readDispatcherConfig() features.DispatcherConfig {
	return features.DispatcherConfig{
		Workers:        viper.GetInt("dispatch.workers"),
		QueueSize:      viper.GetInt("dispatch.queue_size"),
		EnqueueTimeout: viper.GetDuration("dispatch.enqueue_timeout"),
		CallTimeout:    viper.GetDuration("dispatch.call_timeout"),
	}
}
