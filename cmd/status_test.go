package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"interviewassistant/api"
	"interviewassistant/internal/features"
	"interviewassistant/internal/service"
)

func TestNewStatusReport(t *testing.T) {
	d := &features.Decision{
		Kind:         features.DecisionContinue,
		Phase:        api.PhaseInterview,
		Answered:     2,
		Info:         &api.SessionInfo{PositionTitle: "Backend Engineer"},
		Status:       &api.ContinuationStatus{AnsweredQuestions: 3, RetryCount: 2, MaxRetries: 3, TotalQuestions: 6},
		Cached:       &api.Progress{CurrentQuestionIndex: 3, TimeRemaining: 41},
		FinalAttempt: true,
	}

	r := newStatusReport("tok", 6, d)
	assert.Equal(t, "continue", r.Decision)
	assert.Equal(t, "Backend Engineer", r.Position)
	assert.Equal(t, 3, r.Answered)
	assert.Equal(t, 2, r.RetryCount)
	if assert.NotNil(t, r.CachedIndex) {
		assert.Equal(t, 3, *r.CachedIndex)
		assert.Equal(t, 41, *r.CachedRemaining)
	}

	var buf bytes.Buffer
	printStatus(&buf, r)
	out := buf.String()
	assert.Contains(t, out, "Backend Engineer")
	assert.Contains(t, out, "3/6")
	assert.Contains(t, out, "2/3")
	assert.Contains(t, out, "question 4, 41s left")
	assert.Contains(t, out, "final attempt")
}

func TestNewStatusReportFresh(t *testing.T) {
	r := newStatusReport("tok", 6, &features.Decision{Kind: features.DecisionFresh, Phase: api.PhaseUpload})

	assert.Equal(t, 0, r.Answered)
	assert.Equal(t, 6, r.Total)
	assert.Nil(t, r.CachedIndex)

	var buf bytes.Buffer
	printStatus(&buf, r)
	assert.NotContains(t, buf.String(), "Attempts")
	assert.NotContains(t, buf.String(), "Local cache")
}

func TestPrintAuditRecord(t *testing.T) {
	var buf bytes.Buffer
	printAuditRecord(&buf, service.AuditRecord{
		SessionToken: "tok",
		Entry: api.ChatEntry{
			Kind:           api.ChatUser,
			Text:           "I would shard by tenant.",
			CreatedAt:      time.Date(2024, 5, 1, 9, 30, 5, 0, time.UTC),
			QuestionNumber: 2,
		},
	})

	assert.Contains(t, buf.String(), "09:30:05")
	assert.Contains(t, buf.String(), "[user q2] I would shard by tenant.")
}
