package features

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interviewassistant/api"
	"interviewassistant/internal/repo"
	"interviewassistant/internal/service"
	"interviewassistant/internal/utils/sse"
	"interviewassistant/internal/utils/validate"
)

type runnerFixture struct {
	runner     *Runner
	client     *MockInterviewClient
	ticker     *manualTicker
	dispatcher *Dispatcher
	store      *repo.MemoryProgress
	hub        *sse.Hub
}

func newRunnerFixture(t *testing.T, status *api.ContinuationStatus, cfg RunnerConfig) *runnerFixture {
	t.Helper()

	client := &MockInterviewClient{}
	client.On("GetInfo", mock.Anything, testToken).Return(&api.SessionInfo{PositionTitle: "Backend Engineer"}, nil)
	client.On("GetContinueStatus", mock.Anything, testToken).Return(status, nil)

	ticker := &manualTicker{}
	cfg.Ticker = ticker.New

	d := NewDispatcher(DispatcherConfig{Workers: 2}, zap.NewNop())
	d.Start()

	store := repo.NewMemoryProgressRepository()
	hub := sse.NewHub()
	r := NewRunner(testToken, RunnerDeps{
		Client:     client,
		Store:      store,
		Dispatcher: d,
		Hub:        hub,
		Logger:     zap.NewNop(),
	}, cfg)

	t.Cleanup(func() {
		r.Shutdown()
		d.Stop()
	})
	return &runnerFixture{runner: r, client: client, ticker: ticker, dispatcher: d, store: store, hub: hub}
}

// started reconciles a fresh session and uploads a complete résumé.
func (f *runnerFixture) started(t *testing.T, questions []api.Question) {
	t.Helper()
	ctx := context.Background()

	f.client.On("UploadResume", mock.Anything, testToken, "cv.pdf", mock.Anything).Return(&api.ResumeUploadResponse{
		Filename:      "cv.pdf",
		ExtractedData: api.ExtractedData{Name: "Ada", Email: "ada@example.com", Phone: "5551234"},
	}, nil)
	f.client.On("StartInterview", mock.Anything, testToken).Return(&api.StartInterviewResponse{Questions: questions}, nil)

	d, err := f.runner.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, DecisionFresh, d.Kind)
	require.NoError(t, f.runner.UploadResume(ctx, "cv.pdf", strings.NewReader("%PDF-1.7")))
	require.Equal(t, api.PhaseInterview, f.runner.Snapshot().Phase)
}

func (f *runnerFixture) kinds() []api.ChatKind {
	var out []api.ChatKind
	for _, e := range f.runner.Chat().Entries() {
		out = append(out, e.Kind)
	}
	return out
}

func freshStatus() *api.ContinuationStatus {
	return &api.ContinuationStatus{TotalQuestions: 6}
}

func TestRunnerAnswersEveryQuestionInOrder(t *testing.T) {
	f := newRunnerFixture(t, freshStatus(), RunnerConfig{})
	f.client.On("SubmitAnswer", mock.Anything, testToken, mock.Anything).
		Return(&api.SubmitAnswerResponse{AnswerSubmitted: true, Evaluation: &api.Evaluation{Score: 8, Feedback: "solid"}}, nil)
	f.started(t, sixQuestions(1))
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		s := f.runner.Snapshot()
		require.Equal(t, i, s.Index)
		q, ok := s.CurrentQuestion()
		require.True(t, ok)
		assert.Equal(t, DefaultTimeLimit(DifficultyForNumber(i+1)), q.TimeLimit)
		assert.Equal(t, q.TimeLimit, s.Remaining)

		require.NoError(t, f.runner.SubmitAnswer(ctx, i, fmt.Sprintf("answer %d", i+1)))

		s = f.runner.Snapshot()
		assert.Equal(t, i+1, s.Index)
		assert.Len(t, s.Answers, len(s.Questions))
	}
	f.dispatcher.Wait()

	s := f.runner.Snapshot()
	assert.Equal(t, api.PhaseCompleted, s.Phase)
	assert.Equal(t, 6, s.Index)
	assert.Equal(t, 100, s.ProgressPercent())
	require.NotNil(t, s.Answers[5].Score)
	assert.Equal(t, 8.0, *s.Answers[5].Score)
	assert.Equal(t, "answer 1", s.Answers[0].Text)

	f.client.AssertNumberOfCalls(t, "SubmitAnswer", 6)
	f.client.AssertCalled(t, "SubmitAnswer", mock.Anything, testToken, api.SubmitAnswerRequest{
		QuestionID: 3, QuestionNumber: 3, Answer: "answer 3", TimeTaken: 0,
	})

	kinds := f.kinds()
	assert.Equal(t, api.ChatCompleted, kinds[len(kinds)-1])
	for i, a := range s.Answers {
		require.NotNil(t, a.Score, "answer %d", i)
		assert.Equal(t, "solid", a.Feedback)
	}

	_, found, err := f.store.Load(ctx, testToken)
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, f.runner.SubmitAnswer(ctx, 6, "late"), ErrCompleted)
}

// recordingMirror keeps every entry the chat log forwards.
type recordingMirror struct {
	mu      sync.Mutex
	entries []api.ChatEntry
}

func (m *recordingMirror) Mirror(_ context.Context, _ string, entry api.ChatEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *recordingMirror) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.ID)
	}
	return out
}

func TestRunnerTranscriptClosesAtCompletion(t *testing.T) {
	client := &MockInterviewClient{}
	client.On("GetInfo", mock.Anything, testToken).Return(&api.SessionInfo{}, nil)
	client.On("GetContinueStatus", mock.Anything, testToken).Return(freshStatus(), nil)
	client.On("UploadResume", mock.Anything, testToken, "cv.pdf", mock.Anything).Return(&api.ResumeUploadResponse{
		ExtractedData: api.ExtractedData{Name: "Ada", Email: "ada@example.com", Phone: "5551234"},
	}, nil)
	client.On("StartInterview", mock.Anything, testToken).Return(&api.StartInterviewResponse{Questions: sixQuestions(1)}, nil)
	client.On("SubmitAnswer", mock.Anything, testToken, mock.MatchedBy(func(req api.SubmitAnswerRequest) bool {
		return req.QuestionNumber != 3
	})).Run(func(mock.Arguments) { time.Sleep(20 * time.Millisecond) }).
		Return(&api.SubmitAnswerResponse{AnswerSubmitted: true, Evaluation: &api.Evaluation{Score: 7}}, nil)
	client.On("SubmitAnswer", mock.Anything, testToken, mock.MatchedBy(func(req api.SubmitAnswerRequest) bool {
		return req.QuestionNumber == 3
	})).Run(func(mock.Arguments) { time.Sleep(20 * time.Millisecond) }).
		Return(nil, errors.New("gateway timeout"))

	ticker := &manualTicker{}
	d := NewDispatcher(DispatcherConfig{Workers: 2, QueueSize: 64}, zap.NewNop())
	d.Start()
	mirror := &recordingMirror{}
	chat := NewChatLog(testToken, mirror, d, zap.NewNop())
	r := NewRunner(testToken, RunnerDeps{
		Client:     client,
		Store:      repo.NewMemoryProgressRepository(),
		Chat:       chat,
		Dispatcher: d,
		Logger:     zap.NewNop(),
	}, RunnerConfig{Ticker: ticker.New})
	t.Cleanup(func() {
		r.Shutdown()
		d.Stop()
	})
	ctx := context.Background()

	_, err := r.Reconcile(ctx)
	require.NoError(t, err)
	require.NoError(t, r.UploadResume(ctx, "cv.pdf", strings.NewReader("%PDF-1.7")))
	for i := 0; i < 6; i++ {
		require.NoError(t, r.SubmitAnswer(ctx, i, fmt.Sprintf("answer %d", i+1)))
	}
	require.Equal(t, api.PhaseCompleted, r.Snapshot().Phase)
	entriesAtCompletion := chat.Len()

	d.Wait()

	entries := chat.Entries()
	assert.Len(t, entries, entriesAtCompletion)
	assert.Equal(t, api.ChatCompleted, entries[len(entries)-1].Kind)

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, ids, mirror.ids())

	s := r.Snapshot()
	for i, a := range s.Answers {
		if i == 2 {
			assert.Nil(t, a.Score)
			continue
		}
		require.NotNil(t, a.Score, "answer %d", i)
		assert.Equal(t, 7.0, *a.Score)
	}
}

func TestRunnerReconcileTwiceKeepsOneGate(t *testing.T) {
	f := newRunnerFixture(t, resumableStatus(), RunnerConfig{ContinueWait: 5 * time.Second})
	ctx := context.Background()

	first, err := f.runner.Reconcile(ctx)
	require.NoError(t, err)
	second, err := f.runner.Reconcile(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Kind, second.Kind)
	assert.Equal(t, first.Phase, second.Phase)
	assert.Equal(t, first.Answered, second.Answered)
	require.Equal(t, 2, f.ticker.Started())
	require.Eventually(t, func() bool { return f.ticker.Stopped() == 1 }, time.Second, 5*time.Millisecond)

	ch := make(chan sse.Event, 16)
	f.hub.RegisterChannel("test", ch)
	defer f.hub.UnregisterChannel("test")

	f.ticker.TickAt(0, 1)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, ch)
	assert.Equal(t, 5, f.runner.Snapshot().GateRemaining)

	f.ticker.TickAt(1, 1)
	require.Eventually(t, func() bool { return len(ch) == 1 }, time.Second, 5*time.Millisecond)
	e := <-ch
	assert.Equal(t, sse.EventGate, e.Type)
	assert.Equal(t, 4, e.Remaining)
}

func TestRunnerRejectsDuplicateAndEmptySubmissions(t *testing.T) {
	f := newRunnerFixture(t, freshStatus(), RunnerConfig{})
	release := make(chan struct{})
	f.client.On("SubmitAnswer", mock.Anything, testToken, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(&api.SubmitAnswerResponse{AnswerSubmitted: true}, nil)
	f.started(t, sixQuestions(1))
	ctx := context.Background()

	assert.ErrorIs(t, f.runner.SubmitAnswer(ctx, 0, "   "), ErrEmptyAnswer)
	assert.Equal(t, 0, f.runner.Snapshot().Index)

	require.NoError(t, f.runner.SubmitAnswer(ctx, 0, "first"))
	assert.ErrorIs(t, f.runner.SubmitAnswer(ctx, 0, "first"), ErrSubmissionInFlight)
	assert.Equal(t, 1, f.runner.Snapshot().Pending)

	close(release)
	f.dispatcher.Wait()

	assert.ErrorIs(t, f.runner.SubmitAnswer(ctx, 0, "first"), ErrAlreadyAnswered)
	s := f.runner.Snapshot()
	assert.Equal(t, 1, s.Index)
	assert.Equal(t, 0, s.Pending)
	f.client.AssertNumberOfCalls(t, "SubmitAnswer", 1)
}

func TestRunnerSubmitsSentinelWhenTimeRunsOut(t *testing.T) {
	f := newRunnerFixture(t, freshStatus(), RunnerConfig{})
	f.client.On("SubmitAnswer", mock.Anything, testToken, mock.Anything).
		Return(&api.SubmitAnswerResponse{AnswerSubmitted: true}, nil)
	f.started(t, sixQuestions(1))

	f.ticker.Tick(20)
	require.Eventually(t, func() bool { return f.runner.Snapshot().Index == 1 }, time.Second, 5*time.Millisecond)
	f.dispatcher.Wait()

	s := f.runner.Snapshot()
	assert.Equal(t, api.NoAnswerSentinel, s.Answers[0].Text)
	assert.Equal(t, 20, s.Answers[0].TimeTaken)
	assert.Equal(t, 60, s.Remaining)
	f.client.AssertCalled(t, "SubmitAnswer", mock.Anything, testToken, api.SubmitAnswerRequest{
		QuestionID: 1, QuestionNumber: 1, Answer: api.NoAnswerSentinel, TimeTaken: 20,
	})
	assert.Contains(t, f.kinds(), api.ChatTimer)
}

func TestRunnerForcesSubmissionExactlyOnce(t *testing.T) {
	f := newRunnerFixture(t, freshStatus(), RunnerConfig{})
	f.client.On("SubmitAnswer", mock.Anything, testToken, mock.Anything).
		Return(&api.SubmitAnswerResponse{AnswerSubmitted: true}, nil)

	questions := sixQuestions(1)
	for i := range questions {
		questions[i].TimeLimit = 3
	}
	f.started(t, questions)
	require.NoError(t, f.runner.UpdateDraft("partial thought"))

	// More ticks than the limit arrive in one burst.
	f.ticker.Tick(9)
	require.Eventually(t, func() bool { return f.runner.Snapshot().Index == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	f.dispatcher.Wait()

	s := f.runner.Snapshot()
	assert.Equal(t, 1, s.Index)
	assert.Equal(t, 3, s.Remaining)
	assert.Empty(t, s.Draft)
	f.client.AssertNumberOfCalls(t, "SubmitAnswer", 1)
	f.client.AssertCalled(t, "SubmitAnswer", mock.Anything, testToken, api.SubmitAnswerRequest{
		QuestionID: 1, QuestionNumber: 1, Answer: "partial thought", TimeTaken: 3,
	})
}

func TestRunnerSubmissionFailureStillAdvances(t *testing.T) {
	f := newRunnerFixture(t, freshStatus(), RunnerConfig{})
	f.client.On("SubmitAnswer", mock.Anything, testToken, mock.MatchedBy(func(req api.SubmitAnswerRequest) bool {
		return req.QuestionNumber == 1
	})).Return(nil, errors.New("gateway timeout"))
	f.started(t, sixQuestions(1))
	ctx := context.Background()

	require.NoError(t, f.runner.SubmitAnswer(ctx, 0, "my answer"))
	assert.Equal(t, 1, f.runner.Snapshot().Index)
	f.dispatcher.Wait()

	s := f.runner.Snapshot()
	assert.Equal(t, api.PhaseInterview, s.Phase)
	assert.Equal(t, 1, s.Index)
	assert.True(t, s.Answers[0].Submitted)

	var failed []api.ChatEntry
	for _, e := range f.runner.Chat().Entries() {
		if e.Kind == api.ChatError {
			failed = append(failed, e)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].QuestionNumber)
	assert.Contains(t, failed[0].Text, "gateway timeout")
}

func TestRunnerRetryCeilingOnSubmissionCompletes(t *testing.T) {
	f := newRunnerFixture(t, freshStatus(), RunnerConfig{})
	f.client.On("SubmitAnswer", mock.Anything, testToken, mock.Anything).
		Return(nil, &service.APIError{Method: http.MethodPost, Path: "/submit-answer", Status: http.StatusConflict})
	f.started(t, sixQuestions(1))
	ctx := context.Background()

	require.NoError(t, f.runner.SubmitAnswer(ctx, 0, "answer"))
	f.dispatcher.Wait()

	s := f.runner.Snapshot()
	assert.Equal(t, api.PhaseCompleted, s.Phase)
	entries := f.runner.Chat().Entries()
	assert.Equal(t, noticeRetryCeiling, entries[len(entries)-1].Text)

	_, found, err := f.store.Load(ctx, testToken)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRunnerMissingInfoFlow(t *testing.T) {
	f := newRunnerFixture(t, freshStatus(), RunnerConfig{})
	ctx := context.Background()
	f.client.On("UploadResume", mock.Anything, testToken, "cv.docx", mock.Anything).Return(&api.ResumeUploadResponse{
		Filename:      "cv.docx",
		ExtractedData: api.ExtractedData{Name: "Ada", Email: "ada@example.com"},
		MissingFields: []string{"phone"},
	}, nil)
	complete := api.CandidateInfo{Name: "Ada", Email: "ada@example.com", Phone: "555-1234"}
	f.client.On("UpdateCandidateInfo", mock.Anything, testToken, complete).Return(nil).Once()
	f.client.On("StartInterview", mock.Anything, testToken).Return(&api.StartInterviewResponse{Questions: sixQuestions(1)}, nil)

	_, err := f.runner.Reconcile(ctx)
	require.NoError(t, err)
	require.NoError(t, f.runner.UploadResume(ctx, "cv.docx", strings.NewReader("docx bytes")))

	s := f.runner.Snapshot()
	assert.Equal(t, api.PhaseMissingInfo, s.Phase)
	assert.Equal(t, []string{"candidate_phone"}, s.MissingFields)
	assert.ErrorIs(t, f.runner.StartInterview(ctx), ErrWrongPhase)

	err = f.runner.SubmitCandidateInfo(ctx, api.CandidateInfo{Phone: "12"})
	var fieldErrs validate.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "candidate_phone")
	assert.Equal(t, api.PhaseMissingInfo, f.runner.Snapshot().Phase)

	require.NoError(t, f.runner.SubmitCandidateInfo(ctx, api.CandidateInfo{Phone: " 555-1234 "}))
	s = f.runner.Snapshot()
	assert.Equal(t, api.PhaseInterview, s.Phase)
	assert.Equal(t, complete, s.Candidate)
	assert.Empty(t, s.MissingFields)

	assert.ErrorIs(t, f.runner.UploadResume(ctx, "cv.pdf", strings.NewReader("x")), ErrWrongPhase)
	f.client.AssertExpectations(t)
}

func TestRunnerRejectsInvalidResume(t *testing.T) {
	f := newRunnerFixture(t, freshStatus(), RunnerConfig{})
	ctx := context.Background()
	_, err := f.runner.Reconcile(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, f.runner.UploadResume(ctx, "cv.txt", strings.NewReader("plain text")), ErrInvalidResume)
	assert.ErrorIs(t, f.runner.UploadResume(ctx, "cv.pdf", strings.NewReader("")), ErrInvalidResume)
	assert.Equal(t, api.PhaseUpload, f.runner.Snapshot().Phase)
	f.client.AssertNotCalled(t, "UploadResume", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunnerRetriesQuestionGeneration(t *testing.T) {
	f := newRunnerFixture(t, freshStatus(), RunnerConfig{})
	ctx := context.Background()
	f.client.On("UploadResume", mock.Anything, testToken, "cv.pdf", mock.Anything).Return(&api.ResumeUploadResponse{
		ExtractedData: api.ExtractedData{Name: "Ada", Email: "ada@example.com", Phone: "5551234"},
	}, nil)
	f.client.On("StartInterview", mock.Anything, testToken).Return(nil, errors.New("model overloaded")).Once()
	f.client.On("StartInterview", mock.Anything, testToken).Return(&api.StartInterviewResponse{Questions: sixQuestions(1)}, nil)

	_, err := f.runner.Reconcile(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, f.runner.StartInterview(ctx), ErrWrongPhase)

	err = f.runner.UploadResume(ctx, "cv.pdf", strings.NewReader("%PDF"))
	assert.ErrorContains(t, err, "model overloaded")
	s := f.runner.Snapshot()
	assert.Equal(t, api.PhaseUpload, s.Phase)
	assert.True(t, s.ResumeAccepted)

	require.NoError(t, f.runner.StartInterview(ctx))
	assert.Equal(t, api.PhaseInterview, f.runner.Snapshot().Phase)
}

func resumableStatus() *api.ContinuationStatus {
	return &api.ContinuationStatus{
		CanContinue:       true,
		HasProgress:       true,
		TotalQuestions:    6,
		AnsweredQuestions: 3,
		ResumeUploaded:    true,
		RetryCount:        1,
		MaxRetries:        3,
	}
}

func continueResponse() *api.ContinueInterviewResponse {
	return &api.ContinueInterviewResponse{
		Questions: sixQuestions(11),
		Answers: []api.RemoteAnswer{
			{QuestionID: 11, AnswerText: "one"},
			{QuestionID: 12, AnswerText: "two"},
			{QuestionID: 13, AnswerText: "three"},
		},
	}
}

func TestRunnerContinueWaitsForGate(t *testing.T) {
	f := newRunnerFixture(t, resumableStatus(), RunnerConfig{ContinueWait: 3 * time.Second})
	f.client.On("ContinueInterview", mock.Anything, testToken).Return(continueResponse(), nil)
	f.client.On("SubmitAnswer", mock.Anything, testToken, mock.Anything).
		Return(&api.SubmitAnswerResponse{AnswerSubmitted: true}, nil)
	ctx := context.Background()

	d, err := f.runner.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, DecisionContinue, d.Kind)

	s := f.runner.Snapshot()
	assert.True(t, s.AwaitingContinue)
	assert.False(t, s.GateOpen)
	assert.True(t, s.FinalAttempt)
	assert.ErrorIs(t, f.runner.Continue(ctx), ErrGateClosed)

	f.ticker.Tick(3)
	require.Eventually(t, func() bool { return f.runner.Snapshot().GateOpen }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.runner.Continue(ctx))
	s = f.runner.Snapshot()
	assert.Equal(t, api.PhaseInterview, s.Phase)
	assert.False(t, s.AwaitingContinue)
	assert.Equal(t, 3, s.Index)
	assert.Equal(t, 60, s.Remaining)
	assert.Equal(t, 50, s.ProgressPercent())

	require.NoError(t, f.runner.SubmitAnswer(ctx, 3, "four"))
	assert.Equal(t, 4, f.runner.Snapshot().Index)
	f.dispatcher.Wait()
	f.client.AssertCalled(t, "SubmitAnswer", mock.Anything, testToken, api.SubmitAnswerRequest{
		QuestionID: 14, QuestionNumber: 4, Answer: "four", TimeTaken: 0,
	})
}

func TestRunnerResumesWithCachedTime(t *testing.T) {
	tests := []struct {
		name   string
		cached api.Progress
		want   int
	}{
		{
			name:   "cache at the resume question",
			cached: api.Progress{Phase: api.PhaseInterview, CurrentQuestionIndex: 3, TimeRemaining: 40},
			want:   40,
		},
		{
			name:   "cache at another question",
			cached: api.Progress{Phase: api.PhaseInterview, CurrentQuestionIndex: 1, TimeRemaining: 40},
			want:   60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRunnerFixture(t, resumableStatus(), RunnerConfig{ResumePartialTime: true})
			f.client.On("ContinueInterview", mock.Anything, testToken).Return(continueResponse(), nil)
			ctx := context.Background()
			cached := tt.cached
			require.NoError(t, f.store.Save(ctx, testToken, &cached))

			_, err := f.runner.Reconcile(ctx)
			require.NoError(t, err)
			require.NoError(t, f.runner.Continue(ctx))

			s := f.runner.Snapshot()
			assert.Equal(t, 3, s.Index)
			assert.Equal(t, tt.want, s.Remaining)
		})
	}
}

func TestRunnerRestartDiscardsContinuation(t *testing.T) {
	f := newRunnerFixture(t, resumableStatus(), RunnerConfig{ContinueWait: 20 * time.Second})
	ctx := context.Background()

	_, err := f.runner.Reconcile(ctx)
	require.NoError(t, err)
	require.NoError(t, f.runner.Restart(ctx))

	s := f.runner.Snapshot()
	assert.Equal(t, api.PhaseUpload, s.Phase)
	assert.False(t, s.AwaitingContinue)
	assert.ErrorIs(t, f.runner.Continue(ctx), ErrWrongPhase)

	p, found, err := f.store.Load(ctx, testToken)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, api.PhaseUpload, p.Phase)
}

func TestRunnerTerminatedSession(t *testing.T) {
	f := newRunnerFixture(t, &api.ContinuationStatus{HasProgress: true, Reason: api.ReasonRetryCeiling}, RunnerConfig{})
	f.client.On("Complete", mock.Anything, testToken).Return(nil).Once()
	ctx := context.Background()

	ch := make(chan sse.Event, 16)
	f.hub.RegisterChannel("test", ch)
	defer f.hub.UnregisterChannel("test")

	d, err := f.runner.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, DecisionCompleted, d.Kind)
	assert.Equal(t, api.PhaseCompleted, f.runner.Snapshot().Phase)
	assert.Equal(t, []api.ChatKind{api.ChatCompleted}, f.kinds())

	assert.ErrorIs(t, f.runner.UploadResume(ctx, "cv.pdf", strings.NewReader("x")), ErrCompleted)
	assert.ErrorIs(t, f.runner.SubmitAnswer(ctx, 0, "x"), ErrCompleted)
	f.client.AssertExpectations(t)

	var phases []api.Phase
	for len(ch) > 0 {
		if e := <-ch; e.Type == sse.EventPhase {
			phases = append(phases, e.Phase)
		}
	}
	assert.Equal(t, []api.Phase{api.PhaseCompleted}, phases)
}
