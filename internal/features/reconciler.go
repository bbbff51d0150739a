package features

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"interviewassistant/api"
	"interviewassistant/internal/repo"
	"interviewassistant/internal/service"
)

var ErrUnknownSession = errors.New("interview session not found")

type DecisionKind string

const (
	// DecisionFresh starts a new attempt at Upload.
	DecisionFresh DecisionKind = "fresh"
	// DecisionContinue offers continue-or-restart behind the continue gate.
	DecisionContinue DecisionKind = "continue"
	// DecisionCompleted means the service forbids any further attempt.
	DecisionCompleted DecisionKind = "completed"
)

const (
	noticeRetryCeiling = "You have reached the maximum number of attempts for this interview. Your answers have been submitted for evaluation."
	noticeNotContinuable = "This interview can no longer be continued. Thank you for your time."
)

// Decision is the outcome of reconciling the local cache with the service.
type Decision struct {
	Kind  DecisionKind
	Phase api.Phase
	// Answered is the service's answered count for DecisionContinue. It is not a position:
	// answers may have gaps, so the resume index comes from ResumePoint on Continue.
	Answered     int
	Answers      []api.Answer
	Info         *api.SessionInfo
	Status       *api.ContinuationStatus
	Cached       *api.Progress
	Notice       string
	FinalAttempt bool
}

// ResumePoint is the state rebuilt from the service's own answer list.
type ResumePoint struct {
	Questions []api.Question
	Answers   []api.Answer
	Index     int
	Candidate api.CandidateInfo
}

// Reconciler decides how a session starts after a (re)load.
type Reconciler struct {
	client service.InterviewClient
	store  repo.IProgress
	total  int
	logger *zap.Logger

	mu        sync.Mutex
	finalized map[string]bool
}

func NewReconciler(client service.InterviewClient, store repo.IProgress, totalQuestions int, logger *zap.Logger) *Reconciler {
	if totalQuestions <= 0 {
		totalQuestions = DefaultTotalQuestions
	}
	return &Reconciler{
		client:    client,
		store:     store,
		total:     totalQuestions,
		logger:    logger,
		finalized: make(map[string]bool),
	}
}

// Reconcile reads the session info and continuation status and applies the decision table.
// It only mutates remote state once per session: the forced completion on the retry ceiling.
func (r *Reconciler) Reconcile(ctx context.Context, token string) (*Decision, error) {
	info, err := r.client.GetInfo(ctx, token)
	if err != nil {
		if service.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnknownSession, err)
		}
		r.logger.Warn("Failed to fetch session info", zap.String("sessionToken", token), zap.Error(err))
		info = nil
	}

	status, err := r.client.GetContinueStatus(ctx, token)
	if err != nil {
		if service.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnknownSession, err)
		}
		return nil, fmt.Errorf("get continue status: %w", err)
	}

	cached, found, err := r.store.Load(ctx, token)
	if err != nil {
		r.logger.Warn("Ignoring unreadable progress cache", zap.String("sessionToken", token), zap.Error(err))
		cached, found = nil, false
	}
	if !found {
		cached = nil
	}

	d := &Decision{Info: info, Status: status, Cached: cached}

	switch {
	case status.RetryCeilingReached():
		d.Kind = DecisionCompleted
		d.Phase = api.PhaseCompleted
		d.Notice = noticeRetryCeiling
		r.finalize(ctx, token)
		r.clear(ctx, token)

	case status.Terminated():
		d.Kind = DecisionCompleted
		d.Phase = api.PhaseCompleted
		d.Notice = noticeNotContinuable
		r.clear(ctx, token)

	case status.Resumable(r.total):
		d.Kind = DecisionContinue
		d.Phase = api.PhaseInterview
		d.Answered = status.AnsweredQuestions
		d.FinalAttempt = status.RetryCount > 0

	default:
		d.Kind = DecisionFresh
		d.Phase = api.PhaseUpload
		d.Answered = 0
		d.Answers = []api.Answer{}
	}

	r.logger.Info("Session reconciled",
		zap.String("sessionToken", token),
		zap.String("decision", string(d.Kind)),
		zap.Int("answered", status.AnsweredQuestions),
		zap.Int("retryCount", status.RetryCount),
		zap.Bool("cached", cached != nil))
	return d, nil
}

// finalize issues the forced completion at most once per session.
func (r *Reconciler) finalize(ctx context.Context, token string) {
	r.mu.Lock()
	if r.finalized[token] {
		r.mu.Unlock()
		return
	}
	r.finalized[token] = true
	r.mu.Unlock()

	if err := r.client.Complete(ctx, token); err != nil {
		r.logger.Error("Forced completion failed", zap.String("sessionToken", token), zap.Error(err))
	}
}

func (r *Reconciler) clear(ctx context.Context, token string) {
	if err := r.store.Clear(ctx, token); err != nil {
		r.logger.Warn("Failed to clear progress cache", zap.String("sessionToken", token), zap.Error(err))
	}
}

// ResumePoint asks the service to continue and rebuilds the answer slots by question id.
// The resume index is the first slot without a recorded answer.
func (r *Reconciler) ResumePoint(ctx context.Context, token string) (*ResumePoint, error) {
	resp, err := r.client.ContinueInterview(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("continue interview: %w", err)
	}
	if len(resp.Questions) == 0 {
		return nil, errors.New("continue interview returned no questions")
	}

	questions := normalizeQuestions(resp.Questions)
	recorded := make(map[int]api.RemoteAnswer, len(resp.Answers))
	for _, a := range resp.Answers {
		recorded[a.QuestionID] = a
	}

	answers := make([]api.Answer, len(questions))
	index := len(questions)
	for i, q := range questions {
		a, ok := recorded[q.ID]
		if !ok {
			if index == len(questions) {
				index = i
			}
			continue
		}
		answers[i] = api.Answer{
			Text:      a.AnswerText,
			TimeTaken: clamp(a.TimeTaken, 0, q.TimeLimit),
			Submitted: true,
			Score:     a.Score,
			Feedback:  a.Feedback,
		}
	}

	return &ResumePoint{
		Questions: questions,
		Answers:   answers,
		Index:     index,
		Candidate: resp.CandidateInfo.Candidate(),
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
