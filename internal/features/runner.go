package features

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"interviewassistant/api"
	"interviewassistant/internal/repo"
	"interviewassistant/internal/service"
	"interviewassistant/internal/utils/sse"
	"interviewassistant/internal/utils/validate"
)

var (
	ErrWrongPhase         = errors.New("action is not allowed in the current phase")
	ErrSubmissionInFlight = errors.New("an answer for this question is already being submitted")
	ErrAlreadyAnswered    = errors.New("question has already been answered")
	ErrGateClosed         = errors.New("continue is not available yet")
	ErrCompleted          = errors.New("interview is already completed")
	ErrInvalidResume      = errors.New("invalid resume file")
	ErrEmptyAnswer        = errors.New("answer is empty")
	ErrNoQuestions        = errors.New("interview service returned no questions")
)

// RunnerConfig holds the interview.* keys.
type RunnerConfig struct {
	TotalQuestions int
	ContinueWait   time.Duration
	// ResumePartialTime restarts a resumed question at its cached remaining time instead of the full limit.
	ResumePartialTime bool
	Ticker            TickerFunc
}

// Runner is the candidate session state machine: Upload -> MissingInfo -> Interview -> Completed.
// Every transition happens under mu, including the clock callbacks and the completions of
// dispatched submissions, so no two transitions interleave.
type Runner struct {
	mu         sync.Mutex
	token      string
	cfg        RunnerConfig
	client     service.InterviewClient
	store      repo.IProgress
	reconciler *Reconciler
	chat       *ChatLog
	dispatcher *Dispatcher
	hub        *sse.Hub
	clock      *SessionClock
	logger     *zap.Logger

	phase          api.Phase
	info           *api.SessionInfo
	decision       *Decision
	gate           *ContinueGate
	resumeAccepted bool
	candidate      api.CandidateInfo
	missing        []string
	questions      []api.Question
	answers        []api.Answer
	index          int
	remaining      int
	countdown      uint64
	draft          string
	submitted      map[int]bool
	pending        map[int]bool
	finalAttempt   bool
	totalScore     *float64
	summary        string
}

// RunnerDeps are the collaborators of a Runner. Dispatcher and Hub may be nil.
type RunnerDeps struct {
	Client     service.InterviewClient
	Store      repo.IProgress
	Reconciler *Reconciler
	Chat       *ChatLog
	Dispatcher *Dispatcher
	Hub        *sse.Hub
	Logger     *zap.Logger
}

func NewRunner(token string, deps RunnerDeps, cfg RunnerConfig) *Runner {
	if cfg.TotalQuestions <= 0 {
		cfg.TotalQuestions = DefaultTotalQuestions
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("sessionToken", token))

	chat := deps.Chat
	if chat == nil {
		chat = NewChatLog(token, nil, deps.Dispatcher, logger)
	}
	reconciler := deps.Reconciler
	if reconciler == nil {
		reconciler = NewReconciler(deps.Client, deps.Store, cfg.TotalQuestions, logger)
	}

	r := &Runner{
		token:      token,
		cfg:        cfg,
		client:     deps.Client,
		store:      deps.Store,
		reconciler: reconciler,
		chat:       chat,
		dispatcher: deps.Dispatcher,
		hub:        deps.Hub,
		logger:     logger,
		phase:      api.PhaseUpload,
		submitted:  make(map[int]bool),
		pending:    make(map[int]bool),
	}
	r.clock = NewSessionClock(logger, cfg.Ticker, r.handleTick, r.handleExpire)
	chat.OnAppend(func(e api.ChatEntry) {
		entry := e
		r.hub.Broadcast(sse.Event{Type: sse.EventChat, Entry: &entry})
	})
	return r
}

// Chat exposes the transcript.
func (r *Runner) Chat() *ChatLog {
	return r.chat
}

// Transcript returns the chat entries so far.
func (r *Runner) Transcript() []api.ChatEntry {
	return r.chat.Entries()
}

// Reconcile decides how this session starts. Fresh and terminal decisions are applied at once;
// a continue decision waits behind the continue gate for Continue or Restart.
func (r *Runner) Reconcile(ctx context.Context) (*Decision, error) {
	d, err := r.reconciler.Reconcile(ctx, r.token)
	if err != nil {
		return nil, err
	}
	if err := r.Resume(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Resume applies a reconciliation decision.
func (r *Runner) Resume(ctx context.Context, d *Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clock.Stop()
	r.countdown = 0
	if r.gate != nil {
		r.gate.Stop()
		r.gate = nil
	}
	r.decision = d
	r.info = d.Info
	if d.Status != nil {
		r.candidate = d.Status.CandidateInfo.Candidate()
		r.resumeAccepted = d.Status.ResumeUploaded
	}

	switch d.Kind {
	case DecisionCompleted:
		r.phase = api.PhaseCompleted
		r.appendLocked(ctx, api.ChatCompleted, d.Notice, 0)
		r.publishPhaseLocked()
		return nil

	case DecisionContinue:
		r.finalAttempt = d.FinalAttempt
		r.gate = NewContinueGate(r.logger, r.cfg.ContinueWait, r.cfg.Ticker, func(remaining int, open bool) {
			r.hub.Broadcast(sse.Event{Type: sse.EventGate, Remaining: remaining, Phase: api.PhaseInterview})
		})
		r.publishPhaseLocked()
		return nil

	default:
		r.resetLocked()
		r.appendLocked(ctx, api.ChatSystem, "Welcome! Please upload your resume (PDF or DOCX) to begin.", 0)
		r.persistLocked(ctx)
		r.publishPhaseLocked()
		return nil
	}
}

// Continue picks the attempt up at the first question the service has no answer for.
func (r *Runner) Continue(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.decision == nil || r.decision.Kind != DecisionContinue || r.phase == api.PhaseCompleted {
		return ErrWrongPhase
	}
	if r.gate != nil && !r.gate.Open() {
		return ErrGateClosed
	}

	point, err := r.reconciler.ResumePoint(ctx, r.token)
	if err != nil {
		if service.IsRetryCeiling(err) {
			r.terminateLocked(ctx, noticeRetryCeiling)
			return nil
		}
		return err
	}

	r.questions = point.Questions
	r.answers = point.Answers
	r.candidate = point.Candidate.Merge(r.candidate)
	r.submitted = make(map[int]bool)
	r.pending = make(map[int]bool)
	for i, a := range r.answers {
		if a.Submitted {
			r.submitted[i] = true
		}
	}
	r.index = point.Index
	cached := r.decision.Cached
	r.decision = nil
	r.gate = nil

	if r.index >= len(r.questions) {
		r.completeLocked(ctx, "All questions have already been answered. Thank you!")
		return nil
	}

	r.phase = api.PhaseInterview
	r.appendLocked(ctx, api.ChatSystem, fmt.Sprintf("Welcome back! Resuming at question %d of %d.", r.index+1, len(r.questions)), 0)
	r.askLocked(ctx, r.resumeSecondsLocked(cached))
	r.publishPhaseLocked()
	return nil
}

// Restart abandons the offered continuation and starts over at Upload.
func (r *Runner) Restart(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.decision == nil || r.decision.Kind != DecisionContinue {
		return ErrWrongPhase
	}
	if r.gate != nil {
		r.gate.Stop()
	}
	r.decision = nil
	r.gate = nil
	if err := r.store.Clear(ctx, r.token); err != nil {
		r.logger.Warn("Failed to clear progress cache", zap.Error(err))
	}
	r.resetLocked()
	r.appendLocked(ctx, api.ChatSystem, "Starting over. Please upload your resume (PDF or DOCX).", 0)
	r.persistLocked(ctx)
	r.publishPhaseLocked()
	return nil
}

// resumeSecondsLocked picks the clock value for the resumed question. The cached remainder is
// only trusted when it belongs to the same question the service says to resume at.
func (r *Runner) resumeSecondsLocked(cached *api.Progress) int {
	limit := r.questions[r.index].TimeLimit
	if !r.cfg.ResumePartialTime || cached == nil {
		return limit
	}
	if cached.Phase != api.PhaseInterview || cached.CurrentQuestionIndex != r.index {
		return limit
	}
	if cached.TimeRemaining > 0 && cached.TimeRemaining <= limit {
		return cached.TimeRemaining
	}
	return limit
}

// UploadResume validates the file locally, then sends it for parsing.
func (r *Runner) UploadResume(ctx context.Context, filename string, file io.Reader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkPhaseLocked(api.PhaseUpload); err != nil {
		return err
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}
	if err := validate.ResumeFile(filename, len(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResume, err)
	}

	resp, err := r.client.UploadResume(ctx, r.token, filename, bytes.NewReader(data))
	if err != nil {
		r.logger.Warn("Resume upload failed", zap.Error(err))
		return fmt.Errorf("upload resume: %w", err)
	}

	r.resumeAccepted = true
	extracted := api.CandidateInfo{
		Name:  resp.ExtractedData.Name,
		Email: resp.ExtractedData.Email,
		Phone: resp.ExtractedData.Phone,
	}
	r.candidate = extracted.Merge(r.candidate)
	r.appendLocked(ctx, api.ChatSystem, fmt.Sprintf("Resume %s uploaded.", filename), 0)

	if len(resp.MissingFields) > 0 {
		r.missing = make([]string, 0, len(resp.MissingFields))
		for _, f := range resp.MissingFields {
			r.missing = append(r.missing, validate.MissingFieldName(f))
		}
		r.phase = api.PhaseMissingInfo
		r.appendLocked(ctx, api.ChatSystem, "Please complete the missing details: "+strings.Join(r.missing, ", ")+".", 0)
		r.persistLocked(ctx)
		r.publishPhaseLocked()
		return nil
	}

	return r.startLocked(ctx)
}

// SubmitCandidateInfo completes the details the résumé parse could not find.
func (r *Runner) SubmitCandidateInfo(ctx context.Context, info api.CandidateInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkPhaseLocked(api.PhaseMissingInfo); err != nil {
		return err
	}

	merged := info.Merge(r.candidate)
	merged.Name = strings.TrimSpace(merged.Name)
	merged.Email = strings.TrimSpace(merged.Email)
	merged.Phone = strings.TrimSpace(merged.Phone)
	if err := validate.CandidateInfo(merged); err != nil {
		return err
	}

	if len(r.missing) > 0 {
		if err := r.client.UpdateCandidateInfo(ctx, r.token, merged); err != nil {
			r.logger.Warn("Candidate info update failed", zap.Error(err))
			return fmt.Errorf("update candidate info: %w", err)
		}
		r.candidate = merged
		r.missing = nil
		r.appendLocked(ctx, api.ChatSystem, "Thanks, your details are complete.", 0)
	}

	return r.startLocked(ctx)
}

// StartInterview retries question generation after a failed attempt.
func (r *Runner) StartInterview(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.phase == api.PhaseUpload && r.resumeAccepted:
	case r.phase == api.PhaseMissingInfo && len(r.missing) == 0:
	case r.phase == api.PhaseCompleted:
		return ErrCompleted
	default:
		return ErrWrongPhase
	}
	return r.startLocked(ctx)
}

func (r *Runner) startLocked(ctx context.Context) error {
	resp, err := r.client.StartInterview(ctx, r.token)
	if err != nil {
		if service.IsRetryCeiling(err) {
			r.terminateLocked(ctx, noticeRetryCeiling)
			return nil
		}
		r.logger.Warn("Question generation failed", zap.Error(err))
		return fmt.Errorf("start interview: %w", err)
	}
	if len(resp.Questions) == 0 {
		return ErrNoQuestions
	}

	r.questions = normalizeQuestions(resp.Questions)
	r.answers = make([]api.Answer, len(r.questions))
	r.submitted = make(map[int]bool)
	r.pending = make(map[int]bool)
	r.index = 0
	r.draft = ""
	r.phase = api.PhaseInterview

	r.appendLocked(ctx, api.ChatSystem, fmt.Sprintf("Your interview has started: %d questions, each with its own time limit.", len(r.questions)), 0)
	r.askLocked(ctx, r.questions[0].TimeLimit)
	r.publishPhaseLocked()
	return nil
}

// UpdateDraft records what the candidate has typed so far; it is submitted if the clock runs out.
func (r *Runner) UpdateDraft(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != api.PhaseInterview {
		return ErrWrongPhase
	}
	r.draft = text
	return nil
}

// SubmitAnswer submits text for the question at questionIndex and moves on. The index guards
// against a repeated submit landing on the next question.
func (r *Runner) SubmitAnswer(ctx context.Context, questionIndex int, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == api.PhaseInterview && questionIndex != r.index {
		switch {
		case r.pending[questionIndex]:
			return ErrSubmissionInFlight
		case r.submitted[questionIndex]:
			return ErrAlreadyAnswered
		default:
			return ErrWrongPhase
		}
	}
	return r.submitLocked(ctx, text, false)
}

func (r *Runner) submitLocked(ctx context.Context, text string, forced bool) error {
	switch r.phase {
	case api.PhaseInterview:
	case api.PhaseCompleted:
		return ErrCompleted
	default:
		return ErrWrongPhase
	}

	idx := r.index
	if r.pending[idx] {
		return ErrSubmissionInFlight
	}
	if r.submitted[idx] {
		return ErrAlreadyAnswered
	}

	answer := strings.TrimSpace(text)
	if answer == "" && !forced && r.remaining > 0 {
		return ErrEmptyAnswer
	}

	r.clock.Stop()
	r.countdown = 0

	q := r.questions[idx]
	timeTaken := clamp(q.TimeLimit-r.remaining, 0, q.TimeLimit)
	if answer == "" && r.remaining == 0 {
		answer = api.NoAnswerSentinel
	}

	r.submitted[idx] = true
	r.answers[idx] = api.Answer{Text: answer, TimeTaken: timeTaken, Submitted: true}
	r.appendLocked(ctx, api.ChatUser, answer, q.Number)

	req := api.SubmitAnswerRequest{
		QuestionID:     q.ID,
		QuestionNumber: q.Number,
		Answer:         answer,
		TimeTaken:      timeTaken,
	}
	r.dispatchLocked(ctx, idx, req)

	r.logger.Info("Answer submitted",
		zap.Int("questionIndex", idx),
		zap.Int("timeTaken", timeTaken),
		zap.Bool("forced", forced))

	r.advanceLocked(ctx)
	return nil
}

// dispatchLocked sends the answer without waiting for the service.
func (r *Runner) dispatchLocked(ctx context.Context, idx int, req api.SubmitAnswerRequest) {
	r.pending[idx] = true
	call := func(ctx context.Context) {
		resp, err := r.client.SubmitAnswer(ctx, r.token, req)
		r.onSubmitted(ctx, idx, resp, err)
	}

	if r.dispatcher == nil {
		go func() {
			callCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			call(callCtx)
		}()
		return
	}

	job := DispatchJob{Kind: "submit-answer", SessionToken: r.token, QuestionIndex: idx, Run: call}
	if !r.dispatcher.Enqueue(job) {
		delete(r.pending, idx)
		r.appendLocked(ctx, api.ChatError,
			fmt.Sprintf("Your answer to question %d could not be sent and may not have been recorded.", req.QuestionNumber), req.QuestionNumber)
	}
}

// onSubmitted folds the service's verdict back into the session. Once the session is
// Completed the transcript is closed: verdicts still land in the answers, nothing is appended.
func (r *Runner) onSubmitted(ctx context.Context, idx int, resp *api.SubmitAnswerResponse, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, idx)
	closed := r.phase == api.PhaseCompleted
	number := idx + 1
	if idx < len(r.questions) {
		number = r.questions[idx].Number
	}

	if err != nil {
		if service.IsRetryCeiling(err) && r.phase == api.PhaseInterview {
			r.terminateLocked(ctx, noticeRetryCeiling)
			return
		}
		r.logger.Error("Answer submission failed", zap.Int("questionIndex", idx), zap.Bool("afterCompletion", closed), zap.Error(err))
		if !closed {
			r.appendLocked(ctx, api.ChatError,
				fmt.Sprintf("Your answer to question %d may not have been recorded: %v", number, err), number)
		}
		return
	}
	if resp == nil {
		return
	}

	if resp.Evaluation != nil && idx < len(r.answers) {
		score := resp.Evaluation.Score
		r.answers[idx].Score = &score
		r.answers[idx].Feedback = resp.Evaluation.Feedback
		if !closed {
			text := fmt.Sprintf("Question %d scored %.1f.", number, score)
			if resp.Evaluation.Feedback != "" {
				text += " " + resp.Evaluation.Feedback
			}
			r.appendLocked(ctx, api.ChatSystem, text, number)
		}
		r.hub.Broadcast(sse.Event{Type: sse.EventScore, Phase: r.phase, Index: idx})
	}
	if resp.TotalScore != nil {
		total := *resp.TotalScore
		r.totalScore = &total
	}
	if resp.Summary != "" {
		r.summary = resp.Summary
	}
}

// advanceLocked moves past the question just submitted, skipping slots the service already holds.
func (r *Runner) advanceLocked(ctx context.Context) {
	r.index++
	for r.index < len(r.questions) && r.submitted[r.index] {
		r.index++
	}
	r.draft = ""

	if r.index >= len(r.questions) {
		r.completeLocked(ctx, "Thank you! Your interview is complete and has been submitted for review.")
		return
	}
	r.askLocked(ctx, r.questions[r.index].TimeLimit)
}

// askLocked issues the current question and starts its clock.
func (r *Runner) askLocked(ctx context.Context, seconds int) {
	q := r.questions[r.index]
	r.appendLocked(ctx, api.ChatQuestion,
		fmt.Sprintf("Question %d of %d (%s, %ds): %s", q.Number, len(r.questions), q.Difficulty, q.TimeLimit, q.Text), q.Number)

	r.remaining = seconds
	r.countdown = r.clock.Start(seconds)
	r.persistLocked(ctx)
	r.hub.Broadcast(sse.Event{Type: sse.EventQuestion, Phase: r.phase, Index: r.index, Remaining: r.remaining})
}

// completeLocked ends the session after the last answer.
func (r *Runner) completeLocked(ctx context.Context, text string) {
	r.clock.Stop()
	r.countdown = 0
	r.phase = api.PhaseCompleted
	r.index = len(r.questions)
	r.remaining = 0
	r.appendLocked(ctx, api.ChatCompleted, text, 0)
	if err := r.store.Clear(ctx, r.token); err != nil {
		r.logger.Warn("Failed to clear progress cache", zap.Error(err))
	}
	r.publishPhaseLocked()
}

// terminateLocked ends the session because the service refuses further attempts.
func (r *Runner) terminateLocked(ctx context.Context, notice string) {
	if r.phase == api.PhaseCompleted {
		return
	}
	r.logger.Warn("Session terminated by the interview service")
	r.completeLocked(ctx, notice)
}

func (r *Runner) handleTick(generation uint64, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if generation != r.countdown || r.phase != api.PhaseInterview {
		return
	}
	r.remaining = remaining
	r.persistLocked(context.Background())
	r.hub.Broadcast(sse.Event{Type: sse.EventTick, Phase: r.phase, Index: r.index, Remaining: remaining})
}

func (r *Runner) handleExpire(generation uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if generation != r.countdown || r.phase != api.PhaseInterview || r.submitted[r.index] {
		return
	}

	ctx := context.Background()
	r.remaining = 0
	q := r.questions[r.index]
	r.appendLocked(ctx, api.ChatTimer, fmt.Sprintf("Time is up for question %d.", q.Number), q.Number)
	if err := r.submitLocked(ctx, r.draft, true); err != nil {
		r.logger.Error("Forced submission failed", zap.Int("questionIndex", r.index), zap.Error(err))
	}
}

func (r *Runner) checkPhaseLocked(want api.Phase) error {
	if r.phase == want {
		return nil
	}
	if r.phase == api.PhaseCompleted {
		return ErrCompleted
	}
	return ErrWrongPhase
}

func (r *Runner) resetLocked() {
	r.phase = api.PhaseUpload
	r.questions = nil
	r.answers = []api.Answer{}
	r.submitted = make(map[int]bool)
	r.pending = make(map[int]bool)
	r.index = 0
	r.remaining = 0
	r.draft = ""
	r.missing = nil
	r.totalScore = nil
	r.summary = ""
}

func (r *Runner) appendLocked(ctx context.Context, kind api.ChatKind, text string, questionNumber int) {
	r.chat.Append(ctx, api.ChatEntry{Kind: kind, Text: text, QuestionNumber: questionNumber})
}

// persistLocked writes the progress record; a failed write is logged and the session goes on.
func (r *Runner) persistLocked(ctx context.Context) {
	if r.phase == api.PhaseCompleted {
		return
	}
	texts := make([]string, len(r.answers))
	for i, a := range r.answers {
		texts[i] = a.Text
	}
	p := &api.Progress{
		Phase:                r.phase,
		CurrentQuestionIndex: r.index,
		Answers:              texts,
		TimeRemaining:        r.remaining,
	}
	if err := r.store.Save(ctx, r.token, p); err != nil {
		r.logger.Warn("Failed to save progress", zap.Error(err))
	}
}

func (r *Runner) publishPhaseLocked() {
	r.hub.Broadcast(sse.Event{Type: sse.EventPhase, Phase: r.phase, Index: r.index, Remaining: r.remaining})
}

// Snapshot is a copy of the runner state for rendering.
type Snapshot struct {
	Phase            api.Phase
	Info             *api.SessionInfo
	Candidate        api.CandidateInfo
	MissingFields    []string
	Questions        []api.Question
	Answers          []api.Answer
	Index            int
	Remaining        int
	Draft            string
	Pending          int
	AwaitingContinue bool
	GateOpen         bool
	GateRemaining    int
	FinalAttempt     bool
	ResumeAccepted   bool
	TotalScore       *float64
	Summary          string
}

// CurrentQuestion returns the active question while the interview runs.
func (s Snapshot) CurrentQuestion() (api.Question, bool) {
	if s.Phase != api.PhaseInterview || s.Index < 0 || s.Index >= len(s.Questions) {
		return api.Question{}, false
	}
	return s.Questions[s.Index], true
}

// ProgressPercent is the share of answered questions.
func (s Snapshot) ProgressPercent() int {
	if len(s.Questions) == 0 {
		return 0
	}
	answered := 0
	for _, a := range s.Answers {
		if a.Submitted {
			answered++
		}
	}
	return answered * 100 / len(s.Questions)
}

func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Phase:          r.phase,
		Info:           r.info,
		Candidate:      r.candidate,
		MissingFields:  append([]string(nil), r.missing...),
		Questions:      append([]api.Question(nil), r.questions...),
		Answers:        append([]api.Answer(nil), r.answers...),
		Index:          r.index,
		Remaining:      r.remaining,
		Draft:          r.draft,
		Pending:        len(r.pending),
		FinalAttempt:   r.finalAttempt,
		ResumeAccepted: r.resumeAccepted,
		TotalScore:     r.totalScore,
		Summary:        r.summary,
	}
	if r.decision != nil && r.decision.Kind == DecisionContinue {
		s.AwaitingContinue = true
		s.GateOpen = r.gate == nil || r.gate.Open()
		if r.gate != nil {
			s.GateRemaining = r.gate.Remaining()
		}
	}
	return s
}

// Shutdown stops the clock. In-flight submissions are left to the dispatcher.
func (r *Runner) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock.Stop()
	r.countdown = 0
	if r.gate != nil {
		r.gate.Stop()
	}
}
