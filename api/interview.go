package api

import "time"

// Phase is the coarse stage of a candidate session.
type Phase string

const (
	PhaseUpload      Phase = "upload"
	PhaseMissingInfo Phase = "missing-info"
	PhaseInterview   Phase = "interview"
	PhaseCompleted   Phase = "completed"
)

// Difficulty of a generated question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// NoAnswerSentinel is submitted in place of empty text when the clock ran out.
const NoAnswerSentinel = "[No answer provided - time expired]"

// Question is immutable once issued by the interview service.
type Question struct {
	ID         int        `json:"id"`
	Number     int        `json:"question_number"`
	Difficulty Difficulty `json:"difficulty"`
	Category   string     `json:"category,omitempty"`
	TimeLimit  int        `json:"time_limit"`
	Text       string     `json:"question"`
}

// Answer is the candidate's attempt at one question. The zero value is an unanswered slot.
type Answer struct {
	Text      string   `json:"text"`
	TimeTaken int      `json:"time_taken"`
	Submitted bool     `json:"submitted"`
	Score     *float64 `json:"score,omitempty"`
	Feedback  string   `json:"feedback,omitempty"`
}

// Progress is the locally cached, resumable state of one session.
type Progress struct {
	Phase                Phase    `json:"phase"`
	CurrentQuestionIndex int      `json:"current_question_index"`
	Answers              []string `json:"answers"`
	TimeRemaining        int      `json:"time_remaining"`
}

// ChatKind discriminates transcript entries.
type ChatKind string

const (
	ChatSystem    ChatKind = "system"
	ChatUser      ChatKind = "user"
	ChatQuestion  ChatKind = "question"
	ChatTimer     ChatKind = "timer"
	ChatCompleted ChatKind = "completed"
	ChatError     ChatKind = "error"
)

// ChatEntry is one line of the transcript. QuestionNumber ties an entry to a question (the question,
// the answer, its timer, score or failure) and is zero for session-level entries.
type ChatEntry struct {
	ID             string    `json:"id"`
	Kind           ChatKind  `json:"kind"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	QuestionNumber int       `json:"question_number,omitempty"`
}

// CandidateInfo holds the fields the service needs before questions can be generated.
type CandidateInfo struct {
	Name  string `json:"candidate_name,omitempty" validate:"required"`
	Email string `json:"candidate_email,omitempty" validate:"required,email"`
	Phone string `json:"candidate_phone,omitempty" validate:"required,min=7,max=20"`
}

// Merge returns info with empty fields filled from other.
func (info CandidateInfo) Merge(other CandidateInfo) CandidateInfo {
	if info.Name == "" {
		info.Name = other.Name
	}
	if info.Email == "" {
		info.Email = other.Email
	}
	if info.Phone == "" {
		info.Phone = other.Phone
	}
	return info
}
