package api

// Request and response bodies of the remote interview service.

// SessionInfo is returned by GET /interview/{token}/info.
type SessionInfo struct {
	PositionTitle  string `json:"position_title"`
	CandidateEmail string `json:"candidate_email"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

// ContactInfo mirrors the candidate_info object of the continue endpoints.
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Candidate converts the contact block to CandidateInfo.
func (c *ContactInfo) Candidate() CandidateInfo {
	if c == nil {
		return CandidateInfo{}
	}
	return CandidateInfo{Name: c.Name, Email: c.Email, Phone: c.Phone}
}

// ReasonRetryCeiling is the reason reported once the retry ceiling has been reached.
const ReasonRetryCeiling = "max_retries_reached"

// ContinuationStatus is returned by GET /interview/{token}/continue-status.
type ContinuationStatus struct {
	CanContinue       bool         `json:"can_continue"`
	HasProgress       bool         `json:"has_progress"`
	RetryCount        int          `json:"retry_count"`
	MaxRetries        int          `json:"max_retries"`
	TotalQuestions    int          `json:"total_questions"`
	AnsweredQuestions int          `json:"answered_questions"`
	ResumeUploaded    bool         `json:"resume_uploaded"`
	NextQuestionIndex int          `json:"next_question_index"`
	SessionStatus     string       `json:"session_status"`
	Reason            string       `json:"reason,omitempty"`
	CandidateInfo     *ContactInfo `json:"candidate_info,omitempty"`
}

// RetryCeilingReached reports whether the service refuses continuation because of too many attempts.
func (s *ContinuationStatus) RetryCeilingReached() bool {
	if s.Reason == ReasonRetryCeiling || s.SessionStatus == ReasonRetryCeiling {
		return true
	}
	return !s.CanContinue && s.MaxRetries > 0 && s.RetryCount >= s.MaxRetries
}

// Terminated reports whether the service forbids any further attempt. A session that was never
// started reports can_continue=false without progress or reason and is not terminated.
func (s *ContinuationStatus) Terminated() bool {
	if s.RetryCeilingReached() || s.SessionStatus == "completed" {
		return true
	}
	return !s.CanContinue && (s.HasProgress || s.Reason != "")
}

// Resumable reports whether a prior attempt can be picked up where it stopped.
func (s *ContinuationStatus) Resumable(total int) bool {
	if s.TotalQuestions > 0 {
		total = s.TotalQuestions
	}
	return s.CanContinue && s.HasProgress && s.AnsweredQuestions < total
}

// RemoteAnswer is one previously recorded answer returned by continue-interview.
type RemoteAnswer struct {
	QuestionID int      `json:"question_id"`
	AnswerText string   `json:"answer_text"`
	TimeTaken  int      `json:"time_taken"`
	Score      *float64 `json:"score,omitempty"`
	Feedback   string   `json:"ai_feedback,omitempty"`
}

// ContinueInterviewResponse is returned by POST /interview/{token}/continue-interview.
type ContinueInterviewResponse struct {
	Questions         []Question     `json:"questions"`
	Answers           []RemoteAnswer `json:"answers"`
	NextQuestionIndex int            `json:"next_question_index"`
	CandidateInfo     *ContactInfo   `json:"candidate_info,omitempty"`
}

// ExtractedData is what the service parsed out of the uploaded résumé.
type ExtractedData struct {
	Name   string   `json:"name,omitempty"`
	Email  string   `json:"email,omitempty"`
	Phone  string   `json:"phone,omitempty"`
	Skills []string `json:"skills,omitempty"`
}

// ResumeUploadResponse is returned by POST /interview/{token}/upload-resume.
type ResumeUploadResponse struct {
	Filename      string        `json:"filename"`
	ExtractedData ExtractedData `json:"extracted_data"`
	MissingFields []string      `json:"missing_fields"`
}

// StartInterviewResponse is returned by POST /interview/{token}/start-interview.
type StartInterviewResponse struct {
	Questions []Question `json:"questions"`
}

// SubmitAnswerRequest is the body of POST /interview/{token}/submit-answer.
type SubmitAnswerRequest struct {
	QuestionID     int    `json:"-"`
	QuestionNumber int    `json:"question_number"`
	Answer         string `json:"answer"`
	TimeTaken      int    `json:"time_taken"`
}

// Evaluation is the per-answer score returned by the service.
type Evaluation struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// SubmitAnswerResponse is returned by POST /interview/{token}/submit-answer.
type SubmitAnswerResponse struct {
	AnswerSubmitted    bool        `json:"answer_submitted"`
	InterviewCompleted bool        `json:"interview_completed"`
	Evaluation         *Evaluation `json:"evaluation,omitempty"`
	TotalScore         *float64    `json:"total_score,omitempty"`
	Summary            string      `json:"summary,omitempty"`
}

// ChatMessageRequest is the body of POST /interview/{token}/chat.
type ChatMessageRequest struct {
	Sender          string                 `json:"sender"`
	Message         string                 `json:"message"`
	MessageType     string                 `json:"message_type"`
	MessageMetadata map[string]interface{} `json:"message_metadata,omitempty"`
}
