package features

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"interviewassistant/api"
)

type MockInterviewClient struct {
	mock.Mock
}

func (m *MockInterviewClient) GetInfo(ctx context.Context, token string) (*api.SessionInfo, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.SessionInfo), args.Error(1)
}

func (m *MockInterviewClient) GetContinueStatus(ctx context.Context, token string) (*api.ContinuationStatus, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.ContinuationStatus), args.Error(1)
}

func (m *MockInterviewClient) ContinueInterview(ctx context.Context, token string) (*api.ContinueInterviewResponse, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.ContinueInterviewResponse), args.Error(1)
}

func (m *MockInterviewClient) UploadResume(ctx context.Context, token, filename string, file io.Reader) (*api.ResumeUploadResponse, error) {
	args := m.Called(ctx, token, filename, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.ResumeUploadResponse), args.Error(1)
}

func (m *MockInterviewClient) UpdateCandidateInfo(ctx context.Context, token string, info api.CandidateInfo) error {
	args := m.Called(ctx, token, info)
	return args.Error(0)
}

func (m *MockInterviewClient) StartInterview(ctx context.Context, token string) (*api.StartInterviewResponse, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.StartInterviewResponse), args.Error(1)
}

func (m *MockInterviewClient) SubmitAnswer(ctx context.Context, token string, req api.SubmitAnswerRequest) (*api.SubmitAnswerResponse, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.SubmitAnswerResponse), args.Error(1)
}

func (m *MockInterviewClient) Complete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockInterviewClient) AddChatMessage(ctx context.Context, token string, msg api.ChatMessageRequest) error {
	args := m.Called(ctx, token, msg)
	return args.Error(0)
}

// sixQuestions is a generated set with ids starting at firstID and no time limits filled in.
func sixQuestions(firstID int) []api.Question {
	out := make([]api.Question, 6)
	for i := range out {
		out[i] = api.Question{ID: firstID + i, Number: i + 1, Text: "question " + string(rune('A'+i))}
	}
	return out
}
