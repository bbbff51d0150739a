package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	httptrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/net/http"

	"interviewassistant/api"
	logging "interviewassistant/pkg/logger/pkg"
)

// InterviewClient is the remote interview service as seen by the candidate runner.
type InterviewClient interface {
	GetInfo(ctx context.Context, token string) (*api.SessionInfo, error)
	GetContinueStatus(ctx context.Context, token string) (*api.ContinuationStatus, error)
	ContinueInterview(ctx context.Context, token string) (*api.ContinueInterviewResponse, error)
	UploadResume(ctx context.Context, token, filename string, file io.Reader) (*api.ResumeUploadResponse, error)
	UpdateCandidateInfo(ctx context.Context, token string, info api.CandidateInfo) error
	StartInterview(ctx context.Context, token string) (*api.StartInterviewResponse, error)
	SubmitAnswer(ctx context.Context, token string, req api.SubmitAnswerRequest) (*api.SubmitAnswerResponse, error)
	Complete(ctx context.Context, token string) error
	AddChatMessage(ctx context.Context, token string, msg api.ChatMessageRequest) error
}

// ClientConfig holds the api.* keys.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Trace   bool
}

func ReadClientConfig() ClientConfig {
	_ = viper.BindEnv("api.base_url", "INTERVIEW_API_URL")
	return ClientConfig{
		BaseURL: viper.GetString("api.base_url"),
		Timeout: viper.GetDuration("api.timeout"),
		Trace:   viper.GetBool("tracing.enabled"),
	}
}

// InterviewHTTPClient implements InterviewClient over the service's REST API
type InterviewHTTPClient struct {
	client  *http.Client
	baseURL string
	logger  *zap.Logger
}

func NewInterviewHTTPClient(cfg ClientConfig, logger *zap.Logger) *InterviewHTTPClient {
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Trace {
		client = httptrace.WrapClient(client, httptrace.RTWithServiceName("interview-api"))
	}
	return &InterviewHTTPClient{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

func (c *InterviewHTTPClient) endpoint(token, action string) string {
	return fmt.Sprintf("/interview/%s/%s", url.PathEscape(token), action)
}

func (c *InterviewHTTPClient) GetInfo(ctx context.Context, token string) (*api.SessionInfo, error) {
	var out api.SessionInfo
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint(token, "info"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *InterviewHTTPClient) GetContinueStatus(ctx context.Context, token string) (*api.ContinuationStatus, error) {
	var out api.ContinuationStatus
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint(token, "continue-status"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *InterviewHTTPClient) ContinueInterview(ctx context.Context, token string) (*api.ContinueInterviewResponse, error) {
	var out api.ContinueInterviewResponse
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint(token, "continue-interview"), struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadResume sends the file as the "file" part of a multipart form.
func (c *InterviewHTTPClient) UploadResume(ctx context.Context, token, filename string, file io.Reader) (*api.ResumeUploadResponse, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy resume: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	var out api.ResumeUploadResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint(token, "upload-resume"), &buf, form.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *InterviewHTTPClient) UpdateCandidateInfo(ctx context.Context, token string, info api.CandidateInfo) error {
	return c.doJSON(ctx, http.MethodPut, c.endpoint(token, "candidate-info"), info, nil)
}

func (c *InterviewHTTPClient) StartInterview(ctx context.Context, token string) (*api.StartInterviewResponse, error) {
	var out api.StartInterviewResponse
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint(token, "start-interview"), struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *InterviewHTTPClient) SubmitAnswer(ctx context.Context, token string, req api.SubmitAnswerRequest) (*api.SubmitAnswerResponse, error) {
	path := c.endpoint(token, "submit-answer")
	if req.QuestionID > 0 {
		path += "?question_id=" + strconv.Itoa(req.QuestionID)
	}
	var out api.SubmitAnswerResponse
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *InterviewHTTPClient) Complete(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, c.endpoint(token, "complete"), struct{}{}, nil)
}

func (c *InterviewHTTPClient) AddChatMessage(ctx context.Context, token string, msg api.ChatMessageRequest) error {
	return c.doJSON(ctx, http.MethodPost, c.endpoint(token, "chat"), msg, nil)
}

func (c *InterviewHTTPClient) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payloadBytes, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		body = bytes.NewReader(payloadBytes)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

func (c *InterviewHTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	requestID := logging.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	c.logger.Debug("Interview service call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("x_request_id", requestID),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", path, err)
	}
	return nil
}
