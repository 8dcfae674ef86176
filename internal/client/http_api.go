package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/formula-ihu/quiz-api/internal/handler/dto"
	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
)

// HTTPAPI talks to the quiz server over its JSON endpoints.
type HTTPAPI struct {
	baseURL    string
	httpClient *http.Client
	// submitRetry bounds retries of a submission that failed with a 5xx
	submitRetry func() backoff.BackOff
}

// NewHTTPAPI creates a client for the server at baseURL (e.g. "https://quiz.fihu.gr").
func NewHTTPAPI(baseURL string, timeout time.Duration) *HTTPAPI {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPAPI{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		submitRetry: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 30 * time.Second
			return backoff.WithMaxRetries(b, 4)
		},
	}
}

type apiError struct {
	Error            string                  `json:"error"`
	AlreadySubmitted bool                    `json:"alreadySubmitted"`
	Submission       *dto.SubmissionResponse `json:"submission"`
	Details          []apperrors.FieldError  `json:"details"`
}

func (a *HTTPAPI) GetConfig(ctx context.Context) (*dto.QuizConfigResponse, error) {
	var cfg dto.QuizConfigResponse
	if err := a.do(ctx, http.MethodGet, "/quiz/config", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (a *HTTPAPI) GetSubmission(ctx context.Context, teamEmail string) (*dto.SubmissionResponse, error) {
	var status dto.SubmissionStatusResponse
	if err := a.do(ctx, http.MethodGet, "/quiz/submit?teamEmail="+url.QueryEscape(teamEmail), nil, &status); err != nil {
		return nil, err
	}
	if !status.Submitted {
		return nil, nil
	}
	return status.Submission, nil
}

func (a *HTTPAPI) GetProgress(ctx context.Context, teamEmail string) (*dto.ProgressResponse, error) {
	var envelope dto.ProgressEnvelope
	if err := a.do(ctx, http.MethodGet, "/quiz/progress?teamEmail="+url.QueryEscape(teamEmail), nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Progress, nil
}

func (a *HTTPAPI) SaveProgress(ctx context.Context, req dto.ProgressRequest) error {
	return a.do(ctx, http.MethodPost, "/quiz/progress", req, nil)
}

// Submit retries transient server failures. The unique team email makes a
// retry safe: a duplicate comes back as AlreadySubmitted with the first row.
func (a *HTTPAPI) Submit(ctx context.Context, req dto.SubmitRequest) (*dto.SubmissionResponse, error) {
	var resp dto.SubmitResponse
	op := func() error {
		err := a.do(ctx, http.MethodPost, "/quiz/submit", req, &resp)
		if err != nil && !errors.Is(err, apperrors.ErrUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(a.submitRetry(), ctx)); err != nil {
		return nil, err
	}
	return resp.Submission, nil
}

func (a *HTTPAPI) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", apperrors.ErrUnavailable, method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", apperrors.ErrUnavailable, err)
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
		return nil
	}

	var apiErr apiError
	_ = json.Unmarshal(raw, &apiErr)

	switch {
	case apiErr.AlreadySubmitted:
		return &AlreadySubmittedError{Submission: apiErr.Submission}
	case res.StatusCode == http.StatusBadRequest && len(apiErr.Details) > 0:
		return &apperrors.ValidationError{Fields: apiErr.Details}
	case res.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, apiErr.Error)
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, apiErr.Error)
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s returned %d", apperrors.ErrUnavailable, method, path, res.StatusCode)
	default:
		return fmt.Errorf("%s %s returned %d: %s", method, path, res.StatusCode, apiErr.Error)
	}
}
