package kilonova

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	errs "subharvest/pkg/errors"
	"subharvest/pkg/logger"
	"subharvest/pkg/retry"
)

func testRetryConfig() *retry.Config {
	return &retry.Config{
		MaxAttempts: 3,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     retry.DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNopLogger(),
	}
}

const pageBody = `{
	"status": "success",
	"data": {
		"submissions": [
			{"id": 2, "created_at": "2024-03-01T10:15:30Z", "user_id": 1, "problem_id": 5, "score": 100, "status": "finished"},
			{"id": 1, "created_at": "2024-03-01T09:00:00Z", "user_id": 1, "problem_id": 5, "score": 40, "status": "finished"}
		],
		"users": {"1": {"id": 1, "name": "alice"}},
		"problems": {"5": {"id": 5, "name": "sum", "time_limit": 0.1}}
	}
}`

func TestFetchSubmissionPage(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		q := r.URL.Query()
		if q.Get("ascending") != "false" || q.Get("ordering") != "id" {
			t.Errorf("Unexpected query parameters: %s", r.URL.RawQuery)
		}
		if q.Get("offset") != "100" {
			t.Errorf("Expected offset 100, got %q", q.Get("offset"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(pageBody))
	}))
	defer server.Close()

	client := NewClientWithRetry(server.URL, 5*time.Second, testRetryConfig(), logger.NewNopLogger())

	page, err := client.FetchSubmissionPage(context.Background(), PageQuery{Limit: 50, Offset: 100})
	if err != nil {
		t.Fatalf("FetchSubmissionPage failed: %v", err)
	}

	if len(page.Data.Submissions) != 2 {
		t.Errorf("Expected 2 submissions, got %d", len(page.Data.Submissions))
	}
	if page.Data.Submissions[0].ID != 2 {
		t.Errorf("Expected first submission id 2, got %d", page.Data.Submissions[0].ID)
	}
	if requests.Load() != 1 {
		t.Errorf("Expected 1 request, got %d", requests.Load())
	}
}

func TestFetchSubmissionPageRetriesServerError(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(pageBody))
	}))
	defer server.Close()

	client := NewClientWithRetry(server.URL, 5*time.Second, testRetryConfig(), logger.NewNopLogger())

	page, err := client.FetchSubmissionPage(context.Background(), PageQuery{Limit: 50})
	if err != nil {
		t.Fatalf("Expected success after retries, got error: %v", err)
	}
	if len(page.Data.Submissions) != 2 {
		t.Errorf("Expected 2 submissions, got %d", len(page.Data.Submissions))
	}
	if requests.Load() != 3 {
		t.Errorf("Expected 3 requests, got %d", requests.Load())
	}
}

func TestFetchSubmissionPageNotFoundIsNotRetried(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientWithRetry(server.URL, 5*time.Second, testRetryConfig(), logger.NewNopLogger())

	_, err := client.FetchSubmissionPage(context.Background(), PageQuery{Limit: 50})
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}

	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeNotFound {
		t.Errorf("Expected not_found error, got %v", err)
	}
	if requests.Load() != 1 {
		t.Errorf("Expected 1 request for non-retryable error, got %d", requests.Load())
	}
}

func TestFetchSubmissionPageMalformedJSON(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"status": "success", "data": {`))
	}))
	defer server.Close()

	client := NewClientWithRetry(server.URL, 5*time.Second, testRetryConfig(), logger.NewNopLogger())

	_, err := client.FetchSubmissionPage(context.Background(), PageQuery{Limit: 50})
	if err == nil {
		t.Fatal("Expected error for malformed JSON")
	}

	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeParsing {
		t.Errorf("Expected parsing error, got %v", err)
	}
	if requests.Load() != 1 {
		t.Errorf("Expected 1 request for parsing error, got %d", requests.Load())
	}
}

func TestFetchSubmissionPageRateLimitRetriesAndLogs(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	capture := logger.NewTestLogger()
	client := NewClientWithRetry(server.URL, 5*time.Second, testRetryConfig(), capture)

	_, err := client.FetchSubmissionPage(context.Background(), PageQuery{Limit: 50})
	if err == nil {
		t.Fatal("Expected error after retry exhaustion")
	}

	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeRateLimit {
		t.Errorf("Expected rate_limit error, got %v", err)
	}
	if requests.Load() != 3 {
		t.Errorf("Expected 3 requests before giving up, got %d", requests.Load())
	}

	warnings := capture.MessagesAtLevel("WARN")
	if len(warnings) == 0 {
		t.Error("Expected rate limit warnings to be logged")
	}
}

func TestFetchSubmissionPageEnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "error", "data": {}}`))
	}))
	defer server.Close()

	client := NewClientWithRetry(server.URL, 5*time.Second, testRetryConfig(), logger.NewNopLogger())

	_, err := client.FetchSubmissionPage(context.Background(), PageQuery{Limit: 50})
	if err == nil {
		t.Fatal("Expected error for non-success envelope")
	}

	var apiErr *errs.Error
	if !errors.As(err, &apiErr) || apiErr.Type != errs.ErrorTypeParsing {
		t.Errorf("Expected parsing error, got %v", err)
	}
}

func TestFetchSubmissionPageEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "success", "data": {"submissions": [], "users": {}, "problems": {}}}`))
	}))
	defer server.Close()

	client := NewClientWithRetry(server.URL, 5*time.Second, testRetryConfig(), logger.NewNopLogger())

	page, err := client.FetchSubmissionPage(context.Background(), PageQuery{Limit: 50})
	if err != nil {
		t.Fatalf("Expected empty page to be valid, got error: %v", err)
	}
	if len(page.Data.Submissions) != 0 {
		t.Errorf("Expected 0 submissions, got %d", len(page.Data.Submissions))
	}
}

func TestSetHeader(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`{"status": "success", "data": {}}`))
	}))
	defer server.Close()

	client := NewClientWithRetry(server.URL, 5*time.Second, testRetryConfig(), logger.NewNopLogger())
	client.SetHeader("User-Agent", "custom-agent/2.0")

	if _, err := client.FetchSubmissionPage(context.Background(), PageQuery{Limit: 50}); err != nil {
		t.Fatalf("FetchSubmissionPage failed: %v", err)
	}
	if gotAgent != "custom-agent/2.0" {
		t.Errorf("Expected custom User-Agent, got %q", gotAgent)
	}
}
