package jobqueue

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
	"github.com/riskibarqy/smartping-sync/internal/platform/resilience"
	"github.com/riskibarqy/smartping-sync/internal/usecase"
)

func TestQStashPublisher_EnqueueSendsUpstashHeaders(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotDedup, gotForward, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotDedup = r.Header.Get("Upstash-Deduplication-Id")
		gotForward = r.Header.Get("Upstash-Forward-X-Internal-Job-Token")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          server.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://sync.example.org",
		InternalJobToken: "internal",
	}, logging.NewNop())

	payload := usecase.IndexNotification{Kind: usecase.IndexKindPlayer, Keys: []string{"6712345"}}
	if err := publisher.Enqueue(context.Background(), "v1/internal/search-index", payload, 0, "player-6712345"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if gotPath != "/v2/publish/https://sync.example.org/v1/internal/search-index" {
		t.Fatalf("unexpected publish path: %s", gotPath)
	}
	if gotAuth != "Bearer qstash-token" || gotDedup != "player-6712345" || gotForward != "internal" {
		t.Fatalf("unexpected headers: auth=%q dedup=%q forward=%q", gotAuth, gotDedup, gotForward)
	}
	if !strings.Contains(gotBody, `"kind":"player"`) || !strings.Contains(gotBody, `"6712345"`) {
		t.Fatalf("unexpected body: %s", gotBody)
	}
}

func TestQStashPublisher_RetryableStatusOpensCircuit(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       server.URL,
		TargetBaseURL: "https://sync.example.org",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
		},
	}, logging.NewNop())

	err := publisher.Enqueue(context.Background(), "/jobs", nil, 0, "")
	if err == nil || !isQStashCircuitFailure(err) {
		t.Fatalf("expected transient failure, got %v", err)
	}

	err = publisher.Enqueue(context.Background(), "/jobs", nil, 0, "")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("open circuit must not reach upstream, hits=%d", hits.Load())
	}
}

func TestQStashPublisher_ClientErrorDoesNotTripCircuit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:        server.URL,
		TargetBaseURL:  "https://sync.example.org",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1},
	}, logging.NewNop())

	for i := 0; i < 2; i++ {
		err := publisher.Enqueue(context.Background(), "/jobs", nil, 0, "")
		if err == nil || isQStashCircuitFailure(err) {
			t.Fatalf("attempt %d: expected non-transient error, got %v", i, err)
		}
	}
}

func TestQStashPublisher_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	publisher := NewQStashPublisher(QStashPublisherConfig{BaseURL: "ftp://qstash", TargetBaseURL: "https://x"}, logging.NewNop())
	if err := publisher.Enqueue(context.Background(), "/jobs", nil, 0, ""); err == nil {
		t.Fatalf("expected invalid base url error")
	}
	if err := publisher.Enqueue(context.Background(), " ", nil, 0, ""); err == nil {
		t.Fatalf("expected missing path error")
	}
}

func TestNormalizeDelay(t *testing.T) {
	t.Parallel()

	cases := map[time.Duration]string{
		0:                       "0s",
		-time.Second:            "0s",
		1500 * time.Millisecond: "2s",
		90 * time.Second:        "90s",
	}
	for in, want := range cases {
		if got := normalizeDelay(in); got != want {
			t.Fatalf("normalize %s: got=%s want=%s", in, got, want)
		}
	}
}
