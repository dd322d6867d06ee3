package mirrors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
	}))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	urls := []string{healthy.URL, broken.URL, "http://127.0.0.1:1/unroutable"}
	statuses := NewChecker(2).Check(context.Background(), urls)

	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	// results preserve input order
	for i, url := range urls {
		if statuses[i].URL != url {
			t.Errorf("status %d: expected %q, got %q", i, url, statuses[i].URL)
		}
	}
	if !statuses[0].Reachable || statuses[0].Code != http.StatusOK {
		t.Errorf("healthy mirror misreported: %+v", statuses[0])
	}
	if statuses[1].Reachable {
		t.Errorf("500 mirror should not count as reachable: %+v", statuses[1])
	}
	if statuses[2].Error == "" {
		t.Errorf("unroutable mirror should record an error: %+v", statuses[2])
	}
}

func TestCheck_Empty(t *testing.T) {
	statuses := NewChecker(0).Check(context.Background(), nil)
	if len(statuses) != 0 {
		t.Errorf("expected no statuses, got %v", statuses)
	}
}

func TestNewCheckerWithTimeout(t *testing.T) {
	c := NewCheckerWithTimeout(0, 2*time.Second)
	if c.http.Timeout != 2*time.Second {
		t.Errorf("timeout = %v", c.http.Timeout)
	}
	if c.concurrency != defaultConcurrency {
		t.Errorf("concurrency = %d", c.concurrency)
	}
	if d := NewChecker(3).http.Timeout; d != defaultTimeout {
		t.Errorf("default timeout = %v", d)
	}
}
