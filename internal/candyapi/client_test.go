package candyapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/csheth/candyrag/internal/i18n"
)

const minimalResponse = `{"query":"q","language":"fi","total_time":1.5,
 "final_answer":{"en":"answer","fi":"vastaus"},
 "steps":[{"step":"query_processing","title":{"en":"t"},"data":{"original_query":"q"},"processing_time":0.1}]}`

func TestQueryPostsQueryAndLanguage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Fatal("expected a request id header")
		}
		var payload struct {
			Query    string `json:"query"`
			Language string `json:"language"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if payload.Query != "Mikä on makein karkki?" || payload.Language != "fi" {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(minimalResponse))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL + "/", HTTPClient: server.Client()})
	resp, err := client.Query(context.Background(), "Mikä on makein karkki?", i18n.Finnish)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(resp.Steps) != 1 {
		t.Fatalf("step count mismatch: got %d want 1", len(resp.Steps))
	}
	if got := resp.FinalAnswer.In(i18n.Finnish); got != "vastaus" {
		t.Fatalf("final answer mismatch: got %q", got)
	}
}

func TestQueryStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := client.Query(context.Background(), "q", i18n.English)
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() != "HTTP error! status: 500" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected StatusError 500, got %v", err)
	}
}

func TestQueryBadResponse(t *testing.T) {
	cases := map[string]string{
		"not json":     `<html>oops</html>`,
		"no steps":     `{"steps":[],"final_answer":{"en":"a","fi":"b"}}`,
		"missing lang": `{"steps":[{"step":"x"}],"final_answer":{"en":"a"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			client := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
			_, err := client.Query(context.Background(), "q", i18n.English)
			if !errors.Is(err, ErrBadResponse) {
				t.Fatalf("expected ErrBadResponse, got %v", err)
			}
		})
	}
}

func TestQueryTransportErrorIsVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(Config{BaseURL: url})
	_, err := client.Query(context.Background(), "q", i18n.English)
	if err == nil {
		t.Fatal("expected transport error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) || errors.Is(err, ErrBadResponse) {
		t.Fatalf("transport failure misclassified: %v", err)
	}
}

func TestQueryHonorsCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	client := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	if _, err := client.Query(ctx, "q", i18n.English); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestResetPostsWithoutBody(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if r.URL.Path != "/reset" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.ContentLength > 0 {
			t.Fatalf("reset should not send a body")
		}
		w.Write([]byte(`{"message":"Demo reset successfully"}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	if err := client.Reset(context.Background()); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if !called {
		t.Fatal("reset endpoint not called")
	}
}

func TestCandiesDecodesAndDedupes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/candies" || r.Method != http.MethodGet {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"candies":[
			{"id":"1","name":"Rainbow Gummy Bears","sweetness":8,"price":2.99,"allergens":["none"]},
			{"id":"1","name":"Duplicate"},
			{"id":"2","name":"Chocolate Dreams","sweetness":7,"price":4.99}]}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	candies, err := client.Candies(context.Background())
	if err != nil {
		t.Fatalf("candies failed: %v", err)
	}
	if len(candies) != 2 {
		t.Fatalf("candy count mismatch: got %d want 2", len(candies))
	}
	if candies[0].Name != "Rainbow Gummy Bears" {
		t.Fatalf("unexpected first candy: %s", candies[0].Name)
	}
}

func TestNewReadsBaseURLFromEnv(t *testing.T) {
	t.Setenv(EnvBaseURL, "http://candy.example:9000/")
	if got := New(Config{}).BaseURL(); got != "http://candy.example:9000" {
		t.Fatalf("base url mismatch: got %s", got)
	}
}

func TestPickHTTPClientHonorsCustomClient(t *testing.T) {
	custom := &http.Client{Timeout: 42 * time.Second}
	if got := pickHTTPClient(custom); got != custom {
		t.Fatalf("expected custom client to be returned")
	}
	if got := pickHTTPClient(nil); got.Timeout != defaultHTTPTimeout {
		t.Fatalf("expected default timeout %s, got %s", defaultHTTPTimeout, got.Timeout)
	}
}
