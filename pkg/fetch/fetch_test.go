package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept header = %q", got)
		}
		w.Write([]byte(`{"name":"deckhand"}`))
	}))
	defer srv.Close()

	c := NewClient(nil, map[string]string{"Accept": "application/json"})

	var out struct {
		Name string `json:"name"`
	}
	if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON() failed: %v", err)
	}
	if out.Name != "deckhand" {
		t.Errorf("decoded name = %q", out.Name)
	}
}

func TestClient_GetText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := NewClient(nil, nil)
	got, err := c.GetText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetText() failed: %v", err)
	}
	if got != "hello" {
		t.Errorf("GetText() = %q", got)
	}
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantErr   error
		retryable bool
	}{
		{"not found", http.StatusNotFound, ErrNotFound, false},
		{"server error", http.StatusInternalServerError, ErrNetwork, true},
		{"client error", http.StatusForbidden, ErrNetwork, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(nil, nil)
			var out any
			err := c.GetJSON(context.Background(), srv.URL, &out)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if got := isRetryable(err); got != tt.retryable {
				t.Errorf("isRetryable = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestClient_CachedAvoidsSecondFetch(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"n":1}`))
	}))
	defer srv.Close()

	cache, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(cache, nil)

	fetchOnce := func(v any) error {
		return c.Cached(context.Background(), "key", false, v, func() error {
			return c.GetJSON(context.Background(), srv.URL, v)
		})
	}

	var first, second map[string]any
	if err := fetchOnce(&first); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if err := fetchOnce(&second); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (second read from cache)", calls.Load())
	}
}

func TestClient_CachedRefreshBypassesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"n":1}`))
	}))
	defer srv.Close()

	cache, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(cache, nil)

	var out map[string]any
	for i := 0; i < 2; i++ {
		err := c.Cached(context.Background(), "key", true, &out, func() error {
			return c.GetJSON(context.Background(), srv.URL, &out)
		})
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
	}

	if calls.Load() != 2 {
		t.Errorf("server hit %d times, want 2 with refresh", calls.Load())
	}
}

func TestRetry_RetriesOnlyRetryable(t *testing.T) {
	ctx := context.Background()

	var attempts int
	err := Retry(ctx, 3, time.Millisecond, func() error {
		attempts++
		return &RetryableError{Err: errors.New("boom")}
	})
	if err == nil {
		t.Fatal("Retry() = nil, want error after exhausting attempts")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}

	attempts = 0
	permanent := errors.New("permanent")
	err = Retry(ctx, 3, time.Millisecond, func() error {
		attempts++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("error = %v, want permanent error", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 for non-retryable", attempts)
	}
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Minute, func() error {
		return &RetryableError{Err: errors.New("boom")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestCache_Expiration(t *testing.T) {
	c, err := NewCache(t.TempDir(), 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set("key", "value"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	var out string
	ok, err := c.Get("key", &out)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want true, nil", ok, err)
	}

	time.Sleep(20 * time.Millisecond)

	ok, err = c.Get("key", &out)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("error = %v, want ErrExpired", err)
	}
	if ok {
		t.Error("Get() returned true for expired key")
	}
}

func TestCache_NamespaceSeparatesKeys(t *testing.T) {
	c, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	a := c.Namespace("a:")
	b := c.Namespace("b:")

	if err := a.Set("key", "from-a"); err != nil {
		t.Fatal(err)
	}

	var out string
	if ok, _ := b.Get("key", &out); ok {
		t.Error("namespace b sees key written in namespace a")
	}
	if ok, _ := a.Get("key", &out); !ok || out != "from-a" {
		t.Errorf("namespace a Get() = %v, %q", ok, out)
	}
}
