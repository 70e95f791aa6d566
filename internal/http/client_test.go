package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("Expected method GET, got %s", r.Method)
		}
		if r.URL.Path != "/test" {
			t.Errorf("Expected path /test, got %s", r.URL.Path)
		}
		if r.Header.Get("X-Test-Header") != "test-value" {
			t.Errorf("Expected header X-Test-Header: test-value, got %s", r.Header.Get("X-Test-Header"))
		}
		if r.Header.Get("User-Agent") != "athenaprobe-test" {
			t.Errorf("Expected client header User-Agent, got %s", r.Header.Get("User-Agent"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"success"}`))
	}))
	defer server.Close()

	client := NewClient(
		WithTimeout(5*time.Second),
		WithHeader("User-Agent", "athenaprobe-test"),
	)

	req := NewRequest("GET", server.URL+"/test")
	req.WithHeader("X-Test-Header", "test-value")

	resp, err := client.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if resp.GetHeader("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type: application/json, got %s", resp.GetHeader("Content-Type"))
	}

	body, err := resp.GetBodyAsString()
	if err != nil {
		t.Fatalf("Error reading response body: %v", err)
	}
	if body != `{"message":"success"}` {
		t.Errorf("Expected body %s, got %s", `{"message":"success"}`, body)
	}
	if resp.Timing.TotalTime <= 0 {
		t.Errorf("Expected positive TotalTime, got %v", resp.Timing.TotalTime)
	}
}

func TestClient_DoDiscardBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not here"))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Do(context.Background(), NewRequest("GET", server.URL).WithDiscardBody())
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
	if resp.BytesReceived != int64(len("not here")) {
		t.Errorf("Expected %d bytes received, got %d", len("not here"), resp.BytesReceived)
	}
	body, _ := resp.GetBody()
	if len(body) != 0 {
		t.Errorf("Expected discarded body, got %q", body)
	}
}

func TestClient_ReusesConnections(t *testing.T) {
	var conns atomic.Int32
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	server.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			conns.Add(1)
		}
	}
	server.Start()
	defer server.Close()

	client := NewClient()
	for i := 0; i < 5; i++ {
		resp, err := client.Do(context.Background(), NewRequest("GET", server.URL+"/").WithDiscardBody())
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if i > 0 && !resp.Timing.ConnReused {
			t.Errorf("request %d did not reuse the pooled connection", i)
		}
	}

	if got := conns.Load(); got != 1 {
		t.Errorf("Expected 1 connection for sequential requests, got %d", got)
	}
}

func TestClient_DoReturnsRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Do(ctx, NewRequest("GET", server.URL))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Expected *RequestError, got %T", err)
	}
	if reqErr.Elapsed < 20*time.Millisecond {
		t.Errorf("Expected elapsed >= 20ms, got %v", reqErr.Elapsed)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded in chain, got %v", err)
	}
}

func TestClient_WithOptions(t *testing.T) {
	timeout := 10 * time.Second

	client := NewClient(
		WithTimeout(timeout),
		WithHeader("X-Test", "test-value"),
		WithMaxIdleConnsPerHost(250),
		WithInsecureSkipVerify(true),
	)

	if client.httpClient.Timeout != timeout {
		t.Errorf("Expected timeout %v, got %v", timeout, client.httpClient.Timeout)
	}
	if client.headers["X-Test"] != "test-value" {
		t.Errorf("Expected header X-Test: test-value, got %s", client.headers["X-Test"])
	}
	if client.transport.MaxIdleConnsPerHost != 250 {
		t.Errorf("Expected MaxIdleConnsPerHost 250, got %d", client.transport.MaxIdleConnsPerHost)
	}
	if client.transport.MaxIdleConns < 250 {
		t.Errorf("Expected MaxIdleConns >= 250, got %d", client.transport.MaxIdleConns)
	}
	if !client.transport.TLSClientConfig.InsecureSkipVerify {
		t.Error("Expected InsecureSkipVerify to be set")
	}
}
