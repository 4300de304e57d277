package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"
)

// freePort asks the kernel for an unused TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func startServer(t *testing.T) (*CallbackServer, int) {
	t.Helper()
	port := freePort(t)
	s := NewCallbackServer(port)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	waitForListener(t, port)
	return s, port
}

func waitForListener(t *testing.T, port int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", port), 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Callback server never came up on port %d", port)
}

func TestCallbackServer_DeliversCodeAndState(t *testing.T) {
	s, port := startServer(t)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/callback?code=abc&state=xyz", port))
	if err != nil {
		t.Fatalf("Callback request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := s.Await(ctx)
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if result.Code != "abc" || result.State != "xyz" {
		t.Errorf("Expected code=abc state=xyz, got %+v", result)
	}
}

func TestCallbackServer_ProviderError(t *testing.T) {
	s, port := startServer(t)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/callback?error=access_denied", port))
	if err != nil {
		t.Fatalf("Callback request failed: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := s.Await(ctx)
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if result.Error != "access_denied" {
		t.Errorf("Expected access_denied, got %+v", result)
	}
}

func TestCallbackServer_SecondCallbackGetsGone(t *testing.T) {
	_, port := startServer(t)

	first, err := http.Get(fmt.Sprintf("http://localhost:%d/callback?code=abc&state=xyz", port))
	if err != nil {
		t.Fatalf("First callback failed: %v", err)
	}
	first.Body.Close()

	second, err := http.Get(fmt.Sprintf("http://localhost:%d/callback?code=evil&state=xyz", port))
	if err != nil {
		t.Fatalf("Second callback failed: %v", err)
	}
	defer second.Body.Close()
	if second.StatusCode != http.StatusGone {
		t.Errorf("Expected 410 for replayed callback, got %d", second.StatusCode)
	}
}

func TestCallbackServer_PortInUse(t *testing.T) {
	port := freePort(t)
	l, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		t.Fatalf("Failed to occupy port: %v", err)
	}
	defer l.Close()

	s := NewCallbackServer(port)
	if err := s.Start(); err == nil {
		t.Error("Expected error when port is occupied")
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	}
}

func TestCallbackServer_AwaitCanceled(t *testing.T) {
	s, _ := startServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Await(ctx); err == nil {
		t.Error("Expected cancellation error from Await")
	}
}

func TestCallbackServer_StopIdempotent(t *testing.T) {
	s := NewCallbackServer(freePort(t))
	ctx := context.Background()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop before Start should be a no-op, got %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Errorf("First Stop failed: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Second Stop should be a no-op, got %v", err)
	}
}
