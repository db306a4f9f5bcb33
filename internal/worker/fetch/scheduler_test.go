package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockFetcherService はArticleFetcherServiceのモック実装。
type mockFetcherService struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockFetcherService) Fetch(ctx context.Context, feedURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

func (m *mockFetcherService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestScheduler_RunOnce_ResetsErrorsOnSuccess(t *testing.T) {
	fetcher := &mockFetcherService{}
	s := NewScheduler(fetcher, testLogger(), "https://news.example.com/feed.xml")
	s.consecutiveErrors = 3

	s.RunOnce(context.Background())

	if s.consecutiveErrors != 0 {
		t.Errorf("consecutiveErrors = %d, want 0", s.consecutiveErrors)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("calls = %d, want 1", fetcher.callCount())
	}
}

func TestScheduler_RunOnce_CountsErrors(t *testing.T) {
	fetcher := &mockFetcherService{err: errors.New("connection refused")}
	s := NewScheduler(fetcher, testLogger(), "https://news.example.com/feed.xml")

	s.RunOnce(context.Background())
	s.RunOnce(context.Background())

	if s.consecutiveErrors != 2 {
		t.Errorf("consecutiveErrors = %d, want 2", s.consecutiveErrors)
	}
}

func TestScheduler_NextDelay(t *testing.T) {
	s := NewScheduler(&mockFetcherService{}, testLogger(), "https://news.example.com/feed.xml")
	interval := 10 * time.Minute

	if got := s.nextDelay(interval); got != interval {
		t.Errorf("nextDelay (no errors) = %v, want %v", got, interval)
	}

	// バックオフが通常間隔より短いうちは通常間隔を維持する
	s.consecutiveErrors = 1
	if got := s.nextDelay(interval); got != interval {
		t.Errorf("nextDelay (1 error) = %v, want %v", got, interval)
	}

	// バックオフが通常間隔を超えたらバックオフを使う
	s.consecutiveErrors = 5
	if got := s.nextDelay(interval); got != 16*time.Minute {
		t.Errorf("nextDelay (5 errors) = %v, want 16m", got)
	}
}

// Startはコンテキストのキャンセルで停止する。
func TestScheduler_Start_StopsOnCancel(t *testing.T) {
	fetcher := &mockFetcherService{}
	s := NewScheduler(fetcher, testLogger(), "https://news.example.com/feed.xml")

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx, time.Hour)
		close(done)
	}()

	// 起動直後の1回が実行されるのを待つ
	deadline := time.After(2 * time.Second)
	for fetcher.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial fetch not executed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}
