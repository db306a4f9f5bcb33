package cleanup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type mockSessionDeleter struct {
	mu      sync.Mutex
	deleted int64
	calls   int
	err     error
}

func (m *mockSessionDeleter) DeleteExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.deleted, m.err
}

type mockArticleDeleter struct {
	mu      sync.Mutex
	deleted int64
	cutoff  time.Time
	err     error
}

func (m *mockArticleDeleter) DeleteOlderThan(ctx context.Context, t time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoff = t
	return m.deleted, m.err
}

type mockCleanupMetrics struct {
	mu      sync.Mutex
	cleaned int64
}

func (m *mockCleanupMetrics) RecordSessionsCleaned(count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleaned += count
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestCleanupJob_Run(t *testing.T) {
	sessions := &mockSessionDeleter{deleted: 5}
	articles := &mockArticleDeleter{deleted: 3}
	metrics := &mockCleanupMetrics{}

	job := NewCleanupJob(sessions, articles, metrics, testLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if metrics.cleaned != 5 {
		t.Errorf("sessions cleaned = %d, want 5", metrics.cleaned)
	}

	// 既定の保持期間は30日
	wantCutoff := time.Now().AddDate(0, 0, -30)
	diff := articles.cutoff.Sub(wantCutoff)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("cutoff = %v, want ~%v", articles.cutoff, wantCutoff)
	}
}

func TestCleanupJob_Run_CustomRetention(t *testing.T) {
	articles := &mockArticleDeleter{}
	job := NewCleanupJob(&mockSessionDeleter{}, articles, &mockCleanupMetrics{}, testLogger())
	job.ArticleRetentionDays = 7

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wantCutoff := time.Now().AddDate(0, 0, -7)
	diff := articles.cutoff.Sub(wantCutoff)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("cutoff = %v, want ~%v", articles.cutoff, wantCutoff)
	}
}

func TestCleanupJob_Run_SessionError(t *testing.T) {
	sessions := &mockSessionDeleter{err: errors.New("db down")}
	job := NewCleanupJob(sessions, &mockArticleDeleter{}, &mockCleanupMetrics{}, testLogger())

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when session cleanup fails")
	}
}

func TestCleanupJob_Run_ArticleError(t *testing.T) {
	articles := &mockArticleDeleter{err: errors.New("db down")}
	job := NewCleanupJob(&mockSessionDeleter{}, articles, &mockCleanupMetrics{}, testLogger())

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when article cleanup fails")
	}
}

func TestCleanupJob_Start_StopsOnCancel(t *testing.T) {
	sessions := &mockSessionDeleter{}
	job := NewCleanupJob(sessions, &mockArticleDeleter{}, &mockCleanupMetrics{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		job.Start(ctx, time.Hour)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		sessions.mu.Lock()
		calls := sessions.calls
		sessions.mu.Unlock()
		if calls > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("initial run not executed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup job did not stop on context cancel")
	}
}
