package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap/zaptest"

	"github.com/soopkit/soopchat/domain"
	"github.com/soopkit/soopchat/internal/config"
)

type stubSender struct {
	mu      sync.Mutex
	batches [][]*pgx.QueuedQuery
}

type stubBatchResults struct{}

func (s *stubSender) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	s.mu.Lock()
	defer s.mu.Unlock()

	copyQueries := append([]*pgx.QueuedQuery(nil), b.QueuedQueries...)
	s.batches = append(s.batches, copyQueries)
	return &stubBatchResults{}
}

func (s *stubBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, nil }
func (s *stubBatchResults) Query() (pgx.Rows, error)         { return nil, nil }
func (s *stubBatchResults) QueryRow() pgx.Row                { return nil }
func (s *stubBatchResults) Close() error                     { return nil }

func testBatchConfig() config.BatchConfig {
	return config.BatchConfig{
		MaxBatch:      10,
		FlushEvery:    time.Hour,
		ChanBuffer:    10,
		StatsLogEvery: time.Hour,
		FlushTimeout:  time.Second,
	}
}

func chatEvent(userID string) domain.ChatEvent {
	return domain.ChatEvent{
		ChannelID: "streamer1",
		UserID:    userID,
		Nickname:  "nick",
		Content:   "hello",
		UserType:  domain.UserTypeNormal,
	}
}

func TestBatcherFlushesOnMaxBatch(t *testing.T) {
	sender := &stubSender{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testBatchConfig()
	cfg.MaxBatch = 2
	batcher := newBatcher(ctx, sender, cfg, zaptest.NewLogger(t))

	batcher.Enqueue(chatEvent("u1"))
	batcher.Enqueue(chatEvent("u2"))

	waitForBatches(t, sender, 1)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.batches[0]) != 2 {
		t.Fatalf("batch holds %d queries, want 2", len(sender.batches[0]))
	}
}

func TestBatcherFlushesOnTimer(t *testing.T) {
	sender := &stubSender{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testBatchConfig()
	cfg.FlushEvery = 50 * time.Millisecond
	batcher := newBatcher(ctx, sender, cfg, zaptest.NewLogger(t))

	batcher.Enqueue(chatEvent("u1"))

	waitForBatches(t, sender, 1)
}

func TestBatcherFlushesOnShutdown(t *testing.T) {
	sender := &stubSender{}
	ctx, cancel := context.WithCancel(context.Background())

	batcher := newBatcher(ctx, sender, testBatchConfig(), zaptest.NewLogger(t))
	batcher.Enqueue(chatEvent("u1"))

	// Give the run loop a moment to drain the channel, then cancel.
	time.Sleep(20 * time.Millisecond)
	cancel()

	waitForBatches(t, sender, 1)
}

func TestBatcherDropsOnFullQueue(t *testing.T) {
	sender := &stubSender{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // run loop exits immediately, nothing drains the channel

	cfg := testBatchConfig()
	cfg.ChanBuffer = 1
	batcher := newBatcher(ctx, sender, cfg, zaptest.NewLogger(t))

	// First fills the buffer, second must be dropped.
	deadline := time.Now().Add(time.Second)
	for batcher.Enqueue(chatEvent("u")) {
		if time.Now().After(deadline) {
			t.Fatal("queue never filled")
		}
	}
	if batcher.Dropped() == 0 {
		t.Fatal("dropped counter not incremented")
	}
}

func waitForBatches(t *testing.T, sender *stubSender, expected int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sender.mu.Lock()
		count := len(sender.batches)
		sender.mu.Unlock()
		if count >= expected {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected at least %d batches", expected)
}
