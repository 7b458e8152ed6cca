// Package storage persists decoded chat events into Postgres in
// batches.
package storage

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/soopkit/soopchat/domain"
	"github.com/soopkit/soopchat/internal/config"
)

// Batcher inserts chat events asynchronously through pgx.Batch. Events
// are enqueued without blocking; when the buffer is full they are
// dropped and counted rather than stalling the chat read loop.
type Batcher struct {
	input   chan Row
	config  config.BatchConfig
	sender  batchSender
	log     *zap.Logger
	dropped atomic.Uint64
}

// Row is one chat message as it is written to the chat_messages table.
type Row struct {
	Event  domain.ChatEvent
	SentAt time.Time
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// NewBatcher creates a batcher writing to pool and starts its flush
// loop. The loop runs until ctx is cancelled and flushes what is
// pending on the way out.
func NewBatcher(ctx context.Context, pool *pgxpool.Pool, cfg config.BatchConfig, logger *zap.Logger) *Batcher {
	return newBatcher(ctx, pool, cfg, logger)
}

// Enqueue adds an event to the queue, reporting false when the buffer
// is full and the event was dropped.
func (b *Batcher) Enqueue(ev domain.ChatEvent) bool {
	select {
	case b.input <- Row{Event: ev, SentAt: time.Now()}:
		return true
	default:
		dropped := b.dropped.Add(1)
		if dropped%100 == 0 {
			b.log.Warn("batcher queue full", zap.Uint64("totalDropped", dropped))
		}
		return false
	}
}

// Dropped returns the number of events dropped because of a full queue.
func (b *Batcher) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Batcher) run(ctx context.Context) {
	flushTicker := time.NewTicker(b.config.FlushEvery)
	statsTicker := time.NewTicker(b.config.StatsLogEvery)
	defer flushTicker.Stop()
	defer statsTicker.Stop()

	var (
		batch            = &pgx.Batch{}
		pending          = 0
		totalInserted    uint64
		intervalInserted uint64
	)

	const q = `
insert into chat_messages (
  channel, user_id, nickname, text, user_type, subscription_months,
  is_streamer, is_fan, is_top_fan, is_manager, role_flags, tier_flags,
  used_emotes, sticker_url, sent_at
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15);`

	flush := func() {
		if pending == 0 {
			return
		}

		dbCtx, cancel := context.WithTimeout(context.Background(), b.config.FlushTimeout)
		defer cancel()

		br := b.sender.SendBatch(dbCtx, batch)
		if err := br.Close(); err != nil {
			b.log.Error("batch flush failed", zap.Error(err))
		}

		totalInserted += uint64(pending)
		intervalInserted += uint64(pending)

		batch = &pgx.Batch{}
		pending = 0
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			b.log.Info("batcher stopped", zap.Uint64("totalInserted", totalInserted))
			return
		case <-flushTicker.C:
			flush()
		case <-statsTicker.C:
			b.log.Info("batcher stats",
				zap.Uint64("inserted", intervalInserted),
				zap.Duration("interval", b.config.StatsLogEvery),
				zap.Uint64("total", totalInserted),
				zap.Uint64("dropped", b.dropped.Load()))
			intervalInserted = 0
		case row := <-b.input:
			ev := row.Event
			usedJSON, _ := json.Marshal(emoteNames(ev.UsedEmotes))
			batch.Queue(q,
				ev.ChannelID, ev.UserID, ev.Nickname, ev.Content, string(ev.UserType), ev.SubscriptionMonths,
				ev.IsStreamer, ev.IsFan, ev.IsTopFan, ev.IsManager, int64(ev.Flag1), int64(ev.Flag2),
				usedJSON, ev.StickerURL, row.SentAt.UTC(),
			)
			pending++
			if pending >= b.config.MaxBatch {
				flush()
			}
		}
	}
}

func emoteNames(used map[string]domain.ChannelEmote) []string {
	if len(used) == 0 {
		return nil
	}
	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	return names
}

func newBatcher(ctx context.Context, sender batchSender, cfg config.BatchConfig, logger *zap.Logger) *Batcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Batcher{
		input:  make(chan Row, cfg.ChanBuffer),
		config: cfg,
		sender: sender,
		log:    logger,
	}

	go b.run(ctx)

	return b
}
