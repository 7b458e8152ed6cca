package chat

import (
	"sync"

	"github.com/soopkit/soopchat/domain"
)

// handlerList is one channel of the typed publish/subscribe surface.
// Within one kind, delivery order matches frame-arrival order because
// emit is only ever called from the connection's read loop.
type handlerList[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// subscribe registers fn and returns its cancel func. Cancelling twice
// is a no-op.
func (l *handlerList[T]) subscribe(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, subscriber[T]{id: id, fn: fn})

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

func (l *handlerList[T]) emit(v T) {
	l.mu.Lock()
	subs := make([]subscriber[T], len(l.subs))
	copy(subs, l.subs)
	l.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// OnJoin subscribes to room-join acknowledgements. The callback
// receives the joined channel id.
func (c *Client) OnJoin(fn func(channelID string)) (cancel func()) {
	return c.joinSubs.subscribe(fn)
}

// OnPart subscribes to session teardowns. The callback receives the
// channel id the session was bound to.
func (c *Client) OnPart(fn func(channelID string)) (cancel func()) {
	return c.partSubs.subscribe(fn)
}

// OnChat subscribes to chat messages, plain and sticker alike.
func (c *Client) OnChat(fn func(domain.ChatEvent)) (cancel func()) {
	return c.chatSubs.subscribe(fn)
}

// OnBalloon subscribes to balloon donations.
func (c *Client) OnBalloon(fn func(domain.DonationEvent)) (cancel func()) {
	return c.balloonSubs.subscribe(fn)
}

// OnBlock subscribes to moderation actions (timeouts and kicks).
func (c *Client) OnBlock(fn func(domain.ModerationEvent)) (cancel func()) {
	return c.blockSubs.subscribe(fn)
}
