package infra

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/fd1az/flash-arbitrage/business/arbitrage/app"
	"github.com/fd1az/flash-arbitrage/internal/logger"
)

var _ app.EventSink = (*EventStream)(nil)

const (
	streamBuffer       = 32
	streamWriteTimeout = 5 * time.Second
)

// EventStream pushes run outcomes to websocket subscribers. A subscriber
// that falls a full buffer behind misses entries rather than stalling runs.
type EventStream struct {
	mu     sync.Mutex
	subs   map[chan JournalEntry]struct{}
	logger logger.LoggerInterface
}

// NewEventStream creates an EventStream with no subscribers.
func NewEventStream(log logger.LoggerInterface) *EventStream {
	return &EventStream{subs: make(map[chan JournalEntry]struct{}), logger: log}
}

func (s *EventStream) Committed(_ context.Context, ev app.CommittedEvent) {
	s.publish(committedEntry(ev))
}

func (s *EventStream) Aborted(_ context.Context, ev app.AbortedEvent) {
	s.publish(abortedEntry(ev))
}

func (s *EventStream) publish(e JournalEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (s *EventStream) subscribe() chan JournalEntry {
	ch := make(chan JournalEntry, streamBuffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *EventStream) unsubscribe(ch chan JournalEntry) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
}

// Subscribers returns the number of connected clients.
func (s *EventStream) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// ServeHTTP upgrades to a websocket and writes one JSON message per outcome
// until the client goes away.
func (s *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	// CloseRead handles control frames and cancels ctx once the peer closes.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-ch:
			wctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
			err := wsjson.Write(wctx, conn, e)
			cancel()
			if err != nil {
				s.logger.Debug(ctx, "stream client dropped", "error", err)
				return
			}
		}
	}
}
