package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/shahrs5/supernetwork/internal/storage"
)

// FeedHub fans out newly saved messages to websocket subscribers,
// keyed by thread.
type FeedHub struct {
	mu   sync.Mutex
	subs map[string]map[chan storage.Message]struct{}
}

func NewFeedHub() *FeedHub {
	return &FeedHub{subs: make(map[string]map[chan storage.Message]struct{})}
}

// Subscribe registers a listener for a thread. The returned channel is
// buffered; a subscriber that falls behind loses messages rather than
// blocking the sender.
func (h *FeedHub) Subscribe(threadID string) chan storage.Message {
	ch := make(chan storage.Message, 16)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[threadID] == nil {
		h.subs[threadID] = make(map[chan storage.Message]struct{})
	}
	h.subs[threadID][ch] = struct{}{}
	return ch
}

func (h *FeedHub) Unsubscribe(threadID string, ch chan storage.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subs[threadID]; ok {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(h.subs, threadID)
		}
	}
}

func (h *FeedHub) Publish(m storage.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[m.ThreadID] {
		select {
		case ch <- m:
		default:
		}
	}
}

// handleThreadFeed streams new messages in a thread over a websocket.
// Each frame is one message encoded as JSON.
func handleThreadFeed(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threadID := chi.URLParam(r, "id")
		if !threadParticipant(threadID, requestUserID(r)) {
			httpError(w, http.StatusForbidden, "authorization_error", "not a participant of this thread")
			return
		}
		if deps.Feed == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "live feed not available")
			return
		}

		ws := websocket.Handler(func(conn *websocket.Conn) {
			defer conn.Close()

			ch := deps.Feed.Subscribe(threadID)
			defer deps.Feed.Unsubscribe(threadID, ch)

			// Reader goroutine detects the peer closing the socket.
			done := make(chan struct{})
			go func() {
				defer close(done)
				var discard string
				for {
					if err := websocket.Message.Receive(conn, &discard); err != nil {
						return
					}
				}
			}()

			for {
				select {
				case m := <-ch:
					if err := websocket.JSON.Send(conn, m); err != nil {
						slog.Debug("feed send failed", "thread", threadID, "error", err)
						return
					}
				case <-done:
					return
				case <-r.Context().Done():
					return
				}
			}
		})
		ws.ServeHTTP(w, r)
	}
}
