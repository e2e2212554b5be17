package server

import (
	"net/http"
	"sync"

	"github.com/dmelim/matebot/internal/engine"
	"github.com/dmelim/matebot/pkg/botdto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const watchBuffer = 64

// WatchHub fans engine root-candidate scores out to websocket watchers. A
// subscriber that falls behind loses events rather than blocking the search.
type WatchHub struct {
	mu     sync.RWMutex
	subs   map[int]chan botdto.CandidateScore
	nextID int
}

func NewWatchHub() *WatchHub {
	return &WatchHub{subs: make(map[int]chan botdto.CandidateScore)}
}

// Publish satisfies the engine's progress callback signature.
func (h *WatchHub) Publish(rs engine.RootScore) {
	event := botdto.CandidateScore{MoveUCI: rs.Move.String(), Score: rs.Score}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *WatchHub) subscribe() (int, chan botdto.CandidateScore) {
	ch := make(chan botdto.CandidateScore, watchBuffer)
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *WatchHub) unsubscribe(id int) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Warn("watch accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	id, events := s.hub.subscribe()
	defer s.hub.unsubscribe(id)

	// CloseRead surfaces the client hanging up as context cancellation.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "bye")
			return
		case event := <-events:
			if err := wsjson.Write(ctx, conn, event); err != nil {
				return
			}
		}
	}
}
