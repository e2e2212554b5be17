package botclient

import (
	"context"
	"strings"
	"time"

	"github.com/dmelim/matebot/pkg/botdto"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Watcher consumes the /ws/watch candidate stream.
type Watcher struct {
	conn *websocket.Conn
}

// Watch connects to the server's candidate stream. baseURL is the HTTP base
// of the API; the websocket scheme is derived from it.
func Watch(ctx context.Context, baseURL string) (*Watcher, error) {
	wsURL := strings.TrimRight(baseURL, "/") + "/ws/watch"
	if strings.HasPrefix(wsURL, "http") {
		wsURL = "ws" + strings.TrimPrefix(wsURL, "http")
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		return nil, err
	}
	return &Watcher{conn: conn}, nil
}

// Next blocks until the server publishes the next candidate score.
func (w *Watcher) Next(ctx context.Context) (botdto.CandidateScore, error) {
	var event botdto.CandidateScore
	err := wsjson.Read(ctx, w.conn, &event)
	return event, err
}

func (w *Watcher) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "done")
}
