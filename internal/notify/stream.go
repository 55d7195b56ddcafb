package notify

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Streamer serves Server-Sent Events backed by the per-user Redis channel.
// One subscription per connected client; unsubscribing happens when the
// client goes away or the server shuts down.
type Streamer struct {
	client    *redis.Client
	heartbeat time.Duration
	logger    zerolog.Logger
}

// NewStreamer creates the streamer.
func NewStreamer(client *redis.Client, logger zerolog.Logger) *Streamer {
	return &Streamer{client: client, heartbeat: 25 * time.Second, logger: logger}
}

// ServeUser streams notifications for userID until the request context ends.
func (s *Streamer) ServeUser(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	sub := s.client.Subscribe(ctx, UserChannel(userID))
	defer sub.Close()

	// Confirm the subscription before announcing readiness.
	if _, err := sub.Receive(ctx); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("stream: subscribe failed")
		return
	}

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", msg.Payload)
			flusher.Flush()
		}
	}
}
