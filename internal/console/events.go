package console

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sala-api/internal/dto"
)

// EventFeed listens on the invalidation websocket and drops the matching
// store namespaces as events arrive.
type EventFeed struct {
	endpoint string
	token    string
	store    *Store
	dialer   *websocket.Dialer
	retry    time.Duration
	logger   zerolog.Logger
}

// NewEventFeed derives the websocket endpoint from the client's base URL.
func NewEventFeed(client *Client, store *Store, logger zerolog.Logger) *EventFeed {
	endpoint := client.BaseURL()
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = "ws://" + strings.TrimPrefix(endpoint, "http://")
	}

	return &EventFeed{
		endpoint: endpoint + "/api/admin/events/ws",
		token:    client.Token(),
		store:    store,
		dialer:   websocket.DefaultDialer,
		retry:    2 * time.Second,
		logger:   logger.With().Str("component", "event_feed").Logger(),
	}
}

// Run keeps the feed connected until ctx is cancelled, reconnecting after
// dropped connections.
func (f *EventFeed) Run(ctx context.Context) error {
	for {
		err := f.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		f.logger.Warn().Err(err).Dur("retry", f.retry).Msg("event feed disconnected")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(f.retry):
		}
	}
}

func (f *EventFeed) listen(ctx context.Context) error {
	target := f.endpoint
	if f.token != "" {
		target += "?access_token=" + url.QueryEscape(f.token)
	}

	conn, resp, err := f.dialer.DialContext(ctx, target, http.Header{})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var event dto.Event
		if err := conn.ReadJSON(&event); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("server closed the feed")
			}
			return err
		}
		if event.Topic == "" {
			continue
		}
		dropped := f.store.Invalidate(PrefixForTopic(event.Topic))
		f.logger.Debug().Str("topic", event.Topic).Int("dropped", dropped).Msg("cache invalidated")
	}
}
