package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/service"
)

// EventHandler streams invalidation events to dashboard clients over SSE
// or a websocket.
type EventHandler struct {
	events    service.EventService
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewEventHandler constructs the handler.
func NewEventHandler(events service.EventService, logger zerolog.Logger, keepAlive time.Duration) *EventHandler {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	return &EventHandler{
		events:    events,
		logger:    logger.With().Str("component", "event_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the stream routes.
func (h *EventHandler) Register(router fiber.Router) {
	router.Get("/stream", h.stream)
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.socket))
}

func (h *EventHandler) stream(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	stream, cleanup := h.events.Subscribe()
	log := requestLogger(h.logger, c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cleanup()

		if err := writeKeepAlive(w); err != nil {
			return
		}

		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-stream:
				if !ok {
					return
				}
				if err := writeEvent(w, event); err != nil {
					log.Debug().Err(err).Msg("failed to write invalidation event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					log.Debug().Err(err).Msg("failed to write keepalive")
					return
				}
			}
		}
	})

	return nil
}

func (h *EventHandler) socket(conn *websocket.Conn) {
	stream, cleanup := h.events.Subscribe()
	defer cleanup()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("event websocket connected")
	defer h.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("event websocket disconnected")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-stream:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Msg("failed to push invalidation event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func writeEvent(w *bufio.Writer, event dto.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "id: %s\nevent: invalidate\n", event.ID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
