package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/observability"
)

// Invalidation topics published after mutations.
const (
	TopicStudentsUpdated    = "students:updated"
	TopicGradesUpdated      = "grades:updated"
	TopicCoursesUpdated     = "courses:updated"
	TopicUsersUpdated       = "users:updated"
	TopicSchoolYearsUpdated = "school-years:updated"
	TopicSubjectsUpdated    = "subjects:updated"
)

const eventBufferSize = 16

// KnownTopics lists every topic clients may subscribe to.
func KnownTopics() []string {
	return []string{
		TopicStudentsUpdated,
		TopicGradesUpdated,
		TopicCoursesUpdated,
		TopicUsersUpdated,
		TopicSchoolYearsUpdated,
		TopicSubjectsUpdated,
	}
}

// CacheKeyPrefix returns the redis key prefix owned by a topic. Publishing the
// topic drops every key under it.
func CacheKeyPrefix(topic string) string {
	return "cache:" + topic + ":"
}

// EventPublisher announces that data behind a topic changed.
type EventPublisher interface {
	Publish(ctx context.Context, topic string)
}

// EventService fans invalidation events out to local subscribers and peers.
type EventService interface {
	EventPublisher
	Subscribe() (<-chan dto.Event, func())
	Start(ctx context.Context)
}

type eventService struct {
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	broker      *eventBroker
	nodeID      string
}

type eventEnvelope struct {
	Source string    `json:"source"`
	Event  dto.Event `json:"event"`
}

type eventBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.Event]struct{}
}

// NewEventService constructs the event service. Redis and NATS are optional.
func NewEventService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) EventService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":events"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &eventService{
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "event_service").Logger(),
		broker:      &eventBroker{subscribers: make(map[chan dto.Event]struct{})},
		nodeID:      uuid.NewString(),
	}
}

func (s *eventService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *eventService) Publish(ctx context.Context, topic string) {
	event := dto.Event{ID: uuid.NewString(), Topic: topic, At: time.Now().UTC()}

	s.invalidate(ctx, topic)
	s.broker.broadcast(event)
	observability.EventsPublished().WithLabelValues(topic, "local").Inc()

	if err := s.fanOut(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("failed to fan out event")
	}
}

func (s *eventService) Subscribe() (<-chan dto.Event, func()) {
	channel := make(chan dto.Event, eventBufferSize)
	s.broker.subscribe(channel)
	observability.EventStreamClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(channel)
			observability.EventStreamClients().Dec()
		})
	}
	return channel, cleanup
}

// invalidate deletes cached entries for the topic using SCAN to avoid blocking redis.
func (s *eventService) invalidate(ctx context.Context, topic string) {
	if s.redis == nil {
		return
	}

	iter := s.redis.Scan(ctx, 0, CacheKeyPrefix(topic)+"*", 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("failed to scan cache keys")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("failed to drop cache keys")
	}
}

func (s *eventService) fanOut(ctx context.Context, event dto.Event) error {
	payload, err := json.Marshal(eventEnvelope{Source: s.nodeID, Event: event})
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *eventService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("event redis subscription closed")
			return
		}
		s.handleRemote(ctx, []byte(msg.Payload), "redis")
	}
}

func (s *eventService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleRemote(ctx, msg.Data, "nats")
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats events subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain events nats subscription")
		}
	}()
}

// handleRemote relays a peer's event to local subscribers. Peers already
// dropped the shared redis keys, so only the local fan-out happens here.
func (s *eventService) handleRemote(_ context.Context, payload []byte, origin string) {
	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid event payload")
		return
	}

	if envelope.Source == s.nodeID || envelope.Event.Topic == "" {
		return
	}

	observability.EventsPublished().WithLabelValues(envelope.Event.Topic, origin).Inc()
	s.broker.broadcast(envelope.Event)
}

func (b *eventBroker) subscribe(ch chan dto.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
}

func (b *eventBroker) unsubscribe(ch chan dto.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

func (b *eventBroker) broadcast(event dto.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
