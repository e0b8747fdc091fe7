package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestEventServicePublishDropsCacheAndBroadcasts(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, CacheKeyPrefix(TopicGradesUpdated)+"stats:all", "x", 0).Err())
	require.NoError(t, client.Set(ctx, CacheKeyPrefix(TopicStudentsUpdated)+"list", "y", 0).Err())

	svc := NewEventService(client, "sala-test", nil, testLogger())
	events, cleanup := svc.Subscribe()
	defer cleanup()

	svc.Publish(ctx, TopicGradesUpdated)

	select {
	case event := <-events:
		require.Equal(t, TopicGradesUpdated, event.Topic)
		require.NotEmpty(t, event.ID)
	case <-time.After(time.Second):
		t.Fatal("expected event to be broadcast")
	}

	require.False(t, mr.Exists(CacheKeyPrefix(TopicGradesUpdated)+"stats:all"))
	require.True(t, mr.Exists(CacheKeyPrefix(TopicStudentsUpdated)+"list"))
}

func TestEventServiceIgnoresOwnRemoteEvents(t *testing.T) {
	svc := NewEventService(nil, "", nil, testLogger()).(*eventService)
	events, cleanup := svc.Subscribe()
	defer cleanup()

	svc.handleRemote(context.Background(), []byte(`{"source":"`+svc.nodeID+`","event":{"topic":"users:updated"}}`), "redis")
	svc.handleRemote(context.Background(), []byte(`{"source":"peer","event":{"topic":"courses:updated"}}`), "nats")
	svc.handleRemote(context.Background(), []byte(`not json`), "nats")

	select {
	case event := <-events:
		require.Equal(t, TopicCoursesUpdated, event.Topic)
	case <-time.After(time.Second):
		t.Fatal("expected peer event")
	}
	select {
	case event := <-events:
		t.Fatalf("unexpected event %v", event)
	default:
	}
}

func TestEventServiceCleanupIsIdempotent(t *testing.T) {
	svc := NewEventService(nil, "", nil, testLogger())
	_, cleanup := svc.Subscribe()
	cleanup()
	cleanup()
	svc.Publish(context.Background(), TopicUsersUpdated)
}
