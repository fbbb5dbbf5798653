package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaEventPublisher_PublishEnvelope(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "sessions")
	require.NoError(t, err)

	publisher := newKafkaEventPublisher(pubSub, "sessions", slog.New(slog.DiscardHandler))

	event := NewEvent(SessionCompleted, SessionEventData{SessionID: 7, TestID: 3, StudentID: "s-1", Score: 4.5, Scored: true})
	require.NoError(t, publisher.Publish(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, string(SessionCompleted), msg.Metadata.Get("event_type"))
		assert.Equal(t, EventSource, msg.Metadata.Get("source"))

		var decoded struct {
			ID      string           `json:"id"`
			Type    EventType        `json:"type"`
			Version string           `json:"version"`
			Data    SessionEventData `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, SessionCompleted, decoded.Type)
		assert.Equal(t, EventVersion, decoded.Version)
		assert.Equal(t, uint(7), decoded.Data.SessionID)
		assert.Equal(t, 4.5, decoded.Data.Score)
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}

func TestMockEventPublisher(t *testing.T) {
	publisher := NewMockEventPublisher(slog.New(slog.DiscardHandler))

	require.NoError(t, publisher.Publish(context.Background(), NewEvent(SessionStarted, nil)))
	require.NoError(t, publisher.Publish(context.Background(), NewEvent(SessionCompleted, nil)))

	assert.Len(t, publisher.GetPublishedEvents(), 2)
	assert.Len(t, publisher.EventsOfType(SessionCompleted), 1)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestNewKafkaEventPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaEventPublisher(nil, "sessions", slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
