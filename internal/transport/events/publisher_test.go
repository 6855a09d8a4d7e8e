package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/backgammon-backend/internal/entity"
	"github.com/rocketscienceinc/backgammon-backend/testing/suite"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "backgammon.game.42.turn", Subject("42", entity.EventTurnComplete))
	assert.Equal(t, "backgammon.game.42.over", Subject("42", entity.EventGameOver))
}

func TestPublisher_Disabled(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Given: no nats url
	publisher, err := NewPublisher(context.Background(), logger, "", 3)
	require.NoError(t, err)

	// Then: publishing is a no-op
	require.NoError(t, publisher.Publish(context.Background(), entity.Event{GameID: "1", Kind: entity.EventGameOver}))
	publisher.Close()
}

func TestPublisher_Publish(t *testing.T) {
	ctx, st := suite.NewNats(t)

	// Given: a subscriber on every game-over subject
	conn, err := nats.Connect(st.NatsURL)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	messages := make(chan *nats.Msg, 1)
	sub, err := conn.ChanSubscribe("backgammon.game.*.over", messages)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })
	require.NoError(t, conn.Flush())

	publisher, err := NewPublisher(ctx, st.Logger, st.NatsURL, 3)
	require.NoError(t, err)
	t.Cleanup(publisher.Close)

	// When: a game-over event is published
	event := entity.Event{GameID: "77", Kind: entity.EventGameOver, Color: entity.Red, Reason: entity.ReasonBearOff}
	require.NoError(t, publisher.Publish(ctx, event))

	// Then: the subscriber receives it as JSON
	select {
	case msg := <-messages:
		assert.Equal(t, "backgammon.game.77.over", msg.Subject)

		var received entity.Event
		require.NoError(t, json.Unmarshal(msg.Data, &received))
		assert.Equal(t, event, received)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}
