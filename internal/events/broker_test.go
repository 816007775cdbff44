package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestNewListItemEvent(t *testing.T) {
	event, err := NewListItemEvent(ListItemCreated, ListItemPayload{ListItemID: "i1", OwnerID: "u1", BookID: "b1"})
	require.NoError(t, err)

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"list_item_created","payload":{"listItemId":"i1","ownerId":"u1","bookId":"b1"}}`, string(data))
}

func TestOwnerChannel(t *testing.T) {
	assert.Equal(t, "channel:list-items:u1", OwnerChannel("u1"))
}

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)
	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { rdb.Close() })

	broker := NewRedisBroker(rdb)
	stream, closeSub, err := broker.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer closeSub()

	other, err := NewListItemEvent(ListItemCreated, ListItemPayload{ListItemID: "i9", OwnerID: "u2", BookID: "b9"})
	require.NoError(t, err)
	require.NoError(t, broker.Publish(ctx, "u2", other))

	mine, err := NewListItemEvent(ListItemDeleted, ListItemPayload{ListItemID: "i1", OwnerID: "u1", BookID: "b1"})
	require.NoError(t, err)
	require.NoError(t, broker.Publish(ctx, "u1", mine))

	select {
	case got := <-stream:
		assert.Equal(t, ListItemDeleted, got.Type)
		assert.JSONEq(t, string(mine.Payload), string(got.Payload))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for list item event")
	}

	require.NoError(t, closeSub())
	select {
	case _, ok := <-stream:
		assert.False(t, ok, "stream should close after the subscription ends")
	case <-time.After(5 * time.Second):
		t.Fatal("stream was not closed")
	}
}
