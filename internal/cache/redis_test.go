package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := Connect(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	defer rdb.Close()

	mr.Close()
	_, err = Connect(context.Background(), Options{Addr: mr.Addr()})
	assert.Error(t, err)
}

func TestActionLogPublish(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	log := NewActionLog(rdb, DefaultQueueName)
	ctx := context.Background()
	require.NoError(t, log.Publish(ctx, ActionRecord{RoomCode: "ABC123", ActionType: "create", Side: "SIDE_A"}))
	require.NoError(t, log.Publish(ctx, ActionRecord{RoomCode: "ABC123", ActionType: "join", Side: "SIDE_B", Timestamp: 42}))

	items, err := mr.List(DefaultQueueName)
	require.NoError(t, err)
	require.Len(t, items, 2)

	var first, second ActionRecord
	require.NoError(t, json.Unmarshal([]byte(items[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(items[1]), &second))
	assert.Equal(t, "create", first.ActionType)
	assert.NotZero(t, first.Timestamp)
	assert.Equal(t, "join", second.ActionType)
	assert.Equal(t, int64(42), second.Timestamp)
}

func TestActionLogDisabled(t *testing.T) {
	log := NewActionLog(nil, "")
	assert.Nil(t, log)
	assert.NoError(t, log.Publish(context.Background(), ActionRecord{RoomCode: "ABC123"}))
}
