package broker

import (
	"context"
	"encoding/json"
	"testing"

	"petshop-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeFeedDispatchesToTableSubscribers(t *testing.T) {
	feed := NewChangeFeed()

	var products, categories int
	feed.Subscribe(models.TableProducts, func(models.ChangeEvent) { products++ })
	feed.Subscribe(models.TableCategories, func(models.ChangeEvent) { categories++ })

	feed.Dispatch(models.ChangeEvent{Table: models.TableProducts, Op: models.ChangeOpInsert})
	feed.Dispatch(models.ChangeEvent{Table: models.TableProducts, Op: models.ChangeOpUpdate})

	assert.Equal(t, 2, products)
	assert.Equal(t, 0, categories)
}

func TestChangeFeedUnsubscribe(t *testing.T) {
	feed := NewChangeFeed()

	var calls int
	unsub := feed.Subscribe(models.TableProducts, func(models.ChangeEvent) { calls++ })

	feed.Dispatch(models.ChangeEvent{Table: models.TableProducts})
	unsub()
	feed.Dispatch(models.ChangeEvent{Table: models.TableProducts})

	assert.Equal(t, 1, calls)
}

func TestChangeFeedHandleMessage(t *testing.T) {
	feed := NewChangeFeed()

	var got models.ChangeEvent
	feed.Subscribe(models.TableProducts, func(ev models.ChangeEvent) { got = ev })

	ev := models.ChangeEvent{
		BaseEvent: models.BaseEvent{EventID: "e1", EventType: models.EventTypeCatalogChange},
		Table:     models.TableProducts,
		Op:        models.ChangeOpDelete,
		Old:       &models.Product{ID: 7},
	}
	payload, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, feed.HandleMessage(context.Background(), kafka.Message{Value: payload}))

	assert.Equal(t, models.ChangeOpDelete, got.Op)
	require.NotNil(t, got.Old)
	assert.Equal(t, int64(7), got.Old.ID)
}

func TestChangeFeedIgnoresOtherEventTypes(t *testing.T) {
	feed := NewChangeFeed()

	var calls int
	feed.Subscribe(models.TableProducts, func(models.ChangeEvent) { calls++ })

	payload, err := json.Marshal(models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeOrderPlaced},
		OrderID:   1,
	})
	require.NoError(t, err)

	require.NoError(t, feed.HandleMessage(context.Background(), kafka.Message{Value: payload}))
	assert.Equal(t, 0, calls)
}
