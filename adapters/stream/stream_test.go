package stream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"bazar/models"
	"bazar/offers"
)

func setupTest(t *testing.T) *redis.Client {
	t.Helper()
	// 先註冊 goroutine 外洩檢查，讓它在 miniredis 關閉之後才執行
	t.Cleanup(func() { goleak.VerifyNone(t) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func testEvent() offers.Event {
	return offers.Event{
		Kind:          offers.EventCreated,
		OfferID:       uuid.Must(uuid.NewV7()),
		BuyAdID:       uuid.Must(uuid.NewV7()),
		SellerID:      uuid.Must(uuid.NewV7()),
		Status:        models.OfferStatusPending,
		ProposedPrice: 1200,
		At:            time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestEventCodecRoundTrip(t *testing.T) {
	event := testEvent()

	values, err := encodeEvent(event)
	require.NoError(t, err)
	assert.Contains(t, values, "data")

	decoded, err := decodeEvent(values)
	require.NoError(t, err)
	assert.Equal(t, event.Kind, decoded.Kind)
	assert.Equal(t, event.OfferID, decoded.OfferID)
	assert.Equal(t, event.ProposedPrice, decoded.ProposedPrice)
	assert.True(t, event.At.Equal(decoded.At))
}

func TestDecodeEventInvalidPayload(t *testing.T) {
	tests := []struct {
		name    string
		message map[string]any
	}{
		{name: "missing data field", message: map[string]any{"other": "x"}},
		{name: "invalid base64", message: map[string]any{"data": "%%%"}},
		{name: "invalid msgpack", message: map[string]any{"data": "bm90LW1zZ3BhY2s="}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeEvent(tt.message)
			assert.Error(t, err)
		})
	}
}

func TestNewProducer(t *testing.T) {
	client := setupTest(t)

	tests := []struct {
		name    string
		client  *redis.Client
		stream  string
		wantErr string
	}{
		{name: "valid configuration", client: client, stream: "offer-events"},
		{name: "nil client", client: nil, stream: "offer-events", wantErr: "redis client cannot be nil"},
		{name: "empty stream", client: client, stream: "", wantErr: "stream cannot be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			producer, err := NewProducer(tt.client, tt.stream)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, producer)
		})
	}
}

func TestProducerPublish(t *testing.T) {
	client := setupTest(t)

	producer, err := NewProducer(client, "offer-events", WithProducerMaxLen(1000))
	require.NoError(t, err)

	// 尚未啟動時發布應失敗
	assert.ErrorIs(t, producer.Publish(testEvent()), ErrProducerClosed)

	producer.Start()
	defer producer.Close()

	event := testEvent()
	require.NoError(t, producer.Publish(event))

	// 等待背景 goroutine 完成 XADD
	ctx := context.Background()
	assert.Eventually(t, func() bool {
		length, err := client.XLen(ctx, "offer-events").Result()
		return err == nil && length == 1
	}, time.Second, 10*time.Millisecond)

	messages, err := client.XRange(ctx, "offer-events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)

	decoded, err := decodeEvent(messages[0].Values)
	require.NoError(t, err)
	assert.Equal(t, event.OfferID, decoded.OfferID)
}

func TestProducerConsumerRoundTrip(t *testing.T) {
	client := setupTest(t)

	consumer, err := NewConsumer(client, "offer-events",
		WithConsumerStartID("0"),
		WithConsumerBlockTimeout(50*time.Millisecond),
	)
	require.NoError(t, err)
	consumer.Start()
	defer consumer.Close()

	producer, err := NewProducer(client, "offer-events")
	require.NoError(t, err)
	producer.Start()
	defer producer.Close()

	event := testEvent()
	require.NoError(t, producer.Publish(event))

	select {
	case received := <-consumer.Subscribe():
		assert.Equal(t, event.Kind, received.Kind)
		assert.Equal(t, event.OfferID, received.OfferID)
		assert.Equal(t, event.BuyAdID, received.BuyAdID)
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive event in time")
	}
}

func TestConsumerCloseIsIdempotent(t *testing.T) {
	client := setupTest(t)

	consumer, err := NewConsumer(client, "offer-events", WithConsumerBlockTimeout(50*time.Millisecond))
	require.NoError(t, err)

	consumer.Start()
	consumer.Close()
	consumer.Close()
}
