package sse_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"bazar/adapters/sse"
	"bazar/models"
	"bazar/offers"
)

func testEvent(buyAdID uuid.UUID) offers.Event {
	return offers.Event{
		Kind:    offers.EventCreated,
		OfferID: uuid.Must(uuid.NewV7()),
		BuyAdID: buyAdID,
		Status:  models.OfferStatusPending,
		At:      time.Now(),
	}
}

func TestHubSubscribeAndBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := sse.NewHub()
	defer hub.Close()

	buyAdID := uuid.Must(uuid.NewV7())
	ch, err := hub.Subscribe(buyAdID.String())
	require.NoError(t, err)

	event := testEvent(buyAdID)
	hub.Broadcast(event)

	select {
	case received := <-ch:
		assert.Equal(t, event.OfferID, received.OfferID)
	case <-time.After(time.Second):
		t.Fatal("did not receive event in time")
	}

	// 其他採購需求的事件不應送到這個訂閱者
	hub.Broadcast(testEvent(uuid.Must(uuid.NewV7())))
	select {
	case unexpected := <-ch:
		t.Fatalf("received event for another buy ad: %+v", unexpected)
	case <-time.After(50 * time.Millisecond):
	}

	// 取消訂閱後通道應被關閉
	hub.Unsubscribe(buyAdID.String(), ch)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
}

func TestHubMultipleSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := sse.NewHub()
	defer hub.Close()

	buyAdID := uuid.Must(uuid.NewV7())
	first, err := hub.Subscribe(buyAdID.String())
	require.NoError(t, err)
	second, err := hub.Subscribe(buyAdID.String())
	require.NoError(t, err)

	event := testEvent(buyAdID)
	hub.Broadcast(event)

	for _, ch := range []<-chan offers.Event{first, second} {
		select {
		case received := <-ch:
			assert.Equal(t, event.OfferID, received.OfferID)
		case <-time.After(time.Second):
			t.Fatal("did not receive event in time")
		}
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := sse.NewHub(sse.WithHubBufferSize(1))
	defer hub.Close()

	buyAdID := uuid.Must(uuid.NewV7())
	slow, err := hub.Subscribe(buyAdID.String())
	require.NoError(t, err)

	// 塞滿慢速訂閱者的緩衝後繼續廣播不應阻塞
	hub.Broadcast(testEvent(buyAdID))
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Broadcast(testEvent(buyAdID))
		hub.Broadcast(testEvent(buyAdID))
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}

	// 緩衝裡只會有第一則事件
	<-slow
	select {
	case unexpected := <-slow:
		t.Fatalf("expected dropped events, got %+v", unexpected)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubAttach(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := sse.NewHub()

	buyAdID := uuid.Must(uuid.NewV7())
	ch, err := hub.Subscribe(buyAdID.String())
	require.NoError(t, err)

	source := make(chan offers.Event)
	hub.Attach(source)

	event := testEvent(buyAdID)
	source <- event

	select {
	case received := <-ch:
		assert.Equal(t, event.OfferID, received.OfferID)
	case <-time.After(time.Second):
		t.Fatal("did not receive event in time")
	}

	// 關閉來源後 Close 不應卡住
	close(source)
	hub.Close()

	_, err = hub.Subscribe(buyAdID.String())
	assert.ErrorIs(t, err, sse.ErrHubClosed)
}
