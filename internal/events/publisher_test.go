package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublisher_DeliversToSubscribers(t *testing.T) {
	p := NewPublisher(zap.NewNop(), 16)

	var mu sync.Mutex
	var got []Event
	p.Subscribe(func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	p.Start()
	p.Publish(Event{Kind: KindPointsAwarded, UserID: snowflake.ID(1)})
	p.Publish(Event{Kind: KindTierChanged, UserID: snowflake.ID(1)})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, KindPointsAwarded, got[0].Kind)
	assert.Equal(t, KindTierChanged, got[1].Kind)
	assert.NotEmpty(t, got[0].ID)
}

func TestPublisher_PublishNeverBlocksWhenFull(t *testing.T) {
	// No dispatch loop running, so the buffer fills up and stays full.
	p := NewPublisher(zap.NewNop(), 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			p.Publish(Event{Kind: KindPointsAwarded})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full buffer")
	}
}

func TestPublisher_StopDrainsBufferedEvents(t *testing.T) {
	p := NewPublisher(zap.NewNop(), 16)

	var mu sync.Mutex
	count := 0
	p.Subscribe(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	// Enqueue before the loop starts so everything sits in the buffer.
	for i := 0; i < 10; i++ {
		p.Publish(Event{Kind: KindPointsRedeemed})
	}
	p.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count)
}
