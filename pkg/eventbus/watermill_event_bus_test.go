package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/striderun/stride/pkg/channels/gochannel"
	"github.com/striderun/stride/pkg/eventbus"
	"github.com/striderun/stride/pkg/events"
)

func TestPublishAndSubscribe(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	defer func() { _ = bus.Close() }()

	received := make(chan *events.JobFailed, 1)

	require.NoError(t, bus.Handle(events.JobFailedEvent, func(_ context.Context, event any) error {
		failed, ok := event.(*events.JobFailed)
		require.True(t, ok)
		received <- failed

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	failed := events.JobFailed{
		BaseEvent:     events.NewBaseEvent(events.JobFailedEvent, "wf-1", "job-1"),
		FailureReason: "step price: runtime error: boom",
	}
	require.NoError(t, bus.Publish(ctx, "job-1", failed))

	select {
	case event := <-received:
		assert.Equal(t, "job-1", event.JobID)
		assert.Equal(t, "step price: runtime error: boom", event.FailureReason)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job failed event")
	}
}

func TestUnhandledEventTypeIsIgnored(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	defer func() { _ = bus.Close() }()

	completions := make(chan *events.JobCompleted, 1)

	require.NoError(t, bus.Handle(events.JobCompletedEvent, func(_ context.Context, event any) error {
		completions <- event.(*events.JobCompleted)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	created := events.JobCreated{BaseEvent: events.NewBaseEvent(events.JobCreatedEvent, "wf-1", "job-1")}
	require.NoError(t, bus.Publish(ctx, "job-1", created))

	completed := events.JobCompleted{BaseEvent: events.NewBaseEvent(events.JobCompletedEvent, "wf-1", "job-1")}
	require.NoError(t, bus.Publish(ctx, "job-1", completed))

	select {
	case event := <-completions:
		assert.Equal(t, "job-1", event.JobID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job completed event")
	}
}
