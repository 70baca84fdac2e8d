package bot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/EgorLis/chestbot/internal/clock"
	"github.com/EgorLis/chestbot/internal/tracker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newNotifierFixture(t *testing.T) (*tracker.Tracker, *fakeAPI, *clock.Fake, *Notifier) {
	t.Helper()
	clk := clock.NewFake(testStart)
	tr := tracker.New(tracker.DefaultConfig(), tracker.WithClock(clk))
	api := &fakeAPI{}
	n := NewNotifier(api, tr, zap.NewNop(), clk)
	t.Cleanup(func() {
		n.Close()
		tr.Destroy()
	})
	return tr, api, clk, n
}

func TestNotifierFullCycle(t *testing.T) {
	tr, api, clk, n := newNotifierFixture(t)

	_, err := tr.Create("D4", "")
	require.NoError(t, err)
	require.True(t, tr.MarkLooted("d4", "chan1", "int-1"))
	clk.Advance(75 * time.Minute)
	clk.Advance(15 * time.Minute)
	n.Close()

	sent := api.Sent()
	require.Len(t, sent, 3)
	for _, s := range sent {
		assert.Equal(t, "chan1", s.ChannelID)
	}

	assert.Equal(t, "📦 **D4** was looted! Timer reset to 1.5 hours.", sent[0].Msg.Content)
	assert.Equal(t, "📦 Chest Looted", sent[0].Msg.Embeds[0].Title)
	assert.Empty(t, sent[0].Msg.Components)

	alert := sent[1].Msg
	assert.Equal(t, "🎯 **D4** will respawn in 15 minutes!", alert.Content)
	assert.Equal(t, "15 minutes", alert.Embeds[0].Fields[1].Value)
	require.Len(t, alert.Components, 1)
	buttons := alert.Components[0].Components
	require.Len(t, buttons, 2)
	assert.Equal(t, "chest_claimed_d4", buttons[0].CustomID)
	assert.Equal(t, "chest_missed_d4", buttons[1].CustomID)

	assert.Equal(t, "🎯 **D4** has respawned! Go get it!", sent[2].Msg.Content)
	assert.Equal(t, "🎉 Chest Respawned!", sent[2].Msg.Embeds[0].Title)
}

func TestNotifierIgnoresAddAndRemove(t *testing.T) {
	tr, api, _, n := newNotifierFixture(t)
	_, err := tr.Create("D4", "chan1")
	require.NoError(t, err)
	tr.Remove("d4")
	n.Close()
	assert.Empty(t, api.Sent())
}

func TestNotifierSwallowsDeliveryErrors(t *testing.T) {
	tr, api, clk, n := newNotifierFixture(t)
	api.sendErr = errors.New("discord is down")

	_, err := tr.CreateLooted("D4", "chan1", "")
	require.NoError(t, err)
	require.True(t, tr.MarkLooted("d4", "chan1", ""))
	clk.Advance(90 * time.Minute)
	n.Close()

	c, ok := tr.Get("d4")
	require.True(t, ok)
	assert.False(t, c.Active)
	assert.Empty(t, api.Sent())
}

func TestNotifierCloseIsIdempotent(t *testing.T) {
	tr, api, _, n := newNotifierFixture(t)
	n.Close()
	n.Close()

	_, err := tr.CreateLooted("D4", "chan1", "")
	require.NoError(t, err)
	require.True(t, tr.MarkLooted("d4", "chan1", ""))
	assert.Empty(t, api.Sent())
}

func TestNotifierDropsWhenQueueIsFull(t *testing.T) {
	clk := clock.NewFake(testStart)
	tr := tracker.New(tracker.DefaultConfig(), tracker.WithClock(clk))
	defer tr.Destroy()
	api := &fakeAPI{}
	release := api.stall()
	core, logs := observer.New(zapcore.WarnLevel)
	n := NewNotifier(api, tr, zap.New(core), clk)

	_, err := tr.Create("D4", "chan1")
	require.NoError(t, err)

	// первое сообщение забирает воркер и виснет в CreateMessage
	require.True(t, tr.MarkLooted("d4", "chan1", ""))
	select {
	case <-api.started:
	case <-time.After(5 * time.Second):
		release()
		n.Close()
		t.Fatal("worker did not pick up the first notification")
	}

	const extra = notifyQueueSize + 6
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < extra; i++ {
			assert.True(t, tr.MarkLooted("d4", "chan1", ""))
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		release()
		n.Close()
		t.Fatal("tracker blocked on a stalled notifier")
	}

	c, ok := tr.Get("d4")
	require.True(t, ok)
	assert.True(t, c.Active)

	dropped := logs.FilterMessage("notification queue full, dropping").All()
	assert.Len(t, dropped, extra-notifyQueueSize)
	for _, e := range dropped {
		assert.Equal(t, "d4", e.ContextMap()["chest"])
	}

	release()
	n.Close()
	assert.Len(t, api.Sent(), 1+notifyQueueSize)
}
