package notifier

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	name      string
	channel   string
	payload   string
	delivered bool
	accept    bool
}

func (f *fakeSubscriber) Deliver(channel, payload string) bool {
	if !f.accept {
		return false
	}
	f.channel, f.payload, f.delivered = channel, payload, true
	return true
}

type fakeMonitor struct {
	accept bool
	lines  []string
}

func (f *fakeMonitor) DeliverMonitorLine(line string) bool {
	if !f.accept {
		return false
	}
	f.lines = append(f.lines, line)
	return true
}

func TestRegistrySubscribeUnsubscribe(t *testing.T) {
	r := NewRegistry()
	sub := &fakeSubscriber{accept: true}

	r.Subscribe("news", sub)
	require.Len(t, r.Subscribers("news"), 1)
	require.Equal(t, 1, r.NumSub("news"))
	require.Contains(t, r.Channels(), "news")

	r.Unsubscribe("news", sub)
	require.Empty(t, r.Subscribers("news"))
	require.NotContains(t, r.Channels(), "news")
}

func TestRegistrySubscribeIdempotent(t *testing.T) {
	r := NewRegistry()
	sub := &fakeSubscriber{accept: true}
	r.Subscribe("news", sub)
	r.Subscribe("news", sub)
	require.Len(t, r.Subscribers("news"), 1)
}

func TestRegistryUnsubscribeAll(t *testing.T) {
	r := NewRegistry()
	sub := &fakeSubscriber{accept: true}
	r.Subscribe("a", sub)
	r.Subscribe("b", sub)
	r.UnsubscribeAll(sub)
	require.Empty(t, r.Subscribers("a"))
	require.Empty(t, r.Subscribers("b"))
}

func TestNotifierPublishCountsDeliveries(t *testing.T) {
	n := New(zerolog.Nop())
	ok := &fakeSubscriber{accept: true}
	dropped := &fakeSubscriber{accept: false}
	n.Registry().Subscribe("chan", ok)
	n.Registry().Subscribe("chan", dropped)

	delivered := n.Publish("chan", "hello")
	require.Equal(t, 1, delivered)
	require.True(t, ok.delivered)
	require.Equal(t, "hello", ok.payload)
}

func TestNotifierMirrorCommand(t *testing.T) {
	n := New(zerolog.Nop())
	m := &fakeMonitor{accept: true}
	n.AddMonitor(m)

	n.MirrorCommand("SET k v")
	require.Equal(t, []string{"SET k v"}, m.lines)

	n.RemoveMonitor(m)
	n.MirrorCommand("SET k2 v2")
	require.Equal(t, []string{"SET k v"}, m.lines)
}
