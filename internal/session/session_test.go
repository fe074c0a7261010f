package session

import (
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/odinkv/kvstored/internal/command"
	"github.com/odinkv/kvstored/internal/notifier"
)

func newTestClient(t *testing.T) (*Client, net.Conn) {
	t.Helper()
	server, clientConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close() })

	deps := &Deps{
		Registry:          command.NewRegistry(),
		Notifier:          notifier.New(zerolog.Nop()),
		Logger:            zerolog.Nop(),
		ReplyChannelSize:  4,
		MaxCommandsPerSec: 0,
		CommandBurst:      10,
	}
	return New(server, deps), clientConn
}

func TestInitialStatusIsExecutor(t *testing.T) {
	c, _ := newTestClient(t)
	require.Equal(t, Executor, c.Status())
}

func TestSubscribeTransitionsToSubscriber(t *testing.T) {
	c, _ := newTestClient(t)
	c.Subscribe("news")
	require.Equal(t, Subscriber, c.Status())
	require.Equal(t, 1, c.SubscriptionCount())
}

func TestUnsubscribeLastChannelReturnsToExecutor(t *testing.T) {
	c, _ := newTestClient(t)
	c.Subscribe("news")
	c.Unsubscribe("news")
	require.Equal(t, Executor, c.Status())
}

func TestEnterMonitorIsTerminal(t *testing.T) {
	c, _ := newTestClient(t)
	c.EnterMonitor()
	require.Equal(t, Monitor, c.Status())
}

func TestAuthorizedSubscriberOnlyRunsClientLocal(t *testing.T) {
	c, _ := newTestClient(t)
	c.Subscribe("news")

	getCmd, _ := c.deps.Registry.Lookup("GET")
	require.False(t, c.authorized(getCmd))

	pingCmd, _ := c.deps.Registry.Lookup("PING")
	require.True(t, c.authorized(pingCmd))
}

func TestAuthorizedMonitorRunsNothing(t *testing.T) {
	c, _ := newTestClient(t)
	c.EnterMonitor()

	pingCmd, _ := c.deps.Registry.Lookup("PING")
	require.False(t, c.authorized(pingCmd))
}

func TestDeliverDropsWhenChannelFull(t *testing.T) {
	c, _ := newTestClient(t)
	for i := 0; i < cap(c.reply); i++ {
		require.True(t, c.Deliver("ch", "msg"))
	}
	require.False(t, c.Deliver("ch", "overflow"))
}

func TestDeliverDropsAfterClose(t *testing.T) {
	c, _ := newTestClient(t)
	c.Close()
	require.False(t, c.Deliver("ch", "msg"))
}

func TestCloseIsIdempotent(t *testing.T) {
	c, _ := newTestClient(t)
	c.Close()
	require.NotPanics(t, func() { c.Close() })
	require.Equal(t, Dead, c.Status())
}
