package command

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odinkv/kvstored/internal/resp"
	"github.com/odinkv/kvstored/internal/store"
)

func newStoreCtx() *StoreContext {
	return &StoreContext{Store: store.New()}
}

func TestRegistryLookupCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	c, ok := r.Lookup("get")
	require.True(t, ok)
	require.Equal(t, "GET", c.Name)
	require.Equal(t, StoreGroup, c.Group)
}

func TestCheckArityRejectsWrongCount(t *testing.T) {
	r := NewRegistry()
	c, _ := r.Lookup("GET")
	reply, ok := CheckArity(c, []string{})
	require.False(t, ok)
	require.IsType(t, resp.Error{}, reply)
}

func TestSetAndGetRoundTrip(t *testing.T) {
	sc := newStoreCtx()
	r := NewRegistry()
	setCmd, _ := r.Lookup("SET")
	reply := setCmd.Store(sc, []string{"k", "v"})
	require.Equal(t, resp.SimpleString("OK"), reply)

	getCmd, _ := r.Lookup("GET")
	got := getCmd.Store(sc, []string{"k"})
	require.Equal(t, resp.NewBulkString("v"), got)
}

func TestSetWithExApplesTTL(t *testing.T) {
	sc := newStoreCtx()
	reply := cmdSet(sc, []string{"k", "v", "EX", "10"})
	require.Equal(t, resp.SimpleString("OK"), reply)
	ttl := sc.Store.TTL("k")
	require.Greater(t, ttl, int64(0))
	require.LessOrEqual(t, ttl, int64(10))
}

func TestAppendCreatesThenExtends(t *testing.T) {
	sc := newStoreCtx()
	require.Equal(t, resp.Integer(5), cmdAppend(sc, []string{"k", "hello"}))
	require.Equal(t, resp.Integer(10), cmdAppend(sc, []string{"k", "world"}))
}

func TestIncrByDecrBy(t *testing.T) {
	sc := newStoreCtx()
	require.Equal(t, resp.Integer(5), cmdIncrBy(sc, []string{"counter", "5"}))
	require.Equal(t, resp.Integer(3), cmdDecrBy(sc, []string{"counter", "2"}))
}

func TestIncrByNonIntegerFails(t *testing.T) {
	sc := newStoreCtx()
	sc.Store.Insert("k", store.StringValue("not-a-number"))
	reply := cmdIncrBy(sc, []string{"k", "1"})
	require.Equal(t, resp.ErrNotInteger, reply)
}

func TestIncrByOverflowFails(t *testing.T) {
	sc := newStoreCtx()
	sc.Store.Insert("k", store.StringValue("9223372036854775807"))
	reply := cmdIncrBy(sc, []string{"k", "1"})
	require.Equal(t, resp.ErrNotInteger, reply)
}

func TestDecrByOverflowFails(t *testing.T) {
	sc := newStoreCtx()
	sc.Store.Insert("k", store.StringValue("-9223372036854775808"))
	reply := cmdDecrBy(sc, []string{"k", "1"})
	require.Equal(t, resp.ErrNotInteger, reply)
}

func TestListPushPopRoundTrip(t *testing.T) {
	sc := newStoreCtx()
	require.Equal(t, resp.Integer(2), cmdRPush(sc, []string{"q", "a", "b"}))
	require.Equal(t, resp.StringArray("a", "b"), cmdLRange(sc, []string{"q", "0", "-1"}))
	require.Equal(t, resp.NewBulkString("a"), cmdLPop(sc, []string{"q"}))
}

func TestLPushXOnMissingKeyReturnsError(t *testing.T) {
	sc := newStoreCtx()
	require.Equal(t, resp.NewError("ERR", "no list found with entered key"), cmdLPushX(sc, []string{"missing", "x"}))
}

func TestSetOpsViaCommands(t *testing.T) {
	sc := newStoreCtx()
	require.Equal(t, resp.Integer(2), cmdSAdd(sc, []string{"s", "a", "b"}))
	require.Equal(t, resp.Integer(1), cmdSIsMember(sc, []string{"s", "a"}))
	require.Equal(t, resp.Integer(0), cmdSIsMember(sc, []string{"s", "z"}))
}

func TestWrongTypeIsPreserved(t *testing.T) {
	sc := newStoreCtx()
	sc.Store.Insert("k", store.ListValue("a"))
	require.Equal(t, resp.ErrWrongType, cmdGet(sc, []string{"k"}))
}

type fakeSession struct {
	subscribed map[string]bool
	monitor    bool
	closed     bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{subscribed: make(map[string]bool)}
}

func (f *fakeSession) Subscribe(channel string) int {
	f.subscribed[channel] = true
	return len(f.subscribed)
}

func (f *fakeSession) Unsubscribe(channel string) int {
	delete(f.subscribed, channel)
	return len(f.subscribed)
}

func (f *fakeSession) UnsubscribeAll() []string {
	out := make([]string, 0, len(f.subscribed))
	for ch := range f.subscribed {
		out = append(out, ch)
		delete(f.subscribed, ch)
	}
	return out
}

func (f *fakeSession) SubscriptionCount() int { return len(f.subscribed) }
func (f *fakeSession) EnterMonitor()          { f.monitor = true }
func (f *fakeSession) Close()                 { f.closed = true }

func TestSubscribeUnsubscribe(t *testing.T) {
	sess := newFakeSession()
	reply := cmdSubscribe(sess, []string{"news"})
	require.Equal(t, resp.Sequence{
		resp.NewArray(resp.NewBulkString("subscribe"), resp.NewBulkString("news"), resp.Integer(1)),
	}, reply)

	reply = cmdUnsubscribe(sess, []string{"news"})
	require.Equal(t, resp.Sequence{
		resp.NewArray(resp.NewBulkString("unsubscribe"), resp.NewBulkString("news"), resp.Integer(0)),
	}, reply)
}

func TestSubscribeMultiChannelAcksEachOne(t *testing.T) {
	sess := newFakeSession()
	reply := cmdSubscribe(sess, []string{"a", "b", "c"})
	require.Equal(t, resp.Sequence{
		resp.NewArray(resp.NewBulkString("subscribe"), resp.NewBulkString("a"), resp.Integer(1)),
		resp.NewArray(resp.NewBulkString("subscribe"), resp.NewBulkString("b"), resp.Integer(2)),
		resp.NewArray(resp.NewBulkString("subscribe"), resp.NewBulkString("c"), resp.Integer(3)),
	}, reply)
}

func TestMonitorAndQuit(t *testing.T) {
	sess := newFakeSession()
	cmdMonitor(sess, nil)
	require.True(t, sess.monitor)

	cmdQuit(sess, nil)
	require.True(t, sess.closed)
}

func TestPing(t *testing.T) {
	sess := newFakeSession()
	require.Equal(t, resp.SimpleString("PONG"), cmdPing(sess, nil))
	require.Equal(t, resp.NewBulkString("hello"), cmdPing(sess, []string{"hello"}))
}
