package console

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/odinkv/kvstored/internal/command"
	"github.com/odinkv/kvstored/internal/delegator"
	"github.com/odinkv/kvstored/internal/notifier"
	"github.com/odinkv/kvstored/internal/store"
)

func newTestConsole(t *testing.T) *Console {
	t.Helper()
	s := store.New()
	storeWorker := delegator.New("store", 8)
	storeWorker.Start()
	t.Cleanup(storeWorker.Stop)

	runner := &command.Runner{
		Store:    storeWorker,
		StoreCtx: func() *command.StoreContext { return &command.StoreContext{Store: s} },
	}

	return New(command.NewRegistry(), runner, notifier.New(zerolog.Nop()), zerolog.Nop())
}

func TestExecuteSetThenGet(t *testing.T) {
	c := newTestConsole(t)

	reply := c.Execute("SET greeting hello")
	require.Equal(t, "+OK\r\n", reply)

	reply = c.Execute("GET greeting")
	require.Equal(t, "$5\r\nhello\r\n", reply)
}

func TestExecuteUnknownCommand(t *testing.T) {
	c := newTestConsole(t)
	reply := c.Execute("NOPE")
	require.Contains(t, reply, "unknown command")
}

func TestExecuteBlankLine(t *testing.T) {
	c := newTestConsole(t)
	require.Equal(t, "", c.Execute("   "))
}

func TestExecuteArityError(t *testing.T) {
	c := newTestConsole(t)
	reply := c.Execute("GET")
	require.Contains(t, reply, "-ERR")
}

func TestHandlerParsesFormBody(t *testing.T) {
	c := newTestConsole(t)

	form := url.Values{"command": {"SET k1 v1"}}
	req := httptest.NewRequest(http.MethodPost, "/console", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	c.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "+OK\r\n", rec.Body.String())

	reply := c.Execute("GET k1")
	require.Equal(t, "$2\r\nv1\r\n", reply)
}

func TestHandlerRejectsGet(t *testing.T) {
	c := newTestConsole(t)
	req := httptest.NewRequest(http.MethodGet, "/console", nil)
	rec := httptest.NewRecorder()

	c.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
