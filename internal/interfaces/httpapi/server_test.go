package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"spreadscope/internal/application/broadcast"
	"spreadscope/internal/application/service"
	"spreadscope/internal/domain/model"
	"spreadscope/internal/domain/store"
	"spreadscope/internal/infrastructure/rates"
)

type fixture struct {
	srv   *httptest.Server
	store *store.Store
	hub   *broadcast.Hub
}

func newFixture(t *testing.T, p Params) *fixture {
	t.Helper()
	st := store.New([]string{"gate", "mexc"}, nil)
	st.SetPrice("gate", "BTC_USDT", model.PriceEntry{Last: 100, Ts: 1})
	st.SetPrice("gate", "ETH_USDT", model.PriceEntry{Last: 10, Ts: 1})
	st.SetPrice("gate", "SOL_USDT", model.PriceEntry{Last: 1, Ts: 1})
	st.SetPrice("mexc", "BTC_USDT", model.PriceEntry{Last: 102, Fair: model.Float(101), Ts: 2})

	ratesPath := filepath.Join(t.TempDir(), "rates.json")
	require.NoError(t, os.WriteFile(ratesPath, []byte(`{"base":"USD","rates":{"USD":1,"EUR":0.5}}`), 0o644))

	hub := broadcast.NewHub()
	quotes := service.NewQuoteService(st, hub, nil)
	s := NewServer(p, quotes, st, hub, rates.NewLocalRates(ratesPath))

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: st, hub: hub}
}

func (f *fixture) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *fixture) dial(t *testing.T, exchange string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws?exchange=" + exchange
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) model.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg model.Message
	require.NoError(t, json.Unmarshal(b, &msg))
	return msg
}

func TestHealth(t *testing.T) {
	f := newFixture(t, Params{})
	f.store.SetMeta("gate", "BTC_USDT", model.MetaEntry{RefreshedAt: time.Now().Add(-time.Minute).UnixMilli()})

	var h service.Health
	require.Equal(t, http.StatusOK, f.get(t, "/health", &h))
	require.Equal(t, "ok", h.Status)
	require.Equal(t, []string{"gate", "mexc"}, h.ExchangesEnabled)
	require.Equal(t, 3, h.QuotesCached["gate"])
	require.GreaterOrEqual(t, h.MetaAgeMs["gate"], int64(60_000))
	require.NotContains(t, h.MetaAgeMs, "mexc")
}

func TestQuotes(t *testing.T) {
	f := newFixture(t, Params{})

	var resp listResponse[model.NormalizedRecord]
	require.Equal(t, http.StatusOK, f.get(t, "/api/quotes", &resp))
	require.Equal(t, 4, resp.Count)
	require.Equal(t, "gate", resp.Records[0].Exchange)
	require.Equal(t, "BTC_USDT", resp.Records[0].Symbol)
	require.Equal(t, "mexc", resp.Records[3].Exchange)

	require.Equal(t, http.StatusOK, f.get(t, "/api/quotes?exchange=gate&limit=2", &resp))
	require.Equal(t, 2, resp.Count)
	require.Len(t, resp.Records, 2)

	require.Equal(t, http.StatusOK, f.get(t, "/api/quotes?symbol=BTC_USDT", &resp))
	require.Equal(t, 2, resp.Count)
}

func TestQuotesLimitValidation(t *testing.T) {
	f := newFixture(t, Params{})

	for _, q := range []string{"limit=0", "limit=2001", "limit=abc"} {
		var e errorResponse
		require.Equal(t, http.StatusUnprocessableEntity, f.get(t, "/api/quotes?"+q, &e), q)
		require.NotEmpty(t, e.Detail)
	}
	require.Equal(t, http.StatusOK, f.get(t, "/api/quotes?limit=2000", nil))
	require.Equal(t, http.StatusUnprocessableEntity, f.get(t, "/api/spreads?limit=1001", nil))
}

func TestSpreads(t *testing.T) {
	f := newFixture(t, Params{})

	var resp listResponse[model.SpreadRecord]
	require.Equal(t, http.StatusOK, f.get(t, "/api/spreads", &resp))
	require.Equal(t, 1, resp.Count)
	s := resp.Records[0]
	require.Equal(t, "BTC_USDT", s.Symbol)
	require.Equal(t, "gate", s.LowExchange)
	require.Equal(t, "mexc", s.HighExchange)
	require.Equal(t, 101.0, s.HighPrice)
	require.Equal(t, []string{"gate", "mexc"}, s.ComparedExchanges)

	require.Equal(t, http.StatusOK, f.get(t, "/api/spreads?exchanges=%20GATE%20,", &resp))
	require.Equal(t, 0, resp.Count)
	require.NotNil(t, resp.Records)
}

func TestConverter(t *testing.T) {
	f := newFixture(t, Params{})

	var table rates.Table
	require.Equal(t, http.StatusOK, f.get(t, "/api/converter/rates", &table))
	require.Equal(t, "USD", table.Base)
	require.Equal(t, 0.5, table.Rates["EUR"])

	var conv convertResponse
	require.Equal(t, http.StatusOK, f.get(t, "/api/converter/convert?from=usd&to=eur&amount=10", &conv))
	require.Equal(t, 5.0, conv.Result)

	require.Equal(t, http.StatusUnprocessableEntity, f.get(t, "/api/converter/convert?from=usd&to=jpy", nil))
	require.Equal(t, http.StatusUnprocessableEntity, f.get(t, "/api/converter/convert?from=usd&to=eur&amount=ten", nil))
	require.Equal(t, http.StatusUnprocessableEntity, f.get(t, "/api/converter/convert?to=eur", nil))

	for _, amount := range []string{"0", "-5", "-0.00000001"} {
		var e errorResponse
		require.Equal(t, http.StatusUnprocessableEntity, f.get(t, "/api/converter/convert?from=usd&to=eur&amount="+amount, &e), amount)
		require.Contains(t, e.Detail, "greater than zero")
	}
}

func TestRootAndCORS(t *testing.T) {
	f := newFixture(t, Params{FrontendDir: filepath.Join(t.TempDir(), "missing")})

	var banner map[string]string
	require.Equal(t, http.StatusOK, f.get(t, "/", &banner))
	require.Equal(t, "/api/spreads", banner["spreads"])

	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+"/api/quotes", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRootServesIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>spreads</html>"), 0o644))
	f := newFixture(t, Params{FrontendDir: dir})

	resp, err := http.Get(f.srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestWebsocketSnapshotThenTicks(t *testing.T) {
	f := newFixture(t, Params{})
	conn := f.dial(t, "gate")

	snap := readMessage(t, conn)
	require.Equal(t, model.MessageSnapshot, snap.Type)
	require.NotNil(t, snap.Records)
	require.Len(t, *snap.Records, 3)

	require.Eventually(t, func() bool { return f.hub.Count("gate") == 1 }, time.Second, 10*time.Millisecond)

	f.hub.Broadcast(context.Background(), "gate", model.TickMessage(model.NormalizedRecord{Exchange: "gate", Symbol: "BTC_USDT", Last: 99}))
	f.hub.Broadcast(context.Background(), "mexc", model.TickMessage(model.NormalizedRecord{Exchange: "mexc", Symbol: "BTC_USDT", Last: 1}))
	f.hub.Broadcast(context.Background(), "gate", model.MetaBatchMessage(7))

	tick := readMessage(t, conn)
	require.Equal(t, model.MessageTick, tick.Type)
	require.Equal(t, 99.0, tick.Record.Last)

	batch := readMessage(t, conn)
	require.Equal(t, model.MessageMetaBatch, batch.Type)
	require.Equal(t, 7, *batch.Count)
}

func TestWebsocketSnapshotPerExchange(t *testing.T) {
	f := newFixture(t, Params{})
	conn := f.dial(t, "mexc")

	snap := readMessage(t, conn)
	require.Equal(t, model.MessageSnapshot, snap.Type)
	require.Len(t, *snap.Records, 1)
}

func TestWebsocketUnknownExchange(t *testing.T) {
	f := newFixture(t, Params{})
	conn := f.dial(t, "kraken")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestWebsocketIdlePing(t *testing.T) {
	f := newFixture(t, Params{PingIdle: 50 * time.Millisecond})
	conn := f.dial(t, "gate")

	require.Equal(t, model.MessageSnapshot, readMessage(t, conn).Type)
	require.Equal(t, model.MessagePing, readMessage(t, conn).Type)
}

func TestWebsocketDisconnectUnsubscribes(t *testing.T) {
	f := newFixture(t, Params{})
	conn := f.dial(t, "gate")
	readMessage(t, conn)
	require.Eventually(t, func() bool { return f.hub.Count("gate") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return f.hub.Count("gate") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastToClosedClientIsPruned(t *testing.T) {
	f := newFixture(t, Params{})
	conn := f.dial(t, "gate")
	readMessage(t, conn)
	require.Eventually(t, func() bool { return f.hub.Count("gate") == 1 }, time.Second, 10*time.Millisecond)

	// Drop the TCP connection without a close handshake.
	require.NoError(t, conn.UnderlyingConn().Close())

	tick := model.TickMessage(model.NormalizedRecord{Exchange: "gate", Symbol: "BTC_USDT", Last: 1})
	require.NotPanics(t, func() { f.hub.Broadcast(context.Background(), "gate", tick) })
	require.Eventually(t, func() bool {
		f.hub.Broadcast(context.Background(), "gate", tick)
		return f.hub.Count("gate") == 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestOversizedInboundFrameClosesStream(t *testing.T) {
	f := newFixture(t, Params{})
	conn := f.dial(t, "gate")
	readMessage(t, conn)
	require.Eventually(t, func() bool { return f.hub.Count("gate") == 1 }, time.Second, 10*time.Millisecond)

	_ = conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 4*maxInboundBytes)))

	require.Eventually(t, func() bool { return f.hub.Count("gate") == 0 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestSplitExchanges(t *testing.T) {
	require.Nil(t, splitExchanges(""))
	require.Equal(t, []string{"gate", "mexc"}, splitExchanges(" Gate,,MEXC "))
}
