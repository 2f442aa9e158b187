package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/monitor"
)

func testHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	fixed := clock.Fixed{T: time.Date(2025, 1, 15, 12, 0, 0, 0, clock.ET())}
	hub := NewHub(fixed, zerolog.Nop())
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, sport string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	if sport != "" {
		url += "?sport=" + sport
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubSendsConnectedEnvelope(t *testing.T) {
	_, srv := testHub(t)
	conn := dial(t, srv, "nba")

	msg := readMessage(t, conn)
	assert.Equal(t, "connected", msg.Kind)
	assert.Equal(t, models.SportNBA, msg.Sport)
	assert.Contains(t, msg.At, "2025-01-15T")
}

func TestHubBroadcastsToMatchingSport(t *testing.T) {
	hub, srv := testHub(t)
	nba := dial(t, srv, "nba")
	all := dial(t, srv, "")

	readMessage(t, nba) // connected
	readMessage(t, all)

	changes := []monitor.Change{{
		Type:     models.ChangeOddsMove,
		Severity: models.SeverityAlert,
		Sport:    models.SportNBA,
		PickID:   "abc123",
		Label:    "Lakers -3.5",
		Previous: "-110",
		Current:  "-140",
	}}
	hub.Publish(models.SportNBA, changes)

	for _, conn := range []*websocket.Conn{nba, all} {
		msg := readMessage(t, conn)
		assert.Equal(t, "changes", msg.Kind)
		assert.Equal(t, models.SportNBA, msg.Sport)
		require.Len(t, msg.Changes, 1)
		assert.Equal(t, models.ChangeOddsMove, msg.Changes[0].Type)
		assert.Equal(t, "abc123", msg.Changes[0].PickID)
	}
}

func TestHubFiltersOtherSports(t *testing.T) {
	hub, srv := testHub(t)
	nhl := dial(t, srv, "nhl")
	readMessage(t, nhl) // connected

	hub.Publish(models.SportNBA, []monitor.Change{{
		Type:  models.ChangePickAdded,
		Sport: models.SportNBA,
		Label: "Celtics ML",
	}})

	require.NoError(t, nhl.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var msg Message
	err := nhl.ReadJSON(&msg)
	assert.Error(t, err, "nhl subscriber must not receive nba changes")
}

func TestHubRejectsUnknownSport(t *testing.T) {
	_, srv := testHub(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?sport=cricket"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHubIgnoresEmptyBatch(t *testing.T) {
	hub, srv := testHub(t)
	conn := dial(t, srv, "")
	readMessage(t, conn)

	hub.Publish(models.SportNBA, nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var msg Message
	assert.Error(t, conn.ReadJSON(&msg), "empty batches are not broadcast")
}

func TestHubSubscriberCount(t *testing.T) {
	hub, srv := testHub(t)
	assert.Equal(t, 0, hub.Subscribers())

	conn := dial(t, srv, "mlb")
	readMessage(t, conn)
	assert.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}
