package vehicle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/pilotdash"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) (*Server, *fakeController, *pilotdash.Client, string) {
	t.Helper()
	fc := &fakeController{}
	hub := NewHub()
	srv := NewServer(&State{}, hub, fc, NewMemoryTrack(10))
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})
	cli, err := pilotdash.New(ts.URL)
	require.NoError(t, err)
	return srv, fc, cli, ts.URL
}

func TestServerResources(t *testing.T) {
	srv, fc, cli, _ := testServer(t)
	ctx := context.Background()

	status, err := cli.GetStatus(ctx)
	require.NoError(t, err)
	require.False(t, status.Armed)

	require.NoError(t, cli.SaveStatus(ctx, pilotdash.Status{Armed: true}))
	require.Equal(t, []bool{true}, fc.Modes())

	// state only changes once the flight controller reports it
	status, err = cli.GetStatus(ctx)
	require.NoError(t, err)
	require.False(t, status.Armed)

	srv.UpdateStatus(ctx, pilotdash.Status{Armed: true})
	status, err = cli.GetStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.Armed)

	srv.UpdatePosition(ctx, pilotdash.Position{Latitude: 10, Longitude: 20})
	pos, err := cli.GetPosition(ctx)
	require.NoError(t, err)
	require.Equal(t, pilotdash.Position{Latitude: 10, Longitude: 20}, pos)
}

func TestServerSaveStatusFails(t *testing.T) {
	_, fc, cli, _ := testServer(t)
	fc.Fail(errors.New("no bus"))
	require.ErrorIs(t, cli.SaveStatus(context.Background(), pilotdash.Status{Armed: true}), pilotdash.ErrUnexpectedResponse)
}

func TestServerTrack(t *testing.T) {
	srv, _, _, url := testServer(t)
	ctx := context.Background()
	srv.UpdatePosition(ctx, pilotdash.Position{Latitude: 1, Longitude: 1})
	srv.UpdatePosition(ctx, pilotdash.Position{Latitude: 2, Longitude: 2})

	resp, err := http.Get(url + "/api/track?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fixes []Fix
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fixes))
	require.Len(t, fixes, 1)
	require.Equal(t, 2.0, fixes[0].Latitude)

	resp2, err := http.Get(url + "/api/track?limit=nope")
	require.NoError(t, err)
	resp2.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestServerNotFound(t *testing.T) {
	_, _, _, url := testServer(t)
	resp, err := http.Get(url + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "Not Found", body["message"])
}

func dial(t *testing.T, url string) (*pilotdash.Channel, *pilotdash.Scope) {
	t.Helper()
	scope := pilotdash.NewScope()
	ch, err := pilotdash.Dial(context.Background(), "ws"+strings.TrimPrefix(url, "http")+"/socket", scope)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })
	return ch, scope
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
		var zero T
		return zero
	}
}

func TestServerChannel(t *testing.T) {
	srv, fc, _, url := testServer(t)
	ch, _ := dial(t, url)

	announcements := make(chan string, 8)
	ch.On(EventAnnouncement, func(data json.RawMessage) {
		var s string
		_ = json.Unmarshal(data, &s)
		announcements <- s
	})
	gps := make(chan pilotdash.Position, 8)
	ch.On(EventGPS, func(data json.RawMessage) {
		var pos pilotdash.Position
		_ = json.Unmarshal(data, &pos)
		gps <- pos
	})
	armed := make(chan bool, 8)
	ch.On(EventArmedStatus, func(data json.RawMessage) {
		var b bool
		_ = json.Unmarshal(data, &b)
		armed <- b
	})

	require.Eventually(t, func() bool { return srv.hub.Len() == 1 }, time.Second, time.Millisecond)

	t.Run("arm", func(t *testing.T) {
		acks := make(chan string, 1)
		require.NoError(t, ch.Emit(EventArm, "test", func(reply json.RawMessage) {
			var s string
			_ = json.Unmarshal(reply, &s)
			acks <- s
		}))
		require.Equal(t, "armed", waitFor(t, acks))
		require.Equal(t, "armed", waitFor(t, announcements))
		require.Equal(t, []bool{true}, fc.Modes())
	})

	t.Run("disarm", func(t *testing.T) {
		require.NoError(t, ch.Emit(EventDisarm, "test", nil))
		require.Equal(t, "disarmed", waitFor(t, announcements))
		require.Equal(t, []bool{true, false}, fc.Modes())
	})

	t.Run("translation", func(t *testing.T) {
		require.NoError(t, ch.Emit(EventTranslation, Translation{Lat: 3, Lon: 4}, nil))
		require.Equal(t, pilotdash.Position{Latitude: 3, Longitude: 4}, waitFor(t, gps))
		pos, ok := srv.state.Position()
		require.True(t, ok)
		require.Equal(t, pilotdash.Position{Latitude: 3, Longitude: 4}, pos)
	})

	t.Run("unknown event", func(t *testing.T) {
		acks := make(chan json.RawMessage, 1)
		require.NoError(t, ch.Emit("nope", nil, func(reply json.RawMessage) { acks <- reply }))
		require.JSONEq(t, `{"error":"unknown event"}`, string(waitFor(t, acks)))
	})

	t.Run("armed status", func(t *testing.T) {
		srv.UpdateStatus(context.Background(), pilotdash.Status{Armed: true})
		require.True(t, waitFor(t, armed))
	})

	t.Run("disconnect", func(t *testing.T) {
		other, _ := dial(t, url)
		require.Eventually(t, func() bool { return srv.hub.Len() == 2 }, time.Second, time.Millisecond)
		require.NoError(t, other.Close())
		require.Equal(t, "client has disconnected", waitFor(t, announcements))
	})
}

func TestHubSkipsInvalidFrames(t *testing.T) {
	srv, fc, _, url := testServer(t)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http")+"/socket", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return srv.hub.Len() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	require.NoError(t, conn.WriteJSON(pilotdash.Frame{Event: EventArm, ID: 1}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var frame pilotdash.Frame
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.IsAck() {
			require.EqualValues(t, 1, frame.Ack)
			require.JSONEq(t, `"armed"`, string(frame.Data))
			break
		}
	}
	require.Equal(t, []bool{true}, fc.Modes())
	require.Equal(t, 1, srv.hub.Len())
}
