package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/catamaze/client/internal/client"
	"github.com/catamaze/client/internal/client/clienttest"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, token string) (*client.HTTPClient, *clienttest.Server) {
	t.Helper()
	srv := clienttest.NewServer()
	t.Cleanup(srv.Close)
	return client.NewHTTPClient(srv.URL+"/", token, client.WithHTTPClient(srv.Client())), srv
}

func newMux(t *testing.T, h http.Handler) string {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestCreateGame(t *testing.T) {
	c, srv := newClient(t, "")

	resp, err := c.CreateGame(context.Background())
	require.NoError(t, err)
	require.Equal(t, "game-0001", resp.GameID)
	require.Equal(t, 0, resp.QueueSize)
	require.Equal(t, client.MaxHP, resp.Observation.HP)
	require.Len(t, resp.Observation.Vision, client.VisionSize)
	require.False(t, resp.Observation.Over())

	calls := srv.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, http.MethodPost, calls[0].Method)
	require.Equal(t, "/game/new", calls[0].Path)
	require.NotEmpty(t, calls[0].RequestID)
	require.Empty(t, calls[0].Auth)
}

func TestActionTickRoundTrip(t *testing.T) {
	c, srv := newClient(t, "secret")
	ctx := context.Background()

	game, err := c.CreateGame(ctx)
	require.NoError(t, err)

	act, err := c.SubmitAction(ctx, game.GameID, client.MoveUp)
	require.NoError(t, err)
	require.True(t, act.Success)
	require.Equal(t, 1, act.QueueSize)

	tick, err := c.ExecuteTick(ctx, game.GameID)
	require.NoError(t, err)
	require.Equal(t, 1, tick.Tick)
	require.Equal(t, 1, tick.Observation.Tick)
	require.Equal(t, client.Position{X: 1, Y: 0}, tick.Observation.Position)
	require.Equal(t, []string{"moved up"}, tick.Events)
	require.Equal(t, 0, tick.QueueSize)

	for _, call := range srv.Calls() {
		require.Equal(t, "Bearer secret", call.Auth)
	}
	calls := srv.Calls()
	require.Equal(t, client.MoveUp, calls[1].Action)
	require.Equal(t, game.GameID, calls[1].GameID)
}

func TestRequestIDsAreUnique(t *testing.T) {
	c, srv := newClient(t, "")
	ctx := context.Background()

	game, err := c.CreateGame(ctx)
	require.NoError(t, err)
	_, err = c.Observe(ctx, game.GameID)
	require.NoError(t, err)

	calls := srv.Calls()
	require.Len(t, calls, 2)
	require.NotEqual(t, calls[0].RequestID, calls[1].RequestID)
}

func TestClearObserveResume(t *testing.T) {
	c, srv := newClient(t, "")
	ctx := context.Background()

	game, err := c.CreateGame(ctx)
	require.NoError(t, err)
	_, err = c.SubmitAction(ctx, game.GameID, client.Wait)
	require.NoError(t, err)
	_, err = c.SubmitAction(ctx, game.GameID, client.ShootLeft)
	require.NoError(t, err)

	res, err := c.Resume(ctx, game.GameID)
	require.NoError(t, err)
	require.Equal(t, game.GameID, res.GameID)
	require.Equal(t, 2, res.QueueSize)

	clr, err := c.ClearQueue(ctx, game.GameID)
	require.NoError(t, err)
	require.True(t, clr.Success)
	require.NotEmpty(t, clr.Message)

	obs, err := c.Observe(ctx, game.GameID)
	require.NoError(t, err)
	require.Equal(t, 0, obs.Observation.Tick)

	require.Equal(t, 1, srv.CallCount("/game/observe"))
	require.Equal(t, game.GameID, srv.Calls()[len(srv.Calls())-1].GameID)
}

func TestAPIErrorPassesDetailThrough(t *testing.T) {
	c, srv := newClient(t, "")
	srv.Fail("/game/new", http.StatusServiceUnavailable,
		"Server at capacity (50 concurrent games). Try again later.")

	_, err := c.CreateGame(context.Background())
	require.Error(t, err)
	require.Equal(t, "Server at capacity (50 concurrent games). Try again later.", err.Error())
	require.True(t, client.IsStatus(err, http.StatusServiceUnavailable))

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "POST /game/new", apiErr.Path)
}

func TestAPIErrorWithoutDetail(t *testing.T) {
	srv := http.NewServeMux()
	srv.HandleFunc("/game/tick", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})
	ts := newMux(t, srv)
	c := client.NewHTTPClient(ts, "")

	_, err := c.ExecuteTick(context.Background(), "g")
	require.EqualError(t, err, "HTTP 500")
}

func TestUnknownGame(t *testing.T) {
	c, _ := newClient(t, "")

	_, err := c.Resume(context.Background(), "missing")
	require.EqualError(t, err, "Game not found: missing")
	require.True(t, client.IsStatus(err, http.StatusNotFound))
}

func TestContextCancellation(t *testing.T) {
	c, srv := newClient(t, "")
	release := srv.Hold("/game/new")
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.CreateGame(ctx)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWatch(t *testing.T) {
	c, _ := newClient(t, "")
	ctx := context.Background()

	game, err := c.CreateGame(ctx)
	require.NoError(t, err)

	w, err := c.Watch(ctx, game.GameID+"-watch")
	require.NoError(t, err)
	require.Equal(t, game.GameID, w.GameID)
	require.Len(t, w.Entities, 1)
	require.NotEmpty(t, w.FullMap)
}

func TestObservationHelpers(t *testing.T) {
	var nilObs *client.Observation
	require.False(t, nilObs.Over())
	require.Equal(t, "", nilObs.Sound())
	require.Nil(t, nilObs.Clone())

	click := "*click*"
	obs := clienttest.InitialObservation()
	obs.LastSound = &click
	require.Equal(t, "*click*", obs.Sound())

	cp := obs.Clone()
	cp.Vision[0][0] = "#"
	*cp.LastSound = "changed"
	require.Equal(t, ".", obs.Vision[0][0])
	require.Equal(t, "*click*", obs.Sound())

	dead := obs
	dead.Alive = false
	require.True(t, dead.Over())

	won := clienttest.InitialObservation()
	won.Won = true
	require.True(t, won.Over())
}

func TestActionValid(t *testing.T) {
	for _, a := range client.Actions {
		require.True(t, a.Valid(), a)
	}
	require.False(t, client.Action("JUMP").Valid())
}
