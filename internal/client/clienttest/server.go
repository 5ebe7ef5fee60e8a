// Package clienttest provides a scripted stand-in for the CataMaze game
// server. It does not implement game rules: each tick resolves one queued
// action, moves shift the player by one cell without collision checks, and
// the game ends at a configured tick.
package clienttest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/catamaze/client/internal/client"
	"github.com/go-chi/chi/v5"
)

// Call records one request received by the fake server.
type Call struct {
	Method    string
	Path      string
	GameID    string
	Action    client.Action
	RequestID string
	Auth      string
}

type failure struct {
	status int
	detail string
}

type game struct {
	obs   client.Observation
	queue []client.Action
}

// Server is an httptest.Server speaking the game API.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	games  map[string]*game
	nextID int
	calls  []Call
	fails  map[string]failure
	gates  map[string]chan struct{}

	// EndAtTick ends the game (player reaches the exit) once the tick
	// counter reaches it. Zero disables.
	EndAtTick int
	// DieAtTick kills the player once the tick counter reaches it.
	DieAtTick int
}

// NewServer starts a fake game server. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		games: make(map[string]*game),
		fails: make(map[string]failure),
		gates: make(map[string]chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNew)
		r.Post("/action", s.handleAction)
		r.Post("/tick", s.handleTick)
		r.Post("/clear_queue", s.handleClear)
		r.Post("/resume", s.handleResume)
		r.Get("/observe", s.handleObserve)
		r.Get("/watch", s.handleWatch)
	})
	s.Server = httptest.NewServer(r)
	return s
}

// Fail makes every subsequent request to path answer with status and a
// {"detail": detail} body until Recover is called.
func (s *Server) Fail(path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[path] = failure{status: status, detail: detail}
}

// Recover clears a failure installed with Fail.
func (s *Server) Recover(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fails, path)
}

// Hold blocks requests to path until the returned release func is called.
func (s *Server) Hold(path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[path] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[path] == ch {
				delete(s.gates, path)
			}
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns a copy of the recorded requests.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns how many requests hit path.
func (s *Server) CallCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Path == path {
			n++
		}
	}
	return n
}

// AddGame installs a game with the given observation and queue depth, for
// resume tests.
func (s *Server) AddGame(id string, obs client.Observation, queued int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &game{obs: obs}
	for i := 0; i < queued; i++ {
		g.queue = append(g.queue, client.Wait)
	}
	s.games[id] = g
}

// InitialObservation is the observation of every new game.
func InitialObservation() client.Observation {
	vision := make([][]string, client.VisionSize)
	for y := range vision {
		vision[y] = make([]string, client.VisionSize)
		for x := range vision[y] {
			vision[y][x] = "."
		}
	}
	vision[2][2] = "@"
	return client.Observation{
		EntityID: "player",
		HP:       client.MaxHP,
		Ammo:     client.MaxAmmo,
		Tick:     0,
		Position: client.Position{X: 1, Y: 1},
		Vision:   vision,
		Alive:    true,
	}
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := Call{
			Method:    r.Method,
			Path:      r.URL.Path,
			GameID:    r.URL.Query().Get("game_id"),
			RequestID: r.Header.Get("X-Request-ID"),
			Auth:      r.Header.Get("Authorization"),
		}
		if r.Method == http.MethodPost && r.Body != nil {
			var body client.ActionRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				call.GameID = body.GameID
				call.Action = body.Action
			}
			ctx := withBody(r.Context(), body)
			r = r.WithContext(ctx)
		}

		s.mu.Lock()
		s.calls = append(s.calls, call)
		gate := s.gates[r.URL.Path]
		fail, failing := s.fails[r.URL.Path]
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeJSON(w, fail.status, map[string]string{"detail": fail.detail})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("game-%04d", s.nextID)
	g := &game{obs: InitialObservation()}
	s.games[id] = g
	obs := *g.obs.Clone()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, client.NewGameResponse{GameID: id, Observation: obs})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	if !body.Action.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid action: " + string(body.Action)})
		return
	}

	s.mu.Lock()
	g, ok := s.games[body.GameID]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Game not found: " + body.GameID})
		return
	}
	if g.obs.GameOver {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Game is already over"})
		return
	}
	g.queue = append(g.queue, body.Action)
	n := len(g.queue)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, client.ActionResponse{Success: true, QueueSize: n, Message: "Action queued"})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())

	s.mu.Lock()
	g, ok := s.games[body.GameID]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Game not found: " + body.GameID})
		return
	}
	if g.obs.GameOver {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Game is already over"})
		return
	}

	var events []string
	if len(g.queue) > 0 {
		action := g.queue[0]
		g.queue = g.queue[1:]
		if ev := apply(&g.obs, action); ev != "" {
			events = append(events, ev)
		}
	}
	g.obs.Tick++
	switch {
	case s.DieAtTick > 0 && g.obs.Tick >= s.DieAtTick:
		g.obs.HP = 0
		g.obs.Alive = false
		g.obs.GameOver = true
		events = append(events, "Player was killed")
	case s.EndAtTick > 0 && g.obs.Tick >= s.EndAtTick:
		g.obs.Won = true
		g.obs.GameOver = true
		events = append(events, "Player reached the exit and won!")
	}
	resp := client.TickResponse{
		Tick:        g.obs.Tick,
		Observation: *g.obs.Clone(),
		Events:      events,
		QueueSize:   len(g.queue),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())

	s.mu.Lock()
	g, ok := s.games[body.GameID]
	if ok {
		g.queue = nil
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Game not found: " + body.GameID})
		return
	}
	writeJSON(w, http.StatusOK, client.ClearQueueResponse{Success: true, Message: "Action queue cleared"})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())

	s.mu.Lock()
	g, ok := s.games[body.GameID]
	var resp client.ResumeResponse
	if ok {
		resp = client.ResumeResponse{GameID: body.GameID, Observation: *g.obs.Clone(), QueueSize: len(g.queue)}
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Game not found: " + body.GameID})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleObserve(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("game_id")

	s.mu.Lock()
	g, ok := s.games[id]
	var obs client.Observation
	if ok {
		obs = *g.obs.Clone()
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Game not found: " + id})
		return
	}
	writeJSON(w, http.StatusOK, client.ObserveResponse{Observation: obs})
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(r.URL.Query().Get("game_id"), "-watch")

	s.mu.Lock()
	g, ok := s.games[id]
	var resp client.WatchResponse
	if ok {
		resp = client.WatchResponse{
			GameID:  id,
			Tick:    g.obs.Tick,
			FullMap: g.obs.Clone().Vision,
			Entities: []client.Entity{{
				ID: "player", Type: "player",
				X: g.obs.Position.X, Y: g.obs.Position.Y,
				HP: g.obs.HP, Alive: g.obs.Alive,
			}},
		}
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Game not found: " + id})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// apply moves the player for movement actions and reports an event line.
func apply(obs *client.Observation, action client.Action) string {
	switch action {
	case client.MoveUp:
		obs.Position.Y--
		return "moved up"
	case client.MoveDown:
		obs.Position.Y++
		return "moved down"
	case client.MoveLeft:
		obs.Position.X--
		return "moved left"
	case client.MoveRight:
		obs.Position.X++
		return "moved right"
	case client.Wait:
		return ""
	default:
		return "fired " + strings.ToLower(strings.TrimPrefix(string(action), "SHOOT_"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type bodyKey struct{}

func withBody(ctx context.Context, body client.ActionRequest) context.Context {
	return context.WithValue(ctx, bodyKey{}, body)
}

func bodyFrom(ctx context.Context) client.ActionRequest {
	body, _ := ctx.Value(bodyKey{}).(client.ActionRequest)
	return body
}
