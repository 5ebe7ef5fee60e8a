// Package client provides the HTTP client for the CataMaze game server.
// Types mirror the server's wire protocol without importing server packages.
package client

// Game limits reported by the server's engine constants.
const (
	MaxHP      = 5
	MaxAmmo    = 3
	VisionSize = 5
)

// Action is a discrete action symbol accepted by /game/action.
type Action string

const (
	MoveUp     Action = "MOVE_UP"
	MoveLeft   Action = "MOVE_LEFT"
	MoveDown   Action = "MOVE_DOWN"
	MoveRight  Action = "MOVE_RIGHT"
	ShootUp    Action = "SHOOT_UP"
	ShootLeft  Action = "SHOOT_LEFT"
	ShootDown  Action = "SHOOT_DOWN"
	ShootRight Action = "SHOOT_RIGHT"
	Wait       Action = "WAIT"
)

// Actions lists every valid action symbol.
var Actions = []Action{
	MoveUp, MoveLeft, MoveDown, MoveRight,
	ShootUp, ShootLeft, ShootDown, ShootRight,
	Wait,
}

// Valid reports whether a is one of the server's action symbols.
func (a Action) Valid() bool {
	for _, v := range Actions {
		if a == v {
			return true
		}
	}
	return false
}

// Position is a map coordinate. y grows downward.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Observation is the player's view of the world after any state-affecting
// or read call. It is replaced wholesale, never merged.
type Observation struct {
	EntityID  string     `json:"entity_id,omitempty"`
	HP        int        `json:"hp"`
	Ammo      int        `json:"ammo"`
	Tick      int        `json:"time"`
	Position  Position   `json:"position"`
	Vision    [][]string `json:"vision"`
	LastSound *string    `json:"last_sound"`
	Alive     bool       `json:"alive"`
	Won       bool       `json:"won"`
	GameOver  bool       `json:"game_over"`
}

// Over reports whether the game has ended for the player. The server sets
// game_over when the player dies or reaches the exit; a dead or winning
// player is treated as over even if the flag lags behind.
func (o *Observation) Over() bool {
	if o == nil {
		return false
	}
	return o.GameOver || !o.Alive || o.Won
}

// Sound returns the last sound heard, or "" for silence.
func (o *Observation) Sound() string {
	if o == nil || o.LastSound == nil {
		return ""
	}
	return *o.LastSound
}

// Clone returns a deep copy of the observation.
func (o *Observation) Clone() *Observation {
	if o == nil {
		return nil
	}
	cp := *o
	if o.LastSound != nil {
		s := *o.LastSound
		cp.LastSound = &s
	}
	if o.Vision != nil {
		cp.Vision = make([][]string, len(o.Vision))
		for i, row := range o.Vision {
			cp.Vision[i] = append([]string(nil), row...)
		}
	}
	return &cp
}

// --- HTTP request/response types ---

// GameRequest is the body of every POST that targets an existing game.
type GameRequest struct {
	GameID string `json:"game_id"`
}

// ActionRequest is the body of POST /game/action.
type ActionRequest struct {
	GameID string `json:"game_id"`
	Action Action `json:"action"`
}

// NewGameResponse is returned by POST /game/new.
type NewGameResponse struct {
	GameID      string      `json:"game_id"`
	Observation Observation `json:"observation"`
	QueueSize   int         `json:"queue_size"`
}

// ActionResponse is returned by POST /game/action.
type ActionResponse struct {
	Success   bool   `json:"success"`
	QueueSize int    `json:"queue_size"`
	Message   string `json:"message"`
}

// TickResponse is returned by POST /game/tick.
type TickResponse struct {
	Tick        int         `json:"tick"`
	Observation Observation `json:"observation"`
	Events      []string    `json:"events"`
	QueueSize   int         `json:"queue_size"`
}

// ClearQueueResponse is returned by POST /game/clear_queue.
type ClearQueueResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ObserveResponse is returned by GET /game/observe.
type ObserveResponse struct {
	Observation Observation `json:"observation"`
}

// ResumeResponse is returned by POST /game/resume.
type ResumeResponse struct {
	GameID      string      `json:"game_id"`
	Observation Observation `json:"observation"`
	QueueSize   int         `json:"queue_size"`
}

// Entity is a spectator-view entity.
type Entity struct {
	ID    string `json:"entity_id"`
	Type  string `json:"entity_type,omitempty"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	HP    int    `json:"hp"`
	Alive bool   `json:"alive"`
}

// Bullet is a spectator-view bullet in flight.
type Bullet struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction,omitempty"`
	Owner     string `json:"owner,omitempty"`
}

// WatchResponse is returned by GET /game/watch.
type WatchResponse struct {
	GameID   string     `json:"game_id"`
	Tick     int        `json:"tick"`
	FullMap  [][]string `json:"full_map"`
	Entities []Entity   `json:"entities"`
	Bullets  []Bullet   `json:"bullets"`
}

// errorBody is the server's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
}
