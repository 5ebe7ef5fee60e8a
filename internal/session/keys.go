package session

import (
	"strings"

	"github.com/catamaze/client/internal/client"
)

// WaitKey is the key auto-run submits on every firing.
const WaitKey = "space"

var keyActions = map[string]client.Action{
	"w":     client.MoveUp,
	"up":    client.MoveUp,
	"a":     client.MoveLeft,
	"left":  client.MoveLeft,
	"s":     client.MoveDown,
	"down":  client.MoveDown,
	"d":     client.MoveRight,
	"right": client.MoveRight,
	"i":     client.ShootUp,
	"j":     client.ShootLeft,
	"k":     client.ShootDown,
	"l":     client.ShootRight,
	"space": client.Wait,
	" ":     client.Wait,
	".":     client.Wait,
}

// ParseKey maps an input key to its action. Matching is case-insensitive.
func ParseKey(key string) (client.Action, bool) {
	a, ok := keyActions[strings.ToLower(key)]
	return a, ok
}
