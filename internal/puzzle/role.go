// internal/puzzle/role.go
//
// Grammatical roles. A role tags both a piece (what the word is) and a tab
// (what relation the tab expresses once something is connected to it).

package puzzle

import (
	"fmt"
	"image/color"
	"strings"
)

// Role is a grammatical role of a sentence part.
type Role uint8

const (
	Undefined Role = iota
	Verb
	Subject
	Object
	Adverbial
)

// Roles lists every role in declaration order.
var Roles = [...]Role{Undefined, Verb, Subject, Object, Adverbial}

var roleNames = [...]string{
	Undefined: "undefined",
	Verb:      "verb",
	Subject:   "subject",
	Object:    "object",
	Adverbial: "adverbial",
}

var roleColors = [...]color.RGBA{
	Undefined: {230, 230, 230, 255},
	Verb:      {224, 88, 74, 255},
	Subject:   {75, 173, 91, 255},
	Object:    {250, 184, 45, 255},
	Adverbial: {163, 135, 189, 255},
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// Color is the display color a renderer uses for pieces and tabs of role r.
func (r Role) Color() color.RGBA {
	if int(r) < len(roleColors) {
		return roleColors[r]
	}
	return roleColors[Undefined]
}

// Hex renders Color as "#rrggbb".
func (r Role) Hex() string {
	c := r.Color()
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseRole accepts role names in any casing; "" maps to Undefined.
func ParseRole(v string) (Role, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return Undefined, nil
	}
	for i, n := range roleNames {
		if n == v {
			return Role(i), nil
		}
	}
	return Undefined, fmt.Errorf("unknown grammatical role %q", v)
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
