// internal/puzzle/match.go
//
// Structural solution matching.
// Pieces compare by role, text, the multiset of tabs (side, role, text) and
// the multiset of blank sides; never by identity, position or size, and never
// by walking from a feature back to its owner.
//
// Every shape and link reduces to a canonical key, so equality is an
// equivalence relation and set comparison is a multiset count: each target
// link is matched by exactly one live link.

package puzzle

import (
	"encoding/json"
	"sort"
)

// Link is a connection described structurally: the piece carrying the tab,
// the piece carrying the blank, the tab, and the connection role.
type Link struct {
	TabPiece   Shape   `json:"tabPiece"`
	BlankPiece Shape   `json:"blankPiece"`
	Via        TabSpec `json:"via"`
	Role       Role    `json:"role"`
}

type shapeKey struct {
	Role   Role
	Text   string
	Tabs   []TabSpec
	Blanks []int
}

// Key is a canonical encoding of s: equal keys iff structurally equal.
func (s Shape) Key() string {
	k := shapeKey{Role: s.Role, Text: s.Text, Tabs: append([]TabSpec(nil), s.Tabs...)}
	sort.Slice(k.Tabs, func(i, j int) bool {
		a, b := k.Tabs[i], k.Tabs[j]
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		if a.Role != b.Role {
			return a.Role < b.Role
		}
		return a.Text < b.Text
	})
	for _, b := range s.Blanks {
		k.Blanks = append(k.Blanks, int(b))
	}
	sort.Ints(k.Blanks)
	return mustJSON(k)
}

// Key is a canonical encoding of l.
func (l Link) Key() string {
	return mustJSON([4]string{l.Role.String(), mustJSON(l.Via), l.TabPiece.Key(), l.BlankPiece.Key()})
}

// EqualShapes reports structural equality of two pieces.
func EqualShapes(a, b Shape) bool { return a.Key() == b.Key() }

// EqualLinks reports structural equality of two connections.
func EqualLinks(a, b Link) bool { return a.Key() == b.Key() }

// MatchLinks reports whether live and target are equal as multisets under
// structural equality.
func MatchLinks(live, target []Link) bool {
	if len(live) != len(target) {
		return false
	}
	want := make(map[string]int, len(target))
	for _, l := range target {
		want[l.Key()]++
	}
	for _, l := range live {
		k := l.Key()
		if want[k] == 0 {
			return false
		}
		want[k]--
	}
	return true
}

// Link resolves a live connection to its structural form.
func (b *Board) Link(c Connection) (Link, bool) {
	tab, tp, ok := b.Feature(c.Tab)
	if !ok {
		return Link{}, false
	}
	_, bp, ok := b.Feature(c.Blank)
	if !ok {
		return Link{}, false
	}
	return Link{TabPiece: tp.Shape(), BlankPiece: bp.Shape(), Via: tab.tabSpec(), Role: c.Role}, true
}

// Links resolves every live connection.
func (b *Board) Links() []Link {
	cs := b.Connections()
	out := make([]Link, 0, len(cs))
	for _, c := range cs {
		if l, ok := b.Link(c); ok {
			out = append(out, l)
		}
	}
	return out
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
