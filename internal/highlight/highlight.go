// Package highlight maps the playback cursor onto per-sentence display
// states. It holds no state; callers recompute on every cursor change.
package highlight

// State is the display state of one sentence
type State int

const (
	Unread State = iota
	Current
	Read
)

func (s State) String() string {
	switch s {
	case Unread:
		return "unread"
	case Current:
		return "current"
	case Read:
		return "read"
	default:
		return "unknown"
	}
}

// Highlight is the state of the sentence at Index
type Highlight struct {
	Index int
	State State
}

// Project returns one Highlight per sentence in index order. Sentences
// before cursor are Read, the one at cursor is Current, the rest Unread.
// A cursor at or past count (sequence exhausted) marks everything Read.
func Project(count, cursor int) []Highlight {
	if count <= 0 {
		return nil
	}

	out := make([]Highlight, count)
	for i := range out {
		out[i].Index = i
		switch {
		case i < cursor:
			out[i].State = Read
		case i == cursor:
			out[i].State = Current
		default:
			out[i].State = Unread
		}
	}
	return out
}
