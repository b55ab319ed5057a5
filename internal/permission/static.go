package permission

import "context"

// Static is an Authority with a fixed grant set. Requests are answered
// from the set.
type Static struct {
	granted map[Kind]bool
}

// NewStatic returns an Authority that has granted exactly kinds.
func NewStatic(kinds ...Kind) *Static {
	s := &Static{granted: make(map[Kind]bool, len(kinds))}
	for _, k := range kinds {
		s.granted[k] = true
	}
	return s
}

func (s *Static) Granted(kind Kind) bool {
	return s.granted[kind]
}

func (s *Static) Request(_ context.Context, kinds []Kind, done func(Decision)) {
	d := make(Decision, len(kinds))
	for _, k := range kinds {
		d[k] = s.granted[k]
	}
	done(d)
}
