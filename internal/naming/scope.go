package naming

// Scope tracks the names already taken inside one naming scope.
type Scope struct {
	used map[string]bool
}

// NewScope returns a scope with the given names reserved.
func NewScope(reserved ...string) *Scope {
	scope := &Scope{used: make(map[string]bool)}
	for _, name := range reserved {
		scope.used[name] = true
	}
	return scope
}

// Unique bumps base until render(base) is unused, claims it and returns the
// final base together with its rendered form.
func (s *Scope) Unique(base string, render func(string) string) (string, string) {
	if render == nil {
		render = func(s string) string { return s }
	}

	for s.used[render(base)] {
		base = Bump(base)
	}

	rendered := render(base)
	s.used[rendered] = true
	return base, rendered
}

// Taken reports whether name is already claimed.
func (s *Scope) Taken(name string) bool {
	return s.used[name]
}

// Claim marks name as used.
func (s *Scope) Claim(name string) {
	s.used[name] = true
}
