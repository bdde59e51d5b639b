package classes

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"gocxx/internal/naming"
)

// Registry holds every registered class by full name.
type Registry struct {
	classes map[string]*Class
	order   []string
	log     *zap.SugaredLogger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Registry{
		classes: make(map[string]*Class),
		log:     log,
	}
}

// Register adds c, replacing a previous class of the same full name, and
// forces every already known base to an interface.
func (r *Registry) Register(c *Class) {
	if _, exists := r.classes[c.FullName]; !exists {
		r.order = append(r.order, c.FullName)
	}
	r.classes[c.FullName] = c

	if c.Name.ClassPath != "" {
		if parent := r.Get(c.Name.ClassName()); parent != nil && parent.Ignored {
			c.Ignore("nested in ignored class " + parent.FullName)
		}
	}

	for _, base := range c.Bases {
		if b := r.Get(base); b != nil {
			r.markInterface(b, make(map[string]bool))
		}
	}

	r.log.Debugw("registered class", "class", c.FullName, "bases", c.Bases, "ignored", c.Ignored)
}

// Finalize forces the bases of every class to interfaces, transitively. It
// makes the outcome independent of registration order and must run before
// types are resolved.
func (r *Registry) Finalize() {
	for _, name := range r.order {
		for _, base := range r.classes[name].Bases {
			if b := r.Get(base); b != nil {
				r.markInterface(b, make(map[string]bool))
			}
		}
	}
}

func (r *Registry) markInterface(c *Class, visiting map[string]bool) {
	if visiting[c.FullName] {
		return
	}
	visiting[c.FullName] = true

	if !c.Interface() && !c.ValueRecord {
		r.log.Debugw("class promoted to interface", "class", c.FullName)
	}
	c.ForceInterface()

	for _, base := range c.Bases {
		if b := r.Get(base); b != nil {
			r.markInterface(b, visiting)
		}
	}
}

// MarkInterface forces c and all of its ancestors to interfaces.
func (r *Registry) MarkInterface(c *Class) {
	r.markInterface(c, make(map[string]bool))
}

// Get finds a class by exact full name, then by a name that is equal up to
// namespace qualification. Returns nil when nothing matches.
func (r *Registry) Get(name string) *Class {
	name = strings.ReplaceAll(strings.TrimSpace(name), ".", "::")
	if c, ok := r.classes[name]; ok {
		return c
	}

	var found *Class
	for _, key := range r.order {
		if naming.ClassesEqual(key, name) {
			// the shortest match is the least nested one
			if found == nil || len(key) < len(found.FullName) {
				found = r.classes[key]
			}
		}
	}
	return found
}

// All returns the registered classes sorted by full name.
func (r *Registry) All() []*Class {
	all := make([]*Class, 0, len(r.classes))
	for _, c := range r.classes {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FullName < all[j].FullName })
	return all
}

// AllBases returns the transitive, resolvable, non-ignored ancestors of c
// sorted by full name. Unknown base names are skipped.
func (r *Registry) AllBases(c *Class) []*Class {
	seen := map[string]bool{c.FullName: true}
	bases := make([]*Class, 0)

	var walk func(*Class)
	walk = func(cls *Class) {
		for _, name := range cls.Bases {
			b := r.Get(name)
			if b == nil || seen[b.FullName] {
				continue
			}
			seen[b.FullName] = true
			if !b.Ignored {
				bases = append(bases, b)
			}
			walk(b)
		}
	}
	walk(c)

	sort.Slice(bases, func(i, j int) bool { return bases[i].FullName < bases[j].FullName })
	return bases
}

// Len returns the number of registered classes.
func (r *Registry) Len() int {
	return len(r.classes)
}
