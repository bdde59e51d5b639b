package generation

import (
	"fmt"
	"strings"
)

// Report lists what one generation run ported and what it skipped, and why.
type Report struct {
	Module string

	Found   int
	Ported  []Ported
	Skipped []Skipped

	Classes        int
	IgnoredClasses []Skipped

	Constants        int
	DumpedConstants  []string
	IgnoredConstants []Skipped

	Callbacks        int
	IgnoredCallbacks []Skipped

	Shims []string
}

// Ported is an emitted declaration and its host name.
type Ported struct {
	What   string
	GoName string
}

// Skipped is an omitted declaration and the reason.
type Skipped struct {
	What   string
	Reason string
}

func (r *Report) port(what string, goName string) {
	r.Found++
	r.Ported = append(r.Ported, Ported{What: what, GoName: goName})
}

func (r *Report) skip(what string, reason string) {
	r.Found++
	r.Skipped = append(r.Skipped, Skipped{What: what, Reason: reason})
}

func (r *Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "FOUND FUNCS: %d\n", r.Found)
	fmt.Fprintf(&b, "PORTED FUNCS: %d\n", len(r.Ported))
	for _, p := range r.Ported {
		fmt.Fprintf(&b, "PORTED: %s -> %s\n", p.What, p.GoName)
	}
	fmt.Fprintf(&b, "SKIPPED FUNCS: %d\n", len(r.Skipped))
	writeSkipped(&b, r.Skipped)

	fmt.Fprintf(&b, "\nCLASSES: %d\n", r.Classes)
	fmt.Fprintf(&b, "IGNORED CLASSES: %d\n", len(r.IgnoredClasses))
	writeSkipped(&b, r.IgnoredClasses)

	fmt.Fprintf(&b, "\nCONSTS: %d\n", r.Constants)
	fmt.Fprintf(&b, "DUMPED CONSTS: %d\n", len(r.DumpedConstants))
	for _, name := range r.DumpedConstants {
		fmt.Fprintf(&b, "DUMPED: %s\n", name)
	}
	fmt.Fprintf(&b, "IGNORED CONSTS: %d\n", len(r.IgnoredConstants))
	writeSkipped(&b, r.IgnoredConstants)

	fmt.Fprintf(&b, "\nCALLBACKS: %d\n", r.Callbacks)
	fmt.Fprintf(&b, "IGNORED CALLBACKS: %d\n", len(r.IgnoredCallbacks))
	writeSkipped(&b, r.IgnoredCallbacks)

	fmt.Fprintf(&b, "\nSHIMS: %d\n", len(r.Shims))
	for _, name := range r.Shims {
		fmt.Fprintf(&b, "SHIM: %s\n", name)
	}
	return b.String()
}

func writeSkipped(b *strings.Builder, skipped []Skipped) {
	for _, s := range skipped {
		fmt.Fprintf(b, "SKIPPED: %s\n   %s\n", s.What, s.Reason)
	}
}
