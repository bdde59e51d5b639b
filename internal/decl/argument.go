// Package decl builds the declaration model the generator emits from:
// functions with their arguments, constants, typedefs and callbacks.
package decl

import (
	"strings"

	"gocxx/internal/metadata"
	"gocxx/internal/naming"
	"gocxx/internal/types"
)

// Direction is the data flow of an argument.
type Direction int

const (
	In Direction = iota
	Out
	InOut
)

func (d Direction) String() string {
	switch d {
	case Out:
		return "out"
	case InOut:
		return "inout"
	}
	return "in"
}

var (
	outSpellings   = []string{"OutputArray", "OutputArrayOfArrays"}
	inOutSpellings = []string{"InputOutputArray", "InputOutputArrayOfArrays"}
)

// Argument is one argument of a function or callback.
type Argument struct {
	// Name is the native name, unique within its function.
	Name string
	// GoName is the host local name.
	GoName    string
	Type      *types.Descriptor
	Direction Direction
	// Default is the default value text, kept for documentation only.
	Default string
	// Userdata marks the opaque pointer paired with a preceding callback argument.
	Userdata bool
}

// Out reports whether the callee writes the argument.
func (a *Argument) Out() bool {
	return a.Direction != In
}

func (a *Argument) String() string {
	return a.Type.Signature + " " + a.Name
}

func direction(arg metadata.Arg, d *types.Descriptor) Direction {
	spelled := strings.TrimPrefix(strings.TrimSpace(arg.Type), "cv::")
	for _, s := range inOutSpellings {
		if spelled == s || spelled == "const "+s+"&" || spelled == s+"&" {
			return InOut
		}
	}
	if arg.HasModifier("/IO") {
		return InOut
	}
	for _, s := range outSpellings {
		if spelled == s || spelled == "const "+s+"&" || spelled == s+"&" {
			return Out
		}
	}
	if arg.HasModifier("/O") {
		return Out
	}
	if d.ByRef && !d.Const && d.Kind != types.Unresolved {
		return Out
	}
	return In
}

// newArguments resolves and names the arguments of a declaration. Colliding
// names are bumped. It reports whether every callback argument is followed by
// its userdata pointer.
func newArguments(args []metadata.Arg, reg *types.Registry) ([]*Argument, bool) {
	out := make([]*Argument, 0, len(args))
	used := make(map[string]bool)
	goUsed := make(map[string]bool)
	pendingCallback := false
	paired := true

	for _, a := range args {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			name = "unnamed_arg"
		}
		for used[name] {
			name = naming.Bump(name)
		}
		used[name] = true

		goName := naming.LocalName(name)
		for goUsed[goName] {
			goName = naming.Bump(goName)
		}
		goUsed[goName] = true

		d := reg.Resolve(a.Type)
		arg := &Argument{
			Name:      name,
			GoName:    goName,
			Type:      d,
			Direction: direction(a, d),
			Default:   a.Default,
		}

		switch {
		case d.Kind == types.Callback:
			if pendingCallback {
				paired = false
			}
			pendingCallback = true
		case pendingCallback && name == "userdata" && d.IsOpaquePointer():
			arg.Userdata = true
			pendingCallback = false
		}
		out = append(out, arg)
	}

	return out, paired && !pendingCallback
}
