package types

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"gocxx/internal/classes"
	"gocxx/internal/config"
	"gocxx/internal/naming"
)

var textSpellings = map[string]bool{
	"string":      true,
	"String":      true,
	"std::string": true,
	"cv::String":  true,
}

var sharedSpellings = []struct {
	spelling string
	template string
}{
	{"Ptr", "cv::Ptr"},
	{"cv::Ptr", "cv::Ptr"},
	{"std::shared_ptr", "std::shared_ptr"},
}

var collectionSpellings = []string{"vector", "std::vector"}

// Registry resolves type spellings to descriptors. Resolution is memoized by
// trimmed spelling, so resolving the same spelling twice returns the same
// descriptor.
type Registry struct {
	classes    *classes.Registry
	primitives map[string]config.Primitive
	rewrite    map[string]string
	prefix     string
	runtime    string

	cache     map[string]*Descriptor
	resolving map[string]bool
	log       *zap.SugaredLogger
}

// NewRegistry creates a registry resolving classes from cls with the
// primitive and rewrite tables of cfg.
func NewRegistry(cls *classes.Registry, cfg *config.Config, log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Registry{
		classes:    cls,
		primitives: cfg.PrimitiveTable(),
		rewrite:    cfg.TypeReplacements(),
		prefix:     cfg.Prefix,
		runtime:    cfg.RuntimeImport,
		cache:      make(map[string]*Descriptor),
		resolving:  make(map[string]bool),
		log:        log,
	}
}

func normalize(signature string) string {
	s := strings.Join(strings.Fields(signature), " ")
	s = strings.ReplaceAll(s, " &", "&")
	s = strings.ReplaceAll(s, " *", "*")
	if s == "" {
		return "void"
	}
	return s
}

// Resolve returns the descriptor of a type spelling. It never fails: types
// that cannot cross the boundary resolve to Unresolved.
func (r *Registry) Resolve(signature string) *Descriptor {
	sig := normalize(signature)
	if d, ok := r.cache[sig]; ok {
		return d
	}

	// a spelling that refers to itself while being resolved cannot be represented
	if r.resolving[sig] {
		return r.unresolved(sig, sig, "cyclic type")
	}

	r.resolving[sig] = true
	d := r.classify(sig)
	delete(r.resolving, sig)

	r.cache[sig] = d
	if d.Kind == Unresolved {
		r.log.Debugw("unresolved type", "type", sig, "reason", d.Reason)
	}
	return d
}

// Alias makes name resolve to the descriptor of target when name is
// otherwise unresolved and target is not. Reports whether the alias applied.
func (r *Registry) Alias(name string, target string) bool {
	if r.Resolve(name).Supported() {
		return false
	}

	d := r.Resolve(target)
	if !d.Supported() {
		return false
	}

	r.cache[normalize(name)] = d
	r.log.Debugw("type alias", "name", name, "target", d.Signature)
	return true
}

// Shims returns the distinct resolved Collection and SharedHandle
// descriptors sorted by SafeID. Each needs its shim emitted once.
func (r *Registry) Shims() []*Descriptor {
	seen := make(map[string]bool)
	shims := make([]*Descriptor, 0)
	for _, d := range r.cache {
		if (d.Kind != Collection && d.Kind != SharedHandle) || seen[d.SafeID] {
			continue
		}
		seen[d.SafeID] = true
		shims = append(shims, d)
	}
	sort.Slice(shims, func(i, j int) bool { return shims[i].SafeID < shims[j].SafeID })
	return shims
}

// Classes returns the class registry descriptors are resolved against.
func (r *Registry) Classes() *classes.Registry {
	return r.classes
}

func (r *Registry) classify(sig string) *Descriptor {
	typeID := sig
	isConst := false
	if strings.HasPrefix(typeID, "const ") {
		typeID = strings.TrimSpace(typeID[len("const "):])
		isConst = true
	}
	byRef := false
	if strings.HasSuffix(typeID, "&") {
		typeID = strings.TrimSpace(typeID[:len(typeID)-1])
		byRef = true
	}
	if typeID == "" {
		typeID = "void"
	}

	base := Descriptor{
		Signature: sig,
		TypeID:    typeID,
		ByRef:     byRef,
		Const:     isConst,
		prefix:    r.prefix,
		runtime:   r.runtime,
	}

	if p, ok := r.primitives[typeID]; ok {
		return r.primitive(base, p)
	}
	if strings.HasSuffix(typeID, "*") {
		return r.rawReference(base, typeID[:len(typeID)-1])
	}
	if strings.HasSuffix(typeID, "[]") {
		return r.rawReference(base, typeID[:len(typeID)-2])
	}
	if textSpellings[typeID] {
		return r.text(base)
	}
	for _, s := range sharedSpellings {
		if inner, ok := templateArgument(typeID, s.spelling); ok {
			return r.sharedHandle(base, s.template, inner)
		}
	}
	for _, s := range collectionSpellings {
		if inner, ok := templateArgument(typeID, s); ok {
			return r.collection(base, inner)
		}
	}

	if c := r.classes.Get(typeID); c != nil && !c.Ignored {
		return r.class(base, c)
	}

	if to, ok := r.rewrite[typeID]; ok {
		return r.Resolve(requalify(to, isConst, byRef))
	}

	// flattened template spellings, e.g. "vector_Point" or "Ptr_Feature2D"
	for prefix, spelling := range map[string]string{"vector_": "vector", "Ptr_": "Ptr"} {
		if rest := strings.TrimPrefix(typeID, prefix); rest != typeID && rest != "" {
			target := spelling + "<" + rest + ">"
			if d := r.Resolve(requalify(target, isConst, byRef)); d.Supported() {
				return d
			}
		}
	}

	if c := r.classes.Get(typeID); c != nil {
		return r.unresolved(sig, typeID, "class "+c.FullName+" is ignored")
	}
	return r.unresolved(sig, typeID, "unknown type")
}

func requalify(typeID string, isConst bool, byRef bool) string {
	if isConst && !strings.HasPrefix(typeID, "const ") {
		typeID = "const " + typeID
	}
	if byRef && !strings.HasSuffix(typeID, "&") {
		typeID += "&"
	}
	return typeID
}

func templateArgument(typeID string, spelling string) (string, bool) {
	if !strings.HasPrefix(typeID, spelling+"<") || !strings.HasSuffix(typeID, ">") {
		return "", false
	}
	return strings.TrimSpace(typeID[len(spelling)+1 : len(typeID)-1]), true
}

func (r *Registry) unresolved(sig string, typeID string, reason string) *Descriptor {
	local := typeID
	if c := r.classes.Get(typeID); c != nil {
		local = c.LocalName()
	}
	safe := naming.Sanitize(strings.ReplaceAll(local, "::", "_"))
	return &Descriptor{
		Kind:      Unresolved,
		Signature: sig,
		TypeID:    typeID,
		Reason:    reason,
		CppType:   typeID,
		CppExtern: typeID,
		SafeID:    safe,
		CSafeID:   safe,
		prefix:    r.prefix,
		runtime:   r.runtime,
	}
}

func (r *Registry) primitive(d Descriptor, p config.Primitive) *Descriptor {
	d.Kind = Primitive
	d.Scalar = p
	d.CppType = d.TypeID
	d.CppExtern = p.Native
	d.SafeID = naming.Sanitize(d.TypeID)
	d.CSafeID = naming.Sanitize(p.Native)
	d.GoName = p.Go
	return &d
}

func (r *Registry) text(d Descriptor) *Descriptor {
	d.Kind = Text
	d.CppType = "std::string"
	d.CppExtern = "char*"
	d.SafeID = "String"
	d.CSafeID = "char_X"
	d.GoName = "string"
	return &d
}

func (r *Registry) rawReference(d Descriptor, pointee string) *Descriptor {
	inner := r.Resolve(pointee)
	d.Inner = inner

	switch {
	case !inner.Supported():
		return r.unresolved(d.Signature, d.TypeID, "pointer to unresolved "+inner.TypeID)
	case inner.Kind == RawReference:
		return r.unresolved(d.Signature, d.TypeID, "pointer to pointer")
	case inner.Kind == Text:
		return r.unresolved(d.Signature, d.TypeID, "pointer to text")
	case inner.Kind == Callback:
		return r.unresolved(d.Signature, d.TypeID, "pointer to callback")
	case inner.Kind == Primitive && inner.TypeID == "char":
		// char pointers are C strings
		d.Kind = Text
		d.CString = true
		d.CppType = "char*"
		d.CppExtern = "char*"
		d.SafeID = "char_X"
		d.CSafeID = "char_X"
		if d.Const {
			d.CppType = "const char*"
			d.CppExtern = "const char*"
			d.SafeID = "const_char_X"
		}
		d.GoName = "string"
		return &d
	}

	d.Kind = RawReference
	if inner.ByPointer() {
		d.CppType = inner.CppType
		d.CppExtern = inner.CppExtern
		d.SafeID = inner.SafeID
		d.CSafeID = inner.CSafeID
		d.GoName = inner.GoName
	} else {
		d.CppType = inner.CppType + "*"
		d.CppExtern = inner.CppExtern + "*"
		d.SafeID = inner.SafeID + "_X"
		d.CSafeID = inner.CSafeID + "_X"
	}
	if d.Const {
		d.CppType = "const " + d.CppType
		d.SafeID = "const_" + d.SafeID
		if !inner.ByPointer() {
			d.CppExtern = "const " + d.CppExtern
			d.CSafeID = "const_" + d.CSafeID
		}
	}
	return &d
}

func (r *Registry) sharedHandle(d Descriptor, template string, managed string) *Descriptor {
	inner := r.Resolve(managed)
	d.Inner = inner

	switch inner.Kind {
	case Handle, Primitive, ValueRecord:
		if inner.IsVoid() {
			return r.unresolved(d.Signature, d.TypeID, "shared pointer to void")
		}
	case Unresolved:
		return r.unresolved(d.Signature, d.TypeID, "shared pointer to unresolved "+inner.TypeID)
	default:
		return r.unresolved(d.Signature, d.TypeID, "shared pointer to "+inner.Kind.String())
	}

	d.Kind = SharedHandle
	d.SmartPointer = template
	d.CppType = template + "<" + inner.CppType + ">"
	d.CppExtern = "void*"
	d.SafeID = "PtrOf" + inner.SafeID
	d.CSafeID = "void_X"
	d.GoName = "PtrOf" + inner.goIdent()
	return &d
}

func (r *Registry) collection(d Descriptor, element string) *Descriptor {
	inner := r.Resolve(element)
	d.Inner = inner

	switch {
	case !inner.Supported():
		return r.unresolved(d.Signature, d.TypeID, "collection of unresolved "+inner.TypeID)
	case inner.Kind == RawReference || (inner.Kind == Text && inner.CString):
		return r.unresolved(d.Signature, d.TypeID, "collection of raw references")
	case inner.Kind == Callback:
		return r.unresolved(d.Signature, d.TypeID, "collection of callbacks")
	case inner.IsVoid():
		return r.unresolved(d.Signature, d.TypeID, "collection of void")
	case inner.IsInterface():
		return r.unresolved(d.Signature, d.TypeID, "collection of interface "+inner.TypeID)
	}

	d.Kind = Collection
	d.CppType = "std::vector<" + inner.CppType + ">"
	d.CppExtern = "void*"
	d.SafeID = "VectorOf" + inner.SafeID
	d.CSafeID = "void_X"
	d.GoName = "VectorOf" + inner.goIdent()
	return &d
}

func (r *Registry) class(d Descriptor, c *classes.Class) *Descriptor {
	d.Class = c
	d.CppType = c.FullName
	d.SafeID = naming.Sanitize(c.LocalName())
	d.GoName = naming.Exported(d.SafeID)

	switch {
	case c.ValueRecord:
		d.Kind = ValueRecord
		d.CppExtern = r.prefix + "_" + d.SafeID
		d.CSafeID = d.CppExtern
	case c.CallbackShape:
		d.Kind = Callback
		d.CppExtern = r.prefix + "_" + d.SafeID + "_extern"
		d.CSafeID = d.CppExtern
	default:
		d.Kind = Handle
		d.CppExtern = "void*"
		d.CSafeID = "void_X"
	}
	return &d
}

// goIdent is the exported identifier of a type used inside generated type names.
func (d *Descriptor) goIdent() string {
	switch d.Kind {
	case Primitive:
		return naming.Exported(d.Scalar.Go)
	case Text:
		return "String"
	case ValueRecord, Handle, SharedHandle, Collection, Callback:
		return d.GoName
	case RawReference:
		return d.Inner.goIdent() + "Ptr"
	case Unresolved:
		return naming.Exported(d.SafeID)
	}
	return d.SafeID
}
