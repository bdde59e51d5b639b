package generation

import (
	"sort"
	"strings"

	"gocxx/internal/classes"
	"gocxx/internal/config"
	"gocxx/internal/decl"
	"gocxx/internal/errors"
	"gocxx/internal/naming"
	"gocxx/internal/types"
)

// override is one manual override slot of a function.
type override struct {
	drop bool
	// text replaces the generated artifact; empty keeps it
	text string
}

func (o override) generated() bool {
	return !o.drop && o.text == ""
}

// funcPlan is a function that will be emitted, with its final names.
type funcPlan struct {
	fn *decl.Function
	// identifier is the overload identifier after collision bumping.
	identifier string
	symbol     string
	sysName    string
	goName     string
	unsafe     bool
	supported  bool
	recv       *types.Descriptor

	cpp  override
	sys  override
	host override
}

// packageLevel reports whether the wrapper is a package function.
func (fp *funcPlan) packageLevel() bool {
	f := fp.fn
	return f.Class == nil || f.Kind == decl.Constructor || (f.Kind == decl.Method && f.Static)
}

func (fp *funcPlan) qualifiedGoName() string {
	if fp.packageLevel() {
		return fp.goName
	}
	return fp.recv.GoName + "." + fp.goName
}

// classPlan holds the naming scope of one class.
type classPlan struct {
	class *classes.Class
	desc  *types.Descriptor
	// ancestors are the interface classes whose methods the class inherits.
	ancestors []*classes.Class
	// methods are the instance members in declaration order.
	methods []*funcPlan
	// statics are the constructors and static methods.
	statics []*funcPlan
	fields  []recordField
	scope   *naming.Scope
	named   bool
}

type constPlan struct {
	c      *decl.Constant
	goName string
	value  decl.Evaluated
}

// Names every embedded bindrt.Handle promotes onto the owning struct.
var handleMethods = []string{"Handle", "Pointer", "Release", "Released", "Close"}

func (s *session) plan() error {
	s.pkg = naming.NewScope("cFree")

	if err := s.planConstants(); err != nil {
		return err
	}
	s.claimTypes()
	if err := s.planFunctions(); err != nil {
		return err
	}
	return s.nameFunctions()
}

func (s *session) planConstants() error {
	index := make(map[string]*decl.Constant)
	add := func(key string, c *decl.Constant) {
		if _, ok := index[key]; !ok {
			index[key] = c
		}
	}
	for _, c := range s.constants {
		add(c.FullName, c)
		add(strings.ReplaceAll(c.FullName, "::", "."), c)
		if c.Name.ClassPath != "" {
			add(c.Name.ClassPath+"::"+c.Name.Name, c)
			add(strings.ReplaceAll(c.Name.ClassPath, "::", ".")+"."+c.Name.Name, c)
		}
		add(c.Name.Name, c)
	}
	lookup := func(name string) *decl.Constant {
		return index[strings.TrimSpace(name)]
	}

	ordered := ownModuleLast(s.constants, func(c *decl.Constant) string { return c.Module }, s.module)
	for _, c := range ordered {
		value, err := c.Evaluate(lookup)
		if err != nil {
			return err
		}
		own := c.Module == s.module

		if value.Kind == decl.ComplexValue && c.Nested() {
			if own {
				s.report.IgnoredConstants = append(s.report.IgnoredConstants,
					Skipped{c.String(), "complex value of a class constant"})
			}
			continue
		}

		_, goName := s.pkg.Unique(c.GoName, nil)
		if !own {
			continue
		}

		cp := &constPlan{c: c, goName: goName, value: value}
		if value.Kind == decl.ComplexValue {
			s.dumped = append(s.dumped, cp)
			s.report.DumpedConstants = append(s.report.DumpedConstants, c.FullName)
			continue
		}
		s.constPlans = append(s.constPlans, cp)
		s.report.Constants++
	}
	return nil
}

func (s *session) claim(name string, what string) {
	if s.pkg.Taken(name) {
		s.log.Warnw("package name already taken", "name", name, "by", what)
	}
	s.pkg.Claim(name)
}

// claimTypes reserves the package names of callback, class and shim types.
func (s *session) claimTypes() {
	for _, cb := range s.callbacks {
		own := cb.Module == s.module
		if cb.Ignored() {
			if own {
				s.report.IgnoredCallbacks = append(s.report.IgnoredCallbacks, Skipped{cb.String(), cb.IgnoreReason})
			}
			continue
		}
		s.claim(s.types.Resolve(cb.FullName).GoName, cb.FullName)
		if own {
			s.report.Callbacks++
		}
	}

	for _, c := range s.classes.All() {
		if c.Ghost || c.CallbackShape {
			continue
		}
		own := c.Module == s.module
		if c.Ignored {
			if own {
				s.report.IgnoredClasses = append(s.report.IgnoredClasses, Skipped{c.String(), c.IgnoreReason})
			}
			continue
		}
		d := s.types.Resolve(c.FullName)
		s.claim(d.GoName, c.FullName)
		s.claim(d.WrapperConstructor(), c.FullName)
		if own {
			s.report.Classes++
		}
	}

	for _, d := range s.types.Shims() {
		s.claim(d.GoName, d.Signature)
		s.claim(d.WrapperConstructor(), d.Signature)
		s.claim("New"+d.GoName, d.Signature)
	}
}

// orderedFunctions lists free functions sorted by identifier followed by
// class members in declaration order, classes sorted by full name. The
// functions of dependencies come first so that they keep their names.
func (s *session) orderedFunctions() []*decl.Function {
	free := append([]*decl.Function(nil), s.free...)
	sort.SliceStable(free, func(i, j int) bool { return free[i].Identifier < free[j].Identifier })

	all := free
	for _, c := range s.classes.All() {
		all = append(all, s.members[c.FullName]...)
	}
	return ownModuleLast(all, func(f *decl.Function) string { return f.Module }, s.module)
}

func (s *session) planFunctions() error {
	seen := make(map[string]bool)
	identifiers := naming.NewScope()

	for _, f := range s.orderedFunctions() {
		scope := ""
		if f.Class != nil {
			scope = f.Class.FullName
		}
		key := scope + "|" + f.Kind.String() + "|" + f.FullName + "|" + f.Signature()
		if seen[key] {
			s.log.Debugw("duplicate declaration dropped", "function", f.String(), "signature", f.Signature())
			continue
		}
		seen[key] = true

		id, _ := identifiers.Unique(f.Identifier, nil)
		own := f.Module == s.module

		if name, ok := s.cfg.Rename(id); ok && name == "-" {
			if own {
				s.report.skip(f.String(), "ignored by rename table")
			}
			continue
		}

		manual, hasManual := s.cfg.Manual(id)
		reason := f.Unsupported()
		if reason != "" {
			if !hasManual {
				s.log.Debugw("function skipped", "function", f.String(), "reason", reason)
				if own {
					s.report.skip(f.String(), reason)
				}
				continue
			}
			if keeps(manual.Cpp) || keeps(manual.Sys) || keeps(manual.Go) {
				return errors.WithHintf(
					errors.Wrapf(errors.ErrInvalidConfig, "func_manual %s keeps a generated artifact of an unsupported function: %s", id, reason),
					"replace every %q slot of %s with text", config.Keep, id,
				)
			}
		}

		fp := &funcPlan{
			fn:         f,
			identifier: id,
			symbol:     s.cfg.Prefix + "_" + id,
			sysName:    "sys_" + id,
			unsafe:     s.cfg.IsUnsafe(id),
			supported:  reason == "",
			recv:       f.Receiver(s.types),
		}
		if hasManual {
			fp.cpp = slot(manual.Cpp)
			fp.sys = slot(manual.Sys)
			fp.host = slot(manual.Go)
		}
		s.plans = append(s.plans, fp)

		if f.Class != nil {
			cp := s.classPlan(f.Class)
			if fp.packageLevel() {
				cp.statics = append(cp.statics, fp)
			} else {
				cp.methods = append(cp.methods, fp)
			}
		}
	}
	return nil
}

func keeps(p *string) bool {
	return p != nil && *p == config.Keep
}

// slot holds the raw override text until names are final.
func slot(p *string) override {
	switch {
	case p == nil:
		return override{drop: true}
	case *p == config.Keep:
		return override{}
	}
	return override{text: *p}
}

func (s *session) classPlan(c *classes.Class) *classPlan {
	if cp, ok := s.classPlans[c.FullName]; ok {
		return cp
	}
	cp := &classPlan{class: c, desc: s.types.Resolve(c.FullName)}
	for _, b := range s.classes.AllBases(c) {
		if b.Interface() {
			cp.ancestors = append(cp.ancestors, b)
		}
	}
	s.classPlans[c.FullName] = cp
	return cp
}

func (s *session) nameFunctions() error {
	for _, fp := range s.plans {
		if fp.packageLevel() {
			base, render := s.hostBase(fp)
			_, fp.goName = s.pkg.Unique(base, render)
		}
	}

	for _, c := range s.classes.All() {
		if c.Ghost || c.CallbackShape || c.Ignored {
			continue
		}
		s.nameClass(s.classPlan(c))
	}

	for _, fp := range s.plans {
		if err := s.renderOverrides(fp); err != nil {
			return err
		}
		if fp.fn.Module == s.module {
			s.report.port(fp.fn.String(), fp.qualifiedGoName())
		}
	}
	return nil
}

// nameClass names the instance members of a class after those of its
// ancestors, so that inherited methods keep the ancestor's names and own
// methods never shadow them.
func (s *session) nameClass(cp *classPlan) {
	if cp.named {
		return
	}
	cp.named = true
	cp.scope = naming.NewScope(append(append([]string(nil), handleMethods...), cp.desc.AsRawName())...)

	if cp.class.ValueRecord {
		for _, p := range cp.class.Props {
			_, goName := cp.scope.Unique(naming.Exported(naming.Sanitize(p.Name)), nil)
			cp.fields = append(cp.fields, recordField{
				Name:   naming.Sanitize(p.Name),
				GoName: goName,
				Type:   s.types.Resolve(p.Type),
			})
		}
	}

	for _, a := range cp.ancestors {
		ap := s.classPlan(a)
		s.nameClass(ap)
		cp.scope.Claim(ap.desc.AsRawName())
		for _, m := range ap.methods {
			if m.goName != "" {
				cp.scope.Claim(m.goName)
			}
		}
	}

	for _, fp := range cp.methods {
		base, render := s.hostBase(fp)
		_, fp.goName = cp.scope.Unique(base, render)
	}
}

// hostBase returns the bumpable base of the Go name and how it renders.
func (s *session) hostBase(fp *funcPlan) (string, func(string) string) {
	f := fp.fn
	name := f.Name.Name
	suffix := ""
	if r, ok := s.cfg.Rename(fp.identifier); ok {
		if f.Kind == decl.Constructor {
			suffix = strings.ReplaceAll(r, "+", "")
		} else {
			name = strings.ReplaceAll(r, "+", name)
		}
	}
	snake := naming.ToSnakeCase(naming.Sanitize(name))

	prefix := ""
	if fp.unsafe {
		prefix = "unsafe_"
	}

	switch {
	case f.Kind == decl.Constructor:
		base := "new"
		if suffix = strings.Trim(naming.ToSnakeCase(naming.Sanitize(suffix)), "_"); suffix != "" {
			base += "_" + suffix
		}
		classGo := fp.recv.GoName
		isUnsafe := fp.unsafe
		return base, func(b string) string {
			out := "New" + classGo + pascalTail(strings.TrimPrefix(b, "new"))
			if isUnsafe {
				out = "Unsafe" + out
			}
			return out
		}
	case f.Kind == decl.Setter:
		return prefix + "set_" + snake, naming.ToPascalCase
	case f.Kind == decl.Method && f.Static:
		classGo := fp.recv.GoName
		return prefix + snake, func(b string) string { return classGo + naming.ToPascalCase(b) }
	}
	return prefix + snake, naming.ToPascalCase
}

// pascalTail renders a "_suffix" tail: "" stays empty, "_with_size" becomes
// "WithSize" and a bumped "_1" stays "_1".
func pascalTail(rest string) string {
	if rest == "" {
		return ""
	}
	return naming.ToPascalCase("x" + rest)[1:]
}

func (s *session) manualKeys(fp *funcPlan) map[string]string {
	f := fp.fn
	keys := map[string]string{
		"Identifier": fp.identifier,
		"Name":       f.Name.Name,
		"FullName":   f.FullName,
		"GoName":     fp.goName,
		"Symbol":     fp.symbol,
		"SysName":    fp.sysName,
		"Envelope":   f.Return.EnvelopeName(),
		"Prefix":     s.cfg.Prefix,
		"Module":     s.module,
		"Params":     "",
	}
	if fp.supported {
		keys["Params"] = strings.Join(s.nativeParams(fp), ", ")
	}
	return keys
}

func (s *session) renderOverrides(fp *funcPlan) error {
	slots := []struct {
		name string
		o    *override
	}{{"cpp", &fp.cpp}, {"sys", &fp.sys}, {"go", &fp.host}}

	var keys map[string]string
	for _, sl := range slots {
		if sl.o.text == "" {
			continue
		}
		if keys == nil {
			keys = s.manualKeys(fp)
		}
		text, err := renderManual(fp.identifier, sl.name, sl.o.text, keys)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			*sl.o = override{drop: true}
			continue
		}
		sl.o.text = text
	}
	return nil
}
