// Package generation turns the declaration stream of one module into the
// native trampolines, the binary-interface declarations and the Go wrappers
// that bind it.
//
// Generation happens in three passes. build registers every class, resolves
// every type and builds the declaration model. plan decides, for every
// function, whether it is emitted, under which identifier and under which Go
// name. emit renders the files in a fixed order: constants, callbacks, shims,
// value record layouts, free functions and finally classes.
package generation

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"gocxx/internal/classes"
	"gocxx/internal/config"
	"gocxx/internal/decl"
	"gocxx/internal/errors"
	"gocxx/internal/metadata"
	"gocxx/internal/naming"
	"gocxx/internal/output"
	"gocxx/internal/types"
)

// Generator collects declarations and generates the bindings of the
// configured module. Declarations of other modules are dependencies: they
// take part in resolution and naming but are not emitted.
type Generator struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	pending []pending
}

type pending struct {
	module string
	decl   metadata.Decl
}

// NewGenerator creates a generator for cfg.Module. cfg must be compiled.
func NewGenerator(cfg *config.Config, log *zap.SugaredLogger) *Generator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Generator{cfg: cfg, log: log}
}

// AddDecl queues one declaration of module.
func (g *Generator) AddDecl(module string, d metadata.Decl) error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.Wrapf(errors.ErrInvalidDecl, "declaration without a name in module %s", module)
	}
	g.pending = append(g.pending, pending{module: module, decl: d})
	return nil
}

// AddDecls queues the declarations of module in order.
func (g *Generator) AddDecls(module string, decls []metadata.Decl) error {
	for _, d := range decls {
		if err := g.AddDecl(module, d); err != nil {
			return err
		}
	}
	return nil
}

// File is one generated artifact.
type File struct {
	Name    string
	Content []byte
	// Shared files are common to every module and are created only once.
	Shared bool
}

// Output is the result of one generation run.
type Output struct {
	Files  []File
	Report *Report
}

// File returns the artifact called name.
func (o *Output) File(name string) (File, bool) {
	for _, f := range o.Files {
		if f.Name == name {
			return f, true
		}
	}
	return File{}, false
}

// Write stores every artifact through w. Shared files that already exist
// are kept.
func (o *Output) Write(w *output.Writer) error {
	for _, f := range o.Files {
		if f.Shared {
			if _, err := w.WriteExclusive(f.Name, f.Content); err != nil {
				return err
			}
			continue
		}
		if err := w.Write(f.Name, f.Content); err != nil {
			return err
		}
	}
	return nil
}

// Generate builds, plans and emits the bindings of the configured module.
func (g *Generator) Generate() (*Output, error) {
	s, err := g.build()
	if err != nil {
		return nil, err
	}
	if err := s.plan(); err != nil {
		return nil, err
	}
	return s.emit()
}

// session is the state of one Generate call.
type session struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	module  string
	classes *classes.Registry
	types   *types.Registry

	callbacks []*decl.Callback
	typedefs  []*decl.Typedef
	constants []*decl.Constant
	free      []*decl.Function
	// members of each class in declaration order, accessors last
	members map[string][]*decl.Function

	report     *Report
	pkg        *naming.Scope
	plans      []*funcPlan
	classPlans map[string]*classPlan
	constPlans []*constPlan
	// constants only the native compiler can evaluate
	dumped []*constPlan
	fields map[string][]recordField
}

func (g *Generator) build() (*session, error) {
	s := &session{
		cfg:        g.cfg,
		log:        g.log,
		module:     g.cfg.Module,
		classes:    classes.NewRegistry(g.log.Named("classes")),
		members:    make(map[string][]*decl.Function),
		classPlans: make(map[string]*classPlan),
		fields:     make(map[string][]recordField),
		report:     &Report{Module: g.cfg.Module},
	}
	s.types = types.NewRegistry(s.classes, g.cfg, g.log.Named("types"))

	stream, err := g.stream()
	if err != nil {
		return nil, err
	}

	for _, item := range stream {
		if item.decl.Kind() != metadata.KindClass {
			continue
		}
		c := classes.FromDecl(item.decl, item.module, g.cfg.Namespaces)
		if g.cfg.ClassIgnored(c.FullName) {
			c.Ignore("ignored by class_ignore")
		}
		if g.cfg.IsForcedNotValueRecord(c.FullName) {
			c.ValueRecord = false
		}
		if g.cfg.IsForcedInterface(c.FullName) {
			c.ForceInterface()
		}
		s.classes.Register(c)
	}
	s.classes.Finalize()

	// abstract methods make their class an interface before any type resolves
	for _, item := range stream {
		if item.decl.Kind() != metadata.KindFunction || !item.decl.HasModifier("/A") {
			continue
		}
		name := naming.ParseName(item.decl.Name, g.cfg.Namespaces)
		if c := s.classes.Get(name.ClassName()); c != nil {
			s.classes.MarkInterface(c)
		}
	}

	for _, item := range stream {
		if item.decl.Kind() == metadata.KindCallback {
			s.callbacks = append(s.callbacks, decl.NewCallback(s.context(item.module), item.decl))
		}
	}

	for _, item := range stream {
		if item.decl.Kind() != metadata.KindTypedef {
			continue
		}
		t := decl.NewTypedef(s.context(item.module), item.decl)
		if t.Apply(s.types) {
			s.typedefs = append(s.typedefs, t)
		}
	}

	constants := make(map[string]bool)
	for _, item := range stream {
		if item.decl.Kind() != metadata.KindConst {
			continue
		}
		c := decl.NewConstant(s.context(item.module), item.decl)
		if constants[c.FullName] {
			continue
		}
		constants[c.FullName] = true
		if g.cfg.ConstIgnored(c.FullName) || g.cfg.ConstIgnored(c.Name.Name) {
			if c.Module == s.module {
				s.report.IgnoredConstants = append(s.report.IgnoredConstants, Skipped{c.String(), "ignored by const_ignore"})
			}
			continue
		}
		s.constants = append(s.constants, c)
	}

	for _, item := range stream {
		if item.decl.Kind() != metadata.KindFunction {
			continue
		}
		f, err := decl.NewFunction(s.context(item.module), item.decl)
		if err != nil {
			return nil, err
		}
		if f.Class == nil {
			s.free = append(s.free, f)
		} else {
			s.members[f.Class.FullName] = append(s.members[f.Class.FullName], f)
		}
	}

	s.checkRecords()

	for _, c := range s.classes.All() {
		accessors := decl.Accessors(s.context(c.Module), c)
		s.members[c.FullName] = append(s.members[c.FullName], accessors...)
	}

	g.log.Debugw("declarations built",
		"module", s.module,
		"classes", s.classes.Len(),
		"functions", len(s.free),
		"constants", len(s.constants),
		"callbacks", len(s.callbacks),
	)
	return s, nil
}

// stream returns the injected pre declarations, the queued declarations and
// the injected post declarations in that order.
func (g *Generator) stream() ([]pending, error) {
	pre, err := metadata.ParseDecls(g.cfg.DeclsPre)
	if err != nil {
		return nil, errors.Wrap(err, "decls_pre")
	}
	post, err := metadata.ParseDecls(g.cfg.DeclsPost)
	if err != nil {
		return nil, errors.Wrap(err, "decls_post")
	}

	stream := make([]pending, 0, len(pre)+len(g.pending)+len(post))
	for _, d := range pre {
		stream = append(stream, pending{module: g.cfg.Module, decl: d})
	}
	stream = append(stream, g.pending...)
	for _, d := range post {
		stream = append(stream, pending{module: g.cfg.Module, decl: d})
	}
	return stream, nil
}

func (s *session) context(module string) *decl.Context {
	return &decl.Context{
		Module:     module,
		Namespaces: s.cfg.Namespaces,
		Classes:    s.classes,
		Types:      s.types,
		Log:        s.log.Named("decl"),
	}
}

// recordField is a member of a value record layout.
type recordField struct {
	Name   string
	GoName string
	Type   *types.Descriptor
}

// checkRecords ignores value records whose members have no fixed layout.
// Ignoring one record may invalidate another that embeds it, so this runs
// until nothing changes.
func (s *session) checkRecords() {
	for changed := true; changed; {
		changed = false
		for _, c := range s.classes.All() {
			if !c.ValueRecord || c.Ignored {
				continue
			}
			for _, p := range c.Props {
				d := s.types.Resolve(p.Type)
				fixed := (d.Kind == types.Primitive && !d.IsVoid()) ||
					(d.Kind == types.ValueRecord && !d.Class.Ignored)
				if !fixed {
					c.Ignore("value record field " + p.Name + " of type " + d.Signature + " has no fixed layout")
					changed = true
					break
				}
			}
		}
	}
}

// ownModuleLast sorts items of the configured module after the dependencies,
// keeping the relative order otherwise.
func ownModuleLast[T any](items []T, module func(T) string, own string) []T {
	out := append([]T(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return module(out[i]) != own && module(out[j]) == own
	})
	return out
}

// emit renders every artifact of the module. Files come out in the order the
// bindings depend on each other and the report comes last.
func (s *session) emit() (*Output, error) {
	out := &Output{Report: s.report}

	header, err := s.emitCommonHeader()
	if err != nil {
		return nil, err
	}
	common, err := s.emitCommonGo()
	if err != nil {
		return nil, err
	}
	out.Files = append(out.Files, header, common)

	for _, step := range []func() ([]File, error){
		s.emitEnvelopes,
		s.emitRecords,
		s.emitShims,
		s.emitModuleNative,
		s.emitModuleGo,
	} {
		files, err := step()
		if err != nil {
			return nil, err
		}
		out.Files = append(out.Files, files...)
	}

	dump, ok, err := s.emitConstantDump()
	if err != nil {
		return nil, err
	}
	if ok {
		out.Files = append(out.Files, dump)
	}

	out.Files = append(out.Files, File{Name: s.module + ".txt", Content: []byte(s.report.String())})
	s.log.Infow("bindings generated",
		"module", s.module,
		"files", len(out.Files),
		"ported", len(s.report.Ported),
		"skipped", len(s.report.Skipped),
	)
	return out, nil
}
