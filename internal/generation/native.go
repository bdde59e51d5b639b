package generation

import (
	"sort"
	"strings"

	"gocxx/internal/classes"
	"gocxx/internal/decl"
	"gocxx/internal/naming"
	"gocxx/internal/types"
)

// The native side: C headers shared by cgo and C++, and the C++ trampolines.

func guard(name string) string {
	return strings.ToUpper(naming.Sanitize(name))
}

func (s *session) upper() string {
	return strings.ToUpper(s.cfg.Prefix)
}

func (s *session) commonHeader() string {
	return s.cfg.Prefix + "_common.h"
}

func (s *session) moduleHeader() string {
	return s.module + ".h"
}

func recordHeader(d *types.Descriptor) string {
	return d.SafeID + ".type.h"
}

func envelopeHeader(d *types.Descriptor) string {
	return d.EnvelopeName() + ".rv.h"
}

// nativeIncludes renders the configured library headers as include lines.
func (s *session) nativeIncludes() []string {
	lines := make([]string, 0, len(s.cfg.Includes))
	for _, inc := range s.cfg.Includes {
		inc = strings.TrimSpace(inc)
		switch {
		case inc == "":
		case strings.HasPrefix(inc, "#"):
			lines = append(lines, inc)
		case strings.HasPrefix(inc, "<"):
			lines = append(lines, "#include "+inc)
		default:
			lines = append(lines, `#include "`+inc+`"`)
		}
	}
	return lines
}

func (s *session) namespaces() []string {
	out := make([]string, 0, len(s.cfg.Namespaces))
	for _, ns := range s.cfg.Namespaces {
		out = append(out, strings.ReplaceAll(ns, ".", "::"))
	}
	return out
}

// headerSet collects header names, sorted and without duplicates.
type headerSet map[string]bool

func (h headerSet) add(name string) {
	h[name] = true
}

// addType adds the headers declaring the C types d is spelled with.
func (h headerSet) addType(s *session, d *types.Descriptor) {
	for x := d; x != nil; x = x.Inner {
		switch x.Kind {
		case types.ValueRecord:
			h.add(recordHeader(x))
		case types.Callback:
			if x.Class.Module != s.module {
				h.add(x.Class.Module + ".h")
			}
		case types.Primitive, types.Text, types.Handle, types.SharedHandle, types.Collection,
			types.RawReference, types.Unresolved:
		}
	}
}

func (h headerSet) sorted() []string {
	out := make([]string, 0, len(h))
	for name := range h {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func cParams(params []string) string {
	if len(params) == 0 {
		return "void"
	}
	return strings.Join(params, ", ")
}

func (s *session) nativeParams(fp *funcPlan) []string {
	params := make([]string, 0, len(fp.fn.Args)+1)
	if fp.fn.Instance() {
		params = append(params, fp.recv.NativeInstance())
	}
	for _, a := range fp.fn.Args {
		params = append(params, a.Type.NativeParam(a.Name, a.Out()))
	}
	return params
}

// nativeBody renders the statements inside the try block: staging, the call,
// unstaging and the success envelope.
func (s *session) nativeBody(fp *funcPlan) []string {
	f := fp.fn
	var pre, post []string
	args := make([]string, 0, len(f.Args))
	for _, a := range f.Args {
		if line := a.Type.NativePreCall(a.Name, a.Out()); line != "" {
			pre = append(pre, line)
		}
		args = append(args, a.Type.NativeCallArg(a.Name, a.Out()))
		if line := a.Type.NativePostCall(a.Name, a.Out()); line != "" {
			post = append(post, line)
		}
	}

	ret := f.Return.NativeReturn(f.NativeCall(fp.recv, args), f.Kind == decl.Constructor)
	body := append(pre, ret[:len(ret)-1]...)
	body = append(body, post...)
	return append(body, ret[len(ret)-1])
}

type nativeFunc struct {
	Manual   string
	Envelope string
	Symbol   string
	Params   string
	Body     []string
}

type nativeCallback struct {
	Return           string
	Extern           string
	Params           string
	Trampoline       string
	TrampolineParams string
}

type nativeUpcast struct {
	Symbol string
	From   string
	To     string
}

type nativeDelete struct {
	Symbol  string
	CppType string
}

func upcastSymbol(from *types.Descriptor, to *types.Descriptor) string {
	return from.Prefix() + "_" + from.SafeID + "_to_" + to.SafeID
}

// ownPlans are the emitted functions of the configured module.
func (s *session) ownPlans() []*funcPlan {
	out := make([]*funcPlan, 0, len(s.plans))
	for _, fp := range s.plans {
		if fp.fn.Module == s.module {
			out = append(out, fp)
		}
	}
	return out
}

// concrete reports whether a class is emitted as an owning struct.
func concrete(c *classes.Class) bool {
	return !c.Ignored && !c.Ghost && !c.CallbackShape && !c.ValueRecord && !c.Interface()
}

func (s *session) ownCallbacks() []*decl.Callback {
	out := make([]*decl.Callback, 0, len(s.callbacks))
	for _, cb := range s.callbacks {
		if cb.Module == s.module && !cb.Ignored() {
			out = append(out, cb)
		}
	}
	return out
}

func (s *session) emitCommonHeader() (File, error) {
	content, err := render("common.h", map[string]any{"Upper": s.upper()})
	return File{Name: s.commonHeader(), Content: content, Shared: true}, err
}

// emitEnvelopes renders one envelope header per result type in use.
func (s *session) emitEnvelopes() ([]File, error) {
	seen := make(map[string]bool)
	files := make([]File, 0)
	for _, fp := range s.ownPlans() {
		if !fp.supported || fp.sys.drop {
			continue
		}
		d := fp.fn.Return
		name := envelopeHeader(d)
		if seen[name] {
			continue
		}
		seen[name] = true

		includes := headerSet{}
		includes.addType(s, d)
		content, err := render("envelope.h", map[string]any{
			"Guard":    guard(name),
			"Common":   s.commonHeader(),
			"Includes": includes.sorted(),
			"Name":     d.EnvelopeName(),
			"Field":    d.ResultField(),
		})
		if err != nil {
			return nil, err
		}
		files = append(files, File{Name: name, Content: content, Shared: true})
	}
	return files, nil
}

// emitRecords renders the C layout of every value record.
func (s *session) emitRecords() ([]File, error) {
	files := make([]File, 0)
	for _, c := range s.classes.All() {
		if !c.ValueRecord || c.Ignored {
			continue
		}
		cp := s.classPlan(c)
		s.nameClass(cp)

		includes := headerSet{}
		fields := make([]map[string]string, 0, len(cp.fields))
		for _, f := range cp.fields {
			includes.addType(s, f.Type)
			fields = append(fields, map[string]string{"Type": f.Type.CppExtern, "Name": f.Name})
		}

		name := recordHeader(cp.desc)
		content, err := render("record.h", map[string]any{
			"Guard":    guard(name),
			"Common":   s.commonHeader(),
			"Includes": includes.sorted(),
			"Name":     cp.desc.CppExtern,
			"Fields":   fields,
		})
		if err != nil {
			return nil, err
		}
		files = append(files, File{Name: name, Content: content, Shared: true})
	}
	return files, nil
}

// ownHandles returns the concrete Handle classes of the configured module
// with their interface ancestors.
func (s *session) ownHandles() []*classPlan {
	out := make([]*classPlan, 0)
	for _, c := range s.classes.All() {
		if c.Module == s.module && concrete(c) {
			out = append(out, s.classPlan(c))
		}
	}
	return out
}

func (s *session) emitModuleNative() ([]File, error) {
	includes := headerSet{}
	var prototypes []string
	var funcs []nativeFunc

	for _, fp := range s.ownPlans() {
		if fp.supported && !fp.sys.drop {
			includes.add(envelopeHeader(fp.fn.Return))
			includes.addType(s, fp.fn.Return)
			for _, a := range fp.fn.Args {
				includes.addType(s, a.Type)
			}
			if fp.recv != nil {
				includes.addType(s, fp.recv)
			}
			prototypes = append(prototypes,
				fp.fn.Return.EnvelopeName()+" "+fp.symbol+"("+cParams(s.nativeParams(fp))+");")
		}

		switch {
		case fp.cpp.drop:
		case fp.cpp.text != "":
			funcs = append(funcs, nativeFunc{Manual: strings.TrimSpace(fp.cpp.text)})
		default:
			funcs = append(funcs, nativeFunc{
				Envelope: fp.fn.Return.EnvelopeName(),
				Symbol:   fp.symbol,
				Params:   cParams(s.nativeParams(fp)),
				Body:     s.nativeBody(fp),
			})
		}
	}

	callbacks := make([]nativeCallback, 0)
	for _, cb := range s.ownCallbacks() {
		d := s.types.Resolve(cb.FullName)
		ret := "void"
		if !cb.Return.IsVoid() {
			ret = cb.Return.CppExtern
		}
		params := make([]string, 0, len(cb.Args))
		plain := make([]string, 0, len(cb.Args))
		for _, a := range cb.Args {
			includes.addType(s, a.Type)
			p := a.Type.NativeParam(a.Name, false)
			params = append(params, p)
			plain = append(plain, strings.TrimPrefix(p, "const "))
		}
		callbacks = append(callbacks, nativeCallback{
			Return:           ret,
			Extern:           d.CppExtern,
			Params:           cParams(params),
			Trampoline:       d.TrampolineSymbol(),
			TrampolineParams: cParams(plain),
		})
	}

	var upcasts []nativeUpcast
	var deletes []nativeDelete
	for _, cp := range s.ownHandles() {
		deletes = append(deletes, nativeDelete{Symbol: cp.desc.DeleteSymbol(), CppType: cp.desc.CppType})
		for _, a := range cp.ancestors {
			ad := s.types.Resolve(a.FullName)
			upcasts = append(upcasts, nativeUpcast{
				Symbol: upcastSymbol(cp.desc, ad),
				From:   cp.desc.CppType,
				To:     ad.CppType,
			})
		}
	}

	header, err := render("module.h", map[string]any{
		"Guard":      guard(s.moduleHeader()),
		"Common":     s.commonHeader(),
		"Includes":   includes.sorted(),
		"Upper":      s.upper(),
		"Callbacks":  callbacks,
		"Prototypes": prototypes,
		"Upcasts":    upcasts,
		"Deletes":    deletes,
	})
	if err != nil {
		return nil, err
	}

	source, err := render("module.cpp", map[string]any{
		"Header":     s.moduleHeader(),
		"Includes":   s.nativeIncludes(),
		"Namespaces": s.namespaces(),
		"Upper":      s.upper(),
		"Functions":  funcs,
		"Upcasts":    upcasts,
		"Deletes":    deletes,
	})
	if err != nil {
		return nil, err
	}

	return []File{
		{Name: s.moduleHeader(), Content: header},
		{Name: s.module + ".cpp", Content: source},
	}, nil
}

// emitConstantDump renders the program printing the constants only the
// native compiler can evaluate.
func (s *session) emitConstantDump() (File, bool, error) {
	if len(s.dumped) == 0 {
		return File{}, false, nil
	}
	constants := make([]map[string]string, 0, len(s.dumped))
	for _, cp := range s.dumped {
		constants = append(constants, map[string]string{"GoName": cp.goName, "FullName": cp.c.FullName})
	}
	content, err := render("consts.cpp", map[string]any{
		"Module":     s.module,
		"Upper":      s.upper(),
		"Package":    s.cfg.Package,
		"Includes":   s.nativeIncludes(),
		"Namespaces": s.namespaces(),
		"Constants":  constants,
	})
	return File{Name: s.module + ".consts.cpp", Content: content}, true, err
}
