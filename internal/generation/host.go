package generation

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"gocxx/internal/decl"
	"gocxx/internal/errors"
	"gocxx/internal/types"
)

// The host side: Go wrappers and the binary-interface declarations they call.

const unsafeNote = "Unsafe: the native side may keep pointers into the arguments after the call returns. " +
	"The caller keeps them alive and unchanged for as long as that is the case."

func (s *session) newGoFile(preamble ...string) *jen.File {
	f := jen.NewFile(s.cfg.Package)
	f.HeaderComment("Code generated by gocxx. DO NOT EDIT.")
	f.ImportName(s.cfg.RuntimeImport, "bindrt")
	f.CgoPreamble(strings.Join(preamble, "\n"))
	return f
}

func renderGo(name string, f *jen.File, shared bool) (File, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return File{}, errors.Wrapf(err, "render %s", name)
	}
	return File{Name: name, Content: buf.Bytes(), Shared: shared}, nil
}

func (s *session) rt(name string) *jen.Statement {
	return jen.Qual(s.cfg.RuntimeImport, name)
}

func unsafePointer() *jen.Statement {
	return jen.Qual("unsafe", "Pointer")
}

func keepAlive(name string) *jen.Statement {
	return jen.Qual("runtime", "KeepAlive").Call(jen.Id(name))
}

// receiver is how a method wrapper reaches its native instance.
type receiver struct {
	name     string
	typeName string
	// raw is the instance expression passed to the sys declaration.
	raw       jen.Code
	keepAlive bool
}

// receiverName picks a short receiver name that no argument uses.
func receiverName(typeName string, args []*decl.Argument) string {
	name := "self"
	if typeName != "" {
		name = string(unicode.ToLower([]rune(typeName)[0]))
	}
	for _, a := range args {
		for _, taken := range []string{a.GoName, a.GoName + "C", a.GoName + "Out", a.GoName + "Fn"} {
			if taken == name {
				return "self"
			}
		}
	}
	if name == "rv" || name == "err" {
		return "self"
	}
	return name
}

func (s *session) emitCommonGo() (File, error) {
	preamble := []string{"#cgo CXXFLAGS: -std=c++11"}
	if s.cfg.CgoCFlags != "" {
		preamble = append(preamble, "#cgo CFLAGS: "+s.cfg.CgoCFlags, "#cgo CXXFLAGS: "+s.cfg.CgoCFlags)
	}
	if s.cfg.CgoLDFlags != "" {
		preamble = append(preamble, "#cgo LDFLAGS: "+s.cfg.CgoLDFlags)
	}
	preamble = append(preamble, "#include <stdlib.h>")

	f := s.newGoFile(preamble...)
	f.Add(docComment("cFree releases memory the native side allocated with malloc.").
		Func().Id("cFree").Params(jen.Id("p").Add(unsafePointer())).Block(
		types.C("free").Call(jen.Id("p")),
	))
	return renderGo(s.cfg.Prefix+"_common.go", f, true)
}

// signature renders the parameters and results of a wrapper.
func signature(f *decl.Function) ([]jen.Code, []jen.Code) {
	args := f.HostArgs()
	params := make([]jen.Code, 0, len(args))
	for _, a := range args {
		params = append(params, jen.Id(a.GoName).Add(a.Type.HostParamType(a.Out())))
	}
	if ret := f.Return.HostResultType(); ret != nil {
		return params, []jen.Code{ret, jen.Error()}
	}
	return params, []jen.Code{jen.Error()}
}

func results(stmt *jen.Statement, res []jen.Code) *jen.Statement {
	if len(res) == 1 {
		return stmt.Add(res[0])
	}
	return stmt.Params(res...)
}

func (s *session) wrapperDoc(fp *funcPlan, docs map[string]string) string {
	f := fp.fn
	native := f.Doc
	if strings.Contains(native, "@overload") || strings.TrimSpace(native) == "" {
		if sibling, ok := docs[f.FullName]; ok {
			native = sibling
		}
	}

	var defaults []string
	for _, a := range f.HostArgs() {
		if a.Default != "" {
			defaults = append(defaults, a.GoName+" = "+a.Default)
		}
	}
	var notes []string
	if fp.unsafe {
		notes = append(notes, unsafeNote)
	}

	var summary string
	switch f.Kind {
	case decl.Constructor:
		summary = fmt.Sprintf("%s constructs a %s.", fp.goName, f.Class.FullName)
	case decl.Getter:
		summary = fmt.Sprintf("%s returns the %s property.", fp.goName, f.FullName)
	case decl.Setter:
		summary = fmt.Sprintf("%s sets the %s property.", fp.goName, f.FullName)
	case decl.Free, decl.Method:
		summary = fmt.Sprintf("%s wraps %s.", fp.goName, f.FullName)
	}
	return reformatDoc(summary, native, defaults, notes)
}

// siblingDocs maps a full name to the first doc that is not an overload stub.
func (s *session) siblingDocs() map[string]string {
	docs := make(map[string]string)
	for _, fp := range s.plans {
		doc := strings.TrimSpace(fp.fn.Doc)
		if doc == "" || strings.Contains(doc, "@overload") {
			continue
		}
		if _, ok := docs[fp.fn.FullName]; !ok {
			docs[fp.fn.FullName] = doc
		}
	}
	return docs
}

// userdataStaging registers the closure of the callback argument preceding
// args[i] under a slot owned by this call site.
func (s *session) userdataStaging(fp *funcPlan, args []*decl.Argument, i int) []jen.Code {
	ud := args[i]
	var cb *decl.Argument
	for j := i - 1; j >= 0; j-- {
		if args[j].Type.Kind == types.Callback {
			cb = args[j]
			break
		}
	}
	if cb == nil {
		return []jen.Code{jen.Var().Id(ud.GoName).Add(unsafePointer())}
	}

	slot := fp.identifier + "/" + cb.Name
	return []jen.Code{
		jen.Var().Id(ud.GoName).Add(unsafePointer()),
		jen.If(jen.Id(cb.GoName).Op("!=").Nil()).Block(
			jen.Id(ud.GoName).Op("=").Add(s.rt("Userdata")).Call(
				s.rt("RegisterCallback").Call(jen.Lit(slot), jen.Id(cb.GoName)),
			),
		).Else().Block(
			s.rt("ReleaseCallback").Call(jen.Lit(slot)),
		),
	}
}

// wrapper renders the Go function or method calling the sys declaration of fp.
func (s *session) wrapper(fp *funcPlan, recv *receiver, docs map[string]string) *jen.Statement {
	f := fp.fn
	params, res := signature(f)

	fail := jen.Return(jen.Err())
	if len(res) == 2 {
		fail = jen.Return(f.Return.HostZero(), jen.Err())
	}

	body := make([]jen.Code, 0)
	for i, a := range f.Args {
		if a.Userdata {
			body = append(body, s.userdataStaging(fp, f.Args, i)...)
			continue
		}
		body = append(body, a.Type.HostPreCall(a.GoName, a.Out())...)
	}

	callArgs := make([]jen.Code, 0, len(f.Args)+1)
	if f.Instance() {
		callArgs = append(callArgs, recv.raw)
	}
	for _, a := range f.Args {
		if a.Userdata {
			callArgs = append(callArgs, jen.Id(a.GoName))
			continue
		}
		callArgs = append(callArgs, a.Type.HostCallArg(a.GoName, a.Out()))
	}
	body = append(body, jen.Id("rv").Op(":=").Id(fp.sysName).Call(callArgs...))

	for _, a := range f.Args {
		if !a.Userdata {
			body = append(body, a.Type.HostPostCall(a.GoName, a.Out())...)
		}
	}
	if recv != nil && recv.keepAlive && f.Instance() {
		body = append(body, keepAlive(recv.name))
	}

	body = append(body, jen.If(
		jen.Err().Op(":=").Add(s.rt("Check")).Call(
			jen.Int32().Call(jen.Id("rv").Dot("error_code")),
			unsafePointer().Call(jen.Id("rv").Dot("error_msg")),
			jen.Id("cFree"),
		),
		jen.Err().Op("!=").Nil(),
	).Block(fail))
	for _, a := range f.Args {
		if !a.Userdata {
			body = append(body, a.Type.HostReceiveOut(a.GoName, a.Out())...)
		}
	}
	body = append(body, f.Return.HostReceive("rv")...)

	stmt := docComment(s.wrapperDoc(fp, docs)).Func()
	if recv != nil {
		stmt = stmt.Params(jen.Id(recv.name).Op("*").Id(recv.typeName))
	}
	stmt = stmt.Id(fp.goName).Params(params...)
	return results(stmt, res).Block(body...)
}

// sysDecl renders the thin declaration forwarding to the native trampoline.
func (s *session) sysDecl(fp *funcPlan) *jen.Statement {
	f := fp.fn
	params := make([]jen.Code, 0, len(f.Args)+1)
	args := make([]jen.Code, 0, len(f.Args)+1)
	if f.Instance() {
		params = append(params, jen.Id("instance").Add(fp.recv.HostABIType(true)))
		args = append(args, jen.Id("instance"))
	}
	for _, a := range f.Args {
		params = append(params, jen.Id(a.GoName).Add(a.Type.HostABIType(a.Out())))
		args = append(args, jen.Id(a.GoName))
	}
	return jen.Func().Id(fp.sysName).Params(params...).Add(types.C(f.Return.EnvelopeName())).Block(
		jen.Return(types.C(fp.symbol).Call(args...)),
	)
}

// emitFunction adds the artifacts of fp to the wrapper and sys files.
func (s *session) emitFunction(wrappers *jen.File, sys *jen.File, fp *funcPlan, recv *receiver, docs map[string]string) {
	s.emitHost(wrappers, fp, recv, docs)
	s.emitSys(sys, fp)
}

func (s *session) emitHost(wrappers *jen.File, fp *funcPlan, recv *receiver, docs map[string]string) {
	switch {
	case fp.host.drop:
	case fp.host.text != "":
		wrappers.Add(jen.Op(strings.TrimSpace(fp.host.text)))
	default:
		wrappers.Line()
		wrappers.Add(s.wrapper(fp, recv, docs))
	}
}

func (s *session) emitSys(sys *jen.File, fp *funcPlan) {
	switch {
	case fp.sys.drop:
	case fp.sys.text != "":
		sys.Add(jen.Op(strings.TrimSpace(fp.sys.text)))
	default:
		sys.Line()
		sys.Add(s.sysDecl(fp))
	}
}

func (s *session) emitCallback(wrappers *jen.File, sys *jen.File, cb *decl.Callback) {
	d := s.types.Resolve(cb.FullName)

	params := make([]jen.Code, 0, len(cb.Args))
	for _, a := range cb.HostArgs() {
		params = append(params, jen.Id(a.GoName).Add(a.Type.HostParamType(false)))
	}
	typ := jen.Func().Params(params...)
	if !cb.Return.IsVoid() {
		typ = typ.Add(cb.Return.HostResultType())
	}
	summary := fmt.Sprintf("%s is the host side of the %s callback.", d.GoName, cb.FullName)
	wrappers.Add(docComment(reformatDoc(summary, cb.Doc, nil, nil)).Type().Id(d.GoName).Add(typ))

	var userdata string
	abiParams := make([]jen.Code, 0, len(cb.Args))
	for _, a := range cb.Args {
		abiParams = append(abiParams, jen.Id(a.GoName).Add(a.Type.HostABIType(false)))
		if a.Userdata {
			userdata = a.GoName
		}
	}
	hostArgs := make([]jen.Code, 0, len(cb.Args))
	for _, a := range cb.HostArgs() {
		hostArgs = append(hostArgs, a.Type.HostFromC(a.GoName))
	}

	bail := jen.Return()
	call := jen.Id("hostFn").Call(hostArgs...)
	var tail jen.Code = call
	if !cb.Return.IsVoid() {
		bail = jen.Return(cb.Return.HostZero())
		tail = jen.Return(jen.Add(cb.Return.HostABIType(false)).Call(call))
	}

	sym := d.TrampolineSymbol()
	trampoline := jen.Comment("//export "+sym).Line().Func().Id(sym).Params(abiParams...)
	if !cb.Return.IsVoid() {
		trampoline = trampoline.Add(cb.Return.HostABIType(false))
	}
	sys.Add(trampoline.Block(
		jen.List(jen.Id("entry"), jen.Id("found")).Op(":=").Add(s.rt("LookupCallback")).Call(
			s.rt("UserdataID").Call(jen.Id(userdata)),
		),
		jen.If(jen.Op("!").Id("found")).Block(bail),
		jen.List(jen.Id("hostFn"), jen.Id("found")).Op(":=").Id("entry").Assert(jen.Id(d.GoName)),
		jen.If(jen.Op("!").Id("found")).Block(bail),
		tail,
	))
}

// emitRecordType renders the Go struct sharing the layout of a value record.
func (s *session) emitRecordType(wrappers *jen.File, cp *classPlan) {
	fields := make([]jen.Code, 0, len(cp.fields))
	for _, f := range cp.fields {
		fields = append(fields, jen.Id(f.GoName).Add(f.Type.HostParamType(false)))
	}
	summary := fmt.Sprintf("%s has the memory layout of %s.", cp.desc.GoName, cp.class.FullName)
	wrappers.Add(docComment(reformatDoc(summary, cp.class.Doc, nil, nil)).Type().Id(cp.desc.GoName).Struct(fields...))
}

// ownerStruct renders an owning struct over bindrt.Handle and its adopting
// constructor. release is the destructor symbol.
func (s *session) ownerStruct(wrappers *jen.File, d *types.Descriptor, doc string, release string) {
	wrappers.Line()
	wrappers.Add(docComment(doc).Type().Id(d.GoName).Struct(jen.Op("*").Add(s.rt("Handle"))))
	wrappers.Line()
	wrappers.Add(jen.Func().Id(d.WrapperConstructor()).Params(jen.Id("ptr").Add(unsafePointer())).Op("*").Id(d.GoName).Block(
		jen.Return(jen.Op("&").Id(d.GoName).Values(jen.Dict{
			jen.Id("Handle"): s.rt("NewHandle").Call(
				jen.Id("ptr"),
				jen.Func().Params(jen.Id("p").Add(unsafePointer())).Block(types.C(release).Call(jen.Id("p"))),
			),
		})),
	))

	r := receiverName(d.GoName, nil)
	wrappers.Line()
	wrappers.Add(docComment(d.AsRawName()+" returns the native pointer, nil once released.").
		Func().Params(jen.Id(r).Op("*").Id(d.GoName)).Id(d.AsRawName()).Params().Add(unsafePointer()).Block(
		jen.If(jen.Id(r).Op("==").Nil()).Block(jen.Return(jen.Nil())),
		jen.Return(jen.Id(r).Dot("Pointer").Call()),
	))
}

// rawAccessor renders an AsRaw method computing the pointer through a C function of the owner pointer.
func (s *session) rawAccessor(wrappers *jen.File, owner *types.Descriptor, name string, symbol string) {
	r := receiverName(owner.GoName, nil)
	wrappers.Line()
	wrappers.Add(docComment(name+" returns the native pointer converted by "+symbol+", nil once released.").
		Func().Params(jen.Id(r).Op("*").Id(owner.GoName)).Id(name).Params().Add(unsafePointer()).Block(
		jen.If(jen.Id(r).Op("==").Nil()).Block(jen.Return(jen.Nil())),
		jen.Return(types.C(symbol).Call(jen.Id(r).Dot("Pointer").Call())),
	))
}

// hostMethod reports whether fp has a generated wrapper other types can inherit.
func hostMethod(fp *funcPlan) bool {
	return fp.host.generated() && fp.supported && fp.goName != ""
}

// inherited returns the generated methods of the given classes, first name wins.
func (s *session) inherited(plans []*classPlan, skip map[string]bool) []*funcPlan {
	out := make([]*funcPlan, 0)
	for _, cp := range plans {
		for _, m := range cp.methods {
			if !hostMethod(m) || skip[m.goName] {
				continue
			}
			skip[m.goName] = true
			out = append(out, m)
		}
	}
	return out
}

// methodReceiver builds the receiver of m when called on a value of typeName
// that reaches the owner of m through its AsRaw method.
func (s *session) methodReceiver(typeName string, m *funcPlan) *receiver {
	r := receiverName(typeName, m.fn.Args)
	owner := s.types.Resolve(m.fn.Class.FullName)
	return &receiver{
		name:      r,
		typeName:  typeName,
		raw:       jen.Id(r).Dot(owner.AsRawName()).Call(),
		keepAlive: true,
	}
}

func (s *session) ancestorPlans(cp *classPlan) []*classPlan {
	out := make([]*classPlan, 0, len(cp.ancestors))
	for _, a := range cp.ancestors {
		out = append(out, s.classPlan(a))
	}
	return out
}

func (s *session) emitClass(wrappers *jen.File, sys *jen.File, cp *classPlan, docs map[string]string) {
	c := cp.class
	d := cp.desc
	summary := fmt.Sprintf("%s wraps %s.", d.GoName, c.FullName)

	switch {
	case c.ValueRecord:
	case c.Interface():
		methods := s.inherited(append([]*classPlan{cp}, s.ancestorPlans(cp)...), map[string]bool{})
		wrappers.Add(docComment(reformatDoc(summary, c.Doc, nil, nil)).Type().Id(d.GoName).InterfaceFunc(func(g *jen.Group) {
			g.Id(d.AsRawName()).Params().Add(unsafePointer())
			for _, a := range cp.ancestors {
				g.Id(s.types.Resolve(a.FullName).AsRawName()).Params().Add(unsafePointer())
			}
			for _, m := range methods {
				params, res := signature(m.fn)
				results(g.Id(m.goName).Params(params...), res)
			}
		}))
	default:
		s.ownerStruct(wrappers, d, reformatDoc(summary, c.Doc, nil, nil), d.DeleteSymbol())
		for _, a := range cp.ancestors {
			ad := s.types.Resolve(a.FullName)
			s.rawAccessor(wrappers, d, ad.AsRawName(), upcastSymbol(d, ad))
		}
	}

	for _, fp := range cp.statics {
		s.emitFunction(wrappers, sys, fp, nil, docs)
	}

	own := make(map[string]bool)
	for _, fp := range cp.methods {
		own[fp.goName] = true
		var recv *receiver
		if c.ValueRecord {
			r := receiverName(d.GoName, fp.fn.Args)
			recv = &receiver{name: r, typeName: d.GoName, raw: d.HostCallArg(r, true)}
		} else {
			recv = s.methodReceiver(d.GoName, fp)
		}
		if c.Interface() && fp.host.generated() {
			// the interface only declares the method; implementers carry the wrapper
			s.emitSys(sys, fp)
			continue
		}
		s.emitFunction(wrappers, sys, fp, recv, docs)
	}

	if concrete(c) {
		for _, m := range s.inherited(s.ancestorPlans(cp), own) {
			wrappers.Line()
			wrappers.Add(s.wrapper(m, s.methodReceiver(d.GoName, m), docs))
		}
	}
}

func (s *session) emitModuleGo() ([]File, error) {
	preamble := `#include "` + s.moduleHeader() + `"`
	wrappers := s.newGoFile(preamble)
	sys := s.newGoFile(preamble)
	docs := s.siblingDocs()

	if len(s.constPlans) > 0 {
		wrappers.Const().DefsFunc(func(g *jen.Group) {
			for _, cp := range s.constPlans {
				if cp.value.Doc != "" {
					g.Comment(cp.value.Doc)
				}
				g.Id(cp.goName).Op("=").Op(cp.value.Value)
			}
		})
	}

	for _, cb := range s.ownCallbacks() {
		s.emitCallback(wrappers, sys, cb)
	}

	for _, c := range s.classes.All() {
		if c.Module == s.module && c.ValueRecord && !c.Ignored {
			s.emitRecordType(wrappers, s.classPlan(c))
		}
	}

	for _, fp := range s.ownPlans() {
		if fp.fn.Class == nil {
			s.emitFunction(wrappers, sys, fp, nil, docs)
		}
	}

	for _, c := range s.classes.All() {
		if c.Module != s.module || c.Ghost || c.CallbackShape || c.Ignored {
			continue
		}
		s.emitClass(wrappers, sys, s.classPlan(c), docs)
	}

	wrapperFile, err := renderGo(s.module+".go", wrappers, false)
	if err != nil {
		return nil, err
	}
	sysFile, err := renderGo(s.module+"_sys.go", sys, false)
	if err != nil {
		return nil, err
	}
	return []File{wrapperFile, sysFile}, nil
}
