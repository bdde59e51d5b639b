package generation

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"gocxx/internal/types"
)

// Collection and shared handle shims. Each resolved shim type gets a C
// header, a C++ source and a Go file, all created once and shared by every
// module that uses the type.

// Names a shim type already uses for itself.
var shimMethods = map[string]bool{
	"Handle": true, "Pointer": true, "Release": true, "Released": true, "Close": true,
	"Clone": true, "Get": true, "Len": true, "Cap": true, "Reserve": true, "Append": true, "Data": true,
}

// shimSkipReason reports why a shim type can not be emitted.
func shimSkipReason(d *types.Descriptor) string {
	for x := d.Inner; x != nil; x = x.Inner {
		if x.Class != nil && x.Class.Ignored {
			return "class " + x.Class.FullName + " is ignored"
		}
		if x.Kind == types.Callback {
			return "callbacks can not be stored in " + d.Kind.String() + " shims"
		}
		if x.Kind == types.RawReference {
			return "raw references can not be stored in " + d.Kind.String() + " shims"
		}
	}
	if d.Kind == types.Collection && d.Inner.IsInterface() {
		return "interface " + d.Inner.Class.FullName + " can not be stored by value"
	}
	return ""
}

func (s *session) shimSymbol(d *types.Descriptor) string {
	return d.Prefix() + "_" + d.SafeID
}

func (s *session) emitShims() ([]File, error) {
	files := make([]File, 0)
	for _, d := range s.types.Shims() {
		if reason := shimSkipReason(d); reason != "" {
			s.log.Debugw("shim skipped", "type", d.Signature, "reason", reason)
			continue
		}
		s.report.Shims = append(s.report.Shims, d.SafeID)

		var out []File
		var err error
		if d.Kind == types.Collection {
			out, err = s.emitCollection(d)
		} else {
			out, err = s.emitShared(d)
		}
		if err != nil {
			return nil, err
		}
		files = append(files, out...)
	}
	return files, nil
}

func (s *session) shimHeaderData(d *types.Descriptor) map[string]any {
	includes := headerSet{}
	includes.addType(s, d.Inner)
	name := d.SafeID + ".type.h"
	return map[string]any{
		"Guard":          guard(name),
		"Common":         s.commonHeader(),
		"Header":         name,
		"Includes":       includes.sorted(),
		"NativeIncludes": s.nativeIncludes(),
		"Upper":          s.upper(),
		"Symbol":         s.shimSymbol(d),
		"CppType":        d.CppType,
	}
}

func (s *session) shimFiles(d *types.Descriptor, kind string, data map[string]any, goFile *jen.File) ([]File, error) {
	header, err := render(kind+".h", data)
	if err != nil {
		return nil, err
	}
	source, err := render(kind+".cpp", data)
	if err != nil {
		return nil, err
	}
	host, err := renderGo(d.SafeID+".type.go", goFile, true)
	if err != nil {
		return nil, err
	}
	return []File{
		{Name: d.SafeID + ".type.h", Content: header, Shared: true},
		{Name: d.SafeID + ".type.cpp", Content: source, Shared: true},
		host,
	}, nil
}

func (s *session) emitCollection(d *types.Descriptor) ([]File, error) {
	inner := d.Inner
	sym := s.shimSymbol(d)
	elements := "(*reinterpret_cast<" + sym + "_t*>(instance))[index]"

	data := s.shimHeaderData(d)
	data["ElemParam"] = inner.NativeParam("val", false)
	data["ElemArg"] = inner.NativeCallArg("val", false)
	data["ElemExtern"] = inner.CppExtern
	data["Data"] = d.HasData()
	switch {
	case inner.CopyEligible() && inner.Kind != types.Text:
		data["GetOut"] = inner.CppExtern + "* val"
		data["GetBody"] = "*reinterpret_cast<" + inner.CppType + "*>(val) = " + elements + ";"
	case inner.Kind == types.Text && inner.CString:
		data["GetOut"] = "char** val"
		data["GetBody"] = "*val = strdup(" + elements + ");"
	case inner.Kind == types.Text:
		data["GetOut"] = "char** val"
		data["GetBody"] = "*val = strdup(" + elements + ".c_str());"
	default:
		data["GetOut"] = "void** val"
		data["GetBody"] = "*val = new " + inner.CppType + "(" + elements + ");"
	}

	f := s.newGoFile(`#include "` + d.SafeID + `.type.h"`)
	s.collectionGo(f, d)
	return s.shimFiles(d, "collection", data, f)
}

func (s *session) collectionGo(f *jen.File, d *types.Descriptor) {
	inner := d.Inner
	sym := s.shimSymbol(d)
	r := receiverName(d.GoName, nil)
	recv := func() *jen.Statement { return jen.Id(r).Op("*").Id(d.GoName) }
	raw := func() *jen.Statement { return jen.Id(r).Dot(d.AsRawName()).Call() }

	s.ownerStruct(f, d, fmt.Sprintf("%s is a native %s.", d.GoName, d.CppType), sym+"_delete")

	f.Add(docComment("New" + d.GoName + " creates an empty collection.").
		Func().Id("New" + d.GoName).Params().Op("*").Id(d.GoName).Block(
		jen.Return(jen.Id(d.WrapperConstructor()).Call(types.C(sym + "_new").Call())),
	))

	f.Add(docComment("Clone copies the collection and its elements.").
		Func().Params(recv()).Id("Clone").Params().Op("*").Id(d.GoName).Block(
		jen.Id("ptr").Op(":=").Add(types.C(sym+"_clone")).Call(raw()),
		keepAlive(r),
		jen.Return(jen.Id(d.WrapperConstructor()).Call(jen.Id("ptr"))),
	))

	for _, op := range []struct{ name, symbol, doc string }{
		{"Len", "_size", "Len returns the number of elements."},
		{"Cap", "_capacity", "Cap returns the number of elements the storage holds without growing."},
	} {
		f.Add(docComment(op.doc).
			Func().Params(recv()).Id(op.name).Params().Int().Block(
			jen.Id("n").Op(":=").Add(types.C(sym+op.symbol)).Call(raw()),
			keepAlive(r),
			jen.Return(jen.Int().Call(jen.Id("n"))),
		))
	}

	f.Add(docComment("Reserve grows the storage to hold at least n elements.").
		Func().Params(recv()).Id("Reserve").Params(jen.Id("n").Int()).Block(
		types.C(sym+"_reserve").Call(raw(), types.C("size_t").Call(jen.Id("n"))),
		keepAlive(r),
	))

	appendBody := make([]jen.Code, 0)
	appendBody = append(appendBody, inner.HostPreCall("val", false)...)
	appendBody = append(appendBody, types.C(sym+"_push_back").Call(raw(), inner.HostCallArg("val", false)))
	appendBody = append(appendBody, inner.HostPostCall("val", false)...)
	appendBody = append(appendBody, keepAlive(r))
	f.Add(docComment("Append adds val at the end.").
		Func().Params(recv()).Id("Append").Params(jen.Id("val").Add(inner.HostParamType(false))).Block(appendBody...))

	index := types.C("size_t").Call(jen.Id("i"))
	var get []jen.Code
	switch {
	case inner.CopyEligible() && inner.Kind != types.Text:
		get = []jen.Code{
			jen.Var().Id("val").Id(inner.GoName),
			types.C(sym+"_get").Call(raw(), index, jen.Parens(inner.HostABIType(true)).Call(unsafePointer().Call(jen.Op("&").Id("val")))),
			keepAlive(r),
			jen.Return(jen.Id("val"), jen.Nil()),
		}
	case inner.Kind == types.Text:
		get = []jen.Code{
			jen.Var().Id("val").Op("*").Add(types.C("char")),
			types.C(sym+"_get").Call(raw(), index, jen.Op("&").Id("val")),
			keepAlive(r),
			jen.Return(s.rt("ReceiveString").Call(unsafePointer().Call(jen.Id("val")), jen.Id("cFree")), jen.Nil()),
		}
	default:
		get = []jen.Code{
			jen.Var().Id("val").Add(unsafePointer()),
			types.C(sym+"_get").Call(raw(), index, jen.Op("&").Id("val")),
			keepAlive(r),
			jen.Return(jen.Id(inner.WrapperConstructor()).Call(jen.Id("val")), jen.Nil()),
		}
	}
	get = append([]jen.Code{
		jen.If(jen.Id("i").Op("<").Lit(0).Op("||").Id("i").Op(">=").Id(r).Dot("Len").Call()).Block(
			jen.Return(inner.HostZero(), s.rt("ErrOutOfRange")),
		),
	}, get...)
	f.Add(docComment("Get returns a copy of the element at i.").
		Func().Params(recv()).Id("Get").Params(jen.Id("i").Int()).Params(inner.HostResultType(), jen.Error()).Block(get...))

	if d.HasData() {
		f.Add(docComment("Data returns the contiguous native storage without copying. The slice is valid\n"+
			"until the collection changes or is released, and it does not keep the collection\n"+
			"alive: keep the collection reachable, for example with runtime.KeepAlive, while\n"+
			"the slice is in use.").
			Func().Params(recv()).Id("Data").Params().Index().Id(inner.GoName).Block(
			jen.Id("n").Op(":=").Id(r).Dot("Len").Call(),
			jen.If(jen.Id("n").Op("==").Lit(0)).Block(jen.Return(jen.Nil())),
			jen.Return(jen.Qual("unsafe", "Slice").Call(
				jen.Parens(jen.Op("*").Id(inner.GoName)).Call(unsafePointer().Call(types.C(sym+"_data").Call(raw()))),
				jen.Id("n"),
			)),
		))
	}
}

func (s *session) emitShared(d *types.Descriptor) ([]File, error) {
	inner := d.Inner
	data := s.shimHeaderData(d)

	f := s.newGoFile(`#include "` + d.SafeID + `.type.h"`)
	s.ownerStruct(f, d, fmt.Sprintf("%s is a native %s.", d.GoName, d.CppType), s.shimSymbol(d)+"_delete")
	s.sharedGo(f, d)

	upcasts := make([]nativeUpcast, 0)
	if inner.Kind == types.Handle {
		for _, a := range s.classPlan(inner.Class).ancestors {
			ad := s.types.Resolve(a.FullName)
			upcasts = append(upcasts, nativeUpcast{Symbol: upcastSymbol(d, ad), To: ad.CppType})
		}
	}
	data["Upcasts"] = upcasts
	return s.shimFiles(d, "shared", data, f)
}

func (s *session) sharedGo(f *jen.File, d *types.Descriptor) {
	inner := d.Inner
	sym := s.shimSymbol(d)
	r := receiverName(d.GoName, nil)
	recv := func() *jen.Statement { return jen.Id(r).Op("*").Id(d.GoName) }
	raw := func() *jen.Statement { return jen.Id(r).Dot(d.AsRawName()).Call() }

	f.Add(docComment("Clone returns another reference to the managed value.").
		Func().Params(recv()).Id("Clone").Params().Op("*").Id(d.GoName).Block(
		jen.Id("ptr").Op(":=").Add(types.C(sym+"_clone")).Call(raw()),
		keepAlive(r),
		jen.Return(jen.Id(d.WrapperConstructor()).Call(jen.Id("ptr"))),
	))

	switch inner.Kind {
	case types.Primitive, types.ValueRecord:
		f.Add(docComment("Get returns a copy of the managed value.").
			Func().Params(recv()).Id("Get").Params().Id(inner.GoName).Block(
			jen.Id("val").Op(":=").Op("*").Parens(jen.Op("*").Id(inner.GoName)).Call(types.C(sym+"_get").Call(raw())),
			keepAlive(r),
			jen.Return(jen.Id("val")),
		))
	case types.Handle:
		s.rawAccessor(f, d, inner.AsRawName(), sym+"_get")
		cp := s.classPlan(inner.Class)
		s.nameClass(cp)
		for _, a := range cp.ancestors {
			ad := s.types.Resolve(a.FullName)
			s.rawAccessor(f, d, ad.AsRawName(), upcastSymbol(d, ad))
		}

		skip := make(map[string]bool)
		for name := range shimMethods {
			skip[name] = true
		}
		docs := s.siblingDocs()
		for _, m := range s.inherited(append([]*classPlan{cp}, s.ancestorPlans(cp)...), skip) {
			f.Add(s.wrapper(m, s.methodReceiver(d.GoName, m), docs))
		}
	case types.Text, types.SharedHandle, types.Collection, types.Callback, types.RawReference, types.Unresolved:
	}
}
