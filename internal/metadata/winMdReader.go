package metadata

import (
	"debug/pe"
	"strings"

	"github.com/microsoft/go-winmd"
	"github.com/microsoft/go-winmd/flags"

	"gocxx/internal"
	"gocxx/internal/errors"
)

// WinMdReader turns Windows metadata into declaration tuples, so Win32 APIs
// go through the same generator as parsed C++ headers.
type WinMdReader struct {
	metadata  winmd.Metadata
	namespace string
}

// The map of metadata element types to C spellings known to the primitive table
var builtInElementTypes map[flags.ElementType]string = map[flags.ElementType]string{
	flags.ElementType_VOID:    "void",
	flags.ElementType_BOOLEAN: "bool",
	flags.ElementType_CHAR:    "unsigned short",
	flags.ElementType_STRING:  "const char*",
	flags.ElementType_I1:      "signed char",
	flags.ElementType_I2:      "short",
	flags.ElementType_I4:      "int",
	flags.ElementType_I8:      "int64_t",
	flags.ElementType_U1:      "unsigned char",
	flags.ElementType_U2:      "unsigned short",
	flags.ElementType_U4:      "unsigned int",
	flags.ElementType_U8:      "uint64_t",
	flags.ElementType_R4:      "float",
	flags.ElementType_R8:      "double",
}

// Types created by `typedef` in C code that map straight to primitives
var builtInTypeDefs map[string]string = map[string]string{
	"BOOL":    "int",
	"HANDLE":  "void*",
	"HRESULT": "int",
	"PSTR":    "char*",
	"PCSTR":   "const char*",
}

// NewReader opens the WinMd file under the given path. Declarations are
// named inside namespace, which should be one of the configured namespaces.
func NewReader(winMdPath string, namespace string) (*WinMdReader, error) {
	peFile, err := pe.Open(winMdPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", winMdPath)
	}
	defer peFile.Close()

	winmdMetadata, err := winmd.New(peFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read metadata from %s", winMdPath)
	}

	return &WinMdReader{
		metadata:  *winmdMetadata,
		namespace: namespace,
	}, nil
}

// TryGetMethod returns the function declaration for the method with given name.
func (reader *WinMdReader) TryGetMethod(name string) (Decl, bool, error) {
	methodDef := findElementInTable(
		reader.metadata.Tables.MethodDef,
		func(methodDef *winmd.MethodDef) bool { return methodDef.Name.String() == name })
	if methodDef == nil {
		return Decl{}, false, nil
	}

	decl, err := reader.getMethod(methodDef)
	return decl, err == nil, err
}

// TryGetType returns the value-record class declaration for the struct with
// given name, followed by the declarations of the structs its fields use.
func (reader *WinMdReader) TryGetType(name string) ([]Decl, bool, error) {
	typeDef := findElementInTable(
		reader.metadata.Tables.TypeDef,
		func(typeDef *winmd.TypeDef) bool { return typeDef.Name.String() == name })
	if typeDef == nil {
		return nil, false, nil
	}

	decls := make([]Decl, 0, 1)
	if err := reader.getStruct(*typeDef, &decls, make(map[string]bool)); err != nil {
		return nil, false, err
	}
	return decls, true, nil
}

// Declarations reads every entry of names, a method or a struct name each.
// Unknown names are returned separately.
func (reader *WinMdReader) Declarations(names []string) ([]Decl, []string, error) {
	decls := make([]Decl, 0, len(names))
	missing := make([]string, 0)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		method, found, err := reader.TryGetMethod(name)
		if err != nil {
			return nil, nil, err
		}
		if found {
			decls = append(decls, method)
			continue
		}

		types, found, err := reader.TryGetType(name)
		if err != nil {
			return nil, nil, err
		}
		if found {
			decls = append(types, decls...)
			continue
		}

		missing = append(missing, name)
	}

	return decls, missing, nil
}

// getType returns the native spelling of a signature type. Struct types
// referenced by value are appended to nested.
func (reader *WinMdReader) getType(sigType winmd.SigType, nested *[]winmd.TypeDef) (string, error) {
	builtInType, found := builtInElementTypes[sigType.Kind]
	if found {
		return builtInType, nil
	}

	if sigType.Kind == flags.ElementType_PTR {
		innerSigType, _ := sigType.Value.(winmd.SigType)
		innerType, err := reader.getType(innerSigType, nested)
		return innerType + "*", err
	}

	if sigType.Kind == flags.ElementType_ARRAY {
		innerSigType, _ := sigType.Value.(winmd.SigType)
		innerType, err := reader.getType(innerSigType, nested)
		return innerType + "[]", err
	}

	typeDef, err := reader.getTypeDef(sigType)
	if err != nil {
		return "", errors.Wrap(err, "no matching type definition for type was found")
	}

	builtInType, found = builtInTypeDefs[typeDef.Name.String()]
	if found {
		return builtInType, nil
	}

	if nested != nil {
		*nested = append(*nested, typeDef)
	}
	return typeDef.Name.String(), nil
}

func (reader *WinMdReader) getStruct(typeDef winmd.TypeDef, decls *[]Decl, seen map[string]bool) error {
	name := typeDef.Name.String()
	if seen[name] {
		return nil
	}
	seen[name] = true

	nested := make([]winmd.TypeDef, 0)
	decl := Decl{
		Name:      "struct " + reader.namespace + "." + name,
		Modifiers: []string{"/Simple"},
		Doc:       typeDef.Namespace.String() + "." + name,
	}
	for i := typeDef.FieldList.Start; i < typeDef.FieldList.End; i++ {
		field, err := reader.metadata.Tables.Field.Record(i)
		if err != nil {
			return errors.Wrap(err, "no matching field was found")
		}
		property, err := reader.getProperty(*field, &nested)
		if err != nil {
			return errors.Wrapf(err, "struct %s", name)
		}
		decl.Args = append(decl.Args, property)
	}

	for _, inner := range nested {
		if err := reader.getStruct(inner, decls, seen); err != nil {
			return err
		}
	}
	*decls = append(*decls, decl)
	return nil
}

func (reader *WinMdReader) getProperty(field winmd.Field, nested *[]winmd.TypeDef) (Arg, error) {
	fieldSignature, err := reader.metadata.FieldSignature(field.Signature)
	if err != nil {
		return Arg{}, errors.Wrapf(err, "no matching field signature for field '%s' was found", field.Name.String())
	}
	propertyType, err := reader.getType(fieldSignature.Type, nested)
	if err != nil {
		return Arg{}, errors.Wrap(err, "could not determine property type")
	}

	return Arg{Type: propertyType, Name: field.Name.String(), Modifiers: []string{"/RW"}}, nil
}

func (reader *WinMdReader) getTypeDef(sigType winmd.SigType) (winmd.TypeDef, error) {
	sigTypeIndex, ok := sigType.Value.(winmd.CodedIndex)
	if !ok {
		return winmd.TypeDef{}, errors.Newf("unsupported signature element %v", sigType.Kind)
	}
	retTypeRef, err := reader.metadata.Tables.TypeRef.Record(sigTypeIndex.Index)
	if err != nil {
		return winmd.TypeDef{}, errors.Wrap(err, "did not find matching type reference")
	}

	typeDef := findElementInTable(
		reader.metadata.Tables.TypeDef,
		func(x *winmd.TypeDef) bool {
			return x.Name.String() == retTypeRef.Name.String() && x.Namespace.String() == retTypeRef.Namespace.String()
		})
	if typeDef == nil {
		return winmd.TypeDef{}, errors.Newf("did not find matching type definition for %s", retTypeRef.Name.String())
	}

	return *typeDef, nil
}

// Gets the name of the *.dll file that implements given member.
func (reader *WinMdReader) getImportingDll(memberName string) (importingDll string, found bool) {
	for i := uint32(0); i < reader.metadata.Tables.ImplMap.Len; i++ {
		implMap, err := reader.metadata.Tables.ImplMap.Record(winmd.Index(i))
		internal.PanicOnError(err)
		if implMap.ImportName.String() == memberName {
			dllImport, err := reader.metadata.Tables.ModuleRef.Record(implMap.ImportScope)
			internal.PanicOnError(err)
			return dllImport.Name.String(), true
		}
	}

	return "", false
}

func (reader *WinMdReader) getMethod(methodDef *winmd.MethodDef) (Decl, error) {
	name := methodDef.Name.String()
	methodSignature, err := reader.metadata.MethodDefSignature(methodDef.Signature)
	if err != nil {
		return Decl{}, errors.Wrapf(err, "method %s", name)
	}

	returnType, err := reader.getType(methodSignature.RetType.Type, nil)
	if err != nil {
		return Decl{}, errors.Wrapf(err, "method %s return type", name)
	}

	decl := Decl{
		Name: reader.namespace + "." + name,
		Spec: returnType,
	}
	if dllName, found := reader.getImportingDll(name); found {
		decl.Doc = "Imported from " + dllName + "."
	}

	// the first Param row describes the return value
	paramNames := make([]string, 0, len(methodSignature.Param))
	for idx := uint32(methodDef.ParamList.Start + 1); idx < uint32(methodDef.ParamList.End); idx++ {
		param, err := reader.metadata.Tables.Param.Record(winmd.Index(idx))
		internal.PanicOnError(err)
		paramNames = append(paramNames, param.Name.String())
	}

	for i, methodParam := range methodSignature.Param {
		paramType, err := reader.getType(methodParam.Type, nil)
		if err != nil {
			return Decl{}, errors.Wrapf(err, "method %s parameter %d", name, i)
		}
		paramName := ""
		if i < len(paramNames) {
			paramName = paramNames[i]
		}
		decl.Args = append(decl.Args, Arg{Type: paramType, Name: paramName})
	}

	return decl, nil
}

// Finds element in given table and returns it. If element is not found then `nil` is returned.
func findElementInTable[T any, TP winmd.Record[T]](table winmd.Table[T, TP], match func(TP) bool) TP {
	for idx := uint32(0); idx < table.Len; idx++ {
		element, err := table.Record(winmd.Index(idx))
		internal.PanicOnError(err) // It returns an error only when creating return value and for out of scope file
		if match(element) {
			return element
		}
	}

	return nil
}
