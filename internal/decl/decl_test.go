package decl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocxx/internal/classes"
	"gocxx/internal/config"
	"gocxx/internal/errors"
	"gocxx/internal/metadata"
	"gocxx/internal/types"
)

func newTestContext(t *testing.T, extra ...metadata.Decl) *Context {
	t.Helper()

	cls := classes.NewRegistry(nil)
	decls := append([]metadata.Decl{
		{Name: "class cv.Mat", Args: []metadata.Arg{
			{Type: "int", Name: "rows", Modifiers: []string{"/RW"}},
			{Type: "int", Name: "cols"},
			{Type: "int", Name: "dims", Modifiers: []string{"/RW", "/C"}},
		}},
		{Name: "class cv.Algorithm"},
		{Name: "class cv.Feature2D", Spec: ": cv::Algorithm"},
		{Name: "struct cv.Point", Modifiers: []string{"/Simple"}},
		{Name: "class cv.Secret", Modifiers: []string{"/Hidden"}},
	}, extra...)
	for _, d := range decls {
		cls.Register(classes.FromDecl(d, "core", []string{"cv"}))
	}
	cls.Finalize()

	return &Context{
		Module:     "core",
		Namespaces: []string{"cv"},
		Classes:    cls,
		Types:      types.NewRegistry(cls, config.Defaults(), nil),
	}
}

func TestNewFunction_Kinds(t *testing.T) {
	ctx := newTestContext(t)

	tests := []struct {
		name string
		decl metadata.Decl
		kind FunctionKind
	}{
		{"free", metadata.Decl{Name: "cv.countNonZero", Spec: "int"}, Free},
		{"method", metadata.Decl{Name: "cv.Mat.total", Spec: "size_t", Modifiers: []string{"/C"}}, Method},
		{"static", metadata.Decl{Name: "cv.Mat.zeros", Spec: "Mat", Modifiers: []string{"/S"}}, Method},
		{"constructor", metadata.Decl{Name: "cv.Mat.Mat"}, Constructor},
		{"getter", metadata.Decl{Name: "cv.Mat.step", Spec: "size_t", Modifiers: []string{"/ATTRGETTER"}}, Getter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFunction(ctx, tt.decl)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, f.Kind)
			assert.Empty(t, f.Unsupported())
		})
	}
}

func TestNewFunction_Identifier(t *testing.T) {
	ctx := newTestContext(t)

	f, err := NewFunction(ctx, metadata.Decl{
		Name:      "cv.Mat.copyTo",
		Spec:      "void",
		Modifiers: []string{"/C"},
		Args: []metadata.Arg{
			{Type: "Mat&", Name: "m"},
			{Type: "vector<int>", Name: "mask"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "cv::Mat::copyTo", f.FullName)
	assert.Equal(t, "cv_Mat_copyTo_const_Mat_VectorOfint", f.Identifier)
	assert.True(t, f.Instance())
}

func TestNewFunction_ConstructorReturnsClass(t *testing.T) {
	ctx := newTestContext(t)

	f, err := NewFunction(ctx, metadata.Decl{
		Name: "cv.Mat.Mat",
		Args: []metadata.Arg{{Type: "int", Name: "rows"}, {Type: "int", Name: "cols"}},
	})
	require.NoError(t, err)

	assert.Equal(t, types.Handle, f.Return.Kind)
	assert.Equal(t, "cv::Mat", f.Return.CppType)
	assert.Equal(t, "cv::Mat(rows, cols)", f.NativeCall(f.Receiver(ctx.Types), []string{"rows", "cols"}))
}

func TestNewFunction_UnknownClass(t *testing.T) {
	ctx := newTestContext(t)

	_, err := NewFunction(ctx, metadata.Decl{Name: "cv.Missing.run", Spec: "void"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrClassNotFound))
	assert.NotEmpty(t, errors.GetAllHints(err))

	f, err := NewFunction(ctx, metadata.Decl{Name: "std.vector.size", Spec: "size_t"})
	require.NoError(t, err, "members of std are skipped, not fatal")
	assert.NotEmpty(t, f.Unsupported())
}

func TestNewFunction_Ignored(t *testing.T) {
	ctx := newTestContext(t,
		metadata.Decl{Name: "class cv.MouseCallback", Modifiers: []string{"/Ghost", "/Callback"}},
	)

	tests := []struct {
		name   string
		decl   metadata.Decl
		reason string
	}{
		{"destructor", metadata.Decl{Name: "cv.Mat.~Mat"}, "destructor"},
		{"operator", metadata.Decl{Name: "cv.Mat.operator=", Spec: "Mat&"}, "operator overload"},
		{"hidden", metadata.Decl{Name: "cv.foo", Spec: "void", Modifiers: []string{"/H"}}, "hidden"},
		{"ignored class", metadata.Decl{Name: "cv.Secret.reveal", Spec: "void"}, "class cv::Secret is ignored"},
		{
			"unresolved argument",
			metadata.Decl{Name: "cv.foo", Spec: "void", Args: []metadata.Arg{{Type: "int**", Name: "p"}}},
			"can not map type int** of p: pointer to pointer",
		},
		{"unresolved return", metadata.Decl{Name: "cv.bar", Spec: "Unknown"}, "can not map return type Unknown: unknown type"},
		{
			"callback without userdata",
			metadata.Decl{Name: "cv.setMouseCallback", Spec: "void", Args: []metadata.Arg{{Type: "MouseCallback", Name: "onMouse"}}},
			"callback argument without userdata",
		},
		{"interface constructor", metadata.Decl{Name: "cv.Algorithm.Algorithm"}, "skip constructor of interface class"},
		{"returns interface", metadata.Decl{Name: "cv.Feature2D.self", Spec: "Algorithm"}, "returns interface class Algorithm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFunction(ctx, tt.decl)
			require.NoError(t, err)
			assert.Equal(t, tt.reason, f.Unsupported())
		})
	}
}

func TestNewFunction_CallbackWithUserdata(t *testing.T) {
	ctx := newTestContext(t,
		metadata.Decl{Name: "class cv.MouseCallback", Modifiers: []string{"/Ghost", "/Callback"}},
	)

	f, err := NewFunction(ctx, metadata.Decl{
		Name: "cv.setMouseCallback",
		Spec: "void",
		Args: []metadata.Arg{
			{Type: "String", Name: "winname"},
			{Type: "MouseCallback", Name: "onMouse"},
			{Type: "void*", Name: "userdata"},
		},
	})
	require.NoError(t, err)

	assert.Empty(t, f.Unsupported())
	require.Len(t, f.Args, 3)
	assert.True(t, f.Args[2].Userdata)
	assert.Len(t, f.HostArgs(), 2)
}

func TestNewFunction_AbstractMarksInterface(t *testing.T) {
	ctx := newTestContext(t, metadata.Decl{Name: "class cv.Tracker"})

	tracker := ctx.Classes.Get("cv::Tracker")
	require.NotNil(t, tracker)
	assert.False(t, tracker.Interface())

	_, err := NewFunction(ctx, metadata.Decl{Name: "cv.Tracker.update", Spec: "bool", Modifiers: []string{"/A"}})
	require.NoError(t, err)
	assert.True(t, tracker.Interface())
}

func TestArguments(t *testing.T) {
	ctx := newTestContext(t)

	f, err := NewFunction(ctx, metadata.Decl{
		Name: "cv.split",
		Spec: "void",
		Args: []metadata.Arg{
			{Type: "InputArray", Name: "m"},
			{Type: "OutputArrayOfArrays", Name: "mv"},
			{Type: "InputOutputArray", Name: "img"},
			{Type: "int&", Name: "count"},
			{Type: "const Point&", Name: "anchor", Default: "Point(-1,-1)"},
			{Type: "int", Name: "m"},
			{Type: "int", Name: "type"},
			{Type: "int", Name: "", Modifiers: []string{"/O"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, f.Args, 8)

	directions := make([]Direction, 0, len(f.Args))
	for _, a := range f.Args {
		directions = append(directions, a.Direction)
	}
	assert.Equal(t, []Direction{In, Out, InOut, Out, In, In, In, Out}, directions)

	assert.Equal(t, "m_1", f.Args[5].Name, "colliding argument names are bumped")
	assert.Equal(t, "typeArg", f.Args[6].GoName)
	assert.Equal(t, "unnamed_arg", f.Args[7].Name)
	assert.Equal(t, "Point(-1,-1)", f.Args[4].Default)
}

func TestFunction_NativeCall(t *testing.T) {
	ctx := newTestContext(t)
	recv := ctx.Types.Resolve("cv::Mat")

	method, err := NewFunction(ctx, metadata.Decl{Name: "cv.Mat.row", Spec: "Mat", Args: []metadata.Arg{{Type: "int", Name: "y"}}})
	require.NoError(t, err)
	assert.Equal(t, "reinterpret_cast<cv::Mat*>(instance)->row(y)", method.NativeCall(recv, []string{"y"}))

	static, err := NewFunction(ctx, metadata.Decl{Name: "cv.Mat.eye", Spec: "Mat", Modifiers: []string{"/S"}})
	require.NoError(t, err)
	assert.Equal(t, "cv::Mat::eye()", static.NativeCall(recv, nil))

	free, err := NewFunction(ctx, metadata.Decl{Name: "cv.getTickCount", Spec: "int64"})
	require.NoError(t, err)
	assert.Equal(t, "cv::getTickCount()", free.NativeCall(nil, nil))
}

func TestAccessors(t *testing.T) {
	ctx := newTestContext(t)

	mat := ctx.Classes.Get("cv::Mat")
	fns := Accessors(ctx, mat)

	names := make([]string, 0, len(fns))
	for _, f := range fns {
		names = append(names, f.Identifier)
	}
	assert.Equal(t, []string{"cv_Mat_rows_get", "cv_Mat_rows_set", "cv_Mat_cols_get", "cv_Mat_dims_get"}, names,
		"setters only for read-write non-const properties")

	getter, setter := fns[0], fns[1]
	assert.Same(t, getter.Return, setter.Args[0].Type, "setter reuses the getter descriptor")
	assert.Equal(t, "reinterpret_cast<cv::Mat*>(instance)->rows = val",
		setter.NativeCall(ctx.Types.Resolve("cv::Mat"), []string{"val"}))

	assert.Empty(t, Accessors(ctx, ctx.Classes.Get("cv::Point")), "value records expose fields directly")
}

func TestConstant_Evaluate(t *testing.T) {
	ctx := newTestContext(t)

	consts := map[string]*Constant{}
	add := func(name string, value string) *Constant {
		c := NewConstant(ctx, metadata.Decl{Name: "const " + name, Spec: value})
		consts[c.FullName] = c
		return c
	}
	lookup := func(name string) *Constant {
		if c, ok := consts[name]; ok {
			return c
		}
		return consts["cv::"+name]
	}

	add("cv.BASE", "0x10 // base value")
	tests := []struct {
		name  string
		value string
		want  Evaluated
	}{
		{"string", `"4.1.0"`, Evaluated{Kind: StringValue, Value: `"4.1.0"`}},
		{"decimal", "-3", Evaluated{Kind: IntValue, Value: "-3"}},
		{"hex", "0x7fff", Evaluated{Kind: IntValue, Value: "0x7fff"}},
		{"shift", "(1 << 24)", Evaluated{Kind: IntValue, Value: "(1 << 24)"}},
		{"sum", "0 + 3", Evaluated{Kind: IntValue, Value: "0 + 3"}},
		{"line_comment", "7 // seven", Evaluated{Kind: IntValue, Value: "7", Doc: "seven"}},
		{"block_comment", "8 /** eight **/", Evaluated{Kind: IntValue, Value: "8", Doc: "eight"}},
		{"reference", "BASE", Evaluated{Kind: IntValue, Value: "0x10", Doc: "base value"}},
		{"complex", "CV_MAKETYPE(CV_8U, 3)", Evaluated{Kind: ComplexValue, Value: "CV_MAKETYPE(CV_8U, 3)"}},
		{"macro", "INT_MAX", Evaluated{Kind: ComplexValue, Value: "INT_MAX"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := add("cv."+tt.name, tt.value)
			got, err := c.Evaluate(lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	missing := add("cv.MISSING", "cv::NOT_DECLARED")
	_, err := missing.Evaluate(lookup)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConstNotFound))

	a := add("cv.A", "cv::B")
	add("cv.B", "cv::A")
	_, err = a.Evaluate(lookup)
	assert.True(t, errors.Is(err, errors.ErrConstNotFound))
}

func TestConstant_Names(t *testing.T) {
	ctx := newTestContext(t)

	c := NewConstant(ctx, metadata.Decl{Name: "const cv.Mat.AUTO_STEP", Spec: "0"})
	assert.Equal(t, "cv::Mat::AUTO_STEP", c.FullName)
	assert.Equal(t, "Mat_AUTO_STEP", c.GoName)
	assert.True(t, c.Nested())
}

func TestNewCallback(t *testing.T) {
	ctx := newTestContext(t)

	cb := NewCallback(ctx, metadata.Decl{
		Name: "callback cv.TrackbarCallback",
		Spec: "void",
		Args: []metadata.Arg{{Type: "int", Name: "pos"}, {Type: "void*", Name: "userdata"}},
	})
	require.False(t, cb.Ignored(), cb.IgnoreReason)
	assert.Len(t, cb.HostArgs(), 1)

	d := ctx.Types.Resolve("TrackbarCallback")
	assert.Equal(t, types.Callback, d.Kind)
	assert.Equal(t, "gocxx_TrackbarCallback_extern", d.CppExtern)

	rejected := NewCallback(ctx, metadata.Decl{
		Name: "callback cv.MatCallback",
		Spec: "void",
		Args: []metadata.Arg{{Type: "Mat", Name: "m"}, {Type: "void*", Name: "userdata"}},
	})
	assert.True(t, rejected.Ignored())
	assert.Nil(t, ctx.Classes.Get("cv::MatCallback"))

	noUserdata := NewCallback(ctx, metadata.Decl{
		Name: "callback cv.ErrorCallback",
		Spec: "int",
		Args: []metadata.Arg{{Type: "int", Name: "status"}},
	})
	assert.Equal(t, "no userdata argument", noUserdata.IgnoreReason)
}

func TestTypedef_Apply(t *testing.T) {
	ctx := newTestContext(t)

	td := NewTypedef(ctx, metadata.Decl{Name: "typedef cv.Point2i", Spec: "Point"})
	assert.True(t, td.Apply(ctx.Types))
	assert.Equal(t, types.ValueRecord, ctx.Types.Resolve("Point2i").Kind)

	shadow := NewTypedef(ctx, metadata.Decl{Name: "typedef cv.Mat", Spec: "Point"})
	assert.False(t, shadow.Apply(ctx.Types), "resolved names are never aliased")
	assert.Equal(t, types.Handle, ctx.Types.Resolve("Mat").Kind)
}
