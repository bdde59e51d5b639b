package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocxx/internal/classes"
	"gocxx/internal/config"
	"gocxx/internal/metadata"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	cls := classes.NewRegistry(nil)
	decls := []metadata.Decl{
		{Name: "class cv.Mat"},
		{Name: "class cv.Algorithm"},
		{Name: "class cv.Feature2D", Spec: ": cv::Algorithm"},
		{Name: "struct cv.Point", Modifiers: []string{"/Simple"}},
		{Name: "class cv.MouseCallback", Modifiers: []string{"/Ghost", "/Callback"}},
		{Name: "class cv.Secret", Modifiers: []string{"/Hidden"}},
	}
	for _, d := range decls {
		cls.Register(classes.FromDecl(d, "core", []string{"cv"}))
	}
	cls.Finalize()

	return NewRegistry(cls, config.Defaults(), nil)
}

func TestResolve_Identity(t *testing.T) {
	r := newTestRegistry(t)

	for _, sig := range []string{"int", "const cv::Point&", "vector<int>", "Mat", "double"} {
		t.Run(sig, func(t *testing.T) {
			first := r.Resolve(sig)
			second := r.Resolve(sig)
			assert.Same(t, first, second)
			assert.Equal(t, *first, *r.Resolve(" "+sig+" "))
		})
	}
}

func TestResolve_Kinds(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		sig  string
		kind Kind
	}{
		{"int", Primitive},
		{"const int&", Primitive},
		{"void", Primitive},
		{"", Primitive},
		{"String", Text},
		{"std::string", Text},
		{"cv::String", Text},
		{"const char*", Text},
		{"char*", Text},
		{"Point", ValueRecord},
		{"cv::Point", ValueRecord},
		{"Mat", Handle},
		{"const Mat&", Handle},
		{"Ptr<Feature2D>", SharedHandle},
		{"cv::Ptr<cv::Algorithm>", SharedHandle},
		{"std::shared_ptr<int>", SharedHandle},
		{"vector<int>", Collection},
		{"std::vector<cv::Point>", Collection},
		{"vector<vector<int>>", Collection},
		{"vector<String>", Collection},
		{"vector_Point", Collection},
		{"MouseCallback", Callback},
		{"void*", RawReference},
		{"float*", RawReference},
		{"Mat*", RawReference},
		{"int**", Unresolved},
		{"char**", Unresolved},
		{"vector<int*>", Unresolved},
		{"vector<const char*>", Unresolved},
		{"vector<Unknown>", Unresolved},
		{"vector<Algorithm>", Unresolved},
		{"Ptr<Unknown>", Unresolved},
		{"Ptr<vector<int>>", Unresolved},
		{"Secret", Unresolved},
		{"Unknown", Unresolved},
		{"InputArray", Handle},
		{"OutputArrayOfArrays", Collection},
	}

	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			d := r.Resolve(tt.sig)
			assert.Equal(t, tt.kind, d.Kind, d.String())
		})
	}
}

func TestResolve_NestedCollection(t *testing.T) {
	r := newTestRegistry(t)

	d := r.Resolve("vector<vector<int>>")
	require.True(t, d.Supported())
	require.NotNil(t, d.Inner)
	assert.Equal(t, Collection, d.Inner.Kind)
	assert.Equal(t, Primitive, d.Inner.Inner.Kind)

	assert.Equal(t, "VectorOfVectorOfint", d.SafeID)
	assert.Equal(t, "VectorOfVectorOfInt32", d.GoName)
	assert.Equal(t, "std::vector<std::vector<int>>", d.CppType)
	assert.Same(t, d.Inner, r.Resolve("vector<int>"))
}

func TestResolve_DoublePointer(t *testing.T) {
	r := newTestRegistry(t)

	d := r.Resolve("int**")
	assert.False(t, d.Supported())
	assert.Equal(t, "pointer to pointer", d.Reason)
}

func TestResolve_Rewrite(t *testing.T) {
	r := newTestRegistry(t)

	assert.Same(t, r.Resolve("cv::Mat"), r.Resolve("InputArray"))
	assert.Same(t, r.Resolve("const cv::Mat&"), r.Resolve("const InputArray&"))
}

func TestResolve_Names(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		sig       string
		cppType   string
		cppExtern string
		safeID    string
		goName    string
	}{
		{"uchar", "uchar", "unsigned char", "uchar", "uint8"},
		{"Point", "cv::Point", "gocxx_Point", "Point", "Point"},
		{"Mat", "cv::Mat", "void*", "Mat", "Mat"},
		{"Ptr<Feature2D>", "cv::Ptr<cv::Feature2D>", "void*", "PtrOfFeature2D", "PtrOfFeature2D"},
		{"std::shared_ptr<float>", "std::shared_ptr<float>", "void*", "PtrOffloat", "PtrOfFloat32"},
		{"const char*", "const char*", "const char*", "const_char_X", "string"},
		{"float*", "float*", "float*", "float_X", ""},
		{"const Point*", "const cv::Point*", "const gocxx_Point*", "const_Point_X", ""},
		{"Mat*", "cv::Mat", "void*", "Mat", "Mat"},
		{"MouseCallback", "cv::MouseCallback", "gocxx_MouseCallback_extern", "MouseCallback", "MouseCallback"},
	}

	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			d := r.Resolve(tt.sig)
			require.True(t, d.Supported(), d.String())
			assert.Equal(t, tt.cppType, d.CppType)
			assert.Equal(t, tt.cppExtern, d.CppExtern)
			assert.Equal(t, tt.safeID, d.SafeID)
			assert.Equal(t, tt.goName, d.GoName)
		})
	}
}

func TestDescriptor_OwnershipInvariant(t *testing.T) {
	r := newTestRegistry(t)

	for _, sig := range []string{
		"int", "bool", "String", "const char*", "Point", "Mat", "Ptr<Feature2D>",
		"vector<Point>", "MouseCallback", "void*", "float*", "Mat*", "const Mat&",
	} {
		d := r.Resolve(sig)
		require.True(t, d.Supported(), sig)
		assert.NotEqual(t, d.ByPointer(), d.CopyEligible(), sig)
	}

	assert.True(t, r.Resolve("Mat").ByPointer())
	assert.True(t, r.Resolve("Mat*").ByPointer())
	assert.True(t, r.Resolve("Point").CopyEligible())
}

func TestDescriptor_Interface(t *testing.T) {
	r := newTestRegistry(t)

	assert.True(t, r.Resolve("Algorithm").IsInterface())
	assert.False(t, r.Resolve("Feature2D").IsInterface(), "deriving from a base does not make a class an interface")
	assert.False(t, r.Resolve("Mat").IsInterface())
	assert.False(t, r.Resolve("Ptr<Feature2D>").IsInterface())
}

func TestDescriptor_InterfaceTransitive(t *testing.T) {
	cls := classes.NewRegistry(nil)
	for _, d := range []metadata.Decl{
		{Name: "class cv.ORB", Spec: ": cv::Feature2D"},
		{Name: "class cv.Feature2D", Spec: ": cv::Algorithm"},
		{Name: "class cv.Algorithm"},
	} {
		cls.Register(classes.FromDecl(d, "features2d", []string{"cv"}))
	}
	cls.Finalize()
	r := NewRegistry(cls, config.Defaults(), nil)

	assert.True(t, r.Resolve("Algorithm").IsInterface())
	assert.True(t, r.Resolve("Feature2D").IsInterface(), "a base of another class is an interface")
	assert.False(t, r.Resolve("ORB").IsInterface())
}

func TestDescriptor_HasData(t *testing.T) {
	r := newTestRegistry(t)

	assert.True(t, r.Resolve("vector<int>").HasData())
	assert.True(t, r.Resolve("vector<Point>").HasData())
	assert.False(t, r.Resolve("vector<bool>").HasData())
	assert.False(t, r.Resolve("vector<Mat>").HasData())
	assert.False(t, r.Resolve("vector<String>").HasData())
}

func TestRegistry_Alias(t *testing.T) {
	r := newTestRegistry(t)

	assert.True(t, r.Alias("Point2i", "cv::Point"))
	assert.Same(t, r.Resolve("cv::Point"), r.Resolve("Point2i"))

	// only unresolved names are aliased
	assert.False(t, r.Alias("Mat", "cv::Point"))
	assert.Equal(t, Handle, r.Resolve("Mat").Kind)

	// never to an unresolved target
	assert.False(t, r.Alias("Size2l", "Size_<int64>"))
}

func TestRegistry_Shims(t *testing.T) {
	r := newTestRegistry(t)

	r.Resolve("vector<int>")
	r.Resolve("std::vector<int>")
	r.Resolve("const vector<int>&")
	r.Resolve("Ptr<Feature2D>")
	r.Resolve("vector<vector<Point>>")
	r.Resolve("vector<Unknown>")

	ids := make([]string, 0)
	for _, d := range r.Shims() {
		ids = append(ids, d.SafeID)
	}
	assert.Equal(t, []string{"PtrOfFeature2D", "VectorOfPoint", "VectorOfVectorOfPoint", "VectorOfint"}, ids)
}

func TestDescriptor_EnvelopeName(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t, "gocxx_return_value_void", r.Resolve("void").EnvelopeName())
	assert.Equal(t, "gocxx_return_value_int", r.Resolve("int").EnvelopeName())
	assert.Equal(t, "gocxx_return_value_void_X", r.Resolve("Mat").EnvelopeName())
	assert.Equal(t, "gocxx_return_value_char_X", r.Resolve("String").EnvelopeName())
	assert.Equal(t, "gocxx_return_value_gocxx_Point", r.Resolve("Point").EnvelopeName())
	assert.Equal(t, "gocxx_VectorOfint_push_back", r.Resolve("vector<int>").ShimSymbol("push_back"))
}
