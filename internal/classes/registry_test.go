package classes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocxx/internal/metadata"
)

var namespaces = []string{"cv"}

func class(name string, bases string, modifiers ...string) *Class {
	return FromDecl(metadata.Decl{Name: "class " + name, Spec: bases, Modifiers: modifiers}, "core", namespaces)
}

func TestFromDecl(t *testing.T) {
	c := FromDecl(metadata.Decl{
		Name:      "class cv.CascadeClassifier",
		Spec:      ": cv::Algorithm, cv::CascadeClassifier, cv::Algorithm",
		Modifiers: []string{"/Ghost"},
		Args: []metadata.Arg{
			{Type: "int", Name: "minNeighbors", Default: "doc", Modifiers: []string{"/RW"}},
			{Type: "Size", Name: "origWinSize", Modifiers: []string{"/C"}},
		},
	}, "objdetect", namespaces)

	assert.Equal(t, "cv::CascadeClassifier", c.FullName)
	assert.Equal(t, []string{"cv::Algorithm"}, c.Bases, "self and duplicate bases are dropped")
	assert.True(t, c.Ghost)
	require.Len(t, c.Props, 2)
	assert.True(t, c.Props[0].ReadWrite)
	assert.Equal(t, "doc", c.Props[0].Doc)
	assert.Equal(t, "const Size", c.Props[1].Type)
}

func TestFromDecl_ValueRecord(t *testing.T) {
	c := class("cv.Point", "", "/Simple")
	assert.True(t, c.ValueRecord)

	c.ForceInterface()
	assert.False(t, c.Interface(), "value records never become interfaces")
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(class("cv.Mat", ""))
	r.Register(class("cv.cuda.GpuMat", ""))

	require.NotNil(t, r.Get("cv::Mat"))
	require.NotNil(t, r.Get("Mat"), "suffix lookup")
	assert.Equal(t, "cv::Mat", r.Get("cv.Mat").FullName)
	assert.Equal(t, "cv::cuda::GpuMat", r.Get("cuda::GpuMat").FullName)
	assert.Nil(t, r.Get("UMat"))
}

func TestRegistry_InterfacePropagation(t *testing.T) {
	tests := []struct {
		name  string
		order []*Class
	}{
		{
			name: "bases first",
			order: []*Class{
				class("cv.Algorithm", ""),
				class("cv.Feature2D", ": cv::Algorithm"),
				class("cv.ORB", ": cv::Feature2D"),
			},
		},
		{
			name: "subclasses first",
			order: []*Class{
				class("cv.ORB", ": cv::Feature2D"),
				class("cv.Feature2D", ": cv::Algorithm"),
				class("cv.Algorithm", ""),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(nil)
			for _, c := range tt.order {
				r.Register(c)
			}
			r.Finalize()

			assert.True(t, r.Get("cv::Algorithm").Interface())
			assert.True(t, r.Get("cv::Feature2D").Interface())
			assert.False(t, r.Get("cv::ORB").Interface(), "leaf classes stay concrete")
		})
	}
}

func TestRegistry_MarkInterfaceIsTransitive(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(class("cv.A", ""))
	r.Register(class("cv.B", ": cv::A"))
	r.Register(class("cv.C", ": cv::B"))
	r.Register(class("cv.D", ": cv::C"))

	r.MarkInterface(r.Get("cv::D"))
	for _, name := range []string{"cv::A", "cv::B", "cv::C", "cv::D"} {
		assert.True(t, r.Get(name).Interface(), name)
	}
}

func TestRegistry_AllBases(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(class("cv.Algorithm", ""))
	r.Register(class("cv.Feature2D", ": cv::Algorithm"))
	hidden := class("cv.Hidden", "", "/Hidden")
	r.Register(hidden)
	r.Register(class("cv.ORB", ": cv::Feature2D, cv::Hidden, cv::Unknown"))

	bases := r.AllBases(r.Get("cv::ORB"))
	names := make([]string, 0, len(bases))
	for _, b := range bases {
		names = append(names, b.FullName)
	}
	assert.Equal(t, []string{"cv::Algorithm", "cv::Feature2D"}, names)
}

func TestRegistry_NestedInIgnoredClass(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(class("cv.Outer", "", "/Hidden"))
	inner := class("cv.Outer.Inner", "")
	r.Register(inner)

	assert.True(t, inner.Ignored)
	assert.Contains(t, inner.IgnoreReason, "cv::Outer")
}
