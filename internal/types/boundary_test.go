package types

import (
	"fmt"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(c jen.Code) string {
	return fmt.Sprintf("%#v", c)
}

func renderAll(codes []jen.Code) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, render(c))
	}
	return out
}

func TestNative_Params(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		sig   string
		out   bool
		param string
		call  string
	}{
		{"int", false, "int x", "x"},
		{"int&", false, "int* x", "*x"},
		{"const int&", false, "int x", "x"},
		{"double", true, "double* x", "*x"},
		{"String", false, "const char* x", "std::string(x)"},
		{"String&", true, "char** x", "x_out"},
		{"const char*", false, "const char* x", "x"},
		{"Point", false, "gocxx_Point x", "*reinterpret_cast<cv::Point*>(&x)"},
		{"Point&", false, "gocxx_Point* x", "*reinterpret_cast<cv::Point*>(x)"},
		{"const Mat&", false, "void* x", "*reinterpret_cast<cv::Mat*>(x)"},
		{"vector<int>", false, "void* x", "*reinterpret_cast<std::vector<int>*>(x)"},
		{"MouseCallback", false, "gocxx_MouseCallback_extern x", "x"},
		{"void*", false, "void* x", "x"},
		{"float*", false, "float* x", "reinterpret_cast<float*>(x)"},
		{"Mat*", false, "void* x", "reinterpret_cast<cv::Mat*>(x)"},
	}

	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			d := r.Resolve(tt.sig)
			assert.Equal(t, tt.param, d.NativeParam("x", tt.out))
			assert.Equal(t, tt.call, d.NativeCallArg("x", tt.out))
		})
	}
}

func TestNative_TextOutputStaging(t *testing.T) {
	r := newTestRegistry(t)
	d := r.Resolve("String&")

	assert.Equal(t, "std::string name_out;", d.NativePreCall("name", true))
	assert.Equal(t, "*name = strdup(name_out.c_str());", d.NativePostCall("name", true))
	assert.Empty(t, d.NativePreCall("name", false))
}

func TestNative_Return(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t,
		[]string{"cv::foo();", "return { 0, NULL };"},
		r.Resolve("void").NativeReturn("cv::foo()", false))
	assert.Equal(t,
		[]string{"int ret = cv::foo();", "return { 0, NULL, ret };"},
		r.Resolve("int").NativeReturn("cv::foo()", false))
	assert.Equal(t,
		[]string{"std::string ret = cv::foo();", "return { 0, NULL, strdup(ret.c_str()) };"},
		r.Resolve("String").NativeReturn("cv::foo()", false))
	assert.Equal(t,
		[]string{"cv::Mat ret = cv::foo();", "return { 0, NULL, new cv::Mat(ret) };"},
		r.Resolve("Mat").NativeReturn("cv::foo()", false))
	assert.Equal(t,
		[]string{"cv::Mat* ret = new cv::Mat(rows, cols);", "return { 0, NULL, ret };"},
		r.Resolve("Mat").NativeReturn("cv::Mat(rows, cols)", true))
	assert.Equal(t,
		[]string{"cv::Point ret = cv::foo();", "return { 0, NULL, *reinterpret_cast<gocxx_Point*>(&ret) };"},
		r.Resolve("Point").NativeReturn("cv::foo()", false))
	assert.Equal(t,
		[]string{
			"cv::Mat* ret = cv::foo();",
			"if (ret == NULL) return { 0, NULL, NULL };",
			"return { 0, NULL, new cv::Mat(*ret) };",
		},
		r.Resolve("Mat*").NativeReturn("cv::foo()", false))
}

func TestNative_ResultField(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t, "", r.Resolve("void").ResultField())
	assert.Equal(t, "int", r.Resolve("int").ResultField())
	assert.Equal(t, "char*", r.Resolve("String").ResultField())
	assert.Equal(t, "char*", r.Resolve("const char*").ResultField())
	assert.Equal(t, "gocxx_Point", r.Resolve("Point").ResultField())
	assert.Equal(t, "void*", r.Resolve("Ptr<Feature2D>").ResultField())
}

func TestNative_UnresolvedPanics(t *testing.T) {
	r := newTestRegistry(t)
	assert.Panics(t, func() { r.Resolve("int**").NativeParam("x", false) })
}

func TestHost_Params(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		sig     string
		out     bool
		param   string
		abi     string
		callArg string
	}{
		{"int", false, "int32", "C.int", "C.int(x)"},
		{"int&", false, "*int32", "*C.int", "(*C.int)(unsafe.Pointer(x))"},
		{"bool", false, "bool", "C.bool", "C.bool(x)"},
		{"String", false, "string", "*C.char", "xC"},
		{"String&", true, "*string", "**C.char", "&xOut"},
		{"Point", false, "Point", "C.gocxx_Point", "*(*C.gocxx_Point)(unsafe.Pointer(&x))"},
		{"Mat", false, "*Mat", "unsafe.Pointer", "x.AsRawMat()"},
		{"const Algorithm&", false, "Algorithm", "unsafe.Pointer", "x.AsRawAlgorithm()"},
		{"vector<int>", false, "*VectorOfInt32", "unsafe.Pointer", "x.AsRawVectorOfInt32()"},
		{"MouseCallback", false, "MouseCallback", "C.gocxx_MouseCallback_extern", "xFn"},
		{"void*", false, "unsafe.Pointer", "unsafe.Pointer", "x"},
		{"float*", false, "*float32", "*C.float", "(*C.float)(unsafe.Pointer(x))"},
	}

	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			d := r.Resolve(tt.sig)
			assert.Equal(t, tt.param, render(d.HostParamType(tt.out)))
			assert.Equal(t, tt.abi, render(d.HostABIType(tt.out)))
			assert.Equal(t, tt.callArg, render(d.HostCallArg("x", tt.out)))
		})
	}
}

func TestHost_Receive(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t, []string{"return nil"}, renderAll(r.Resolve("void").HostReceive("rv")))
	assert.Equal(t, []string{"return int32(rv.result), nil"}, renderAll(r.Resolve("int").HostReceive("rv")))

	mat := renderAll(r.Resolve("Mat").HostReceive("rv"))
	assert.Len(t, mat, 2)
	assert.Contains(t, mat[0], "bindrt.ErrNullResult")
	assert.Equal(t, "return newMat(rv.result), nil", mat[1])

	text := renderAll(r.Resolve("String").HostReceive("rv"))
	assert.Equal(t, []string{"return bindrt.ReceiveString(unsafe.Pointer(rv.result), cFree), nil"}, text)
}

func TestHost_OutputText(t *testing.T) {
	r := newTestRegistry(t)
	d := r.Resolve("String&")

	assert.Empty(t, d.HostPostCall("x", true), "output text is not received before the call is checked")
	received := renderAll(d.HostReceiveOut("x", true))
	require.Len(t, received, 1)
	assert.Contains(t, received[0], "ReceiveStringInto(x, unsafe.Pointer(xOut), cFree)")

	assert.Empty(t, d.HostReceiveOut("x", false))
	assert.Empty(t, r.Resolve("const char*").HostReceiveOut("x", true))
	assert.Empty(t, r.Resolve("int&").HostReceiveOut("x", true))
}

func TestHost_Zero(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t, "0", render(r.Resolve("double").HostZero()))
	assert.Equal(t, "false", render(r.Resolve("bool").HostZero()))
	assert.Equal(t, `""`, render(r.Resolve("String").HostZero()))
	assert.Equal(t, "Point{}", render(r.Resolve("Point").HostZero()))
	assert.Equal(t, "nil", render(r.Resolve("Mat").HostZero()))
}

func TestHost_CallbackCompatible(t *testing.T) {
	r := newTestRegistry(t)

	assert.True(t, r.Resolve("int").CallbackCompatible())
	assert.True(t, r.Resolve("void*").CallbackCompatible())
	assert.True(t, r.Resolve("const char*").CallbackCompatible())
	assert.False(t, r.Resolve("Mat").CallbackCompatible())
	assert.False(t, r.Resolve("String").CallbackCompatible())
}
