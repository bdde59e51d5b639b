package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReport_String(t *testing.T) {
	r := &Report{Module: "core", Classes: 2, Constants: 3, Callbacks: 1}
	r.port("cv::add(int, int)", "Add")
	r.skip("cv::Mat::ptr()", "unsupported return type uchar*")
	r.IgnoredClasses = append(r.IgnoredClasses, Skipped{What: "cv::MatExpr", Reason: "hidden"})
	r.DumpedConstants = append(r.DumpedConstants, "cv::CV_8UC3")
	r.Shims = append(r.Shims, "VectorOfint")

	want := "FOUND FUNCS: 2\n" +
		"PORTED FUNCS: 1\n" +
		"PORTED: cv::add(int, int) -> Add\n" +
		"SKIPPED FUNCS: 1\n" +
		"SKIPPED: cv::Mat::ptr()\n   unsupported return type uchar*\n" +
		"\nCLASSES: 2\n" +
		"IGNORED CLASSES: 1\n" +
		"SKIPPED: cv::MatExpr\n   hidden\n" +
		"\nCONSTS: 3\n" +
		"DUMPED CONSTS: 1\n" +
		"DUMPED: cv::CV_8UC3\n" +
		"IGNORED CONSTS: 0\n" +
		"\nCALLBACKS: 1\n" +
		"IGNORED CALLBACKS: 0\n" +
		"\nSHIMS: 1\n" +
		"SHIM: VectorOfint\n"
	assert.Equal(t, want, r.String())
}

func TestReport_Counts(t *testing.T) {
	r := &Report{}
	r.port("a", "A")
	r.port("b", "B")
	r.skip("c", "unsupported")

	assert.Equal(t, 3, r.Found)
	assert.Len(t, r.Ported, 2)
	assert.Equal(t, []Skipped{{What: "c", Reason: "unsupported"}}, r.Skipped)
}
