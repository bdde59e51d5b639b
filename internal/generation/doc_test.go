package generation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReformatDoc(t *testing.T) {
	tests := []struct {
		name     string
		summary  string
		native   string
		defaults []string
		notes    []string
		want     string
	}{
		{
			name:    "summary only",
			summary: "Add wraps cv::add.",
			want:    "Add wraps cv::add.",
		},
		{
			name:    "doxygen tags",
			summary: "Add wraps cv::add.",
			native: "@brief Calculates the per-element sum.\n" +
				"* @param a first input\n" +
				"* @param b second input\n" +
				"* @return the sum\n" +
				"@overload",
			want: "Add wraps cv::add.\n\n" +
				"Calculates the per-element sum.\n\n" +
				"Parameters:\n  - a: first input\n  - b: second input\n\n" +
				"Returns the sum",
		},
		{
			name:    "notes and references",
			summary: "Blur wraps cv::blur.",
			native:  "Smooths an image.\n\\note The kernel is normalized.\n@sa boxFilter",
			want: "Blur wraps cv::blur.\n\n" +
				"Smooths an image.\n\nNote: The kernel is normalized.\n\nSee also: boxFilter",
		},
		{
			name:    "code block",
			summary: "Mat wraps cv::Mat.",
			native:  "Example:\n@code\nMat m;\n@endcode",
			want:    "Mat wraps cv::Mat.\n\nExample:\n\n\tMat m;",
		},
		{
			name:     "defaults and notes",
			summary:  "Blur wraps cv::blur.",
			defaults: []string{"anchor: Point(-1,-1)", "borderType: BORDER_DEFAULT"},
			notes:    []string{"Use BlurDef to apply the default arguments."},
			want: "Blur wraps cv::blur.\n\n" +
				"Default arguments:\n  - anchor: Point(-1,-1)\n  - borderType: BORDER_DEFAULT\n\n" +
				"Use BlurDef to apply the default arguments.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reformatDoc(tt.summary, tt.native, tt.defaults, tt.notes))
		})
	}
}

func TestDocComment(t *testing.T) {
	rendered := fmt.Sprintf("%#v", docComment("Mat wraps cv::Mat.\n\nExample:"))
	assert.Contains(t, rendered, "// Mat wraps cv::Mat.\n//\n// Example:")
}

func TestPascalTail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"_with_size", "WithSize"},
		{"_1", "_1"},
		{"_def", "Def"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, pascalTail(tt.input))
		})
	}
}
