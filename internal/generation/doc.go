package generation

import (
	"regexp"
	"strings"

	"github.com/dave/jennifer/jen"
)

var docTagRe = regexp.MustCompile(`^[@\\](\w+)\s*(.*)$`)

// reformatDoc turns a doxygen comment into Go doc text. The summary line
// goes first; defaults and notes are appended as their own paragraphs.
func reformatDoc(summary string, native string, defaults []string, notes []string) string {
	paragraphs := []string{summary}

	var body []string
	params := false
	code := false
	for _, line := range strings.Split(native, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "*"), "/"))

		m := docTagRe.FindStringSubmatch(line)
		if m == nil {
			if code {
				body = append(body, "\t"+line)
			} else {
				body = append(body, line)
			}
			continue
		}

		tag, rest := m[1], m[2]
		switch tag {
		case "brief":
			body = append(body, rest)
		case "param":
			if !params {
				body = append(body, "", "Parameters:")
				params = true
			}
			name, text, _ := strings.Cut(rest, " ")
			body = append(body, "  - "+name+": "+strings.TrimSpace(text))
		case "return", "returns":
			body = append(body, "", "Returns "+rest)
		case "note":
			body = append(body, "", "Note: "+rest)
		case "sa", "see":
			body = append(body, "", "See also: "+rest)
		case "code":
			code = true
			body = append(body, "")
		case "endcode":
			code = false
			body = append(body, "")
		case "overload", "ingroup", "defgroup", "addtogroup", "{", "}":
		default:
			body = append(body, rest)
		}
	}
	if text := collapseBlank(body); text != "" {
		paragraphs = append(paragraphs, text)
	}

	if len(defaults) > 0 {
		lines := []string{"Default arguments:"}
		for _, d := range defaults {
			lines = append(lines, "  - "+d)
		}
		paragraphs = append(paragraphs, strings.Join(lines, "\n"))
	}
	paragraphs = append(paragraphs, notes...)
	return strings.Join(paragraphs, "\n\n")
}

func collapseBlank(lines []string) string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " ")
		if line == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// docComment renders text as "//" line comments.
func docComment(text string) *jen.Statement {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = "//"
		} else {
			lines[i] = "// " + line
		}
	}
	return jen.Comment(strings.Join(lines, "\n")).Line()
}
