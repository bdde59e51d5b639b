package generation

import (
	"bytes"
	"embed"
	"text/template"

	"gocxx/internal"
	"gocxx/internal/errors"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

var templates = parseTemplates()

func parseTemplates() *template.Template {
	t, err := template.New("gocxx").Option("missingkey=error").ParseFS(templateFiles, "templates/*.tmpl")
	internal.PanicOnError(err)
	return t
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
		return nil, errors.Wrapf(err, "render %s", name)
	}
	return buf.Bytes(), nil
}

// renderManual expands a manual override text over the function keys.
// Referencing a key that does not exist is a configuration error.
func renderManual(identifier string, slot string, text string, keys map[string]string) (string, error) {
	t, err := template.New(identifier).Option("missingkey=error").Parse(text)
	if err == nil {
		var buf bytes.Buffer
		if err = t.Execute(&buf, keys); err == nil {
			return buf.String(), nil
		}
	}
	return "", errors.WithHintf(
		errors.Wrapf(errors.ErrInvalidConfig, "func_manual %s: %s slot: %v", identifier, slot, err),
		"available keys: Identifier, Name, FullName, GoName, Symbol, SysName, Envelope, Prefix, Module, Params",
	)
}
