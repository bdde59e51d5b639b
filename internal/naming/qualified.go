package naming

import (
	"sort"
	"strings"
)

// QualifiedName is a dotted declaration name split against the known namespaces.
type QualifiedName struct {
	Namespace string
	ClassPath string
	Name      string
}

// ParseName splits "cv.CascadeClassifier.detectMultiScale" into namespace "cv",
// class path "CascadeClassifier" and name "detectMultiScale". A leading
// "class " or "struct " keyword is dropped. The longest matching namespace wins.
func ParseName(decl string, namespaces []string) QualifiedName {
	decl = strings.TrimSpace(decl)
	if i := strings.Index(decl, " "); i >= 0 {
		decl = strings.TrimSpace(decl[i+1:])
	}

	sorted := append([]string(nil), namespaces...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	var q QualifiedName
	local := decl
	for _, ns := range sorted {
		if strings.HasPrefix(decl, ns+".") {
			q.Namespace = ns
			local = decl[len(ns)+1:]
			break
		}
	}

	pieces := strings.Split(local, ".")
	q.Name = pieces[len(pieces)-1]
	q.ClassPath = strings.Join(pieces[:len(pieces)-1], "::")
	return q
}

// ClassName is the "::" qualified owning class, empty for free functions.
func (q QualifiedName) ClassName() string {
	if q.ClassPath == "" {
		return ""
	}
	return joinScoped(strings.ReplaceAll(q.Namespace, ".", "::"), q.ClassPath)
}

// FullName is the "::" qualified name.
func (q QualifiedName) FullName() string {
	ns := strings.ReplaceAll(q.Namespace, ".", "::")
	return joinScoped(joinScoped(ns, q.ClassPath), q.Name)
}

// Local is the name without its namespace, "::" replaced by "_".
func (q QualifiedName) Local() string {
	return strings.ReplaceAll(joinScoped(q.ClassPath, q.Name), "::", "_")
}

func joinScoped(a string, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "::" + b
}
