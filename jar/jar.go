package jar

import (
	"archive/zip"
	"fmt"
	"slices"
	"strings"
)

// Catalog lists the fully qualified names of the top-level classes in an
// archive. Nested classes ($-separated) and non-class entries are skipped.
func Catalog(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open jar %s: %w", path, err)
	}
	defer r.Close()

	var classes []string
	for _, f := range r.File {
		name := f.Name
		if !strings.HasSuffix(name, ".class") || strings.Contains(name, "$") {
			continue
		}
		fqn := strings.TrimSuffix(name, ".class")
		fqn = strings.ReplaceAll(fqn, "\\", "/")
		classes = append(classes, strings.ReplaceAll(fqn, "/", "."))
	}
	return classes, nil
}

// ContainsClass reports whether the archive has an entry at classPath
// (slash-separated, ".class" suffix included).
func ContainsClass(path, classPath string) (bool, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false, fmt.Errorf("open jar %s: %w", path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == classPath {
			return true, nil
		}
	}
	return false, nil
}

// FindClassFQNs returns the fully qualified names of the archive's top-level
// classes whose simple name matches, sorted and deduplicated. Classes at the
// archive root (no package) never match.
func FindClassFQNs(path, simpleName string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open jar %s: %w", path, err)
	}
	defer r.Close()

	suffix := "/" + simpleName + ".class"
	var fqns []string
	for _, f := range r.File {
		name := f.Name
		if !strings.HasSuffix(name, ".class") || strings.Contains(name, "$") {
			continue
		}
		if strings.HasSuffix(name, suffix) {
			fqns = append(fqns, strings.ReplaceAll(strings.TrimSuffix(name, ".class"), "/", "."))
		}
	}
	slices.Sort(fqns)
	return slices.Compact(fqns), nil
}
