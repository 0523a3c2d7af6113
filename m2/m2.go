package m2

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultRepo returns the conventional local repository location,
// ~/.m2/repository.
func DefaultRepo() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".m2", "repository"), nil
}

// ScanJars walks root and collects every .jar file below it. Unreadable
// entries are skipped; a missing root yields an empty result.
func ScanJars(root string) []string {
	var jars []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".jar") {
			jars = append(jars, path)
		}
		return nil
	})
	return jars
}

// InferScanPath maps a fully qualified class name to the deepest existing
// package-prefix directory under the repository root. The last two name
// segments never form a group id, so probing starts at len-2 and stops at
// two segments; when nothing matches the whole repository is the answer.
func InferScanPath(repo, fqn string) string {
	parts := strings.Split(fqn, ".")
	if len(parts) < 3 {
		return repo
	}
	for k := len(parts) - 2; k >= 2; k-- {
		dir := filepath.Join(repo, filepath.Join(parts[:k]...))
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
	}
	return repo
}

// InferSearchPaths lists candidate scan roots for a class, deepest
// package prefix first. A name with no matching prefix directory, or one
// too short to carry a group id, gets the repository root itself.
func InferSearchPaths(repo, fqn string) []string {
	parts := strings.Split(fqn, ".")
	if len(parts) < 3 {
		return []string{repo}
	}
	var paths []string
	for k := len(parts) - 2; k >= 2; k-- {
		dir := filepath.Join(repo, filepath.Join(parts[:k]...))
		if _, err := os.Stat(dir); err == nil {
			paths = append(paths, dir)
		}
	}
	if len(paths) == 0 {
		return []string{repo}
	}
	return paths
}

// ClassPath converts a fully qualified class name to the entry path its
// compiled form has inside an archive.
func ClassPath(fqn string) string {
	return strings.ReplaceAll(fqn, ".", "/") + ".class"
}

// GroupPath resolves a dotted group id to its directory under the repository.
func GroupPath(repo, group string) string {
	return filepath.Join(repo, strings.ReplaceAll(group, ".", "/"))
}

// VersionFromPath extracts the version segment from a repository-layout jar
// path, which is the name of the directory holding the jar.
func VersionFromPath(jarPath string) string {
	v := filepath.Base(filepath.Dir(jarPath))
	if v == "." || v == string(filepath.Separator) {
		return ""
	}
	return v
}
