package m2

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testrepo(t *testing.T) (string, func()) {
	dir := "m2repo-test"
	os.RemoveAll(dir)
	err := os.MkdirAll(dir, 0o755)
	assert.Nil(t, err)
	return dir, func() { os.RemoveAll(dir) }
}

func TestScanJars(t *testing.T) {
	repo, cancel := testrepo(t)
	defer cancel()

	deep := filepath.Join(repo, "com", "acme", "widget", "1.0")
	assert.Nil(t, os.MkdirAll(deep, 0o755))
	jar := filepath.Join(deep, "widget-1.0.jar")
	assert.Nil(t, os.WriteFile(jar, []byte("zip"), 0o644))
	assert.Nil(t, os.WriteFile(filepath.Join(deep, "widget-1.0.pom"), []byte("xml"), 0o644))

	jars := ScanJars(repo)
	assert.Equal(t, []string{jar}, jars)

	assert.Empty(t, ScanJars(filepath.Join(repo, "no-such-dir")))
}

func TestInferScanPath(t *testing.T) {
	repo, cancel := testrepo(t)
	defer cancel()

	assert.Nil(t, os.MkdirAll(filepath.Join(repo, "com", "google", "common"), 0o755))

	dir := InferScanPath(repo, "com.google.common.collect.Lists")
	assert.Equal(t, filepath.Join(repo, "com", "google", "common"), dir)

	// names too short to carry a group id fall back to the repository
	assert.Equal(t, repo, InferScanPath(repo, "com.Lists"))

	assert.Equal(t, repo, InferScanPath(repo, "org.unknown.pkg.Thing"))
}

func TestInferSearchPaths(t *testing.T) {
	repo, cancel := testrepo(t)
	defer cancel()

	assert.Nil(t, os.MkdirAll(filepath.Join(repo, "com", "google", "common"), 0o755))

	paths := InferSearchPaths(repo, "com.google.common.collect.Lists")
	assert.Equal(t, []string{
		filepath.Join(repo, "com", "google", "common"),
		filepath.Join(repo, "com", "google"),
	}, paths)

	assert.Equal(t, []string{repo}, InferSearchPaths(repo, "org.unknown.pkg.Thing"))
	assert.Equal(t, []string{repo}, InferSearchPaths(repo, "Lists"))
}

func TestClassAndGroupPaths(t *testing.T) {
	assert.Equal(t, "com/acme/widget/Widget.class", ClassPath("com.acme.widget.Widget"))
	assert.Equal(t, filepath.Join("repo", "com", "acme"), GroupPath("repo", "com.acme"))
}

func TestVersionFromPath(t *testing.T) {
	p := filepath.Join("repo", "com", "acme", "widget", "1.0-rc1", "widget-1.0-rc1.jar")
	assert.Equal(t, "1.0-rc1", VersionFromPath(p))
	assert.Equal(t, "", VersionFromPath("widget.jar"))
}
