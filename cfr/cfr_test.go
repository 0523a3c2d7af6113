package cfr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fakeJava(t *testing.T, script string) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "java")
	assert.Nil(t, os.WriteFile(bin, []byte(script), 0o755))
	t.Setenv(JavaEnv, bin)
}

func TestDecompileClassUsesExtraclasspath(t *testing.T) {
	fakeJava(t, `#!/bin/sh
set -e
if [ "$3" = "--extraclasspath" ]; then
  cat <<'EOF'
package org.example;

public class Demo {
}
EOF
else
  echo "unexpected args" >&2
  exit 1
fi
`)

	c := New("cfr.jar")
	out, err := c.DecompileClass(context.Background(), "demo.jar", "org.example.Demo")
	assert.Nil(t, err)
	assert.Contains(t, out, "public class Demo")
}

func TestDecompileJarReportsStderr(t *testing.T) {
	fakeJava(t, `#!/bin/sh
echo "boom from fake cfr" >&2
exit 1
`)

	c := New("cfr.jar")
	_, err := c.DecompileJar(context.Background(), "demo.jar")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "CFR decompilation failed")
	assert.Contains(t, err.Error(), "boom from fake cfr")
}
