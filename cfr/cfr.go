package cfr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// JavaEnv overrides the java binary used to run CFR.
const JavaEnv = "CLASS_FINDER_JAVA"

type Cfr struct {
	jar string
}

func New(jar string) *Cfr {
	return &Cfr{jar: jar}
}

func (c *Cfr) Jar() string { return c.jar }

// DecompileClass decompiles a single class against the archive's classpath
// and returns the source text.
func (c *Cfr) DecompileClass(ctx context.Context, jarPath, className string) (string, error) {
	return c.run(ctx,
		"-jar", c.jar,
		"--extraclasspath", jarPath,
		className,
		"--silent", "true",
		"--comments", "false",
	)
}

// DecompileJar decompiles every class in the archive into one concatenated
// dump, one CFR banner per class.
func (c *Cfr) DecompileJar(ctx context.Context, jarPath string) (string, error) {
	return c.run(ctx,
		"-jar", c.jar,
		jarPath,
		"--silent", "true",
		"--comments", "false",
	)
}

func (c *Cfr) run(ctx context.Context, args ...string) (string, error) {
	java := os.Getenv(JavaEnv)
	if java == "" {
		java = "java"
	}
	out, err := exec.CommandContext(ctx, java, args...).Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return "", fmt.Errorf("CFR decompilation failed: %s", strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("failed to execute java (ensure a JRE/JDK is installed): %w", err)
	}
	return string(out), nil
}
