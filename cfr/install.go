package cfr

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

const (
	downloadURL = "https://github.com/leibnitz27/cfr/releases/download/0.152/cfr-0.152.jar"

	// JarEnv points at an already-installed cfr.jar.
	JarEnv = "CFR_JAR"
)

// Home is the per-user directory for the tool's own files (installed CFR,
// default store location).
func Home() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		base, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve a data directory: %w", err)
		}
	}
	return filepath.Join(base, "class-finder"), nil
}

// Resolve returns the cfr.jar to use: the explicit path if given, else
// $CFR_JAR, else a cached copy under Home, downloading it on first use.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := os.Getenv(JarEnv); p != "" {
		return p, nil
	}

	home, err := Home()
	if err != nil {
		return "", err
	}
	target := filepath.Join(home, "tools", "cfr.jar")
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}
	if err := Install(target); err != nil {
		return "", err
	}
	return target, nil
}

// Install downloads the CFR release jar to target, writing through a
// temporary file so a failed download never leaves a truncated jar behind.
func Install(target string) error {
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(target), err)
	}

	fmt.Fprintf(os.Stderr, "[class-finder] CFR not found, downloading to %s\n", target)

	resp, err := http.Get(downloadURL)
	if err != nil {
		return fmt.Errorf("failed to download CFR (use --cfr to point at a local cfr.jar): %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download CFR: %s (use --cfr to point at a local cfr.jar)", resp.Status)
	}

	tmp := target + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err = f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, target)
}
