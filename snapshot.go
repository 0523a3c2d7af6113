package classfinder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/pebble"
)

// SnapshotPath derives the published snapshot location for a store
// directory: "db.pebble" publishes to "db.snapshot.pebble" next to it.
func SnapshotPath(dbPath string) string {
	clean := filepath.Clean(dbPath)
	ext := filepath.Ext(clean)
	stem := strings.TrimSuffix(filepath.Base(clean), ext)
	if stem == "" || stem == "." {
		stem = "db"
	}
	return filepath.Join(filepath.Dir(clean), stem+".snapshot"+ext)
}

// PublishSnapshot writes a point-in-time copy of the store next to it.
// The engine checkpoints into a temporary directory which is renamed
// into place, so a concurrent reader sees either the old snapshot or the
// new one, never a half-written directory.
func (c *Cache) PublishSnapshot() error {
	if c.db == nil {
		return ErrClosed
	}
	target := SnapshotPath(c.dir)
	tmp := target + ".tmp"
	_ = os.RemoveAll(tmp)
	if err := c.db.Checkpoint(tmp, pebble.WithFlushedWAL()); err != nil {
		return fmt.Errorf("failed to checkpoint store: %w", err)
	}
	_ = os.RemoveAll(target)
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	c.log.Info("snapshot published", "path", target)
	return nil
}

// Clear removes a store directory along with its published snapshot and
// the pending gauge sidecar. The store must not be open.
func Clear(dbPath string) error {
	clean := filepath.Clean(dbPath)
	snapshot := SnapshotPath(clean)
	for _, path := range []string{clean, snapshot, snapshot + ".tmp"} {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	_ = os.Remove(clean + ".pending")
	return nil
}
