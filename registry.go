package classfinder

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/cockroachdb/pebble"
)

// Artifacts lists the jar paths known to contain the class, in the order
// they were first cataloged. A class nobody has seen yields an empty
// list, not an error.
func (c *Cache) Artifacts(fqn string) ([]string, error) {
	if cached, ok := c.registry.Get(fqn); ok {
		return cached, nil
	}
	raw, found, err := c.Get(TableRegistry, fqn)
	if err != nil || !found {
		return nil, err
	}
	var jars []string
	if err := json.Unmarshal([]byte(raw), &jars); err != nil {
		return nil, fmt.Errorf("failed to parse artifact list for class %s: %w", fqn, err)
	}
	c.registry.Add(fqn, jars)
	return jars, nil
}

// IsCataloged reports whether the artifact's class list has already been
// merged into the registry.
func (c *Cache) IsCataloged(jarPath string) (bool, error) {
	return c.Has(TableCataloged, jarPath)
}

// UpdateAndMarkCataloged merges an artifact's class list into the
// registry and sets its catalog marker, all in one transaction: a reader
// either sees none of the merge or all of it plus the marker. Returns
// how many classes gained a new artifact association; repeating the call
// with the same arguments is a no-op returning 0.
func (c *Cache) UpdateAndMarkCataloged(jarPath string, classes []string) (int, error) {
	if c.db == nil {
		return 0, ErrClosed
	}
	c.wlock.Lock()
	defer c.wlock.Unlock()

	b := c.db.NewIndexedBatch()
	defer b.Close()

	updated := 0
	for _, fqn := range classes {
		key := TKey(TableRegistry, fqn)
		var jars []string
		val, closer, err := b.Get(key)
		switch {
		case err == nil:
			if json.Unmarshal(val, &jars) != nil {
				jars = nil
			}
			_ = closer.Close()
		case errors.Is(err, pebble.ErrNotFound):
		default:
			return 0, err
		}
		if slices.Contains(jars, jarPath) {
			continue
		}
		jars = append(jars, jarPath)
		data, err := json.Marshal(jars)
		if err != nil {
			return 0, err
		}
		if err := b.Set(key, data, nil); err != nil {
			return 0, err
		}
		c.registry.Remove(fqn)
		updated++
	}
	if err := b.Set(TKey(TableCataloged, jarPath), []byte("1"), nil); err != nil {
		return 0, err
	}
	if err := c.db.Apply(b, c.opts.PebbleWriteOptions); err != nil {
		return 0, err
	}
	return updated, nil
}
