package classfinder

import (
	"errors"

	"github.com/cockroachdb/pebble"
)

type Entry struct {
	Key   string
	Value string
}

// Get reads one record. A missing key is ("", false, nil), not an error.
func (c *Cache) Get(table byte, key string) (string, bool, error) {
	if c.db == nil {
		return "", false, ErrClosed
	}
	val, closer, err := c.db.Get(TKey(table, key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	ret := string(val)
	_ = closer.Close()
	return ret, true, nil
}

func (c *Cache) Has(table byte, key string) (bool, error) {
	_, found, err := c.Get(table, key)
	return found, err
}

// Put writes a single record in its own transaction.
func (c *Cache) Put(table byte, key, value string) error {
	return c.PutMany(table, []Entry{{Key: key, Value: value}})
}

// PutMany commits all entries as one atomic batch; either every entry
// lands or none does.
func (c *Cache) PutMany(table byte, entries []Entry) error {
	if c.db == nil {
		return ErrClosed
	}
	if len(entries) == 0 {
		return nil
	}
	b := c.db.NewBatch()
	defer b.Close()
	for _, e := range entries {
		if err := b.Set(TKey(table, e.Key), []byte(e.Value), nil); err != nil {
			return err
		}
	}
	c.wlock.Lock()
	defer c.wlock.Unlock()
	return c.db.Apply(b, c.opts.PebbleWriteOptions)
}

// tableCount walks one table under the given reader; counts reflect the
// reader's view, so pass a snapshot for a stable number.
func tableCount(reader pebble.Reader, table byte) (uint64, error) {
	lo, hi := tableBounds(table)
	it, err := reader.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return 0, err
	}
	defer it.Close()
	var count uint64
	for valid := it.First(); valid; valid = it.Next() {
		count++
	}
	return count, it.Error()
}
