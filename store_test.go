package classfinder

import (
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
)

func TestTKey(t *testing.T) {
	assert.Equal(t, []byte("Sorg.example.Demo::demo.jar"), TKey(TableSources, "org.example.Demo::demo.jar"))
	assert.Equal(t, "org.example.Demo::demo.jar", SourceKey("org.example.Demo", "demo.jar"))

	lo, hi := tableBounds(TableSources)
	assert.Equal(t, []byte{'S'}, lo)
	assert.Equal(t, []byte{'T'}, hi)
}

func TestStore_PutGet(t *testing.T) {
	dirs, clear := testdirs(0x10)
	defer clear()

	c, err := Open(dirs[0], Options{})
	assert.Nil(t, err)
	defer c.Close()

	val, found, err := c.Get(TableSources, "nope")
	assert.Nil(t, err)
	assert.False(t, found)
	assert.Equal(t, "", val)

	assert.Nil(t, c.Put(TableSources, "a.B::b.jar", "class B {}"))
	val, found, err = c.Get(TableSources, "a.B::b.jar")
	assert.Nil(t, err)
	assert.True(t, found)
	assert.Equal(t, "class B {}", val)

	has, err := c.Has(TableSources, "a.B::b.jar")
	assert.Nil(t, err)
	assert.True(t, has)
	has, err = c.Has(TableLoaded, "a.B::b.jar")
	assert.Nil(t, err)
	assert.False(t, has)
}

func TestStore_PutManyIsolatesTables(t *testing.T) {
	dirs, clear := testdirs(0x11)
	defer clear()

	c, err := Open(dirs[0], Options{})
	assert.Nil(t, err)
	defer c.Close()

	assert.Nil(t, c.PutMany(TableRegistry, []Entry{
		{Key: "a.A", Value: `["a.jar"]`},
		{Key: "a.B", Value: `["a.jar"]`},
		{Key: "a.C", Value: `["a.jar"]`},
	}))
	assert.Nil(t, c.Put(TableCataloged, "a.jar", "1"))
	assert.Nil(t, c.PutMany(TableSources, nil))

	snap := c.db.NewSnapshot()
	defer snap.Close()
	n, err := tableCount(snap, TableRegistry)
	assert.Nil(t, err)
	assert.Equal(t, uint64(3), n)
	n, err = tableCount(snap, TableCataloged)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), n)
	n, err = tableCount(snap, TableSources)
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), n)
}

func TestOptions_SetDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()
	assert.NotNil(t, o.Logger)
	assert.Equal(t, uint32(2), o.WarmupThreshold)
	assert.Equal(t, 2, o.MaxConcurrentWarmups)
	assert.Equal(t, 100, o.BufferBatchSize)
	assert.Equal(t, pebble.Sync, o.PebbleWriteOptions)

	small := Options{BufferBatchSize: -7}
	small.SetDefaults()
	assert.Equal(t, 1, small.BufferBatchSize)

	keep := Options{WarmupThreshold: 5, MaxConcurrentWarmups: 8}
	keep.SetDefaults()
	assert.Equal(t, uint32(5), keep.WarmupThreshold)
	assert.Equal(t, 8, keep.MaxConcurrentWarmups)
}
