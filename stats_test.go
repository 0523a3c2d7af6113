package classfinder

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_Counts(t *testing.T) {
	dirs, clear := testdirs(0x90)
	defer clear()

	c, err := Open(dirs[0], Options{})
	assert.Nil(t, err)
	defer c.Close()

	c.Buffer().Enqueue(SourceKey("a.A", "one.jar"), "class A {}")
	c.Buffer().Enqueue(SourceKey("a.B", "one.jar"), "class B {}")
	c.Buffer().Flush()
	_, err = c.UpdateAndMarkCataloged("one.jar", []string{"a.A", "a.B", "a.C"})
	assert.Nil(t, err)
	assert.Nil(t, c.Put(TableLoaded, "one.jar", "1"))

	for i := 0; i < 2; i++ {
		_, err = c.RecordAccess("one.jar")
		assert.Nil(t, err)
	}
	_, err = c.RecordAccess("two.jar")
	assert.Nil(t, err)
	assert.Nil(t, c.MarkWarmed("two.jar", 7))

	stats, err := c.Stats()
	assert.Nil(t, err)
	assert.Equal(t, dirs[0], stats.DBPath)
	assert.Equal(t, uint64(2), stats.SourceEntries)
	assert.Equal(t, uint64(3), stats.IndexedClasses)
	assert.Equal(t, uint64(1), stats.CatalogedJars)
	assert.Equal(t, uint64(1), stats.LoadedJars)
	assert.Equal(t, uint64(0), stats.WriteBufferPending)
	assert.Equal(t, uint64(2), stats.HotspotJars)
	assert.Equal(t, uint64(1), stats.WarmedJars)
	assert.Equal(t, uint32(2), stats.WarmupThreshold)
	assert.Equal(t, uint64(0), stats.WarmupPendingTasks)

	assert.Equal(t, 2, len(stats.HotspotTop))
	assert.Equal(t, "one.jar", stats.HotspotTop[0].JarPath)
	assert.Equal(t, uint32(2), stats.HotspotTop[0].AccessCount)
	assert.False(t, stats.HotspotTop[0].Warmed)
	assert.Equal(t, "two.jar", stats.HotspotTop[1].JarPath)
	assert.True(t, stats.HotspotTop[1].Warmed)
}

func TestStats_ReadsGaugeSidecar(t *testing.T) {
	dirs, clear := testdirs(0x91)
	defer clear()

	c, err := Open(dirs[0], Options{})
	assert.Nil(t, err)
	defer c.Close()

	// the backlog figure comes from the sidecar, the same number any
	// external process would read
	assert.Nil(t, os.WriteFile(c.PendingGaugePath(), []byte("7\n"), 0o644))
	stats, err := c.Stats()
	assert.Nil(t, err)
	assert.Equal(t, uint64(7), stats.WriteBufferPending)
}
