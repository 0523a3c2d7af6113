package classfinder

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Groos-dev/class-finder/cfr"
)

func seedWidgetRepo(t *testing.T, name string) (repo, jar1, jar2 string) {
	repo = testrepo(t, name)
	jar1 = writeJarAt(t, filepath.Join(repo, "com", "acme", "widget", "1.0", "widget-1.0.jar"),
		"com/acme/widget/Widget.class")
	jar2 = writeJarAt(t, filepath.Join(repo, "com", "acme", "widget", "2.0", "widget-2.0.jar"),
		"com/acme/widget/Widget.class")
	return repo, jar1, jar2
}

func TestNormalizeClassName(t *testing.T) {
	assert.Equal(t, "org.springframework.stereotype.Component",
		NormalizeClassName("import org.springframework.stereotype. Component ;"))
	assert.Equal(t, "java.util.List", NormalizeClassName("  import java.util.List;  "))
	assert.Equal(t, "Component", NormalizeClassName("Component ;"))
	assert.Equal(t, "a.b.C", NormalizeClassName("a.b.C;;"))
	assert.Equal(t, "com.x.Y", NormalizeClassName("import\tcom.x.Y;"))
	assert.Equal(t, "", NormalizeClassName("   "))
}

func TestFindClass_ScanFindsAllVersions(t *testing.T) {
	dirs, clear := testdirs(0x60)
	defer clear()
	repo, jar1, jar2 := seedWidgetRepo(t, "findrepo60")
	widgetJava(t)

	c, err := Open(dirs[0], Options{Decompiler: cfr.New("cfr.jar")})
	assert.Nil(t, err)
	defer c.Close()

	res, err := c.FindClass(waitctx(t), repo, "com.acme.widget.Widget", "")
	assert.Nil(t, err)
	assert.Equal(t, "com.acme.widget.Widget", res.ClassName)
	assert.Equal(t, filepath.Join(repo, "com", "acme"), res.ScannedRoot)
	assert.Equal(t, 2, res.MatchedJars)
	assert.Equal(t, 2, len(res.Versions))

	assert.Equal(t, "1.0", res.Versions[0].Version)
	assert.Equal(t, jar1, res.Versions[0].JarPath)
	assert.Equal(t, "2.0", res.Versions[1].Version)
	assert.Equal(t, jar2, res.Versions[1].JarPath)
	for _, v := range res.Versions {
		assert.False(t, v.CacheHit)
		assert.Equal(t, "scan", v.Source)
		assert.Contains(t, v.Content, "class Widget")
		assert.Equal(t, cfr.HashContent(v.Content), v.ContentHash)
	}

	// matched artifacts are counted, but cache-missed ones are left for
	// the backfill instead of the warmer
	rec, found, err := c.Hotspot(jar1)
	assert.Nil(t, err)
	assert.True(t, found)
	assert.Equal(t, uint32(1), rec.AccessCount)
	assert.Equal(t, int64(0), c.Warmer().Stats().Completed)
	assert.Equal(t, int64(0), c.Warmer().Stats().Pending)
}

func TestFindClass_VersionFilter(t *testing.T) {
	dirs, clear := testdirs(0x61)
	defer clear()
	repo, _, jar2 := seedWidgetRepo(t, "findrepo61")
	widgetJava(t)

	c, err := Open(dirs[0], Options{Decompiler: cfr.New("cfr.jar")})
	assert.Nil(t, err)
	defer c.Close()

	res, err := c.FindClass(waitctx(t), repo, "com.acme.widget.Widget", "2.0")
	assert.Nil(t, err)
	assert.Equal(t, 1, res.MatchedJars)
	assert.Equal(t, "2.0", res.Versions[0].Version)
	assert.Equal(t, jar2, res.Versions[0].JarPath)

	_, err = c.FindClass(waitctx(t), repo, "com.acme.widget.Widget", "9.9")
	assert.True(t, errors.Is(err, ErrClassNotFound))
}

func TestFindClass_CacheHitAfterBackfill(t *testing.T) {
	dirs, clear := testdirs(0x62)
	defer clear()
	repo, jar1, _ := seedWidgetRepo(t, "findrepo62")
	widgetJava(t)

	c, err := Open(dirs[0], Options{Decompiler: cfr.New("cfr.jar")})
	assert.Nil(t, err)
	defer c.Close()

	ctx := waitctx(t)
	res, err := c.FindClass(ctx, repo, "com.acme.widget.Widget", "")
	assert.Nil(t, err)
	c.Backfill(ctx, res)

	loaded, err := c.Has(TableLoaded, jar1)
	assert.Nil(t, err)
	assert.True(t, loaded)
	rec, _, err := c.Hotspot(jar1)
	assert.Nil(t, err)
	assert.True(t, rec.Warmed)
	assert.Equal(t, uint32(2), rec.ClassCount)

	res, err = c.FindClass(ctx, repo, "com.acme.widget.Widget", "")
	assert.Nil(t, err)
	for _, v := range res.Versions {
		assert.True(t, v.CacheHit)
		assert.Equal(t, "cache", v.Source)
		assert.Contains(t, v.Content, "class Widget")
	}

	// warmed artifacts trigger nothing further
	assert.Equal(t, int64(0), c.Warmer().Stats().Pending)
	assert.Equal(t, int64(0), c.Warmer().Stats().Completed)
}

func TestFindClass_RegistryHit(t *testing.T) {
	dirs, clear := testdirs(0x63)
	defer clear()
	repo, jar1, _ := seedWidgetRepo(t, "findrepo63")
	widgetJava(t)

	c, err := Open(dirs[0], Options{Decompiler: cfr.New("cfr.jar")})
	assert.Nil(t, err)
	defer c.Close()

	_, err = c.UpdateAndMarkCataloged(jar1, []string{"com.acme.widget.Widget"})
	assert.Nil(t, err)

	// a verified registry hit short-circuits the scan, so only the
	// registered jar is served
	res, err := c.FindClass(waitctx(t), repo, "com.acme.widget.Widget", "")
	assert.Nil(t, err)
	assert.Equal(t, 1, res.MatchedJars)
	assert.Equal(t, jar1, res.Versions[0].JarPath)
	assert.Equal(t, "registry", res.Versions[0].Source)
	assert.False(t, res.Versions[0].CacheHit)
}

func TestFindClass_StaleRegistryFallsBackToScan(t *testing.T) {
	dirs, clear := testdirs(0x64)
	defer clear()
	repo, _, _ := seedWidgetRepo(t, "findrepo64")
	widgetJava(t)

	c, err := Open(dirs[0], Options{Decompiler: cfr.New("cfr.jar")})
	assert.Nil(t, err)
	defer c.Close()

	// the registry names a jar that no longer exists on disk
	_, err = c.UpdateAndMarkCataloged(filepath.Join(repo, "ghost.jar"), []string{"com.acme.widget.Widget"})
	assert.Nil(t, err)

	res, err := c.FindClass(waitctx(t), repo, "com.acme.widget.Widget", "")
	assert.Nil(t, err)
	assert.Equal(t, 2, res.MatchedJars)
	assert.Equal(t, "scan", res.Versions[0].Source)
}

func TestFindClass_SimpleNamePicksMostCommon(t *testing.T) {
	dirs, clear := testdirs(0x65)
	defer clear()
	repo, _, _ := seedWidgetRepo(t, "findrepo65")
	writeJarAt(t, filepath.Join(repo, "com", "other", "lib", "1.0", "lib-1.0.jar"),
		"com/other/Widget.class")
	widgetJava(t)

	c, err := Open(dirs[0], Options{Decompiler: cfr.New("cfr.jar")})
	assert.Nil(t, err)
	defer c.Close()

	res, err := c.FindClass(waitctx(t), repo, "Widget", "")
	assert.Nil(t, err)
	assert.Equal(t, "com.acme.widget.Widget", res.ClassName)
	assert.Equal(t, repo, res.ScannedRoot)
	assert.Equal(t, 2, res.MatchedJars)
}

func TestFindClass_NotFound(t *testing.T) {
	dirs, clear := testdirs(0x66)
	defer clear()
	repo, _, _ := seedWidgetRepo(t, "findrepo66")
	widgetJava(t)

	c, err := Open(dirs[0], Options{Decompiler: cfr.New("cfr.jar")})
	assert.Nil(t, err)
	defer c.Close()

	_, err = c.FindClass(waitctx(t), repo, "com.acme.widget.Missing", "")
	assert.True(t, errors.Is(err, ErrClassNotFound))
	assert.Contains(t, err.Error(), "(scanned ")

	_, err = c.FindClass(waitctx(t), repo, "Nothing", "")
	assert.True(t, errors.Is(err, ErrClassNotFound))
}

func TestFindClass_CacheHitSubmitsWarmup(t *testing.T) {
	dirs, clear := testdirs(0x67)
	defer clear()
	repo, jar1, _ := seedWidgetRepo(t, "findrepo67")
	widgetJava(t)

	c, err := Open(dirs[0], Options{Decompiler: cfr.New("cfr.jar")})
	assert.Nil(t, err)
	defer c.Close()

	// served from cache but never warmed: the first find submits the
	// tracker's top-level pass, excluding the class it just served
	assert.Nil(t, c.Put(TableSources, SourceKey("com.acme.widget.Widget", jar1), "class Widget {}"))

	ctx := waitctx(t)
	res, err := c.FindClass(ctx, repo, "com.acme.widget.Widget", "1.0")
	assert.Nil(t, err)
	assert.True(t, res.Versions[0].CacheHit)
	assert.Nil(t, c.Warmer().WaitIdle(ctx))

	assert.Equal(t, int64(1), c.Warmer().Stats().Completed)
	_, found, err := c.Get(TableSources, SourceKey("com.acme.widget.WidgetHelper", jar1))
	assert.Nil(t, err)
	assert.True(t, found)
	rec, _, err := c.Hotspot(jar1)
	assert.Nil(t, err)
	assert.True(t, rec.Warmed)

	// excluded, so the cached rendition was not overwritten by the warmup
	val, _, err := c.Get(TableSources, SourceKey("com.acme.widget.Widget", jar1))
	assert.Nil(t, err)
	assert.Equal(t, "class Widget {}", val)
}
