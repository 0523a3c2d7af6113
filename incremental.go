package classfinder

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/Groos-dev/class-finder/jar"
	"github.com/Groos-dev/class-finder/m2"
)

// IndexPass summarizes one incremental indexing run.
type IndexPass struct {
	Root           string `json:"root"`
	ScannedJars    int    `json:"scanned_jars"`
	ChangedJars    int    `json:"changed_jars"`
	IndexedClasses int    `json:"indexed_classes"`
	FailedJars     int    `json:"failed_jars"`
}

// IndexReport summarizes one full-repository indexing run.
type IndexReport struct {
	Root             string `json:"root"`
	ScannedJars      int    `json:"scanned_jars"`
	CatalogedJarsNew int    `json:"cataloged_jars_new"`
	IndexedClasses   int    `json:"indexed_classes"`
	DurationMs       int64  `json:"duration_ms"`
	FailedJars       int    `json:"failed_jars"`
}

// IndexRepo catalogs every artifact under root that the registry has not
// seen yet. Already-cataloged jars are skipped, so re-running is cheap;
// unreadable jars count as failed and the run keeps going.
func (c *Cache) IndexRepo(root string) (*IndexReport, error) {
	start := time.Now()
	jars := m2.ScanJars(root)
	report := &IndexReport{Root: root, ScannedJars: len(jars)}

	for _, jarPath := range jars {
		cataloged, err := c.IsCataloged(jarPath)
		if err != nil {
			return nil, err
		}
		if cataloged {
			continue
		}
		classes, err := jar.Catalog(jarPath)
		if err != nil {
			report.FailedJars++
			continue
		}
		report.IndexedClasses += len(classes)
		if _, err := c.UpdateAndMarkCataloged(jarPath, classes); err != nil {
			return nil, err
		}
		report.CatalogedJarsNew++
	}
	report.DurationMs = time.Since(start).Milliseconds()
	return report, nil
}

// IncrementalIndexer keeps the registry in step with a Maven repository
// by re-cataloging only the artifacts whose mtime moved since the last
// pass.
type IncrementalIndexer struct {
	c    *Cache
	root string
}

func NewIncrementalIndexer(c *Cache, root string) *IncrementalIndexer {
	return &IncrementalIndexer{c: c, root: root}
}

// ScanChanges walks the repository and refreshes every artifact's stored
// mtime in one transaction, returning how many jars were seen and which
// ones changed. An artifact that cannot be stat'ed keeps mtime zero and
// is never reported as changed.
func (ix *IncrementalIndexer) ScanChanges() (scanned int, changed []string, err error) {
	if ix.c.db == nil {
		return 0, nil, ErrClosed
	}
	jars := m2.ScanJars(ix.root)

	ix.c.wlock.Lock()
	defer ix.c.wlock.Unlock()

	b := ix.c.db.NewIndexedBatch()
	defer b.Close()

	for _, jarPath := range jars {
		var mtime uint64
		if st, serr := os.Stat(jarPath); serr == nil {
			mtime = uint64(st.ModTime().UnixNano())
		}
		var last uint64
		val, closer, gerr := b.Get(TKey(TableMtimes, jarPath))
		switch {
		case gerr == nil:
			last, _ = strconv.ParseUint(strings.TrimSpace(string(val)), 10, 64)
			_ = closer.Close()
		case errors.Is(gerr, pebble.ErrNotFound):
		default:
			return 0, nil, gerr
		}
		if last < mtime {
			changed = append(changed, jarPath)
		}
		if err := b.Set(TKey(TableMtimes, jarPath), []byte(strconv.FormatUint(mtime, 10)), nil); err != nil {
			return 0, nil, err
		}
	}
	if err := ix.c.db.Apply(b, ix.c.opts.PebbleWriteOptions); err != nil {
		return 0, nil, err
	}
	return len(jars), changed, nil
}

// RunOnce scans for changed artifacts and re-catalogs each one. A jar
// that cannot be read counts as failed and the pass moves on.
func (ix *IncrementalIndexer) RunOnce() (IndexPass, error) {
	pass := IndexPass{Root: ix.root}
	scanned, changed, err := ix.ScanChanges()
	if err != nil {
		return pass, err
	}
	IndexScanCount.Inc()
	IndexChangedCount.Add(float64(len(changed)))
	pass.ScannedJars = scanned
	pass.ChangedJars = len(changed)
	for _, jarPath := range changed {
		classes, err := jar.Catalog(jarPath)
		if err != nil {
			pass.FailedJars++
			ix.c.log.Warn("failed to catalog changed artifact", "jar", jarPath, "err", err)
			continue
		}
		pass.IndexedClasses += len(classes)
		if _, err := ix.c.UpdateAndMarkCataloged(jarPath, classes); err != nil {
			return pass, err
		}
	}
	return pass, nil
}

// RunLoop re-indexes on a fixed interval until the context is cancelled.
func (ix *IncrementalIndexer) RunLoop(ctx context.Context) {
	for ctx.Err() == nil {
		pass, err := ix.RunOnce()
		if err != nil {
			ix.c.log.ErrorCtx(ctx, "incremental index pass failed", "root", ix.root, "err", err)
		} else if pass.ChangedJars > 0 {
			ix.c.log.InfoCtx(ctx, "incremental index pass", "scanned", pass.ScannedJars,
				"changed", pass.ChangedJars, "classes", pass.IndexedClasses, "failed", pass.FailedJars)
		}
		time.Sleep(ix.c.opts.RescanInterval)
	}
}
