package classfinder

import (
	"context"
	"time"

	"github.com/Groos-dev/class-finder/cfr"
	"github.com/Groos-dev/class-finder/jar"
)

type LoadResult struct {
	JarPath       string `json:"jar_path"`
	ClassesLoaded int    `json:"classes_loaded"`
	Skipped       bool   `json:"skipped"`
	DurationMs    int64  `json:"duration_ms"`
}

// LoadJar decompiles a whole artifact and pushes every produced class
// through the write buffer. The artifact is cataloged first if the
// registry has never seen it; one already carrying the load marker is
// skipped outright. The load marker itself is CommitLoad's business.
func (c *Cache) LoadJar(ctx context.Context, jarPath string) (*LoadResult, error) {
	start := time.Now()

	if cataloged, _ := c.IsCataloged(jarPath); !cataloged {
		if classes, err := jar.Catalog(jarPath); err == nil {
			if _, uerr := c.UpdateAndMarkCataloged(jarPath, classes); uerr != nil {
				c.log.WarnCtx(ctx, "failed to catalog artifact", "jar", jarPath, "err", uerr)
			}
		}
	}

	loaded, err := c.Has(TableLoaded, jarPath)
	if err != nil {
		return nil, err
	}
	if loaded {
		return &LoadResult{JarPath: jarPath, Skipped: true}, nil
	}

	if c.opts.Decompiler == nil {
		return nil, ErrNoDecompiler
	}
	dump, err := c.opts.Decompiler.DecompileJar(ctx, jarPath)
	if err != nil {
		return nil, err
	}
	classes := cfr.ParseOutput(dump)
	for _, cls := range classes {
		c.buffer.Enqueue(SourceKey(cls.Name, jarPath), cls.Content)
	}
	return &LoadResult{
		JarPath:       jarPath,
		ClassesLoaded: len(classes),
		DurationMs:    time.Since(start).Milliseconds(),
	}, nil
}

// CommitLoad waits for the buffer to drain, then sets the artifact's
// load marker and warmed flag. The order matters: a load marker must
// never be visible before the records it promises.
func (c *Cache) CommitLoad(load *LoadResult) error {
	if load.Skipped {
		return nil
	}
	c.buffer.Flush()
	if err := c.Put(TableLoaded, load.JarPath, "1"); err != nil {
		return err
	}
	if err := c.MarkWarmed(load.JarPath, uint32(load.ClassesLoaded)); err != nil {
		c.log.Warn("failed to mark artifact warmed", "jar", load.JarPath, "err", err)
	}
	return nil
}

// Backfill bulk-loads every artifact a find served without a cache hit,
// so the next find of anything in those jars is a hit. Failures are
// logged and skipped; a backfill never breaks the find that spawned it.
func (c *Cache) Backfill(ctx context.Context, result *FindResult) {
	seen := make(map[string]struct{})
	var targets []string
	for _, v := range result.Versions {
		if v.CacheHit {
			continue
		}
		if _, dup := seen[v.JarPath]; dup {
			continue
		}
		seen[v.JarPath] = struct{}{}
		targets = append(targets, v.JarPath)
	}

	for _, jarPath := range targets {
		c.log.InfoCtx(ctx, "find backfill", "jar", jarPath)
		load, err := c.LoadJar(ctx, jarPath)
		if err != nil {
			c.log.WarnCtx(ctx, "find backfill failed", "jar", jarPath, "err", err)
			continue
		}
		if err := c.CommitLoad(load); err != nil {
			c.log.WarnCtx(ctx, "find backfill mark loaded failed", "jar", load.JarPath, "err", err)
		}
	}
}
