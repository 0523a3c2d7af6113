package classfinder

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/pebble"
)

type HotspotTopEntry struct {
	JarPath     string `json:"jar_path"`
	AccessCount uint32 `json:"access_count"`
	LastAccess  uint64 `json:"last_access"`
	Warmed      bool   `json:"warmed"`
}

type CacheStats struct {
	DBPath             string            `json:"db_path"`
	SourceEntries      uint64            `json:"source_entries"`
	IndexedClasses     uint64            `json:"indexed_classes"`
	CatalogedJars      uint64            `json:"cataloged_jars"`
	LoadedJars         uint64            `json:"loaded_jars"`
	WriteBufferPending uint64            `json:"write_buffer_pending"`
	HotspotJars        uint64            `json:"hotspot_jars"`
	WarmedJars         uint64            `json:"warmed_jars"`
	WarmupThreshold    uint32            `json:"warmup_threshold"`
	WarmupPendingTasks uint64            `json:"warmup_pending_tasks"`
	HotspotTop         []HotspotTopEntry `json:"hotspot_top"`
}

// Stats reads every table under one engine snapshot, so the counts are a
// single point-in-time view even while the buffer and warmer keep
// writing. The buffer backlog comes from the gauge sidecar, the same
// number an external process would see.
func (c *Cache) Stats() (CacheStats, error) {
	if c.db == nil {
		return CacheStats{}, ErrClosed
	}
	snap := c.db.NewSnapshot()
	defer snap.Close()

	stats := CacheStats{
		DBPath:          c.dir,
		WarmupThreshold: c.opts.WarmupThreshold,
		HotspotTop:      []HotspotTopEntry{},
	}
	var err error
	if stats.SourceEntries, err = tableCount(snap, TableSources); err != nil {
		return stats, err
	}
	if stats.IndexedClasses, err = tableCount(snap, TableRegistry); err != nil {
		return stats, err
	}
	if stats.CatalogedJars, err = tableCount(snap, TableCataloged); err != nil {
		return stats, err
	}
	if stats.LoadedJars, err = tableCount(snap, TableLoaded); err != nil {
		return stats, err
	}

	lo, hi := tableBounds(TableHotspots)
	it, err := snap.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return stats, err
	}
	defer it.Close()
	for valid := it.First(); valid; valid = it.Next() {
		stats.HotspotJars++
		var rec HotspotRecord
		if json.Unmarshal(it.Value(), &rec) != nil {
			continue
		}
		if rec.Warmed {
			stats.WarmedJars++
		}
		stats.HotspotTop = append(stats.HotspotTop, HotspotTopEntry{
			JarPath:     string(it.Key()[1:]),
			AccessCount: rec.AccessCount,
			LastAccess:  rec.LastAccess,
			Warmed:      rec.Warmed,
		})
	}
	if err := it.Error(); err != nil {
		return stats, err
	}
	sort.Slice(stats.HotspotTop, func(i, j int) bool {
		a, b := stats.HotspotTop[i], stats.HotspotTop[j]
		if a.AccessCount != b.AccessCount {
			return a.AccessCount > b.AccessCount
		}
		if a.LastAccess != b.LastAccess {
			return a.LastAccess > b.LastAccess
		}
		return a.JarPath < b.JarPath
	})
	if len(stats.HotspotTop) > 10 {
		stats.HotspotTop = stats.HotspotTop[:10]
	}

	if raw, rerr := os.ReadFile(c.PendingGaugePath()); rerr == nil {
		stats.WriteBufferPending, _ = strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	}
	if c.warmer != nil {
		if pending := c.warmer.pending.Load(); pending > 0 {
			stats.WarmupPendingTasks = uint64(pending)
		}
	}
	return stats, nil
}
