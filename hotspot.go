package classfinder

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/cockroachdb/pebble"
)

// HotspotRecord is one artifact's access history.
type HotspotRecord struct {
	AccessCount uint32 `json:"access_count"`
	LastAccess  uint64 `json:"last_access"`
	Warmed      bool   `json:"warmed"`
	ClassCount  uint32 `json:"class_count"`
}

// WarmupRequest is the tracker's verdict on a single access: warm this
// artifact now, with this urgency and this depth.
type WarmupRequest struct {
	Priority WarmupPriority
	Mode     WarmupMode
}

// RecordAccess counts one access and decides whether it should trigger a
// warmup. The very first access of a cold artifact asks for a fast
// top-level pass; reaching the threshold asks for a thorough all-classes
// pass, which wins when both would fire at once. A warmed artifact never
// triggers again. The returned request, if any, is advice only; acting
// on it is the caller's business.
func (c *Cache) RecordAccess(jarPath string) (*WarmupRequest, error) {
	if c.db == nil {
		return nil, ErrClosed
	}
	c.wlock.Lock()
	defer c.wlock.Unlock()

	b := c.db.NewIndexedBatch()
	defer b.Close()

	rec, err := readHotspot(b, jarPath)
	if err != nil {
		return nil, err
	}
	if rec.AccessCount != math.MaxUint32 {
		rec.AccessCount++
	}
	rec.LastAccess = uint64(time.Now().Unix())

	var req *WarmupRequest
	if !rec.Warmed {
		if rec.AccessCount >= c.opts.WarmupThreshold {
			req = &WarmupRequest{Priority: PriorityHigh, Mode: ModeAllClasses}
		} else if rec.AccessCount == 1 {
			req = &WarmupRequest{Priority: PriorityNormal, Mode: ModeTopLevelOnly}
		}
	}
	if err := writeHotspot(b, jarPath, rec); err != nil {
		return nil, err
	}
	if err := c.db.Apply(b, c.opts.PebbleWriteOptions); err != nil {
		return nil, err
	}
	return req, nil
}

// MarkWarmed records that the artifact has been fully warmed, with the
// class count the warmup produced. Further accesses keep counting but
// trigger nothing.
func (c *Cache) MarkWarmed(jarPath string, classCount uint32) error {
	if c.db == nil {
		return ErrClosed
	}
	c.wlock.Lock()
	defer c.wlock.Unlock()

	b := c.db.NewIndexedBatch()
	defer b.Close()

	rec, err := readHotspot(b, jarPath)
	if err != nil {
		return err
	}
	rec.Warmed = true
	rec.ClassCount = classCount
	if err := writeHotspot(b, jarPath, rec); err != nil {
		return err
	}
	return c.db.Apply(b, c.opts.PebbleWriteOptions)
}

// Hotspot reads one artifact's record; (zero, false, nil) when the
// artifact was never accessed.
func (c *Cache) Hotspot(jarPath string) (HotspotRecord, bool, error) {
	var rec HotspotRecord
	raw, found, err := c.Get(TableHotspots, jarPath)
	if err != nil || !found {
		return rec, false, err
	}
	if json.Unmarshal([]byte(raw), &rec) != nil {
		return HotspotRecord{}, false, nil
	}
	return rec, true, nil
}

// TopUnwarmed returns the hottest artifacts that were never warmed, most
// accessed first, most recent breaking ties. Corrupt records are skipped.
func (c *Cache) TopUnwarmed(limit int) ([]string, error) {
	if c.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		return nil, nil
	}
	snap := c.db.NewSnapshot()
	defer snap.Close()

	lo, hi := tableBounds(TableHotspots)
	it, err := snap.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	type hot struct {
		jar string
		rec HotspotRecord
	}
	var hots []hot
	for valid := it.First(); valid; valid = it.Next() {
		var rec HotspotRecord
		if json.Unmarshal(it.Value(), &rec) != nil {
			continue
		}
		if rec.Warmed || rec.AccessCount == 0 {
			continue
		}
		hots = append(hots, hot{jar: string(it.Key()[1:]), rec: rec})
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	sort.Slice(hots, func(i, j int) bool {
		if hots[i].rec.AccessCount != hots[j].rec.AccessCount {
			return hots[i].rec.AccessCount > hots[j].rec.AccessCount
		}
		if hots[i].rec.LastAccess != hots[j].rec.LastAccess {
			return hots[i].rec.LastAccess > hots[j].rec.LastAccess
		}
		return hots[i].jar < hots[j].jar
	})
	if len(hots) > limit {
		hots = hots[:limit]
	}
	jars := make([]string, 0, len(hots))
	for _, h := range hots {
		jars = append(jars, h.jar)
	}
	return jars, nil
}

func readHotspot(b *pebble.Batch, jarPath string) (HotspotRecord, error) {
	var rec HotspotRecord
	val, closer, err := b.Get(TKey(TableHotspots, jarPath))
	if errors.Is(err, pebble.ErrNotFound) {
		return rec, nil
	}
	if err != nil {
		return rec, err
	}
	if json.Unmarshal(val, &rec) != nil {
		rec = HotspotRecord{}
	}
	_ = closer.Close()
	return rec, nil
}

func writeHotspot(b *pebble.Batch, jarPath string, rec HotspotRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.Set(TKey(TableHotspots, jarPath), data, nil)
}
