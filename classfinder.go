package classfinder

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/Groos-dev/class-finder/utils"
)

var (
	ErrClosed        = errors.New("the cache is closed")
	ErrWarmerClosed  = errors.New("the warmer is shut down")
	ErrNoDecompiler  = errors.New("no decompiler configured")
	ErrClassNotFound = errors.New("class not found")
)

// Cache is a transactional store of decompiled Java sources plus the
// machinery that fills it: a batching write buffer and a background
// warmer. One process owns the store directory at a time.
type Cache struct {
	db   *pebble.DB
	dir  string
	opts Options
	log  utils.Logger

	// wlock serializes every mutating transaction so read-modify-write
	// batches never interleave.
	wlock sync.Mutex

	registry *lru.Cache[string, []string]
	// probes memoizes jar-contains-class checks for the process lifetime,
	// keyed by the xxhash of jar path and class path; parallel scan
	// workers read and write it concurrently.
	probes *xsync.MapOf[uint64, bool]

	buffer *WriteBuffer
	warmer *Warmer
}

func Open(dirname string, opts Options) (cache *Cache, err error) {
	opts.SetDefaults()
	db, err := pebble.Open(dirname, &opts.Options)
	if err != nil {
		return nil, err
	}
	registry, _ := lru.New[string, []string](8192)
	cache = &Cache{
		db:       db,
		dir:      filepath.Clean(dirname),
		opts:     opts,
		log:      opts.Logger,
		registry: registry,
		probes:   xsync.NewMapOf[uint64, bool](),
	}
	cache.buffer = newWriteBuffer(cache)
	cache.warmer = newWarmer(cache)
	cache.log.Debug("cache opened", "dir", cache.dir)
	return cache, nil
}

func (c *Cache) Directory() string { return c.dir }

func (c *Cache) Buffer() *WriteBuffer { return c.buffer }

func (c *Cache) Warmer() *Warmer { return c.warmer }

// PendingGaugePath is the sidecar file mirroring the write buffer's
// pending count for external observers.
func (c *Cache) PendingGaugePath() string {
	return c.dir + ".pending"
}

// Close shuts the warmer down first so its final records still reach the
// buffer, drains the buffer, then closes the store.
func (c *Cache) Close() error {
	if c.db == nil {
		return ErrClosed
	}
	if c.warmer != nil {
		c.warmer.Shutdown()
	}
	if c.buffer != nil {
		c.buffer.ShutdownAndFlush()
	}
	err := c.db.Close()
	c.db = nil
	c.log.Debug("cache closed", "dir", c.dir)
	return err
}
