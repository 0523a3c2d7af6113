package classfinder

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/cespare/xxhash"

	"github.com/Groos-dev/class-finder/cfr"
	"github.com/Groos-dev/class-finder/jar"
	"github.com/Groos-dev/class-finder/m2"
)

// FindVersion is one decompiled rendition of the class, tied to the jar
// it came out of.
type FindVersion struct {
	Version     string `json:"version,omitempty"`
	JarPath     string `json:"jar_path"`
	ContentHash string `json:"content_hash"`
	Content     string `json:"content"`
	CacheHit    bool   `json:"cache_hit"`
	Source      string `json:"source"`
}

type FindResult struct {
	ClassName   string        `json:"class_name"`
	ScannedRoot string        `json:"scanned_root"`
	MatchedJars int           `json:"matched_jars"`
	DurationMs  int64         `json:"duration_ms"`
	Versions    []FindVersion `json:"versions"`
}

// NormalizeClassName turns a pasted import line into a plain class name:
// a leading "import", a trailing semicolon, and any whitespace go away.
func NormalizeClassName(raw string) string {
	s := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(s, "import"); ok {
		s = strings.TrimSpace(rest)
	}
	s = strings.TrimSpace(strings.TrimRight(s, ";"))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// FindClass locates every version of a class under the repository and
// returns its decompiled source per matching jar, cheapest path first:
// registry hits are verified against the jar before trusting them, then
// package-prefix directories are scanned from deepest to widest, then
// the whole repository. A bare class name (no dot) costs a full scan
// that picks the most common fully qualified match.
//
// Every matched artifact is counted as an access; warmups the tracker
// asks for are submitted for artifacts served entirely from cache, while
// cache-missed artifacts are left for Backfill.
func (c *Cache) FindClass(ctx context.Context, repo, className, versionFilter string) (*FindResult, error) {
	start := time.Now()

	resolved, matched, scanRoot, missSource, err := c.resolveJars(ctx, repo, className)
	if err != nil {
		return nil, err
	}
	if versionFilter != "" {
		kept := make([]string, 0, len(matched))
		for _, jarPath := range matched {
			if m2.VersionFromPath(jarPath) == versionFilter {
				kept = append(kept, jarPath)
			}
		}
		matched = kept
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return m2.VersionFromPath(matched[i]) < m2.VersionFromPath(matched[j])
	})
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %s (scanned %s)", ErrClassNotFound, resolved, scanRoot)
	}

	versions := make([]FindVersion, 0, len(matched))
	missed := make(map[string]struct{})
	for _, jarPath := range matched {
		content, hit, err := c.Get(TableSources, SourceKey(resolved, jarPath))
		if err != nil {
			return nil, err
		}
		if hit {
			versions = append(versions, FindVersion{
				Version:     m2.VersionFromPath(jarPath),
				JarPath:     jarPath,
				ContentHash: cfr.HashContent(content),
				Content:     content,
				CacheHit:    true,
				Source:      "cache",
			})
			continue
		}
		missed[jarPath] = struct{}{}
		if c.opts.Decompiler == nil {
			return nil, ErrNoDecompiler
		}
		dump, err := c.opts.Decompiler.DecompileClass(ctx, jarPath, resolved)
		if err != nil {
			return nil, err
		}
		content = dump
		for _, cls := range cfr.ParseOutput(dump) {
			if cls.Name == resolved {
				content = cls.Content
				break
			}
		}
		versions = append(versions, FindVersion{
			Version:     m2.VersionFromPath(jarPath),
			JarPath:     jarPath,
			ContentHash: cfr.HashContent(content),
			Content:     content,
			CacheHit:    false,
			Source:      missSource,
		})
	}

	c.recordFinds(ctx, resolved, matched, missed)

	return &FindResult{
		ClassName:   resolved,
		ScannedRoot: scanRoot,
		MatchedJars: len(matched),
		DurationMs:  time.Since(start).Milliseconds(),
		Versions:    versions,
	}, nil
}

// resolveJars maps a class name to the jars containing it, plus the root
// that was scanned and the source tag for cache misses.
func (c *Cache) resolveJars(ctx context.Context, repo, className string) (resolved string, matched []string, scanRoot, missSource string, err error) {
	if !strings.Contains(className, ".") {
		resolved, matched, err = c.resolveSimpleName(repo, className)
		return resolved, matched, repo, "scan", err
	}

	searchPaths := m2.InferSearchPaths(repo, className)
	scanRoot = searchPaths[0]
	classPath := m2.ClassPath(className)

	known, err := c.Artifacts(className)
	if err != nil {
		return "", nil, "", "", err
	}
	var hits []string
	for _, jarPath := range known {
		if _, serr := os.Stat(jarPath); serr != nil {
			continue
		}
		if c.jarContains(jarPath, classPath) {
			hits = append(hits, jarPath)
		}
	}
	if len(hits) > 0 {
		return className, hits, scanRoot, "registry", nil
	}

	for _, root := range searchPaths {
		c.log.InfoCtx(ctx, "find scan root", "root", root)
		if matched = c.probeJars(m2.ScanJars(root), classPath); len(matched) > 0 {
			scanRoot = root
			break
		}
	}
	if len(matched) == 0 && scanRoot != repo {
		c.log.InfoCtx(ctx, "find fallback scan root", "root", repo)
		matched = c.probeJars(m2.ScanJars(repo), classPath)
		scanRoot = repo
	}
	return className, matched, scanRoot, "scan", nil
}

// resolveSimpleName scans the whole repository for a bare class name and
// picks the fully qualified name found in the most jars, the greater
// name breaking ties.
func (c *Cache) resolveSimpleName(repo, simpleName string) (string, []string, error) {
	jars := m2.ScanJars(repo)
	perJar := make([][]string, len(jars))
	c.eachJar(jars, func(i int, jarPath string) {
		fqns, err := jar.FindClassFQNs(jarPath, simpleName)
		if err == nil {
			perJar[i] = fqns
		}
	})

	byFQN := make(map[string][]string)
	for i, fqns := range perJar {
		if len(fqns) == 0 {
			continue
		}
		byFQN[fqns[0]] = append(byFQN[fqns[0]], jars[i])
	}

	var bestFQN string
	var bestJars []string
	for fqn, list := range byFQN {
		if len(list) > len(bestJars) || (len(list) == len(bestJars) && fqn > bestFQN) {
			bestFQN, bestJars = fqn, list
		}
	}
	if bestFQN == "" {
		return "", nil, fmt.Errorf("%w: %s (scanned %s)", ErrClassNotFound, simpleName, repo)
	}
	return bestFQN, bestJars, nil
}

// probeJars checks jars for the class file in parallel, keeping input
// order in the result.
func (c *Cache) probeJars(jars []string, classPath string) []string {
	hits := make([]bool, len(jars))
	c.eachJar(jars, func(i int, jarPath string) {
		hits[i] = c.jarContains(jarPath, classPath)
	})
	var matched []string
	for i, hit := range hits {
		if hit {
			matched = append(matched, jars[i])
		}
	}
	return matched
}

func (c *Cache) eachJar(jars []string, probe func(i int, jarPath string)) {
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for i, jarPath := range jars {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, jarPath string) {
			defer wg.Done()
			probe(i, jarPath)
			<-sem
		}(i, jarPath)
	}
	wg.Wait()
}

// jarContains memoizes probe results; artifacts in a Maven repository do
// not change under a published version, so hits stay valid for the
// process lifetime.
func (c *Cache) jarContains(jarPath, classPath string) bool {
	memo := xxhash.Sum64String(jarPath + "::" + classPath)
	if hit, ok := c.probes.Load(memo); ok {
		return hit
	}
	ok, err := jar.ContainsClass(jarPath, classPath)
	contains := err == nil && ok
	c.probes.Store(memo, contains)
	return contains
}

// recordFinds counts one access per served artifact and forwards warmup
// requests to the warmer. Artifacts the caller is about to backfill are
// counted but not submitted, so the same jar is not decompiled twice.
func (c *Cache) recordFinds(ctx context.Context, resolved string, matched []string, missed map[string]struct{}) {
	for _, jarPath := range matched {
		req, err := c.RecordAccess(jarPath)
		if err != nil {
			c.log.WarnCtx(ctx, "failed to record access", "jar", jarPath, "err", err)
			continue
		}
		if req == nil {
			continue
		}
		if _, skip := missed[jarPath]; skip {
			continue
		}
		task := WarmupTask{
			JarPath:  jarPath,
			Priority: req.Priority,
			Mode:     req.Mode,
			Exclude:  map[string]struct{}{resolved: {}},
		}
		if err := c.warmer.Submit(task); err != nil {
			c.log.WarnCtx(ctx, "warmup submit failed", "jar", jarPath, "err", err)
		}
	}
}
