package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ergochat/readline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	classfinder "github.com/Groos-dev/class-finder"
	"github.com/Groos-dev/class-finder/structure"
	"github.com/Groos-dev/class-finder/utils"
)

var replCompleter = readline.NewPrefixCompleter(
	readline.PcItem("find"),
	readline.PcItem("code"),
	readline.PcItem("structure"),
	readline.PcItem("load"),
	readline.PcItem("warmup"),
	readline.PcItem("index"),
	readline.PcItem("stats"),
	readline.PcItem("snapshot"),
	readline.PcItem("help"),
	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func init() {
	rootCmd.AddCommand(newReplCmd())
}

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive session against a single open cache",
		Long: `The repl command keeps the cache open between lookups, so repeated
finds skip the open/close cost and background warmups survive across
commands.

Example:
  class-finder repl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd)
		},
	}
}

func runRepl(cmd *cobra.Command) error {
	cache, err := openCache(true)
	if err != nil {
		return err
	}
	defer cache.Close()
	serveMetrics(cache)

	repo, err := resolveM2Repo()
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:              "cf> ",
		HistoryFile:         filepath.Join(os.TempDir(), "class-finder-repl.tmp"),
		AutoComplete:        replCompleter,
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	rl.CaptureExitSignal()

	// every log line of this session carries the same tag
	ctx := utils.WithDefaultArgs(cmd.Context(), "session", uuid.Must(uuid.NewV7()).String())
	for ctx.Err() == nil {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		name, args := fields[0], fields[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			fmt.Println("commands: find <class> [version], code <class> [version], structure <class>,")
			fmt.Println("          load <jar>, warmup <jar>|hot [n], index, stats, snapshot, exit")
		case "find":
			err = replFind(ctx, cache, repo, args)
		case "code":
			err = replCode(ctx, cache, repo, args)
		case "structure":
			err = replStructure(ctx, cache, repo, args)
		case "load":
			err = replLoad(ctx, cache, args)
		case "warmup":
			err = replWarmup(ctx, cache, args)
		case "index":
			var report *classfinder.IndexReport
			if report, err = cache.IndexRepo(repo); err == nil {
				err = printJSON(report)
			}
		case "stats":
			var stats classfinder.CacheStats
			if stats, err = cache.Stats(); err == nil {
				err = printJSON(stats)
			}
		case "snapshot":
			err = cache.PublishSnapshot()
		default:
			fmt.Fprintf(os.Stderr, "command unknown: %s\n", name)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error executing %s: %s\n", name, err.Error())
		}
	}
	return nil
}

func replResolve(ctx context.Context, cache *classfinder.Cache, repo string, args []string) (*classfinder.FindResult, error) {
	if len(args) == 0 {
		return nil, errors.New("class name required")
	}
	version := ""
	if len(args) > 1 {
		version = args[1]
	}
	className := classfinder.NormalizeClassName(args[0])
	result, err := cache.FindClass(ctx, repo, className, version)
	if err != nil {
		return nil, err
	}
	// fill the cache behind the prompt, the next find is a hit
	go cache.Backfill(ctx, result)
	return result, nil
}

func replFind(ctx context.Context, cache *classfinder.Cache, repo string, args []string) error {
	result, err := replResolve(ctx, cache, repo, args)
	if err != nil {
		return err
	}
	fmt.Printf("class_name: %s\n", result.ClassName)
	fmt.Printf("matched_jars: %d\n", result.MatchedJars)
	fmt.Printf("duration_ms: %d\n", result.DurationMs)
	for _, v := range result.Versions {
		version := v.Version
		if version == "" {
			version = "none"
		}
		fmt.Printf("- version: %s, source: %s, cache_hit: %t, jar: %s\n",
			version, v.Source, v.CacheHit, v.JarPath)
	}
	return nil
}

func replCode(ctx context.Context, cache *classfinder.Cache, repo string, args []string) error {
	result, err := replResolve(ctx, cache, repo, args)
	if err != nil {
		return err
	}
	chosen, err := chooseDefaultVersion(result.Versions)
	if err != nil {
		return err
	}
	fmt.Println(chosen.Content)
	return nil
}

func replStructure(ctx context.Context, cache *classfinder.Cache, repo string, args []string) error {
	result, err := replResolve(ctx, cache, repo, args)
	if err != nil {
		return err
	}
	chosen, err := chooseDefaultVersion(result.Versions)
	if err != nil {
		return err
	}
	outline := structure.Parse(chosen.Content)
	if outline == nil {
		return errors.New("source could not be parsed")
	}
	data, err := json.MarshalIndent(outline, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func replLoad(ctx context.Context, cache *classfinder.Cache, args []string) error {
	if len(args) == 0 {
		return errors.New("jar path required")
	}
	load, err := cache.LoadJar(ctx, args[0])
	if err != nil {
		return err
	}
	if err := cache.CommitLoad(load); err != nil {
		return err
	}
	return printJSON(load)
}

func replWarmup(ctx context.Context, cache *classfinder.Cache, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: warmup <jar> | warmup hot [n]")
	}
	if args[0] == "hot" {
		top := 20
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("bad count %q: %w", args[1], err)
			}
			top = n
		}
		jars, err := cache.TopUnwarmed(top)
		if err != nil {
			return err
		}
		for _, jarPath := range jars {
			if err := cache.Warmer().Submit(classfinder.WarmupTask{
				JarPath:  jarPath,
				Priority: classfinder.PriorityLow,
				Mode:     classfinder.ModeAllClasses,
			}); err != nil {
				return err
			}
		}
		fmt.Printf("queued %d warmups\n", len(jars))
		return nil
	}
	return replLoad(ctx, cache, args)
}
