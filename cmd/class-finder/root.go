package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	classfinder "github.com/Groos-dev/class-finder"
	"github.com/Groos-dev/class-finder/cfr"
	"github.com/Groos-dev/class-finder/m2"
	"github.com/Groos-dev/class-finder/utils"
)

var (
	// Global flags
	m2Flag      string
	cfrFlag     string
	dbFlag      string
	debugFlag   bool
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:           "class-finder",
	Short:         "Find Java classes in a local Maven repository and return decompiled source",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&m2Flag, "m2", "", "Maven repository root (default ~/.m2/repository)")
	rootCmd.PersistentFlags().StringVar(&cfrFlag, "cfr", "", "path to cfr.jar (default: $CFR_JAR or auto-install)")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "source cache store directory")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

// subcommands are the tokens that must not be treated as an implicit
// find argument.
var subcommands = []string{
	"find", "load", "warmup", "index", "stats", "clear", "snapshot", "repl",
	"help", "completion",
}

// rewriteArgsForImplicitFind lets "class-finder org.example.Demo" mean
// "class-finder find org.example.Demo": the first bare token after the
// global flags becomes a find argument unless it names a subcommand.
func rewriteArgsForImplicitFind(args []string) []string {
	if len(args) <= 1 {
		return args
	}
	idx := 1
	for idx < len(args) {
		a := args[idx]
		if a == "--" {
			idx++
			break
		}
		if a == "--m2" || a == "--cfr" || a == "--db" || a == "--metrics-addr" {
			idx += 2
			continue
		}
		if strings.HasPrefix(a, "-") {
			idx++
			continue
		}
		break
	}
	if idx < len(args) {
		token := args[idx]
		for _, sub := range subcommands {
			if token == sub {
				return args
			}
		}
		rewritten := make([]string, 0, len(args)+1)
		rewritten = append(rewritten, args[:idx]...)
		rewritten = append(rewritten, "find")
		rewritten = append(rewritten, args[idx:]...)
		return rewritten
	}
	return args
}

func resolveM2Repo() (string, error) {
	if m2Flag != "" {
		return m2Flag, nil
	}
	return m2.DefaultRepo()
}

func resolveDBPath() (string, error) {
	if dbFlag != "" {
		return dbFlag, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve data directory: %w", err)
		}
	}
	return filepath.Join(base, "class-finder", "db.pebble"), nil
}

func newLogger() utils.Logger {
	level := slog.LevelInfo
	if debugFlag {
		level = slog.LevelDebug
	}
	return utils.NewDefaultLogger(level)
}

// openCache opens the store, with a decompiler attached when the command
// needs one. The caller owns the Close.
func openCache(needDecompiler bool) (*classfinder.Cache, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	opts := classfinder.Options{}
	opts.Logger = newLogger()
	if needDecompiler {
		jarPath, err := cfr.Resolve(cfrFlag)
		if err != nil {
			return nil, err
		}
		opts.Decompiler = cfr.New(jarPath)
	}
	return classfinder.Open(dbPath, opts)
}

// openCacheReadOnly opens the store for inspection without the ability
// to write, so a stats run can never disturb it.
func openCacheReadOnly() (*classfinder.Cache, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	opts := classfinder.Options{Options: pebble.Options{ReadOnly: true}}
	opts.Logger = newLogger()
	return classfinder.Open(dbPath, opts)
}

// serveMetrics exposes the cache's Prometheus collectors when
// --metrics-addr is set; long-running commands call it once.
func serveMetrics(cache *classfinder.Cache) {
	if metricsAddr == "" {
		return
	}
	reg := prometheus.NewRegistry()
	for _, collector := range classfinder.Collectors() {
		reg.MustRegister(collector)
	}
	reg.MustRegister(classfinder.NewStoreCollector(cache))
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			fmt.Fprintln(os.Stderr, "metrics server:", err)
		}
	}()
}

// printJSON writes v to stdout the way every subcommand reports.
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
