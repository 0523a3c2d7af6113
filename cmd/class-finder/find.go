package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	classfinder "github.com/Groos-dev/class-finder"
	"github.com/Groos-dev/class-finder/structure"
	"github.com/Groos-dev/class-finder/utils"
)

var (
	findFormat   string
	findCodeOnly bool
	findVersion  string
	findOutput   string
)

func init() {
	cmd := newFindCmd()
	cmd.Flags().StringVarP(&findFormat, "format", "f", "json", "output format: json, text, code, structure")
	cmd.Flags().BoolVar(&findCodeOnly, "code-only", false, "print only the decompiled source (same as --format code)")
	cmd.Flags().StringVarP(&findVersion, "version", "v", "", "only return this artifact version")
	cmd.Flags().StringVarP(&findOutput, "output", "o", "", "write the output to this file instead of stdout")
	rootCmd.AddCommand(cmd)
}

func newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <class-name>",
		Short: "Find a class and return its decompiled source",
		Long: `The find command locates a class in the local Maven repository and
returns its decompiled source, one entry per artifact version. A bare
name like "StringUtils" scans for the most common fully qualified match;
a pasted import line is accepted as-is.

Example:
  class-finder find org.apache.commons.lang3.StringUtils
  class-finder find StringUtils --format text
  class-finder find org.example.Demo -v 1.2.3 --code-only -o Demo.java`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, args)
		},
	}
}

func runFind(cmd *cobra.Command, args []string) error {
	cache, err := openCache(true)
	if err != nil {
		return err
	}
	defer cache.Close()

	repo, err := resolveM2Repo()
	if err != nil {
		return err
	}
	format := findFormat
	if findCodeOnly {
		format = "code"
	}
	className := classfinder.NormalizeClassName(args[0])
	ctx := utils.WithDefaultArgs(cmd.Context(), "class", className)

	result, err := cache.FindClass(ctx, repo, className, findVersion)
	if err != nil {
		return err
	}
	if err := writeFindOutput(result, format, findOutput); err != nil {
		return err
	}
	cache.Backfill(ctx, result)
	return nil
}

func writeFindOutput(result *classfinder.FindResult, format, outputPath string) error {
	var content string
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		content = string(data)
	case "text":
		var sb strings.Builder
		fmt.Fprintf(&sb, "class_name: %s\n", result.ClassName)
		fmt.Fprintf(&sb, "matched_jars: %d\n", result.MatchedJars)
		fmt.Fprintf(&sb, "duration_ms: %d\n", result.DurationMs)
		for _, v := range result.Versions {
			version := v.Version
			if version == "" {
				version = "none"
			}
			fmt.Fprintf(&sb, "- version: %s, source: %s, cache_hit: %t, jar: %s\n",
				version, v.Source, v.CacheHit, v.JarPath)
		}
		content = sb.String()
	case "code":
		chosen, err := chooseDefaultVersion(result.Versions)
		if err != nil {
			return err
		}
		content = chosen.Content
	case "structure":
		out := structureOutput{
			ClassName:   result.ClassName,
			MatchedJars: result.MatchedJars,
			DurationMs:  result.DurationMs,
		}
		for _, v := range result.Versions {
			out.Versions = append(out.Versions, structureVersion{
				Version:   v.Version,
				JarPath:   v.JarPath,
				Structure: structure.Parse(v.Content),
			})
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		content = string(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	if outputPath != "" {
		if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		return os.WriteFile(outputPath, []byte(content), 0o644)
	}
	fmt.Print(content)
	if !strings.HasSuffix(content, "\n") {
		fmt.Println()
	}
	return nil
}

type structureVersion struct {
	Version   string                    `json:"version,omitempty"`
	JarPath   string                    `json:"jar_path"`
	Structure *structure.ClassStructure `json:"structure,omitempty"`
}

type structureOutput struct {
	ClassName   string             `json:"class_name"`
	MatchedJars int                `json:"matched_jars"`
	DurationMs  int64              `json:"duration_ms"`
	Versions    []structureVersion `json:"versions"`
}

// chooseDefaultVersion picks the entry a bare "give me the code" call
// should print: the last one carrying a version, which after the version
// sort is the newest, else the first entry.
func chooseDefaultVersion(versions []classfinder.FindVersion) (*classfinder.FindVersion, error) {
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].Version != "" {
			return &versions[i], nil
		}
	}
	if len(versions) > 0 {
		return &versions[0], nil
	}
	return nil, errors.New("no available decompiled result")
}
