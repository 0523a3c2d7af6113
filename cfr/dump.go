package cfr

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// banner starts every class in a concatenated CFR dump.
const banner = "/*\n * Decompiled with CFR"

type ParsedClass struct {
	Name    string
	Content string
	Hash    string
}

// ParseOutput splits a CFR dump into per-class records. A dump without any
// banner is treated as a single class if a name can be extracted from it.
func ParseOutput(content string) []ParsedClass {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")

	var starts []int
	for i := 0; ; {
		j := strings.Index(normalized[i:], banner)
		if j < 0 {
			break
		}
		starts = append(starts, i+j)
		i += j + len(banner)
	}

	if len(starts) == 0 {
		if name, ok := ExtractClassName(normalized); ok {
			return []ParsedClass{{Name: name, Content: normalized, Hash: HashContent(normalized)}}
		}
		return nil
	}

	var classes []ParsedClass
	for idx, start := range starts {
		end := len(normalized)
		if idx+1 < len(starts) {
			end = starts[idx+1]
		}
		segment := strings.TrimSpace(normalized[start:end])
		if segment == "" {
			continue
		}
		if name, ok := ExtractClassName(segment); ok {
			classes = append(classes, ParsedClass{Name: name, Content: segment, Hash: HashContent(segment)})
		}
	}
	return classes
}

// ExtractClassName derives the fully qualified name from decompiled source:
// the first package declaration plus the first type declaration line.
func ExtractClassName(content string) (string, bool) {
	var pkg, typeName string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if pkg == "" && strings.HasPrefix(line, "package ") {
			p := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "package "), ";"))
			if p != "" {
				pkg = p
			}
		}
		if typeName == "" {
			if name, ok := typeNameFromLine(line); ok {
				typeName = name
			}
		}
		if pkg != "" && typeName != "" {
			break
		}
	}
	if typeName == "" {
		return "", false
	}
	if pkg == "" {
		return typeName, true
	}
	return pkg + "." + typeName, true
}

func typeNameFromLine(line string) (string, bool) {
	for _, kw := range []string{"class ", "interface ", "enum ", "record ", "@interface "} {
		pos := strings.Index(line, kw)
		if pos < 0 {
			continue
		}
		fields := strings.Fields(line[pos+len(kw):])
		if len(fields) == 0 {
			continue
		}
		token := strings.TrimSpace(strings.TrimRight(fields[0], "{"))
		token, _, _ = strings.Cut(token, "<")
		if token != "" {
			return token, true
		}
	}
	return "", false
}

func HashContent(content string) string {
	digest := sha256.Sum256([]byte(content))
	return hex.EncodeToString(digest[:])
}
