package pipeline

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/craft/internal/extract"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// SpecDiscovery finds spec files under a directory with include and ignore
// glob patterns matched against slash-separated relative paths.
type SpecDiscovery struct {
	include []compiledPattern
	ignore  []compiledPattern
}

// NewSpecDiscovery compiles the patterns. An empty include list matches
// every file with a known spec extension.
func NewSpecDiscovery(include, ignore []string) (*SpecDiscovery, error) {
	sd := &SpecDiscovery{}
	var err error
	if sd.include, err = compileAll(include); err != nil {
		return nil, err
	}
	if sd.ignore, err = compileAll(ignore); err != nil {
		return nil, err
	}
	return sd, nil
}

func compileAll(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		out = append(out, compiledPattern{pattern: pattern, glob: g})
	}
	return out, nil
}

// Discover walks root and returns matching files in lexical order so that
// spec ordering, and with it tie-breaking, is stable across runs.
func (sd *SpecDiscovery) Discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && sd.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if sd.shouldIgnore(relPath) {
			return nil
		}
		if sd.matches(relPath) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Matches reports whether a path relative to the discovery root would be
// picked up.
func (sd *SpecDiscovery) Matches(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	return !sd.shouldIgnore(relPath) && sd.matches(relPath)
}

func (sd *SpecDiscovery) matches(relPath string) bool {
	if len(sd.include) == 0 {
		return isSpecFile(relPath)
	}
	return matchesAnyPattern(relPath, sd.include)
}

// shouldIgnore checks if a path matches any ignore pattern.
func (sd *SpecDiscovery) shouldIgnore(relPath string) bool {
	// Always skip the craft working directory
	if strings.HasPrefix(relPath, ".craft/") || relPath == ".craft" {
		return true
	}
	if matchesAnyPattern(relPath, sd.ignore) {
		return true
	}
	// "node_modules" should match pattern "node_modules/**"
	return matchesAnyPattern(relPath+"/**", sd.ignore)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// "**/*.json" should also match "Activity.json" at the root.
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if !strings.HasPrefix(cp.pattern, "**/") {
				continue
			}
			if g, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/'); err == nil && g.Match(path) {
				return true
			}
		}
	}
	return false
}

// isSpecFile accepts spec documents and declaration sources.
func isSpecFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yml", ".yaml":
		return true
	}
	return extract.Supported(path)
}
