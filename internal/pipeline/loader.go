package pipeline

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/craft/internal/crafterr"
	"github.com/mvp-joe/craft/internal/extract"
	"github.com/mvp-joe/craft/internal/model"
)

// FileError records a spec file that could not be used.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return e.Path + ": " + e.Err.Error() }

// SpecSet is the parsed content of one spec directory.
type SpecSet struct {
	Specs  []*model.APISpec
	Failed []FileError
}

// LoadSpecs parses every discovered file under dir. A malformed file is
// recorded in Failed and contributes nothing; it never aborts the load.
// Only a failing directory walk is returned as an error.
func LoadSpecs(dir string, discovery *SpecDiscovery, platform model.Platform, logger *slog.Logger) (*SpecSet, error) {
	if logger == nil {
		logger = slog.Default()
	}

	files, err := discovery.Discover(dir)
	if err != nil {
		return nil, crafterr.Wrapf(crafterr.KindIO, "discover", err, "failed to walk %s", dir)
	}

	set := &SpecSet{}
	seen := make(map[string]string)
	for _, path := range files {
		specs, err := loadSpecFile(path, dirPackage(dir, path))
		if err == nil {
			err = checkPlatform(specs, platform)
		}
		if err != nil {
			logger.Warn("skipping spec file", "file", path, "error", err)
			set.Failed = append(set.Failed, FileError{Path: path, Err: err})
			continue
		}

		for _, spec := range specs {
			if prev, dup := seen[spec.FullQualifiedName]; dup {
				// First definition wins; later duplicates would make
				// rule lookup ambiguous.
				logger.Warn("duplicate spec ignored", "file", path, "class", spec.FullQualifiedName, "first", prev)
				continue
			}
			seen[spec.FullQualifiedName] = path
			set.Specs = append(set.Specs, spec)
		}
	}
	return set, nil
}

// LoadSpecFile reads one JSON or YAML spec document, or extracts specs
// from a .java or .d.ts/.d.ets declaration source.
func LoadSpecFile(path string) ([]*model.APISpec, error) {
	return loadSpecFile(path, "")
}

// loadSpecFile is LoadSpecFile with a package for declaration sources
// that do not name their own.
func loadSpecFile(path, pkg string) ([]*model.APISpec, error) {
	if extract.Supported(path) {
		return extract.File(path, pkg)
	}
	format, ok := model.FormatFromPath(path)
	if !ok {
		return nil, crafterr.Wrapf(crafterr.KindParse, "load spec", crafterr.ErrUnsupportedFormat, "%s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, crafterr.Wrap(crafterr.KindIO, "load spec", err)
	}
	return model.DecodeAPISpecs(data, format)
}

// LoadRules reads a manual rules file. An empty path yields no rules.
func LoadRules(path string) ([]model.MappingRule, error) {
	if path == "" {
		return nil, nil
	}
	format, ok := model.FormatFromPath(path)
	if !ok {
		return nil, crafterr.Wrapf(crafterr.KindSerialization, "load rules", crafterr.ErrUnsupportedFormat, "%s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, crafterr.Wrap(crafterr.KindIO, "load rules", err)
	}
	return model.DecodeRules(data, format)
}

// dirPackage turns the directory of path below root into a dotted package
// name: root/ohos/agp/components/Button.d.ts yields "ohos.agp.components".
func dirPackage(root, path string) string {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
}

// checkPlatform rejects specs from the wrong platform and stamps specs
// that omit one.
func checkPlatform(specs []*model.APISpec, want model.Platform) error {
	if want == "" {
		return nil
	}
	for _, s := range specs {
		if s.Platform == "" {
			s.Platform = want
			continue
		}
		if s.Platform != want {
			return crafterr.Newf(crafterr.KindParse, "load spec",
				"%s is a %s spec, expected %s", s.FullQualifiedName, s.Platform, want)
		}
	}
	return nil
}
