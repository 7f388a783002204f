package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/craft/internal/generator"
	"github.com/mvp-joe/craft/internal/lang"
	"github.com/mvp-joe/craft/internal/lifecycle"
	"github.com/mvp-joe/craft/internal/mapping"
	"github.com/mvp-joe/craft/internal/model"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

const buttonSource = `{
  "platform": "android",
  "package": "android.widget",
  "class_name": "Button",
  "semantic_tags": ["ui", "widget"],
  "methods": [
    {"name": "setText", "return_type": "void", "modifiers": ["public"],
     "parameters": [{"name": "text", "type": "String"}]},
    {"name": "setEnabled", "return_type": "void", "modifiers": ["public"],
     "parameters": [{"name": "enabled", "type": "boolean"}]}
  ]
}`

const toastSource = `
apis:
  - platform: android
    package: android.widget
    class_name: Toast
    semantic_tags: [notification]
    methods:
      - name: show
        return_type: void
        modifiers: [public]
`

const buttonTarget = `{
  "platform": "harmony",
  "package": "ohos.agp.components",
  "class_name": "Button",
  "semantic_tags": ["ui", "widget"],
  "methods": [
    {"name": "setText", "return_type": "void", "modifiers": ["public"],
     "parameters": [{"name": "text", "type": "string"}]},
    {"name": "setEnabled", "return_type": "void", "modifiers": ["public"],
     "parameters": [{"name": "enabled", "type": "boolean"}]}
  ]
}`

// fixture lays out source and target spec trees plus an output dir.
type fixture struct {
	root      string
	sourceDir string
	targetDir string
	outputDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		root:      root,
		sourceDir: filepath.Join(root, "android"),
		targetDir: filepath.Join(root, "harmony"),
		outputDir: filepath.Join(root, "output"),
	}
	f.write(t, "android/widget/Button.json", buttonSource)
	f.write(t, "android/widget/Toast.yaml", toastSource)
	f.write(t, "android/broken.json", `{"class_name":`)
	f.write(t, "harmony/components/Button.json", buttonTarget)
	return f
}

func (f *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) config() Config {
	return Config{
		SourceDir:      f.sourceDir,
		TargetDir:      f.targetDir,
		OutputDir:      f.outputDir,
		SourcePlatform: model.PlatformAndroid,
		TargetPlatform: model.PlatformHarmony,
		Languages:      lang.All,
		MaxConcurrent:  2,
	}
}

func newTestPipeline(t *testing.T, cfg Config, opts ...Option) *Pipeline {
	t.Helper()
	synth := mapping.NewSynthesizer(mapping.DefaultConfig(), mapping.WithClock(func() time.Time { return fixedNow }))
	gen := generator.New(generator.Config{Now: func() time.Time { return fixedNow }}, lifecycle.ActivityToUIAbility())
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	p, err := New(cfg, synth, gen, opts...)
	require.NoError(t, err)
	return p
}
