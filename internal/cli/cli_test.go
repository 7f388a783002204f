package cli

// Test Plan for CLI Commands:
// - projectRoot resolves the parent of .craft/ and plain config directories
// - loadWorkspace loads an explicit config file and fails on a missing one
// - executeAnalyze exports rules, reports skipped files and rejects a bad threshold
// - executeGenerate renders adapters from the exported rules, honours --lang
//   and fails clearly when no rules exist
// - executeRun generates adapters and records the run; executeStatus reads it back
// - executeStatus handles disabled storage and an empty store
// - executeScore prints a breakdown as text or JSON and selects classes by name
// - CLIProgressReporter is silent when quiet and tolerates a full run sequence

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/craft/internal/model"
	"github.com/mvp-joe/craft/internal/pipeline"
)

const testButtonSource = `{
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

const testToastSource = `
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

const testButtonTarget = `{
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

const testConfig = `
paths:
  source_dir: specs/android
  target_dir: specs/harmony
  output_dir: out
storage:
  db_path: .craft/test.db
`

// setupTestProject lays out a project with specs and a config file and
// returns its root and config path.
func setupTestProject(t *testing.T, configYAML string) (root string, configPath string) {
	t.Helper()
	root = t.TempDir()

	files := map[string]string{
		"specs/android/widget/Button.json":    testButtonSource,
		"specs/android/widget/Toast.yaml":     testToastSource,
		"specs/android/broken.json":           `{"class_name":`,
		"specs/harmony/components/Button.json": testButtonTarget,
		".craft/config.yml":                   configYAML,
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root, filepath.Join(root, ".craft", "config.yml")
}

func testWorkspace(t *testing.T, configYAML string) *workspace {
	t.Helper()
	_, configPath := setupTestProject(t, configYAML)
	ws, err := loadWorkspace(configPath)
	require.NoError(t, err)
	ws.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return ws
}

func TestProjectRoot(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.FromSlash("/work/app"), projectRoot(filepath.FromSlash("/work/app/.craft/config.yml")))
	assert.Equal(t, filepath.FromSlash("/work/conf"), projectRoot(filepath.FromSlash("/work/conf/craft.yml")))
}

func TestLoadWorkspace(t *testing.T) {
	t.Parallel()

	root, configPath := setupTestProject(t, testConfig)
	ws, err := loadWorkspace(configPath)
	require.NoError(t, err)
	assert.Equal(t, root, ws.rootDir)
	assert.Equal(t, "out", ws.cfg.Paths.OutputDir)

	_, err = loadWorkspace(filepath.Join(root, "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestExecuteAnalyze(t *testing.T) {
	t.Parallel()

	t.Run("exports rules", func(t *testing.T) {
		t.Parallel()
		ws := testWorkspace(t, testConfig)

		var out bytes.Buffer
		require.NoError(t, executeAnalyze(context.Background(), ws, -1, &out))

		assert.Contains(t, out.String(), "Parsed 2 source and 1 target APIs")
		assert.Contains(t, out.String(), "skipped")
		assert.Contains(t, out.String(), "broken.json")
		assert.Contains(t, out.String(), "Synthesized 1 rules")
		assert.Contains(t, out.String(), "1 source APIs have no mapping")

		data, err := os.ReadFile(filepath.Join(ws.rootDir, "out", pipeline.RulesFileName))
		require.NoError(t, err)
		rules, err := model.DecodeRules(data, model.FormatJSON)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "android.widget.Button", rules[0].Source.Class)
	})

	t.Run("threshold override", func(t *testing.T) {
		t.Parallel()
		ws := testWorkspace(t, testConfig)

		var out bytes.Buffer
		require.NoError(t, executeAnalyze(context.Background(), ws, 0, &out))
		assert.Contains(t, out.String(), "Synthesized 2 rules")
	})

	t.Run("rejects invalid threshold", func(t *testing.T) {
		t.Parallel()
		ws := testWorkspace(t, testConfig)

		err := executeAnalyze(context.Background(), ws, 1.5, io.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "min confidence")
	})
}

func TestExecuteGenerate(t *testing.T) {
	t.Parallel()

	t.Run("from exported rules", func(t *testing.T) {
		t.Parallel()
		ws := testWorkspace(t, testConfig)
		require.NoError(t, executeAnalyze(context.Background(), ws, -1, io.Discard))

		var out bytes.Buffer
		err := executeGenerate(context.Background(), ws, generateOptions{
			languages: []string{"arkts"},
			noAI:      true,
			quiet:     true,
		}, &out)
		require.NoError(t, err)

		dir := filepath.Join(ws.rootDir, "out", pipeline.AdaptersDir, "android", "widget")
		assert.FileExists(t, filepath.Join(dir, "ButtonAdapter.ets"))
		assert.NoFileExists(t, filepath.Join(dir, "ButtonAdapter.java"))
		assert.Contains(t, out.String(), "Processed 1 of 1 rules: 1 successful, 0 failed, 0 skipped")
		assert.Contains(t, out.String(), "Wrote 1 adapters")
	})

	t.Run("no rules", func(t *testing.T) {
		t.Parallel()
		ws := testWorkspace(t, testConfig)

		err := executeGenerate(context.Background(), ws, generateOptions{noAI: true, quiet: true}, io.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load rules")
	})

	t.Run("unknown language", func(t *testing.T) {
		t.Parallel()
		ws := testWorkspace(t, testConfig)

		err := executeGenerate(context.Background(), ws, generateOptions{languages: []string{"cobol"}, quiet: true}, io.Discard)
		require.Error(t, err)
	})
}

func TestExecuteRunAndStatus(t *testing.T) {
	t.Parallel()
	ws := testWorkspace(t, testConfig)

	var out bytes.Buffer
	err := executeRun(context.Background(), ws, runOptions{noAI: true, quiet: true}, &out)
	require.NoError(t, err)
	assert.Empty(t, out.String(), "quiet suppresses the summary")

	dir := filepath.Join(ws.rootDir, "out", pipeline.AdaptersDir, "android", "widget")
	for _, name := range []string{"ButtonAdapter.java", "ButtonAdapter.kt", "ButtonAdapter.ets"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.FileExists(t, filepath.Join(ws.rootDir, ".craft", "test.db"))

	out.Reset()
	require.NoError(t, executeStatus(ws, &out))
	assert.Contains(t, out.String(), "Languages:  java, kotlin, arkts")
	assert.Contains(t, out.String(), "Rules:      1 (")
	assert.Contains(t, out.String(), "Outcome:    1 processed, 1 successful, 0 failed, 0 skipped")
}

func TestExecuteRun_Summary(t *testing.T) {
	t.Parallel()
	ws := testWorkspace(t, testConfig)

	var out bytes.Buffer
	require.NoError(t, executeRun(context.Background(), ws, runOptions{noAI: true, quiet: false, maxConcurrent: 1}, &out))
	assert.Contains(t, out.String(), "Wrote 3 adapters")
	assert.Contains(t, out.String(), "1 of 2 source APIs have no mapping")
}

func TestExecuteRun_RejectsNegativeConcurrency(t *testing.T) {
	t.Parallel()
	ws := testWorkspace(t, testConfig)

	err := executeRun(context.Background(), ws, runOptions{maxConcurrent: -1, quiet: true}, io.Discard)
	require.Error(t, err)
}

func TestExecuteRun_Watch(t *testing.T) {
	t.Parallel()
	ws := testWorkspace(t, testConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out bytes.Buffer
	err := executeRun(ctx, ws, runOptions{watch: true, noAI: true, quiet: true, debounce: 20 * time.Millisecond}, &out)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(ws.rootDir, "out", pipeline.RulesFileName))
}

func TestExecuteStatus(t *testing.T) {
	t.Parallel()

	t.Run("storage disabled", func(t *testing.T) {
		t.Parallel()
		ws := testWorkspace(t, testConfig+"  enabled: false\n")

		var out bytes.Buffer
		require.NoError(t, executeStatus(ws, &out))
		assert.Contains(t, out.String(), "disabled")
	})

	t.Run("no runs", func(t *testing.T) {
		t.Parallel()
		ws := testWorkspace(t, testConfig)

		var out bytes.Buffer
		require.NoError(t, executeStatus(ws, &out))
		assert.Contains(t, out.String(), "No runs recorded yet")
	})
}

func TestExecuteScore(t *testing.T) {
	t.Parallel()
	root, _ := setupTestProject(t, testConfig)
	source := filepath.Join(root, "specs", "android", "widget", "Button.json")
	target := filepath.Join(root, "specs", "harmony", "components", "Button.json")

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		require.NoError(t, executeScore(source, target, "", "", false, &out))
		assert.Contains(t, out.String(), "android.widget.Button -> ohos.agp.components.Button")
		assert.Contains(t, out.String(), "total:")
		assert.Contains(t, out.String(), "category:")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		require.NoError(t, executeScore(source, target, "Button", "ohos.agp.components.Button", true, &out))

		var res scoreResult
		require.NoError(t, json.Unmarshal(out.Bytes(), &res))
		assert.Equal(t, "android.widget.Button", res.Source)
		assert.Equal(t, 1.0, res.Breakdown.Name)
		assert.True(t, res.Accepted)
	})

	t.Run("unknown class", func(t *testing.T) {
		t.Parallel()
		err := executeScore(source, target, "Toast", "", false, io.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not declare Toast")
	})

	t.Run("broken file", func(t *testing.T) {
		t.Parallel()
		err := executeScore(filepath.Join(root, "specs", "android", "broken.json"), target, "", "", false, io.Discard)
		require.Error(t, err)
	})
}

func TestCLIProgressReporter(t *testing.T) {
	t.Parallel()

	for _, quiet := range []bool{true, false} {
		r := NewCLIProgressReporter(quiet)
		r.OnLoadComplete(2, 1, 1)
		r.OnSynthesisComplete(1)
		r.OnGenerationStart(1)
		r.OnRuleProcessed("android.widget.Button")
		r.OnComplete(&pipeline.Stats{Rules: 1, Processed: 1, Successful: 1})

		if quiet {
			assert.Nil(t, r.ruleBar)
			assert.Zero(t, r.processedRules)
		} else {
			assert.Equal(t, 1, r.processedRules)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "Craft "+Version)
}
