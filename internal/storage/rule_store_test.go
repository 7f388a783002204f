package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/craft/internal/model"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func makeRule(src, tgt string, kind model.MappingType, conf float64) model.MappingRule {
	r := model.NewMappingRule(
		model.APIReference{Platform: model.PlatformAndroid, Class: src},
		model.APIReference{Platform: model.PlatformHarmony, Class: tgt},
		kind, conf, testNow,
	)
	return *r
}

func writeTestRun(t *testing.T, w *RuleWriter, id string, started time.Time) {
	t.Helper()
	require.NoError(t, w.WriteRun(&RunRecord{
		RunID:         id,
		SourceDir:     "specs/android",
		TargetDir:     "specs/harmony",
		MinConfidence: 0.6,
		Languages:     []string{"java", "arkts"},
		StartedAt:     started,
	}))
}

func TestSchema(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	// Re-applying is idempotent.
	require.NoError(t, CreateSchema(db))

	for _, table := range []string{"runs", "mapping_rules", "method_mappings", "adapters", "oracle_scores", "store_metadata"} {
		var n int
		err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "craft.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, path)
	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestRuleWriterReader(t *testing.T) {
	t.Parallel()

	t.Run("round trips rules in order", func(t *testing.T) {
		t.Parallel()
		db := NewTestDB(t)
		w := NewRuleWriter(db)
		r := NewRuleReader(db)

		writeTestRun(t, w, "run-1", testNow)

		activity := makeRule("android.app.Activity", "ohos.app.ability.UIAbility", model.MappingBridge, 0.62)
		activity.RequiresImports = []string{"ohos.app.ability.Want"}
		activity.BridgeCode = "BundleBridge.install();"
		activity.MethodMappings = []model.MethodMapping{
			{SourceMethod: "finish", TargetMethod: "terminateSelf"},
			{
				SourceMethod:  "startActivity",
				TargetMethod:  "startAbility",
				ParamMappings: []model.ParamPair{{Source: "intent", Target: "want"}},
				PreCallCode:   "check();",
			},
		}
		view := makeRule("android.view.View", "ohos.arkui.Component", model.MappingSemantic, 0.81)

		require.NoError(t, w.WriteRules("run-1", []model.MappingRule{activity, view}))

		got, err := r.ReadRules("run-1")
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, activity.ID, got[0].ID)
		assert.Equal(t, activity.Source, got[0].Source)
		assert.Equal(t, activity.Target, got[0].Target)
		assert.Equal(t, model.MappingBridge, got[0].MappingType)
		assert.InDelta(t, 0.62, got[0].Confidence, 1e-9)
		assert.Equal(t, []string{"ohos.app.ability.Want"}, got[0].RequiresImports)
		assert.Equal(t, "BundleBridge.install();", got[0].BridgeCode)
		assert.Equal(t, activity.MethodMappings, got[0].MethodMappings)
		assert.True(t, testNow.Equal(got[0].CreatedAt))

		assert.Equal(t, view.ID, got[1].ID)
		assert.Nil(t, got[1].MethodMappings)
		assert.Nil(t, got[1].RequiresImports)
	})

	t.Run("rewriting a rule replaces its method mappings", func(t *testing.T) {
		t.Parallel()
		db := NewTestDB(t)
		w := NewRuleWriter(db)

		writeTestRun(t, w, "run-1", testNow)
		rule := makeRule("a.Foo", "b.Foo", model.MappingDirect, 0.95)
		rule.MethodMappings = []model.MethodMapping{
			{SourceMethod: "x", TargetMethod: "x"},
			{SourceMethod: "y", TargetMethod: "y"},
		}
		require.NoError(t, w.WriteRules("run-1", []model.MappingRule{rule}))

		rule.MethodMappings = rule.MethodMappings[:1]
		require.NoError(t, w.WriteRules("run-1", []model.MappingRule{rule}))

		got, err := NewRuleReader(db).ReadRules("run-1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Len(t, got[0].MethodMappings, 1)
	})

	t.Run("unknown run yields no rules", func(t *testing.T) {
		t.Parallel()
		db := NewTestDB(t)

		got, err := NewRuleReader(db).ReadRules("missing")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("rules require an existing run", func(t *testing.T) {
		t.Parallel()
		db := NewTestDB(t)

		err := NewRuleWriter(db).WriteRules("missing", []model.MappingRule{makeRule("a.A", "b.B", model.MappingDirect, 1)})
		assert.Error(t, err)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		t.Parallel()
		db := NewTestDB(t)

		assert.NoError(t, NewRuleWriter(db).WriteRules("any", nil))
	})
}

func TestLatestRun(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	w := NewRuleWriter(db)
	r := NewRuleReader(db)

	run, err := r.LatestRun()
	require.NoError(t, err)
	assert.Nil(t, run)

	writeTestRun(t, w, "old", testNow)
	writeTestRun(t, w, "new", testNow.Add(time.Hour))

	require.NoError(t, w.WriteRun(&RunRecord{
		RunID:         "new",
		SourceDir:     "specs/android",
		TargetDir:     "specs/harmony",
		MinConfidence: 0.6,
		Languages:     []string{"java", "arkts"},
		Total:         3,
		Processed:     3,
		Successful:    2,
		Failed:        1,
		StartedAt:     testNow.Add(time.Hour),
		FinishedAt:    testNow.Add(2 * time.Hour),
	}))

	run, err = r.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "new", run.RunID)
	assert.Equal(t, []string{"java", "arkts"}, run.Languages)
	assert.Equal(t, 3, run.Total)
	assert.Equal(t, 2, run.Successful)
	assert.Equal(t, 1, run.Failed)
	assert.True(t, testNow.Add(2*time.Hour).Equal(run.FinishedAt))
}

func TestAdaptersAndOracleScores(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)
	w := NewRuleWriter(db)
	r := NewRuleReader(db)

	writeTestRun(t, w, "run-1", testNow)
	rule := makeRule("android.app.Activity", "ohos.app.ability.UIAbility", model.MappingBridge, 0.6)
	require.NoError(t, w.WriteRules("run-1", []model.MappingRule{rule}))

	id := rule.ID.String()
	require.NoError(t, w.WriteAdapter(&AdapterRecord{RuleID: id, Language: "kotlin", Path: "android/app/ActivityAdapter.kt", Checksum: "k", GeneratedAt: testNow}))
	require.NoError(t, w.WriteAdapter(&AdapterRecord{RuleID: id, Language: "java", Path: "android/app/ActivityAdapter.java", Checksum: "j", GeneratedAt: testNow}))
	require.NoError(t, w.WriteAdapter(&AdapterRecord{RuleID: id, Language: "java", Draft: true, Path: "android/app/ActivityAdapter.draft.java", Checksum: "d", GeneratedAt: testNow}))

	adapters, err := r.ReadAdapters(id)
	require.NoError(t, err)
	require.Len(t, adapters, 3)
	assert.Equal(t, "java", adapters[0].Language)
	assert.False(t, adapters[0].Draft)
	assert.True(t, adapters[1].Draft)
	assert.Equal(t, "kotlin", adapters[2].Language)

	_, ok, err := r.OracleScore(id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, w.WriteOracleScore(id, 0.42, testNow))
	score, ok, err := r.OracleScore(id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 0.42, score, 1e-9)

	// Unknown rule ids violate the foreign key.
	assert.Error(t, w.WriteAdapter(&AdapterRecord{RuleID: uuid.NewString(), Language: "java", Path: "x", Checksum: "x", GeneratedAt: testNow}))
}
