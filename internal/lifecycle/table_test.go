package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for lifecycle:
// - default table maps activity and fragment hooks
// - onCreate carries a parameter transform and imports the helper it calls
// - non-lifecycle names are absent
// - With overrides, adds and removes entries without touching the original
// - SharedTargets reports hooks collapsing onto one target
// - nil tables behave as empty

func TestActivityToUIAbility(t *testing.T) {
	t.Parallel()

	table := ActivityToUIAbility()

	cases := map[string]string{
		"onCreate":     "onCreate",
		"onStart":      "onForeground",
		"onResume":     "onForeground",
		"onPause":      "onBackground",
		"onStop":       "onBackground",
		"onDestroy":    "onDestroy",
		"onAttach":     "aboutToAppear",
		"onDetach":     "aboutToDisappear",
		"onCreateView": "build",
	}
	for source, want := range cases {
		target, ok := table.Lookup(source)
		require.True(t, ok, source)
		assert.Equal(t, want, target.Method, source)
	}

	onCreate, _ := table.Lookup("onCreate")
	assert.Contains(t, onCreate.ParamTransform, "savedInstanceState")
	assert.Equal(t, []string{BundleBridgeImport}, onCreate.Imports)
	onSave, _ := table.Lookup("onSaveInstanceState")
	assert.Equal(t, []string{BundleBridgeImport}, onSave.Imports)
	onStart, _ := table.Lookup("onStart")
	assert.Empty(t, onStart.Imports)

	_, ok := table.Lookup("getTitle")
	assert.False(t, ok)
}

func TestTable_With(t *testing.T) {
	t.Parallel()

	base := ActivityToUIAbility()
	n := base.Len()

	custom := base.With(map[string]Target{
		"onStart":   {Method: "onWindowStageCreate"},
		"onDestroy": {},
		"onLowMemory": {
			Method:  "onMemoryLevel",
			PreCall: "// memory pressure",
		},
	})

	got, ok := custom.Lookup("onStart")
	require.True(t, ok)
	assert.Equal(t, "onWindowStageCreate", got.Method)

	_, ok = custom.Lookup("onDestroy")
	assert.False(t, ok)

	low, ok := custom.Lookup("onLowMemory")
	require.True(t, ok)
	assert.Equal(t, "// memory pressure", low.PreCall)

	// original untouched
	orig, _ := base.Lookup("onStart")
	assert.Equal(t, "onForeground", orig.Method)
	assert.Equal(t, n, base.Len())
	assert.Equal(t, n, custom.Len())
}

func TestTable_SharedTargets(t *testing.T) {
	t.Parallel()

	shared := ActivityToUIAbility().SharedTargets()
	assert.Equal(t, map[string][]string{
		"onForeground": {"onResume", "onStart"},
		"onBackground": {"onPause", "onStop"},
	}, shared)
}

func TestTable_Nil(t *testing.T) {
	t.Parallel()

	var table *Table
	_, ok := table.Lookup("onCreate")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Len())
	assert.Nil(t, table.Names())

	withOne := table.With(map[string]Target{"onCreate": {Method: "onCreate"}})
	assert.Equal(t, 1, withOne.Len())
}
