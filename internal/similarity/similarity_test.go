package similarity

import (
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/craft/internal/model"
)

// Test Plan for similarity:
// - StringSimilarity: equality, empty sides, containment in both directions, character overlap
// - TagSimilarity: both empty, one empty, Jaccard of overlapping sets, duplicates collapse
// - MethodSimilarity: empty handling and fraction of covered source methods
// - Score is reflexive for any spec with a class name
// - name-only Foo/FooBar scores the same in both directions
// - differing method profiles make Score asymmetric
// - CachedScorer computes each pair once
// - CachedScorer rescores a spec edited under the same id

func spec(name string, tags []string, methods ...string) *model.APISpec {
	s := model.NewAPISpec(model.PlatformAndroid, "test.pkg", name)
	s.SemanticTags = tags
	for _, m := range methods {
		s.Methods = append(s.Methods, model.MethodSpec{Name: m, ReturnType: "void"})
	}
	return s
}

func TestStringSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want float64
	}{
		{"Activity", "Activity", 1.0},
		{"", "", 1.0},
		{"", "Activity", 0.0},
		{"Activity", "", 0.0},
		{"Foo", "FooBar", 0.8},
		{"FooBar", "foo", 0.8},
		{"onStart", "ONSTART", 0.8},
		// {a,b,c} vs {a,b,d}: 2 shared of 3
		{"abc", "abd", 2.0 / 3.0},
		// {x,y} vs {a,b,c}: nothing shared
		{"xy", "abc", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, StringSimilarity(tt.a, tt.b), 1e-12)
		})
	}
}

func TestStringSimilarity_LargerSetDenominator(t *testing.T) {
	t.Parallel()

	// "onPause" -> {o,n,p,a,u,s,e}; "onBackground" -> {o,n,b,a,c,k,g,r,u,d}
	// shared {o,n,a,u} = 4, larger set = 10
	assert.InDelta(t, 0.4, StringSimilarity("onPause", "onBackground"), 1e-12)
}

func TestTagSimilarity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, TagSimilarity(nil, nil))
	assert.Equal(t, 0.0, TagSimilarity([]string{"ui"}, nil))
	assert.Equal(t, 0.0, TagSimilarity(nil, []string{"ui"}))
	assert.InDelta(t, 1.0/3.0, TagSimilarity([]string{"ui", "lifecycle"}, []string{"ui", "ability"}), 1e-12)
	assert.Equal(t, 1.0, TagSimilarity([]string{"ui", "ui"}, []string{"ui"}))
}

func TestMethodSimilarity(t *testing.T) {
	t.Parallel()

	ms := func(names ...string) []model.MethodSpec {
		var out []model.MethodSpec
		for _, n := range names {
			out = append(out, model.MethodSpec{Name: n})
		}
		return out
	}

	assert.Equal(t, 1.0, MethodSimilarity(nil, nil))
	assert.Equal(t, 0.0, MethodSimilarity(ms("onCreate"), nil))
	assert.Equal(t, 0.0, MethodSimilarity(nil, ms("onCreate")))

	// onCreate and onDestroy match exactly; onPause has nothing above 0.7
	got := MethodSimilarity(ms("onCreate", "onDestroy", "onPause"), ms("onCreate", "onDestroy", "onBackground"))
	assert.InDelta(t, 2.0/3.0, got, 1e-12)
}

func TestScore_Reflexive(t *testing.T) {
	t.Parallel()

	specs := []*model.APISpec{
		spec("Activity", nil),
		spec("Activity", []string{"ui", "lifecycle"}, "onCreate", "onDestroy"),
		spec("X", []string{"a"}, "m"),
	}
	for _, s := range specs {
		assert.Equal(t, 1.0, Score(s, s), s.ClassName)
	}
}

func TestScore_NameOnlyContainmentIsSymmetric(t *testing.T) {
	t.Parallel()

	foo := spec("Foo", nil)
	fooBar := spec("FooBar", nil)

	forward := Explain(foo, fooBar)
	backward := Explain(fooBar, foo)

	assert.Equal(t, 0.8, forward.Name)
	assert.Equal(t, 0.8, backward.Name)
	assert.Equal(t, forward.Total, backward.Total)
	assert.InDelta(t, 0.94, forward.Total, 1e-12)
}

func TestScore_AsymmetricWhenMethodsDiffer(t *testing.T) {
	t.Parallel()

	small := spec("Foo", nil, "load")
	large := spec("FooBar", nil, "load", "xyz")

	// small->large covers 1/1 source methods, large->small covers 1/2
	assert.InDelta(t, 0.94, Score(small, large), 1e-12)
	assert.InDelta(t, 0.74, Score(large, small), 1e-12)
	assert.NotEqual(t, Score(small, large), Score(large, small))
}

func TestCachedScorer(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	inner := ScorerFunc(func(a, b *model.APISpec) float64 {
		calls.Add(1)
		return Score(a, b)
	})

	cs, err := NewCachedScorer(inner, 128)
	require.NoError(t, err)
	defer cs.Close()

	a := spec("Activity", nil, "onCreate")
	b := spec("UIAbility", nil, "onCreate")

	first := cs.Score(a, b)
	second := cs.Score(a, b)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	cs.Score(b, a)
	assert.Equal(t, int32(2), calls.Load())

	_, err = NewCachedScorer(inner, 0)
	assert.Error(t, err)
}

func TestCachedScorer_EditedSpecSameID(t *testing.T) {
	t.Parallel()

	cs, err := NewCachedScorer(nil, 128)
	require.NoError(t, err)
	defer cs.Close()

	source := spec("Activity", []string{"ui"}, "onCreate")
	target := spec("UIAbility", []string{"ui"}, "onCreate")
	before := cs.Score(source, target)
	assert.Equal(t, Score(source, target), before)

	edited := *target
	edited.Methods = []model.MethodSpec{{Name: "zzz", ReturnType: "void"}}
	require.Equal(t, target.ID, edited.ID)

	after := cs.Score(source, &edited)
	assert.Equal(t, Score(source, &edited), after)
	assert.Less(t, after, before)
	assert.Equal(t, Explain(source, &edited).Total, after)

	// An unchanged spec under a fresh id still hits the cache.
	renamed := *target
	renamed.ID = uuid.New()
	assert.Equal(t, before, cs.Score(source, &renamed))
	hits, _ := cs.Stats()
	assert.Equal(t, int64(1), hits)
}
