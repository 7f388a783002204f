package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvp-joe/craft/internal/model"
)

func spec(pkg, name, parent string) *model.APISpec {
	s := model.NewAPISpec(model.PlatformAndroid, pkg, name)
	s.ParentClass = parent
	return s
}

func ruleFor(s *model.APISpec) model.MappingRule {
	return model.MappingRule{
		Source: s.Reference(),
		Target: model.APIReference{Platform: model.PlatformHarmony, Class: "ohos." + s.ClassName},
	}
}

func sourceClasses(rules []model.MappingRule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Source.Class
	}
	return out
}

func TestOrderByInheritance(t *testing.T) {
	t.Parallel()

	t.Run("parents come first", func(t *testing.T) {
		t.Parallel()
		fragmentActivity := spec("androidx.fragment.app", "FragmentActivity", "android.app.Activity")
		view := spec("android.view", "View", "")
		activity := spec("android.app", "Activity", "ContextWrapper")
		wrapper := spec("android.content", "ContextWrapper", "")
		sources := []*model.APISpec{fragmentActivity, view, activity, wrapper}

		rules := []model.MappingRule{ruleFor(fragmentActivity), ruleFor(view), ruleFor(activity), ruleFor(wrapper)}
		got := OrderByInheritance(rules, sources, nil)

		assert.Equal(t, []string{
			"android.view.View",
			"android.content.ContextWrapper",
			"android.app.Activity",
			"androidx.fragment.app.FragmentActivity",
		}, sourceClasses(got))
	})

	t.Run("unrelated rules keep order", func(t *testing.T) {
		t.Parallel()
		a := spec("p", "A", "")
		b := spec("p", "B", "")
		c := spec("p", "C", "")
		rules := []model.MappingRule{ruleFor(c), ruleFor(a), ruleFor(b)}

		got := OrderByInheritance(rules, []*model.APISpec{a, b, c}, nil)
		assert.Equal(t, []string{"p.C", "p.A", "p.B"}, sourceClasses(got))
	})

	t.Run("cycles do not lose rules", func(t *testing.T) {
		t.Parallel()
		a := spec("p", "A", "p.B")
		b := spec("p", "B", "p.A")
		rules := []model.MappingRule{ruleFor(a), ruleFor(b)}

		got := OrderByInheritance(rules, []*model.APISpec{a, b}, nil)
		assert.ElementsMatch(t, []string{"p.A", "p.B"}, sourceClasses(got))
		assert.Len(t, got, 2)
	})

	t.Run("parents without rules are ignored", func(t *testing.T) {
		t.Parallel()
		child := spec("p", "Child", "p.Parent")
		parent := spec("p", "Parent", "")
		rules := []model.MappingRule{ruleFor(child)}

		got := OrderByInheritance(rules, []*model.APISpec{child, parent}, nil)
		assert.Equal(t, []string{"p.Child"}, sourceClasses(got))
	})
}
