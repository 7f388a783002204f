// Package lifecycle translates platform lifecycle hook names from the
// source vocabulary to the target vocabulary.
package lifecycle

import "sort"

// Target is what a source lifecycle hook delegates to.
type Target struct {
	// Method is the target hook name.
	Method string `yaml:"method" mapstructure:"method" json:"method"`
	// PreCall and PostCall are spliced verbatim around the delegation.
	PreCall  string `yaml:"pre_call,omitempty" mapstructure:"pre_call" json:"pre_call,omitempty"`
	PostCall string `yaml:"post_call,omitempty" mapstructure:"post_call" json:"post_call,omitempty"`
	// ParamTransform, when set, replaces the delegated argument list.
	ParamTransform string `yaml:"param_transform,omitempty" mapstructure:"param_transform" json:"param_transform,omitempty"`
	// Note is rendered into the adapter method's doc comment.
	Note string `yaml:"note,omitempty" mapstructure:"note" json:"note,omitempty"`
	// Imports are the fully-qualified helpers PreCall, PostCall or
	// ParamTransform refer to. Adapters using the hook import them.
	Imports []string `yaml:"imports,omitempty" mapstructure:"imports" json:"imports,omitempty"`
}

// BundleBridgeImport names the runtime helper the default table's
// parameter transforms call. It converts between Android Bundles and
// HarmonyOS Want parameters and ships with the generated adapters.
const BundleBridgeImport = "craft.runtime.BundleBridge"

// Table is an immutable lookup of lifecycle hooks. The zero value is an
// empty table.
type Table struct {
	entries map[string]Target
}

// New builds a table from entries. The map is copied.
func New(entries map[string]Target) *Table {
	t := &Table{entries: make(map[string]Target, len(entries))}
	for k, v := range entries {
		t.entries[k] = v
	}
	return t
}

// ActivityToUIAbility maps Android Activity and Fragment hooks onto
// HarmonyOS UIAbility and component hooks. The onCreate and
// onSaveInstanceState transforms need BundleBridgeImport at runtime.
func ActivityToUIAbility() *Table {
	return New(map[string]Target{
		"onCreate": {
			Method:         "onCreate",
			ParamTransform: "BundleBridge.toWant(savedInstanceState), BundleBridge.launchParam()",
			Note:           "Bundle state is carried in Want parameters",
			Imports:        []string{BundleBridgeImport},
		},
		"onStart": {
			Method: "onForeground",
			Note:   "onStart and onResume share onForeground",
		},
		"onResume": {
			Method: "onForeground",
			Note:   "onStart and onResume share onForeground",
		},
		"onPause": {
			Method: "onBackground",
			Note:   "onPause and onStop share onBackground",
		},
		"onStop": {
			Method: "onBackground",
			Note:   "onPause and onStop share onBackground",
		},
		"onDestroy": {
			Method: "onDestroy",
		},
		"onSaveInstanceState": {
			Method:         "onSaveState",
			ParamTransform: "BundleBridge.saveReason(), BundleBridge.toRecord(outState)",
			Note:           "state is saved through AppStorage-backed records",
			Imports:        []string{BundleBridgeImport},
		},
		"onRestoreInstanceState": {
			Method: "onRestoreState",
			Note:   "restored values arrive with the launch Want",
		},
		"onAttach": {
			Method: "aboutToAppear",
		},
		"onDetach": {
			Method: "aboutToDisappear",
		},
		"onCreateView": {
			Method: "build",
			Note:   "view inflation becomes a declarative build()",
		},
	})
}

// Lookup returns the target for a source hook name.
func (t *Table) Lookup(name string) (Target, bool) {
	if t == nil {
		return Target{}, false
	}
	target, ok := t.entries[name]
	return target, ok
}

// Len returns the number of hooks in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Names returns source hook names in sorted order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.entries))
	for k := range t.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// With returns a copy of t with overrides applied. An override with an
// empty Method removes the hook.
func (t *Table) With(overrides map[string]Target) *Table {
	var base map[string]Target
	if t != nil {
		base = t.entries
	}
	out := New(base)
	for name, target := range overrides {
		if target.Method == "" {
			delete(out.entries, name)
			continue
		}
		out.entries[name] = target
	}
	return out
}

// SharedTargets groups source hooks by target method, keeping only targets
// reached from more than one source hook. Source names are sorted.
func (t *Table) SharedTargets() map[string][]string {
	groups := make(map[string][]string)
	for _, name := range t.Names() {
		target := t.entries[name]
		groups[target.Method] = append(groups[target.Method], name)
	}
	for method, sources := range groups {
		if len(sources) < 2 {
			delete(groups, method)
		}
	}
	return groups
}
