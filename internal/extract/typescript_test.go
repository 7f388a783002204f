package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/craft/internal/model"
)

// Test Plan for TypeScriptExtractor:
// - Module file names (@ohos.router.d.ts) set the package
// - Namespace functions become methods of a spec named after the namespace
// - Interfaces and classes inside a namespace are qualified by it
// - Class heritage fills parent class and interfaces
// - Members default to public; private and static modifiers are kept
// - Optional and null-union parameters are nullable; defaults are kept
// - Missing return annotations read as void
// - JSDoc summaries and @deprecated tags are kept
// - Enums and type aliases produce member-less specs
// - File() reads, extracts and normalizes; ForPath picks by extension

const routerSource = `import { AsyncCallback } from './@ohos.base';

/**
 * Page routing.
 */
declare namespace router {
  /**
   * Navigates to a page.
   * @param options routing options
   * @deprecated since 9
   */
  function pushUrl(options: RouterOptions, mode?: RouterMode): Promise<void>;

  function back(): void;

  interface RouterOptions {
    url: string;
    params?: Object;
    describe(prefix: string | null): string;
  }

  enum RouterMode {
    Standard,
    Single
  }
}

export default router;
`

const componentSource = `/**
 * A clickable button.
 */
export declare class Button extends CommonMethod<Button> implements Focusable, Clickable {
  constructor(label: string);
  setText(text: string): Button;
  setEnabled(enabled: boolean, animate: boolean = false);
  private reset(): void;
  static create(): Button;
}

export declare abstract class CommonMethod<T> {
  abstract width(value: number): T;
}

export type ResourceStr = string | Resource;
`

func TestTypeScriptExtractor_ModuleNamespace(t *testing.T) {
	t.Parallel()

	specs, err := NewTypeScriptExtractor().Extract([]byte(routerSource), Options{Path: "api/@ohos.router.d.ts"})
	require.NoError(t, err)

	byName := make(map[string]*model.APISpec)
	for _, s := range specs {
		byName[model.QualifiedName(s.Package, s.ClassName)] = s
	}
	require.Contains(t, byName, "ohos.router")
	require.Contains(t, byName, "ohos.router.RouterOptions")
	require.Contains(t, byName, "ohos.router.RouterMode")

	router := byName["ohos.router"]
	assert.Equal(t, model.ClassTypeClass, router.ClassType)
	require.Len(t, router.Methods, 2)

	push := router.Methods[0]
	assert.Equal(t, "pushUrl", push.Name)
	assert.Equal(t, "Promise<void>", push.ReturnType)
	assert.True(t, push.IsPublic())
	require.Len(t, push.Parameters, 2)
	assert.Equal(t, "options", push.Parameters[0].Name)
	assert.Equal(t, "RouterOptions", push.Parameters[0].Type)
	assert.False(t, push.Parameters[0].Nullable)
	assert.True(t, push.Parameters[1].Nullable)
	assert.Equal(t, "Navigates to a page.", push.DocComment)
	assert.Contains(t, push.SemanticTags, "deprecated")
	assert.Equal(t, "pushUrl(options: RouterOptions, mode: RouterMode): Promise<void>", push.Signature)

	options := byName["ohos.router.RouterOptions"]
	assert.Equal(t, model.ClassTypeInterface, options.ClassType)
	require.Len(t, options.Methods, 1, "property signatures are not methods")
	describe := options.Methods[0]
	assert.Equal(t, "describe", describe.Name)
	require.Len(t, describe.Parameters, 1)
	assert.True(t, describe.Parameters[0].Nullable)

	assert.Equal(t, model.ClassTypeEnum, byName["ohos.router.RouterMode"].ClassType)
}

func TestTypeScriptExtractor_Classes(t *testing.T) {
	t.Parallel()

	specs, err := NewTypeScriptExtractor().Extract([]byte(componentSource),
		Options{Path: "components/button.d.ts", Package: "ohos.agp.components"})
	require.NoError(t, err)
	require.Len(t, specs, 3)

	button := specs[0]
	assert.Equal(t, "ohos.agp.components", button.Package)
	assert.Equal(t, "Button", button.ClassName)
	assert.Equal(t, "CommonMethod", button.ParentClass)
	assert.Equal(t, []string{"Focusable", "Clickable"}, button.Interfaces)

	names := make([]string, len(button.Methods))
	for i, m := range button.Methods {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"setText", "setEnabled", "reset", "create"}, names, "constructors are skipped")

	setEnabled, _ := button.Method("setEnabled")
	assert.Equal(t, "void", setEnabled.ReturnType)
	assert.Equal(t, []string{"public"}, setEnabled.Modifiers)
	require.Len(t, setEnabled.Parameters, 2)
	require.NotNil(t, setEnabled.Parameters[1].DefaultValue)
	assert.Equal(t, "false", *setEnabled.Parameters[1].DefaultValue)

	reset, _ := button.Method("reset")
	assert.False(t, reset.IsPublic())
	create, _ := button.Method("create")
	assert.True(t, create.IsStatic())

	common := specs[1]
	assert.Equal(t, model.ClassTypeAbstractClass, common.ClassType)
	require.Len(t, common.Methods, 1)
	assert.True(t, common.Methods[0].HasModifier("abstract"))

	alias := specs[2]
	assert.Equal(t, model.ClassTypeTypeAlias, alias.ClassType)
	assert.Equal(t, "ResourceStr", alias.ClassName)
}

func TestTypeScriptExtractor_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := NewTypeScriptExtractor().Extract([]byte("declare class {{ broken"), Options{})
	require.Error(t, err)
}

func TestModuleName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"@ohos.router.d.ts", "ohos.router"},
		{"sdk/api/@ohos.multimedia.image.d.ts", "ohos.multimedia.image"},
		{"@ohos.arkui.advanced.Chip.d.ets", "ohos.arkui.advanced.Chip"},
		{"button.d.ts", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ModuleName(tt.path), tt.path)
	}
}

func TestForPath(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"A.java", "b.d.ts", "c.d.ets", "D.JAVA"} {
		assert.True(t, Supported(path), path)
	}
	for _, path := range []string{"a.json", "b.yaml", "c.kt"} {
		assert.False(t, Supported(path), path)
	}
}

func TestFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "Toast.java")
	require.NoError(t, os.WriteFile(path, []byte(`public class Toast { public void show() {} }`), 0o644))

	specs, err := File(path, "android.widget")
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "android.widget.Toast", specs[0].FullQualifiedName)
	assert.NotEqual(t, uuid.Nil, specs[0].ID)
	assert.False(t, specs[0].CreatedAt.IsZero())

	again, err := File(path, "android.widget")
	require.NoError(t, err)
	assert.Equal(t, specs[0].ID, again[0].ID, "ids are content-derived")

	_, err = File(filepath.Join(dir, "spec.json"), "")
	require.Error(t, err)
}

func TestCleanDoc(t *testing.T) {
	t.Parallel()

	summary, deprecated := cleanDoc("/**\n * Shows the view.\n * Second line.\n *\n * @deprecated use show()\n * @param x ignored\n */")
	assert.Equal(t, "Shows the view. Second line.", summary)
	assert.True(t, deprecated)
}
