package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]Language{"java": Java, "Kotlin": Kotlin, "kt": Kotlin, "ArkTS": ArkTS, "ets": ArkTS} {
		got, err := Parse(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}

	_, err := Parse("cobol")
	assert.Error(t, err)

	_, err = ParseList([]string{"java", "swift"})
	assert.Error(t, err)
}

func TestLanguage_Extension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "java", Java.Extension())
	assert.Equal(t, "kt", Kotlin.Extension())
	assert.Equal(t, "ets", ArkTS.Extension())
	assert.Equal(t, "", Language(0).Extension())
	assert.False(t, Language(42).Valid())
	assert.Equal(t, "language(42)", Language(42).String())
}
