package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeCatalog(t *testing.T, dir, lang, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, lang+".yaml"), []byte(content), 0644))
}

func translatorFixture(t *testing.T) *Translator {
	t.Helper()
	dir := t.TempDir()
	writeCatalog(t, dir, "en", "quiz:\n  correct: \"Correct!\"\n  finished: \"Score {score} of {total}.\"\n")
	writeCatalog(t, dir, "ru", "quiz:\n  correct: \"Верно!\"\n")

	tr, err := NewTranslator(dir, "en", zap.NewNop())
	require.NoError(t, err)
	return tr
}

func TestTranslator_Resolve(t *testing.T) {
	tr := translatorFixture(t)

	assert.Equal(t, "Correct!", tr.Resolve("quiz.correct", "en", nil))
	assert.Equal(t, "Верно!", tr.Resolve("quiz.correct", "ru", nil))
}

func TestTranslator_Placeholders(t *testing.T) {
	tr := translatorFixture(t)

	got := tr.Resolve("quiz.finished", "en", map[string]string{"score": "3", "total": "5"})
	assert.Equal(t, "Score 3 of 5.", got)
}

func TestTranslator_FallbackToDefault(t *testing.T) {
	tr := translatorFixture(t)

	// ru 目录缺词条，回退到默认语言
	assert.Equal(t, "Score 3 of 5.", tr.Resolve("quiz.finished", "ru", map[string]string{"score": "3", "total": "5"}))
	// 未知语言同理
	assert.Equal(t, "Correct!", tr.Resolve("quiz.correct", "de", nil))
	// 两边都缺时原样返回 key
	assert.Equal(t, "quiz.unknown", tr.Resolve("quiz.unknown", "en", nil))
}

func TestTranslator_MissingDefaultCatalog(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "ru", "quiz:\n  correct: \"Верно!\"\n")

	_, err := NewTranslator(dir, "en", zap.NewNop())
	assert.Error(t, err)
}

func TestTranslator_HasLanguage(t *testing.T) {
	tr := translatorFixture(t)
	assert.True(t, tr.HasLanguage("en"))
	assert.True(t, tr.HasLanguage("ru"))
	assert.False(t, tr.HasLanguage("de"))
	assert.Equal(t, "en", tr.DefaultLanguage())
}
