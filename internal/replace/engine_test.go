package replace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/reader/internal/entities"
)

func TestApplyLiteralRule(t *testing.T) {
	engine := NewEngine([]entities.ReplaceRule{
		{Name: "strip ad", Pattern: "本站首发，请支持正版", Replacement: "", Enabled: true},
	})

	got := engine.Apply("第一段。本站首发，请支持正版第二段。")
	assert.Equal(t, "第一段。第二段。", got)
}

func TestApplyRegexRule(t *testing.T) {
	engine := NewEngine([]entities.ReplaceRule{
		{Name: "strip site tag", Pattern: `（本章完.*?）`, Replacement: "", IsRegex: true, Enabled: true},
	})

	got := engine.Apply("正文结尾（本章完，求月票）")
	assert.Equal(t, "正文结尾", got)
}

func TestApplyRunsRulesInOrder(t *testing.T) {
	engine := NewEngine([]entities.ReplaceRule{
		{Name: "first", Pattern: "a", Replacement: "b", Enabled: true},
		{Name: "second", Pattern: "b", Replacement: "c", Enabled: true},
	})

	// The second rule sees the output of the first.
	assert.Equal(t, "cc", engine.Apply("ab"))
}

func TestDisabledAndEmptyRulesAreSkipped(t *testing.T) {
	engine := NewEngine([]entities.ReplaceRule{
		{Name: "disabled", Pattern: "x", Replacement: "y", Enabled: false},
		{Name: "empty", Pattern: "", Replacement: "y", Enabled: true},
	})

	assert.Equal(t, 0, engine.Len())
	assert.Equal(t, "x", engine.Apply("x"))
}

func TestInvalidRegexIsSkippedNotFatal(t *testing.T) {
	engine := NewEngine([]entities.ReplaceRule{
		{Name: "broken", Pattern: "([unclosed", Replacement: "", IsRegex: true, Enabled: true},
		{Name: "valid", Pattern: "foo", Replacement: "bar", Enabled: true},
	})

	assert.Equal(t, 1, engine.Len())
	assert.Equal(t, "bar", engine.Apply("foo"))
}

func TestReloadSwapsRuleSet(t *testing.T) {
	engine := NewEngine([]entities.ReplaceRule{
		{Name: "old", Pattern: "old", Replacement: "new", Enabled: true},
	})
	assert.Equal(t, "new text", engine.Apply("old text"))

	engine.Reload([]entities.ReplaceRule{
		{Name: "other", Pattern: "text", Replacement: "content", Enabled: true},
	})
	assert.Equal(t, "old content", engine.Apply("old text"))
}
