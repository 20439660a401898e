package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTextHTMLEntities(t *testing.T) {
	assert.Equal(t, `so "good" & more`, CleanText(`so &quot;good&quot; &amp; more`))
}

func TestCleanTextStripsTags(t *testing.T) {
	assert.Equal(t, "hello world", CleanText(`hello <a href="http://x.com">world</a>`))
	assert.Equal(t, "bold", CleanText("<b>bold</b>"))
}

func TestCleanTextBlockTagsBecomeNewlines(t *testing.T) {
	got := CleanText("<p>first</p><p>second</p>")
	assert.Equal(t, "first\n\nsecond", got)

	got = CleanText("line one<br>line two")
	assert.Equal(t, "line one\nline two", got)
}

func TestCleanTextNormalizesPunctuation(t *testing.T) {
	assert.Equal(t, `"quoted" - it's fine...`, CleanText("“quoted” — it’s fine…"))
}

func TestCleanTextRemovesZeroWidth(t *testing.T) {
	assert.Equal(t, "clean", CleanText("cle​an‌‍"))
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b", CleanText("a \t  b"))
	assert.Equal(t, "a\n\nb", CleanText("a\n\n\n\n\nb"))
	assert.Equal(t, "trimmed", CleanText("   trimmed   "))
}

func TestCleanTextEmpty(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "", CleanText("<div></div>"))
}
