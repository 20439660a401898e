package sentiment

import (
	"html"
	"regexp"
	"strings"
)

var (
	// 块级标签断行，其余标签直接剥掉
	blockTagPattern = regexp.MustCompile(`(?i)<\s*(?:/\s*)?(?:p|div|br|li|tr|h[1-6])\b[^>]*>`)
	anyTagPattern   = regexp.MustCompile(`<[^>]+>`)
	spacePattern    = regexp.MustCompile(`[ \t]+`)
	newlinePattern  = regexp.MustCompile(`\n{3,}`)
)

// unicode 标点归一化表：智能引号、长短横线、零宽字符
var punctReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
	"…", "...",
	" ", " ",
	"​", "",
	"‌", "",
	"‍", "",
	"\uFEFF", "",
)

// CleanText 在分类/改写前对平台抓取的原始评论做清洗：
// 解码HTML实体、剥离HTML标签（块级标签转换行）、归一化unicode标点、压缩空白
func CleanText(raw string) string {
	s := html.UnescapeString(raw)

	s = blockTagPattern.ReplaceAllString(s, "\n")
	s = anyTagPattern.ReplaceAllString(s, "")

	s = punctReplacer.Replace(s)

	s = spacePattern.ReplaceAllString(s, " ")
	s = newlinePattern.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")

	return strings.TrimSpace(s)
}
