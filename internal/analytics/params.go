package analytics

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"kindboard-go/internal/model"
)

const (
	// DefaultMaxStringLen 字符串参数默认截断长度
	DefaultMaxStringLen = 200
	// MinLimit / MaxLimit 查询条数上下界
	MinLimit = 1
	MaxLimit = 500
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// QueryParams 经过清洗后可以安全进入查询层的参数集合
// 所有字段均可缺省，缺省时由各模板自行取默认值
type QueryParams struct {
	Keyword    *string
	VideoID    *string
	VideoTitle *string
	Platform   *string
	Limit      *int
	StartDate  *string
	EndDate    *string
	Period     *string
}

// SanitizeString 只接受字符串，trim 后截断到 maxLen 个字符，空串视为缺省
// 按 rune 截断，避免切出半个多字节字符产生非法 UTF-8
func SanitizeString(v interface{}, maxLen int) *string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLen
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > maxLen {
		s = string(runes[:maxLen])
	}
	if s == "" {
		return nil
	}
	return &s
}

// SanitizeNumber 强制转为整数并钳制到 [min,max]，无法解析时缺省
func SanitizeNumber(v interface{}, min, max int) *int {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	result := int(math.Floor(f))
	if result < min {
		result = min
	}
	if result > max {
		result = max
	}
	return &result
}

// SanitizeDate 只接受严格 YYYY-MM-DD 且为真实存在的日期
func SanitizeDate(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if !datePattern.MatchString(s) {
		return nil
	}
	// time.Parse 会接受 2025-02-30 这类溢出日期，需要回验
	t, err := time.Parse("2006-01-02", s)
	if err != nil || t.Format("2006-01-02") != s {
		return nil
	}
	return &s
}

// SanitizePeriod 只接受 week / month
func SanitizePeriod(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s != PeriodWeek && s != PeriodMonth {
		return nil
	}
	return &s
}

// SanitizePlatform 只接受 youtube / instagram
func SanitizePlatform(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s != model.PlatformYouTube && s != model.PlatformInstagram {
		return nil
	}
	return &s
}

// EscapeLikePattern 转义 LIKE 模式元字符，保证关键词只做字面包含匹配
func EscapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// ValidateParams 将分类器产出的原始参数表清洗为 QueryParams
// 任何非法字段一律丢弃，绝不抛错
func ValidateParams(raw map[string]interface{}) QueryParams {
	if raw == nil {
		return QueryParams{}
	}
	return QueryParams{
		Keyword:    SanitizeString(raw["keyword"], DefaultMaxStringLen),
		VideoID:    SanitizeString(raw["video_id"], DefaultMaxStringLen),
		VideoTitle: SanitizeString(raw["video_title"], DefaultMaxStringLen),
		Platform:   SanitizePlatform(raw["platform"]),
		Limit:      SanitizeNumber(raw["limit"], MinLimit, MaxLimit),
		StartDate:  SanitizeDate(raw["start_date"]),
		EndDate:    SanitizeDate(raw["end_date"]),
		Period:     SanitizePeriod(raw["period"]),
	}
}

func limitOrDefault(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
