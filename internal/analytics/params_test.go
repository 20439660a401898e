package analytics

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeNumber(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  *int
	}{
		{"json浮点", float64(10), intPtr(10)},
		{"向下取整", 3.7, intPtr(3)},
		{"超上界钳制", float64(100000), intPtr(500)},
		{"超下界钳制", float64(-5), intPtr(1)},
		{"零钳制到下界", float64(0), intPtr(1)},
		{"整数", 25, intPtr(25)},
		{"数字字符串", "25", intPtr(25)},
		{"带空白的数字字符串", "  25  ", intPtr(25)},
		{"非数字字符串", "abc", nil},
		{"NaN", math.NaN(), nil},
		{"正无穷", math.Inf(1), nil},
		{"负无穷", math.Inf(-1), nil},
		{"nil", nil, nil},
		{"布尔", true, nil},
		{"对象", map[string]interface{}{"x": 1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeNumber(tt.input, MinLimit, MaxLimit)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestSanitizeString(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}

	got := SanitizeString(string(long), DefaultMaxStringLen)
	require.NotNil(t, got)
	assert.Len(t, *got, DefaultMaxStringLen)

	assert.Nil(t, SanitizeString("   ", DefaultMaxStringLen))
	assert.Nil(t, SanitizeString(42, DefaultMaxStringLen))
	assert.Nil(t, SanitizeString(nil, DefaultMaxStringLen))

	got = SanitizeString("  hello  ", DefaultMaxStringLen)
	require.NotNil(t, got)
	assert.Equal(t, "hello", *got)
}

func TestSanitizeStringTruncatesByRunes(t *testing.T) {
	// 多字节字符不能被截成半个，否则产生非法 UTF-8
	long := strings.Repeat("评", 300)

	got := SanitizeString(long, DefaultMaxStringLen)
	require.NotNil(t, got)
	assert.Equal(t, DefaultMaxStringLen, utf8.RuneCountInString(*got))
	assert.True(t, utf8.ValidString(*got))
	assert.Equal(t, strings.Repeat("评", DefaultMaxStringLen), *got)
}

func TestSanitizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		valid bool
	}{
		{"合法日期", "2025-02-28", true},
		{"闰年", "2024-02-29", true},
		{"二月三十号", "2025-02-30", false},
		{"十三月", "2025-13-01", false},
		{"缺少补零", "2025-2-3", false},
		{"无分隔符", "20250228", false},
		{"带时间", "2025-02-28T00:00:00Z", false},
		{"非字符串", 20250228, false},
		{"空串", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeDate(tt.input)
			if tt.valid {
				require.NotNil(t, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestSanitizePlatform(t *testing.T) {
	got := SanitizePlatform("  YouTube ")
	require.NotNil(t, got)
	assert.Equal(t, "youtube", *got)

	got = SanitizePlatform("instagram")
	require.NotNil(t, got)
	assert.Equal(t, "instagram", *got)

	assert.Nil(t, SanitizePlatform("tiktok"))
	assert.Nil(t, SanitizePlatform(1))
}

func TestSanitizePeriod(t *testing.T) {
	got := SanitizePeriod("WEEK")
	require.NotNil(t, got)
	assert.Equal(t, PeriodWeek, *got)

	assert.Nil(t, SanitizePeriod("day"))
	assert.Nil(t, SanitizePeriod("month; DROP TABLE comments"))
}

func TestEscapeLikePattern(t *testing.T) {
	assert.Equal(t, `50\%`, EscapeLikePattern("50%"))
	assert.Equal(t, `a\_b`, EscapeLikePattern("a_b"))
	assert.Equal(t, `c:\\temp`, EscapeLikePattern(`c:\temp`))
	// 反斜杠必须先转义，否则 \% 会被二次展开
	assert.Equal(t, `\\\%`, EscapeLikePattern(`\%`))
	assert.Equal(t, "plain", EscapeLikePattern("plain"))
}

func TestValidateParamsDropsGarbage(t *testing.T) {
	p := ValidateParams(map[string]interface{}{
		"keyword":    42,
		"video_id":   []string{"x"},
		"platform":   "myspace",
		"limit":      "not a number",
		"start_date": "2025-02-30",
		"period":     "decade",
		"extra":      "ignored",
	})

	assert.Equal(t, QueryParams{}, p)
}

func TestValidateParamsKeepsValid(t *testing.T) {
	p := ValidateParams(map[string]interface{}{
		"keyword":  "great video",
		"platform": "youtube",
		"limit":    float64(15),
		"period":   "week",
	})

	require.NotNil(t, p.Keyword)
	assert.Equal(t, "great video", *p.Keyword)
	require.NotNil(t, p.Platform)
	assert.Equal(t, "youtube", *p.Platform)
	require.NotNil(t, p.Limit)
	assert.Equal(t, 15, *p.Limit)
	require.NotNil(t, p.Period)
	assert.Equal(t, PeriodWeek, *p.Period)
}

func TestValidateParamsNilMap(t *testing.T) {
	assert.Equal(t, QueryParams{}, ValidateParams(nil))
}

func intPtr(v int) *int { return &v }
