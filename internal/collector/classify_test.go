package collector

import (
	"testing"
	"time"

	"github.com/sectorpulse/sectorpulse/internal/models"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		want    models.NewsCategory
	}{
		{"policy term in title", "交通运输部发布新政策", "", models.CategoryPolicy},
		{"regulation term", "智能网联汽车管理办法出台", "", models.CategoryPolicy},
		{"minutes term", "智慧交通专题会议召开", "", models.CategoryMinutes},
		{"research term", "2026年自动驾驶行业白皮书", "", models.CategoryResearchReport},
		{"term only in content", "最新动态", "全文详见研究报告", models.CategoryResearchReport},
		{"no indicator", "某公司完成新一轮融资", "概述内容", models.CategoryNews},
		{"empty", "", "", models.CategoryNews},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := categorize(tt.title, tt.content); got != tt.want {
				t.Errorf("categorize(%q, %q) = %q, want %q", tt.title, tt.content, got, tt.want)
			}
		})
	}
}

func TestCategorizePrecedence(t *testing.T) {
	// Policy terms outrank minutes and report terms when both appear.
	got := categorize("关于印发研究报告的通知", "会议研讨纪要")
	if got != models.CategoryPolicy {
		t.Errorf("expected policy to take precedence, got %q", got)
	}
}

func TestExtractDepartment(t *testing.T) {
	if d := extractDepartment("交通运输部发布通知", ""); d == nil || *d != "交通运输部" {
		t.Errorf("expected 交通运输部, got %v", d)
	}
	if d := extractDepartment("行业快讯", "业内公司动态"); d != nil {
		t.Errorf("expected nil department, got %q", *d)
	}
	// First table entry wins when several bodies are mentioned.
	if d := extractDepartment("国务院转发交通运输部意见", ""); d == nil || *d != "国务院" {
		t.Errorf("expected 国务院, got %v", d)
	}
}

func TestSourceFromURL(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://www.mot.gov.cn/zhengce/123.html", "交通运输部"},
		{"https://sample.gov.cn/notice", "政府网站"},
		{"http://news.xinhuanet.com/auto/abc", "新华网"},
		{"https://finance.example.com/a/1", "example.com"},
		{"", "未知来源"},
		{"not a url at all", "未知来源"},
	}

	for _, tt := range tests {
		if got := sourceFromURL(tt.link); got != tt.want {
			t.Errorf("sourceFromURL(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}
}

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
		ok    bool
	}{
		{"2026-03-15T10:30:00", time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"2026-03-15 10:30:00", time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"2026-03-15 10:30", time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"2026-03-15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"2026/03/15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"2026年3月15日", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), true},
		// Fractional seconds and offsets are stripped before parsing.
		{"2026-03-15T10:30:00.123456", time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"2026-03-15T10:30:00+08:00", time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		got := parseDateTime(tt.value)
		if tt.ok {
			if got == nil {
				t.Errorf("parseDateTime(%q) = nil, want %v", tt.value, tt.want)
				continue
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseDateTime(%q) = %v, want %v", tt.value, got, tt.want)
			}
		} else if got != nil {
			t.Errorf("parseDateTime(%q) = %v, want nil", tt.value, got)
		}
	}
}

func TestExtractDateFromSnippet(t *testing.T) {
	if got := extractDateFromSnippet("该文件于2026年5月12日正式印发"); got == nil ||
		!got.Equal(time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected 2026-05-12, got %v", got)
	}
	if got := extractDateFromSnippet("更新时间 2026.3.8 上午"); got == nil ||
		!got.Equal(time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected 2026-03-08, got %v", got)
	}
	// Years outside the plausible window are rejected.
	if got := extractDateFromSnippet("成立于1998年5月12日"); got != nil {
		t.Errorf("expected nil for implausible year, got %v", got)
	}
	// Dates that only exist through normalization are rejected, not
	// silently rolled into the next month.
	if got := extractDateFromSnippet("截止日期 2026年2月31日"); got != nil {
		t.Errorf("expected nil for impossible calendar date, got %v", got)
	}
	if got := extractDateFromSnippet("没有任何日期"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestTruncateTitle(t *testing.T) {
	short := "短标题"
	if got := truncateTitle(short); got != short {
		t.Errorf("short title changed: %q", got)
	}

	long := make([]rune, 0, 600)
	for i := 0; i < 600; i++ {
		long = append(long, '标')
	}
	got := truncateTitle(string(long))
	if n := len([]rune(got)); n != maxTitleLen {
		t.Errorf("truncated length = %d, want %d", n, maxTitleLen)
	}
}
