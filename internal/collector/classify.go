package collector

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sectorpulse/sectorpulse/internal/models"
)

const maxTitleLen = 500

// unknownSource is recorded when no source can be derived from a result.
// Results come from Chinese-language providers, so the stored value is
// the Chinese reader-facing label.
const unknownSource = "未知来源"

// Category indicator terms, checked in precedence order: a title that
// mentions both a policy term and a report term classifies as policy.
var categoryIndicators = []struct {
	category models.NewsCategory
	terms    []string
}{
	{models.CategoryPolicy, []string{"政策", "通知", "意见", "办法", "规定", "条例", "规划", "法规"}},
	{models.CategoryMinutes, []string{"纪要", "会议", "座谈", "研讨"}},
	{models.CategoryResearchReport, []string{"研报", "研究报告", "分析报告", "白皮书", "行业报告"}},
}

// Government bodies recognized as publishing departments, checked in order.
var knownDepartments = []string{
	"国务院", "交通运输部", "工信部", "发改委", "科技部",
	"住建部", "公安部", "财政部", "自然资源部", "工业和信息化部",
	"国家发展改革委", "交通运输厅",
}

// Domain fragments mapped to reader-facing source names. Matching is by
// substring of the host, so "news.xinhuanet.com" resolves to 新华网.
var sourceDomains = []struct {
	fragment string
	name     string
}{
	{"mot.gov.cn", "交通运输部"},
	{"ndrc.gov.cn", "国家发改委"},
	{"miit.gov.cn", "工信部"},
	{"gov.cn", "政府网站"},
	{"xinhuanet.com", "新华网"},
	{"people.com.cn", "人民网"},
	{"163.com", "网易"},
	{"sohu.com", "搜狐"},
	{"sina.com", "新浪"},
	{"qq.com", "腾讯"},
	{"baidu.com", "百度"},
}

// categorize assigns a category from indicator terms found in the title or
// content, defaulting to plain news.
func categorize(title, content string) models.NewsCategory {
	text := strings.ToLower(title + " " + content)
	for _, group := range categoryIndicators {
		for _, term := range group.terms {
			if strings.Contains(text, term) {
				return group.category
			}
		}
	}
	return models.CategoryNews
}

// extractDepartment returns the first known government body mentioned in
// the title or content, or nil when none appears.
func extractDepartment(title, content string) *string {
	text := title + " " + content
	for _, dept := range knownDepartments {
		if strings.Contains(text, dept) {
			d := dept
			return &d
		}
	}
	return nil
}

// sourceFromURL derives a source name from a result link. Known domains
// map to their display name; anything else falls back to the registrable
// domain (last two labels of the host).
func sourceFromURL(link string) string {
	if link == "" {
		return unknownSource
	}

	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" {
		return unknownSource
	}
	host := parsed.Hostname()

	for _, entry := range sourceDomains {
		if strings.Contains(host, entry.fragment) {
			return entry.name
		}
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return host
}

// Accepted publish-time layouts, tried in order. The input is first
// stripped of fractional seconds and timezone offsets.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006年1月2日",
}

// parseDateTime parses a provider-supplied timestamp. Returns nil when no
// layout matches.
func parseDateTime(value string) *time.Time {
	if value == "" {
		return nil
	}

	trimmed := value
	if i := strings.IndexByte(trimmed, '.'); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.IndexByte(trimmed, '+'); i >= 0 {
		trimmed = trimmed[:i]
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return &t
		}
	}
	return nil
}

var snippetDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})[-/年](\d{1,2})[-/月](\d{1,2})[日号]?`),
	regexp.MustCompile(`(\d{4})\.(\d{1,2})\.(\d{1,2})`),
}

// extractDateFromSnippet scans free text for a date. Only plausible recent
// dates are accepted, which filters out phone numbers and IDs that happen
// to match the digit patterns.
func extractDateFromSnippet(snippet string) *time.Time {
	if snippet == "" {
		return nil
	}

	for _, pattern := range snippetDatePatterns {
		match := pattern.FindStringSubmatch(snippet)
		if match == nil {
			continue
		}
		year, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		day, _ := strconv.Atoi(match[3])
		if year < 2020 || year > 2030 || month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes overflow (Feb 31 becomes Mar 2); such
		// matches are not real dates and must not be stored.
		if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
			continue
		}
		return &t
	}
	return nil
}

// truncateTitle bounds a title to the storage column width, cutting on
// rune boundaries.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleLen {
		return title
	}
	return string(runes[:maxTitleLen])
}
