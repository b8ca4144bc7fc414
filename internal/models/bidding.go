package models

import (
	"strings"
	"time"
)

// NoticeGroup is a fuzzy grouping over free-text notice types. Providers
// return open-ended strings like "招标公告" or "中标结果公示"; list queries
// accept a group name and match by substring instead of exact value.
type NoticeGroup string

const (
	NoticeGroupTender NoticeGroup = "tender"
	NoticeGroupAward  NoticeGroup = "award"
)

// noticeGroupSubstrings maps each group to the substrings that place a raw
// notice type into it.
var noticeGroupSubstrings = map[NoticeGroup][]string{
	NoticeGroupTender: {"招标", "采购", "询价"},
	NoticeGroupAward:  {"中标", "结果"},
}

// NoticeGroupSubstrings returns the substrings for a known group, or nil
// when the value is not a recognized group name (callers then fall back to
// exact matching).
func NoticeGroupSubstrings(group NoticeGroup) []string {
	return noticeGroupSubstrings[group]
}

// GroupForNoticeType classifies a raw notice type into a group, returning
// false when it matches none.
func GroupForNoticeType(noticeType string) (NoticeGroup, bool) {
	for _, group := range []NoticeGroup{NoticeGroupAward, NoticeGroupTender} {
		for _, sub := range noticeGroupSubstrings[group] {
			if strings.Contains(noticeType, sub) {
				return group, true
			}
		}
	}
	return "", false
}

// BiddingNotice is a collected procurement/bidding notice. BidID is the
// provider-assigned identifier and the dedup key: the store holds at most
// one notice per bid id.
type BiddingNotice struct {
	ID          string     `json:"id"`
	IndustryID  string     `json:"industry_id"`
	BidID       string     `json:"bid_id"`
	Title       string     `json:"title"`
	NoticeType  string     `json:"notice_type"`
	Province    string     `json:"province"`
	City        string     `json:"city"`
	PublishTime *time.Time `json:"publish_time"`
	Source      string     `json:"source"`
	CollectedAt time.Time  `json:"collected_at"`
	IsRead      bool       `json:"is_read"`
	CreatedAt   time.Time  `json:"created_at"`
}

// BiddingQuery filters bidding list queries. NoticeType may be a group name
// ("tender"/"award") for fuzzy matching or any other string for exact match.
type BiddingQuery struct {
	NoticeType string
	Province   string
	IndustryID string
	Limit      int
	Offset     int
}

// BiddingStats aggregates counts over the bidding store.
type BiddingStats struct {
	Total       int            `json:"total"`
	TenderCount int            `json:"tender_count"`
	AwardCount  int            `json:"award_count"`
	ByType      map[string]int `json:"by_type"`
	ByProvince  map[string]int `json:"by_province"`
}
