// Package industry holds the static catalog of industry profiles: the named
// keyword sets each collection run fans out over. The catalog is loaded once
// and immutable at runtime.
package industry

import "log/slog"

// ID identifies one industry vertical.
type ID string

const (
	SmartTransportation ID = "smart_transportation"
	Finance             ID = "finance"
	Healthcare          ID = "healthcare"
	Energy              ID = "energy"

	// DefaultID is the profile used when a requested id is empty or unknown.
	DefaultID = SmartTransportation
)

// Profile is the keyword configuration for one industry vertical.
type Profile struct {
	ID              ID       `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	NewsKeywords    []string `json:"news_keywords"`
	BiddingKeywords []string `json:"bidding_keywords"`
}

var profiles = map[ID]Profile{
	SmartTransportation: {
		ID:          SmartTransportation,
		Name:        "智慧交通",
		Description: "智能交通系统、车路协同、自动驾驶等领域",
		NewsKeywords: []string{
			"智慧交通 政策",
			"智慧交通 市场",
			"交通运输部 通知",
			"智能网联汽车",
			"自动驾驶 政策",
			"新能源汽车 政策",
			"交通大数据",
			"车路协同",
		},
		BiddingKeywords: []string{
			"智慧交通",
			"智能交通",
			"交通信息化",
			"车路协同",
			"自动驾驶",
			"智能网联",
		},
	},
	Finance: {
		ID:          Finance,
		Name:        "金融科技",
		Description: "银行、保险、证券、支付等金融领域",
		NewsKeywords: []string{
			"金融科技 政策",
			"数字人民币",
			"银行数字化转型",
			"保险科技",
			"证券 金融科技",
			"支付 监管",
			"金融大数据",
			"智能风控",
		},
		BiddingKeywords: []string{
			"银行",
			"金融",
			"保险",
			"证券",
			"支付平台",
			"风控系统",
			"信贷系统",
			"银行核心系统",
		},
	},
	Healthcare: {
		ID:          Healthcare,
		Name:        "医疗健康",
		Description: "医疗信息化、智慧医院、医药研发等领域",
		NewsKeywords: []string{
			"医疗信息化 政策",
			"智慧医院",
			"医保 政策",
			"药品集采",
			"医疗大数据",
			"互联网医疗",
			"AI医疗",
			"医药研发",
		},
		BiddingKeywords: []string{
			"医院信息化",
			"智慧医疗",
			"HIS系统",
			"医疗设备",
			"医药采购",
			"医保系统",
		},
	},
	Energy: {
		ID:          Energy,
		Name:        "能源电力",
		Description: "新能源、电力系统、储能等领域",
		NewsKeywords: []string{
			"新能源 政策",
			"碳中和",
			"光伏 市场",
			"风电 政策",
			"储能 市场",
			"电力市场化",
			"智能电网",
			"充电桩",
		},
		BiddingKeywords: []string{
			"新能源项目",
			"光伏电站",
			"风电项目",
			"储能系统",
			"智能电网",
			"充电设施",
		},
	},
}

// ordering for All; map iteration order is not stable.
var order = []ID{SmartTransportation, Finance, Healthcare, Energy}

// Lookup resolves a profile by id. An empty id resolves to the default
// profile; an unknown id logs a warning and falls back to the default.
func Lookup(id string, logger *slog.Logger) Profile {
	if id == "" {
		return profiles[DefaultID]
	}

	p, ok := profiles[ID(id)]
	if !ok {
		if logger != nil {
			logger.Warn("unknown industry id, falling back to default",
				"industry_id", id,
				"default", string(DefaultID),
			)
		}
		return profiles[DefaultID]
	}
	return p
}

// All returns every profile in catalog order.
func All() []Profile {
	out := make([]Profile, 0, len(order))
	for _, id := range order {
		out = append(out, profiles[id])
	}
	return out
}
