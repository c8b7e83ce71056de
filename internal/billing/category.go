package billing

import "strings"

// ServiceCategory is the canonical service type every free-text label maps to.
type ServiceCategory string

const (
	Flight     ServiceCategory = "Flight"
	Hotel      ServiceCategory = "Hotel"
	Holiday    ServiceCategory = "Holiday"
	Visa       ServiceCategory = "Visa"
	MICE       ServiceCategory = "MICE"
	Stationery ServiceCategory = "Stationery"
	GiftItems  ServiceCategory = "GiftItems"
	Goodies    ServiceCategory = "Goodies"
	Other      ServiceCategory = "Other"
)

// Categories lists every ServiceCategory in declaration order.
var Categories = []ServiceCategory{Flight, Hotel, Holiday, Visa, MICE, Stationery, GiftItems, Goodies, Other}

// Valid reports whether c is one of the nine canonical categories.
func (c ServiceCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Label is the human form used on exports and documents.
func (c ServiceCategory) Label() string {
	switch c {
	case GiftItems:
		return "Gift Items"
	case "":
		return string(Other)
	}
	return string(c)
}

// categoryRule pairs a category with its exact aliases and a looser
// prefix/substring heuristic. Both operate on normalized keys.
type categoryRule struct {
	category ServiceCategory
	exact    []string
	match    func(key string) bool
}

// categoryRules is evaluated top to bottom. Order matters where heuristics
// overlap: "touristvisa" must reach Visa before Holiday sees "tour".
var categoryRules = []categoryRule{
	{
		category: Flight,
		exact:    []string{"flight", "flights", "air", "airticket", "airtickets", "airfare", "airline", "ticket", "tickets"},
		match:    hasPrefix("flight", "air"),
	},
	{
		category: Visa,
		exact:    []string{"visa", "visas", "visaservice", "visaprocessing"},
		match:    contains("visa"),
	},
	{
		category: Hotel,
		exact:    []string{"hotel", "hotels", "accommodation", "lodging", "room", "rooms", "stay"},
		match:    contains("hotel", "stay", "accommodation", "lodging"),
	},
	{
		category: Holiday,
		exact:    []string{"holiday", "holidays", "package", "packages", "tour", "tours", "packagetour", "tourpackage", "vacation"},
		match:    contains("tour", "package", "holiday", "vacation"),
	},
	{
		category: MICE,
		exact:    []string{"mice", "event", "events", "conference", "conferences", "meeting", "meetings", "incentive", "incentives", "exhibition"},
		match:    contains("conference", "event", "meeting", "incentive", "exhibition"),
	},
	{
		category: Stationery,
		exact:    []string{"stationery", "stationary"},
		match:    contains("stationer", "stationar"),
	},
	{
		category: GiftItems,
		exact:    []string{"gift", "gifts", "giftitem", "giftitems", "gifting"},
		match:    contains("gift"),
	},
	{
		category: Goodies,
		exact:    []string{"goodies", "goodie", "goody", "merchandise", "merch", "swag"},
		match:    contains("goodie", "goody", "merch", "swag"),
	},
}

// ClassifyService maps any label (string, number, nil) to a category. Exact
// aliases across the whole table win over heuristics; among heuristics the
// first rule in table order wins. Unmatched input is Other.
func ClassifyService(raw any) ServiceCategory {
	key := NormalizeKey(raw)
	if key == "" {
		return Other
	}
	for _, rule := range categoryRules {
		for _, alias := range rule.exact {
			if key == alias {
				return rule.category
			}
		}
	}
	for _, rule := range categoryRules {
		if rule.match(key) {
			return rule.category
		}
	}
	return Other
}

// ParseServiceCategory accepts only canonical names, compared by normalized key.
func ParseServiceCategory(s string) (ServiceCategory, bool) {
	key := NormalizeKey(s)
	for _, c := range Categories {
		if NormalizeKey(string(c)) == key {
			return c, true
		}
	}
	return Other, false
}

func hasPrefix(prefixes ...string) func(string) bool {
	return func(key string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				return true
			}
		}
		return false
	}
}

func contains(parts ...string) func(string) bool {
	return func(key string) bool {
		for _, p := range parts {
			if strings.Contains(key, p) {
				return true
			}
		}
		return false
	}
}
