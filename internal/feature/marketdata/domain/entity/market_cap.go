package entity

// MarketCapCategory is a Japanese-market size bucket.
type MarketCapCategory struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Color     string `json:"color"`
	Threshold string `json:"-"`
}

// MarketCap is a ticker's capitalization in yen and its bucket.
type MarketCap struct {
	Value    float64           `json:"market_cap"`
	Category MarketCapCategory `json:"market_cap_category"`
}

// 閾値（円）
const (
	MegaCapMin  = 10_000_000_000_000 // 10兆円
	LargeCapMin = 1_000_000_000_000  // 1兆円
	MidCapMin   = 300_000_000_000    // 3000億円
	SmallCapMin = 30_000_000_000     // 300億円
)

var (
	CategoryMega    = MarketCapCategory{ID: "mega", Label: "超大型", Color: "purple", Threshold: "10兆円以上"}
	CategoryLarge   = MarketCapCategory{ID: "large", Label: "大型", Color: "blue", Threshold: "1兆円〜10兆円"}
	CategoryMid     = MarketCapCategory{ID: "mid", Label: "中型", Color: "green", Threshold: "3000億円〜1兆円"}
	CategorySmall   = MarketCapCategory{ID: "small", Label: "小型", Color: "yellow", Threshold: "300億円〜3000億円"}
	CategoryMicro   = MarketCapCategory{ID: "micro", Label: "超小型", Color: "red", Threshold: "300億円未満"}
	CategoryUnknown = MarketCapCategory{ID: "unknown", Label: "不明", Color: "gray", Threshold: "不明"}
)

// MarketCapCategories lists every bucket, largest first, unknown last.
var MarketCapCategories = []MarketCapCategory{
	CategoryMega, CategoryLarge, CategoryMid, CategorySmall, CategoryMicro, CategoryUnknown,
}

// ClassifyMarketCap buckets a capitalization in yen. Zero means unknown.
func ClassifyMarketCap(yen float64) MarketCapCategory {
	switch {
	case yen == 0:
		return CategoryUnknown
	case yen >= MegaCapMin:
		return CategoryMega
	case yen >= LargeCapMin:
		return CategoryLarge
	case yen >= MidCapMin:
		return CategoryMid
	case yen >= SmallCapMin:
		return CategorySmall
	default:
		return CategoryMicro
	}
}

// UnknownMarketCap is the fallback when the provider has no figure.
func UnknownMarketCap() MarketCap {
	return MarketCap{Value: 0, Category: CategoryUnknown}
}
