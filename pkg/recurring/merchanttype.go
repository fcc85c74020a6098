package recurring

import "strings"

// typeParams gates a merchant type's eligibility: how many occurrences make a
// candidate, how much amount variation it tolerates, and how strongly the
// type recognition itself counts toward confidence.
type typeParams struct {
	minOccurrences    int
	maxVariation      float64 // tolerated coefficient of variation
	recognitionWeight float64
}

var paramsByType = map[MerchantType]typeParams{
	MerchantTypeSubscription: {minOccurrences: 2, maxVariation: 0.05, recognitionWeight: 0.30},
	MerchantTypeUtility:      {minOccurrences: 2, maxVariation: 0.15, recognitionWeight: 0.28},
	MerchantTypeInsurance:    {minOccurrences: 2, maxVariation: 0.10, recognitionWeight: 0.28},
	MerchantTypeLoan:         {minOccurrences: 3, maxVariation: 0.05, recognitionWeight: 0.25},
	MerchantTypeUnknown:      {minOccurrences: 3, maxVariation: 0.10, recognitionWeight: 0.10},
	// Discretionary merchants never produce a series. The large negative
	// recognition weight guarantees exclusion even if one slips past the
	// grouping gate.
	MerchantTypeDiscretionary: {minOccurrences: 3, maxVariation: 0.05, recognitionWeight: -1.0},
}

// Merchant-pattern heuristics, checked in order of specificity. Substring
// match against the normalized merchant key.
var (
	subscriptionPatterns = []string{
		"netflix", "spotify", "hulu", "disney plus", "hbo max", "youtube",
		"audible", "amazon prime", "apple", "google", "patreon", "substack",
		"planet fitness", "la fitness", "equinox", "24 hour fitness", "gym",
		"membership", "subscription",
	}
	utilityPatterns = []string{
		"comcast", "xfinity", "spectrum", "cox", "at&t", "verizon", "t-mobile",
		"pg&e", "con edison", "duke energy", "electric", "water", "sewer",
		"energy", "power", "utility", "internet",
	}
	insurancePatterns = []string{
		"geico", "state farm", "allstate", "progressive", "insurance",
	}
	loanPatterns = []string{
		"mortgage", "loan", "lending", "sallie mae", "nelnet", "financing",
	}
	discretionaryPatterns = []string{
		"uber", "lyft", "doordash", "grubhub", "starbucks", "mcdonalds",
		"chipotle", "restaurant", "cafe", "coffee", "bar", "bakery", "diner",
		"amazon", "walmart", "target", "costco", "ebay", "etsy", "store", "shop",
	}
)

// Category-name heuristics, applied when the merchant patterns are silent.
var categoryNameTypes = []struct {
	fragment     string
	merchantType MerchantType
}{
	{"subscription", MerchantTypeSubscription},
	{"utilit", MerchantTypeUtility},
	{"insurance", MerchantTypeInsurance},
	{"loan", MerchantTypeLoan},
	{"food", MerchantTypeDiscretionary},
	{"restaurant", MerchantTypeDiscretionary},
	{"grocer", MerchantTypeDiscretionary},
	{"shopping", MerchantTypeDiscretionary},
	{"entertainment", MerchantTypeDiscretionary},
	{"travel", MerchantTypeDiscretionary},
}

// classifyMerchantType types a merchant from its normalized key, falling back
// to the name of its assigned category.
func classifyMerchantType(merchantKey, categoryName string) MerchantType {
	if matchesAny(merchantKey, subscriptionPatterns) {
		return MerchantTypeSubscription
	}
	if matchesAny(merchantKey, utilityPatterns) {
		return MerchantTypeUtility
	}
	if matchesAny(merchantKey, insurancePatterns) {
		return MerchantTypeInsurance
	}
	if matchesAny(merchantKey, loanPatterns) {
		return MerchantTypeLoan
	}
	if matchesAny(merchantKey, discretionaryPatterns) {
		return MerchantTypeDiscretionary
	}

	name := strings.ToLower(categoryName)
	if name != "" {
		for _, cn := range categoryNameTypes {
			if strings.Contains(name, cn.fragment) {
				return cn.merchantType
			}
		}
	}
	return MerchantTypeUnknown
}

func matchesAny(key string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}
