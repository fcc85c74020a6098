package merchant

import "regexp"

// stopWords are tokens that carry no merchant identity: corporate suffixes and
// the payment-channel boilerplate banks prepend to descriptions.
var stopWords = map[string]struct{}{
	// corporate suffixes
	"inc":  {},
	"llc":  {},
	"ltd":  {},
	"corp": {},
	"co":   {},
	"plc":  {},
	// payment-channel boilerplate
	"pos":         {},
	"debit":       {},
	"credit":      {},
	"card":        {},
	"checkcard":   {},
	"visa":        {},
	"mastercard":  {},
	"ach":         {},
	"pmt":         {},
	"payment":     {},
	"purchase":    {},
	"recurring":   {},
	"autopay":     {},
	"online":      {},
	"web":         {},
	"www":         {},
	"com":         {},
	"paypal":      {},
	"sq":          {},
	"tst":         {},
	"transaction": {},
	"pending":     {},
}

// knownMerchant maps a family of textual variants onto one canonical key.
type knownMerchant struct {
	pattern   *regexp.Regexp
	canonical string
}

// knownMerchants is an ordered rule list: first match wins, so more specific
// patterns (uber eats, amazon prime) must come before their generic
// counterparts (uber, amazon). Every pattern also matches its own canonical
// name, which keeps normalization idempotent.
var knownMerchants = []knownMerchant{
	{regexp.MustCompile(`\bnetflix\b`), "netflix"},
	{regexp.MustCompile(`\bspotify\b`), "spotify"},
	{regexp.MustCompile(`\bhulu\b`), "hulu"},
	{regexp.MustCompile(`\bdisney\s*(plus|\+)?\b`), "disney plus"},
	{regexp.MustCompile(`\bhbo\s*max\b|\bmax\s+subscription\b`), "hbo max"},
	{regexp.MustCompile(`\byoutube\s*(premium|tv)?\b`), "youtube"},
	{regexp.MustCompile(`\baudible\b`), "audible"},
	{regexp.MustCompile(`\bamazon\s*prime\b|\bamzn\s*prime\b`), "amazon prime"},
	{regexp.MustCompile(`\bamazon\b|\bamzn\b`), "amazon"},
	{regexp.MustCompile(`\bapple\s*(music|tv|icloud|one|services)?\b|\bitunes\b`), "apple"},
	{regexp.MustCompile(`\bgoogle\s*(one|storage|play)?\b`), "google"},
	{regexp.MustCompile(`\buber\s*eats\b`), "uber eats"},
	{regexp.MustCompile(`\buber\b`), "uber"},
	{regexp.MustCompile(`\blyft\b`), "lyft"},
	{regexp.MustCompile(`\bdoordash\b`), "doordash"},
	{regexp.MustCompile(`\bgrubhub\b`), "grubhub"},
	{regexp.MustCompile(`\bstarbucks\b`), "starbucks"},
	{regexp.MustCompile(`\bmcdonald'?s?\b`), "mcdonalds"},
	{regexp.MustCompile(`\bchipotle\b`), "chipotle"},
	{regexp.MustCompile(`\bwal\s*-?\s*mart\b|\bwalmart\b`), "walmart"},
	{regexp.MustCompile(`\btarget\b`), "target"},
	{regexp.MustCompile(`\bcostco\b`), "costco"},
	{regexp.MustCompile(`\bkroger\b`), "kroger"},
	{regexp.MustCompile(`\bwhole\s*foods\b|\bwholefds\b`), "whole foods"},
	{regexp.MustCompile(`\btrader\s*joe'?s?\b`), "trader joes"},
	{regexp.MustCompile(`\bat&t\b|\batt\s*(wireless|mobility)\b`), "at&t"},
	{regexp.MustCompile(`\bverizon\b|\bvzw\b`), "verizon"},
	{regexp.MustCompile(`\bt\s*-?\s*mobile\b|\btmobile\b`), "t-mobile"},
	{regexp.MustCompile(`\bcomcast\b|\bxfinity\b`), "comcast"},
	{regexp.MustCompile(`\bspectrum\b|\bcharter\s*comm\b`), "spectrum"},
	{regexp.MustCompile(`\bcox\s*comm\w*\b`), "cox"},
	{regexp.MustCompile(`\bpg&e\b|\bpacific\s*gas\b`), "pg&e"},
	{regexp.MustCompile(`\bcon\s*edison\b|\bconed\b`), "con edison"},
	{regexp.MustCompile(`\bduke\s*energy\b`), "duke energy"},
	{regexp.MustCompile(`\bgeico\b`), "geico"},
	{regexp.MustCompile(`\bstate\s*farm\b`), "state farm"},
	{regexp.MustCompile(`\ballstate\b`), "allstate"},
	{regexp.MustCompile(`\bprogressive\s*(ins\w*)?\b`), "progressive"},
	{regexp.MustCompile(`\bplanet\s*fitness\b`), "planet fitness"},
	{regexp.MustCompile(`\bla\s*fitness\b`), "la fitness"},
	{regexp.MustCompile(`\bequinox\b`), "equinox"},
	{regexp.MustCompile(`\b24\s*hour\s*fitness\b`), "24 hour fitness"},
	{regexp.MustCompile(`\bshell\s*(oil|service)?\b`), "shell"},
	{regexp.MustCompile(`\bchevron\b`), "chevron"},
	{regexp.MustCompile(`\bexxon\s*(mobil)?\b`), "exxon"},
	{regexp.MustCompile(`\bcvs\b`), "cvs"},
	{regexp.MustCompile(`\bwalgreens\b`), "walgreens"},
	{regexp.MustCompile(`\bvenmo\b`), "venmo"},
	{regexp.MustCompile(`\bzelle\b`), "zelle"},
}
