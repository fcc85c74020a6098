package categorize

import "BudgetHero/pkg/ledger"

// DefaultCategories is the built-in category reference table, used when no
// administrative table has been loaded.
func DefaultCategories() []ledger.Category {
	return []ledger.Category{
		{ID: "cat-income", Name: "Income", LedgerType: ledger.LedgerTypeIncome, SortOrder: 1},
		{ID: "cat-food", Name: "Food & Drink", LedgerType: ledger.LedgerTypeExpense, SortOrder: 2},
		{ID: "cat-groceries", Name: "Groceries", LedgerType: ledger.LedgerTypeExpense, SortOrder: 3},
		{ID: "cat-transport", Name: "Transportation", LedgerType: ledger.LedgerTypeExpense, SortOrder: 4},
		{ID: "cat-travel", Name: "Travel", LedgerType: ledger.LedgerTypeExpense, SortOrder: 5},
		{ID: "cat-entertainment", Name: "Entertainment", LedgerType: ledger.LedgerTypeExpense, SortOrder: 6},
		{ID: "cat-shopping", Name: "Shopping", LedgerType: ledger.LedgerTypeExpense, SortOrder: 7},
		{ID: "cat-health", Name: "Health & Fitness", LedgerType: ledger.LedgerTypeExpense, SortOrder: 8},
		{ID: "cat-utilities", Name: "Utilities", LedgerType: ledger.LedgerTypeExpense, SortOrder: 9},
		{ID: "cat-insurance", Name: "Insurance", LedgerType: ledger.LedgerTypeExpense, SortOrder: 10},
		{ID: "cat-loans", Name: "Loan Payments", LedgerType: ledger.LedgerTypeExpense, SortOrder: 11},
		{ID: "cat-subscriptions", Name: "Subscriptions", LedgerType: ledger.LedgerTypeExpense, SortOrder: 12},
		{ID: "cat-fees", Name: "Fees & Charges", LedgerType: ledger.LedgerTypeExpense, SortOrder: 13},
		{ID: "cat-transfers", Name: "Transfers", LedgerType: ledger.LedgerTypeTransfer, SortOrder: 14},
		{ID: "cat-other", Name: "Other", LedgerType: ledger.LedgerTypeExpense, SortOrder: 15},
		{ID: "cat-uncategorized", Name: "Uncategorized", LedgerType: ledger.LedgerTypeExpense, SortOrder: 16},
	}
}

// DefaultRules is the built-in matching-rule table: aggregator code mappings
// plus curated keyword groups. Priority order matters — specific groups
// (streaming, insurance) sit above broad ones (shopping) so "amazon prime"
// resolves before "amazon".
func DefaultRules() []ledger.CategoryRule {
	return []ledger.CategoryRule{
		// Aggregator detailed codes. Confidence is the table-provided value.
		{ID: 1, Priority: 10, CategoryID: "cat-groceries", CategoryName: "Groceries", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "FOOD_AND_DRINK_GROCERIES", Confidence: 0.95},
		{ID: 2, Priority: 10, CategoryID: "cat-food", CategoryName: "Food & Drink", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "FOOD_AND_DRINK_RESTAURANT", Confidence: 0.92},
		{ID: 3, Priority: 10, CategoryID: "cat-food", CategoryName: "Food & Drink", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "FOOD_AND_DRINK_COFFEE", Confidence: 0.92},
		{ID: 4, Priority: 10, CategoryID: "cat-subscriptions", CategoryName: "Subscriptions", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "ENTERTAINMENT_TV_AND_MOVIES", Confidence: 0.90},
		{ID: 5, Priority: 10, CategoryID: "cat-subscriptions", CategoryName: "Subscriptions", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "ENTERTAINMENT_MUSIC_AND_AUDIO", Confidence: 0.90},
		{ID: 6, Priority: 10, CategoryID: "cat-utilities", CategoryName: "Utilities", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "RENT_AND_UTILITIES_GAS_AND_ELECTRICITY", Confidence: 0.95},
		{ID: 7, Priority: 10, CategoryID: "cat-utilities", CategoryName: "Utilities", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "RENT_AND_UTILITIES_INTERNET_AND_CABLE", Confidence: 0.95},
		{ID: 8, Priority: 10, CategoryID: "cat-transport", CategoryName: "Transportation", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "TRANSPORTATION_TAXIS_AND_RIDE_SHARES", Confidence: 0.92},
		{ID: 9, Priority: 10, CategoryID: "cat-transport", CategoryName: "Transportation", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "TRANSPORTATION_GAS", Confidence: 0.92},
		{ID: 10, Priority: 10, CategoryID: "cat-loans", CategoryName: "Loan Payments", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "LOAN_PAYMENTS_MORTGAGE_PAYMENT", Confidence: 0.95},
		{ID: 11, Priority: 10, CategoryID: "cat-loans", CategoryName: "Loan Payments", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "LOAN_PAYMENTS_CAR_PAYMENT", Confidence: 0.95},

		// Aggregator primary codes. The classifier multiplies these by the
		// primary-mapping penalty to reflect the coarser signal.
		{ID: 30, Priority: 20, CategoryID: "cat-income", CategoryName: "Income", LedgerType: ledger.LedgerTypeIncome, AggregatorCode: "INCOME", Confidence: 0.95},
		{ID: 31, Priority: 20, CategoryID: "cat-food", CategoryName: "Food & Drink", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "FOOD_AND_DRINK", Confidence: 0.90},
		{ID: 32, Priority: 20, CategoryID: "cat-transport", CategoryName: "Transportation", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "TRANSPORTATION", Confidence: 0.90},
		{ID: 33, Priority: 20, CategoryID: "cat-travel", CategoryName: "Travel", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "TRAVEL", Confidence: 0.90},
		{ID: 34, Priority: 20, CategoryID: "cat-entertainment", CategoryName: "Entertainment", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "ENTERTAINMENT", Confidence: 0.88},
		{ID: 35, Priority: 20, CategoryID: "cat-shopping", CategoryName: "Shopping", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "GENERAL_MERCHANDISE", Confidence: 0.85},
		{ID: 36, Priority: 20, CategoryID: "cat-health", CategoryName: "Health & Fitness", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "MEDICAL", Confidence: 0.90},
		{ID: 37, Priority: 20, CategoryID: "cat-health", CategoryName: "Health & Fitness", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "PERSONAL_CARE", Confidence: 0.85},
		{ID: 38, Priority: 20, CategoryID: "cat-utilities", CategoryName: "Utilities", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "RENT_AND_UTILITIES", Confidence: 0.90},
		{ID: 39, Priority: 20, CategoryID: "cat-loans", CategoryName: "Loan Payments", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "LOAN_PAYMENTS", Confidence: 0.92},
		{ID: 40, Priority: 20, CategoryID: "cat-transfers", CategoryName: "Transfers", LedgerType: ledger.LedgerTypeTransfer, AggregatorCode: "TRANSFER_IN", Confidence: 0.90},
		{ID: 41, Priority: 20, CategoryID: "cat-transfers", CategoryName: "Transfers", LedgerType: ledger.LedgerTypeTransfer, AggregatorCode: "TRANSFER_OUT", Confidence: 0.90},
		{ID: 42, Priority: 20, CategoryID: "cat-fees", CategoryName: "Fees & Charges", LedgerType: ledger.LedgerTypeExpense, AggregatorCode: "BANK_FEES", Confidence: 0.92},

		// Keyword groups, specific before broad.
		{ID: 60, Priority: 30, CategoryID: "cat-subscriptions", CategoryName: "Subscriptions", LedgerType: ledger.LedgerTypeExpense, Confidence: 0.95,
			Keywords: []string{"netflix", "spotify", "hulu", "disney plus", "hbo max", "youtube premium", "audible", "amazon prime", "apple music", "icloud", "google one", "patreon", "substack"}},
		{ID: 61, Priority: 31, CategoryID: "cat-utilities", CategoryName: "Utilities", LedgerType: ledger.LedgerTypeExpense, Confidence: 0.90,
			Keywords: []string{"comcast", "xfinity", "spectrum", "cox", "at&t", "verizon", "t-mobile", "pg&e", "con edison", "duke energy", "electric", "water bill", "sewer", "internet"}},
		{ID: 62, Priority: 32, CategoryID: "cat-insurance", CategoryName: "Insurance", LedgerType: ledger.LedgerTypeExpense, Confidence: 0.90,
			Keywords: []string{"geico", "state farm", "allstate", "progressive", "insurance", "ins premium"}},
		{ID: 63, Priority: 33, CategoryID: "cat-loans", CategoryName: "Loan Payments", LedgerType: ledger.LedgerTypeExpense, Confidence: 0.88,
			Keywords: []string{"mortgage", "loan", "lending", "sallie mae", "nelnet", "student ln"}},
		{ID: 64, Priority: 34, CategoryID: "cat-health", CategoryName: "Health & Fitness", LedgerType: ledger.LedgerTypeExpense, Confidence: 0.85,
			Keywords: []string{"planet fitness", "la fitness", "equinox", "24 hour fitness", "gym", "pharmacy", "cvs", "walgreens", "clinic", "dental"}},
		{ID: 65, Priority: 35, CategoryID: "cat-groceries", CategoryName: "Groceries", LedgerType: ledger.LedgerTypeExpense, Confidence: 0.85,
			Keywords: []string{"kroger", "safeway", "whole foods", "trader joes", "aldi", "grocery", "supermarket", "market"}},
		{ID: 66, Priority: 36, CategoryID: "cat-food", CategoryName: "Food & Drink", LedgerType: ledger.LedgerTypeExpense, Confidence: 0.85,
			Keywords: []string{"starbucks", "mcdonalds", "chipotle", "doordash", "uber eats", "grubhub", "restaurant", "cafe", "coffee", "pizza", "diner", "bakery"}},
		{ID: 67, Priority: 37, CategoryID: "cat-transport", CategoryName: "Transportation", LedgerType: ledger.LedgerTypeExpense, Confidence: 0.85,
			Keywords: []string{"uber", "lyft", "shell", "chevron", "exxon", "parking", "toll", "transit", "metro"}},
		{ID: 68, Priority: 38, CategoryID: "cat-travel", CategoryName: "Travel", LedgerType: ledger.LedgerTypeExpense, Confidence: 0.85,
			Keywords: []string{"airbnb", "marriott", "hilton", "hyatt", "expedia", "airline", "airways", "hotel"}},
		{ID: 69, Priority: 39, CategoryID: "cat-fees", CategoryName: "Fees & Charges", LedgerType: ledger.LedgerTypeExpense, Confidence: 0.90,
			Keywords: []string{"overdraft", "service charge", "atm fee", "late fee", "annual fee", "interest charge"}},
		{ID: 70, Priority: 40, CategoryID: "cat-transfers", CategoryName: "Transfers", LedgerType: ledger.LedgerTypeTransfer, Confidence: 0.80,
			Keywords: []string{"venmo", "zelle", "wire transfer", "withdrawal", "atm"}},
		{ID: 71, Priority: 41, CategoryID: "cat-shopping", CategoryName: "Shopping", LedgerType: ledger.LedgerTypeExpense, Confidence: 0.80,
			Keywords: []string{"amazon", "walmart", "target", "costco", "ebay", "etsy", "best buy", "ikea", "home depot", "lowes"}},
	}
}
