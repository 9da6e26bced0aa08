package core

// SummaryByDate is one bucket of an outcome series. OutcomeDate is either a
// calendar day or the first day of a month, depending on granularity.
type SummaryByDate struct {
	OutcomeDate Date  `json:"outcomeDate"`
	SubTotal    int64 `json:"subTotal"`
}

// SummaryByParentCategory is an outcome subtotal for one parent category.
type SummaryByParentCategory struct {
	ParentCategoryName string `json:"parentCategoryName"`
	SubTotal           int64  `json:"subTotal"`
}

// IncomeSummary is an income bucket aligned to an outcome period key.
type IncomeSummary struct {
	IncomeDate Date  `json:"incomeDate"`
	SubTotal   int64 `json:"subTotal"`
}
