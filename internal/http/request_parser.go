package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"moneygr/internal/core"
)

// Query and form parameter names.
const (
	paramFromDate         = "fromDate"
	paramToDate           = "toDate"
	paramKeyword          = "keyword"
	paramParentCategoryID = "parentCategoryId"
	paramStack            = "stack"

	cookieCreditCard = "creditCard"
)

var errMalformedFlag = errors.New("malformed boolean flag")

// dateParam returns the zero date when key is absent or blank.
func dateParam(q url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(v)
}

// rangeParams reads fromDate/toDate. Without fromDate, def is returned; a
// missing toDate ends at the last day of fromDate's month.
func rangeParams(q url.Values, def core.DateRange) (core.DateRange, error) {
	from, err := dateParam(q, paramFromDate)
	if err != nil {
		return core.DateRange{}, err
	}
	to, err := dateParam(q, paramToDate)
	if err != nil {
		return core.DateRange{}, err
	}
	if from.IsZero() {
		return def, nil
	}
	return core.RangeFrom(from, to), nil
}

// boolParam accepts the strconv.ParseBool spellings plus "on"; blank is false.
func boolParam(v string) (bool, error) {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "":
		return false, nil
	case "on":
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %q", errMalformedFlag, v)
	}
	return b, nil
}

// creditCardCookie pre-fills the credit card flag of the next outcome form.
func creditCardCookie(r *http.Request) bool {
	c, err := r.Cookie(cookieCreditCard)
	if err != nil {
		return false
	}
	b, _ := strconv.ParseBool(c.Value)
	return b
}

// outcomeForm is the outcome entry form as typed by the user, kept for
// redisplay when validation fails.
type outcomeForm struct {
	Name       string
	Amount     string
	Quantity   string
	Date       string
	CategoryID string
	OutcomeBy  string
	CreditCard bool
}

type incomeForm struct {
	Name       string
	Amount     string
	Date       string
	CategoryID string
	IncomeBy   string
}

func readOutcomeForm(form url.Values) outcomeForm {
	cc, _ := boolParam(form.Get("creditCard"))
	return outcomeForm{
		Name:       sanitizeInput(form.Get("outcomeName")),
		Amount:     strings.TrimSpace(form.Get("amount")),
		Quantity:   strings.TrimSpace(form.Get("quantity")),
		Date:       strings.TrimSpace(form.Get("outcomeDate")),
		CategoryID: strings.TrimSpace(form.Get("categoryId")),
		OutcomeBy:  strings.TrimSpace(form.Get("outcomeBy")),
		CreditCard: cc,
	}
}

func readIncomeForm(form url.Values) incomeForm {
	return incomeForm{
		Name:       sanitizeInput(form.Get("incomeName")),
		Amount:     strings.TrimSpace(form.Get("amount")),
		Date:       strings.TrimSpace(form.Get("incomeDate")),
		CategoryID: strings.TrimSpace(form.Get("categoryId")),
		IncomeBy:   strings.TrimSpace(form.Get("incomeBy")),
	}
}

// toOutcome converts the form. Fields that fail to parse are left zero so
// that validation reports them; the first parse error is returned.
func (f outcomeForm) toOutcome() (core.Outcome, error) {
	o := core.Outcome{Name: f.Name, Quantity: 1, OutcomeBy: f.OutcomeBy, CreditCard: f.CreditCard}
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if f.Date == "" {
		keep(core.ErrMissingDate)
	} else if d, err := core.ParseDate(f.Date); err != nil {
		keep(core.ErrMissingDate)
	} else {
		o.Date = d
	}
	if amount, err := core.ParseAmount(f.Amount); err != nil {
		keep(err)
	} else {
		o.Amount = amount
	}
	if f.Quantity != "" {
		q, err := strconv.Atoi(f.Quantity)
		if err != nil || q < 1 {
			keep(core.ErrInvalidQuantity)
		}
		o.Quantity = q
	}
	if id, err := core.ParseID(f.CategoryID); err != nil {
		keep(core.ErrMissingCategory)
	} else {
		o.CategoryID = id
	}
	if firstErr == nil {
		firstErr = o.Validate()
	}
	return o, firstErr
}

func (f incomeForm) toIncome() (core.Income, error) {
	i := core.Income{Name: f.Name, IncomeBy: f.IncomeBy}
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if d, err := core.ParseDate(f.Date); f.Date == "" || err != nil {
		keep(core.ErrMissingDate)
	} else {
		i.Date = d
	}
	if amount, err := core.ParseAmount(f.Amount); err != nil {
		keep(err)
	} else {
		i.Amount = amount
	}
	if id, err := core.ParseID(f.CategoryID); err != nil {
		keep(core.ErrMissingCategory)
	} else {
		i.CategoryID = id
	}
	if firstErr == nil {
		firstErr = i.Validate()
	}
	return i, firstErr
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
