package core

import (
	"errors"
	"strings"
	"time"
)

type (
	Date struct {
		time.Time
	}

	// Outcome is a single expense line. Amount is in the minor currency unit.
	Outcome struct {
		ID               int64
		Date             Date
		Name             string
		Amount           int
		Quantity         int
		CategoryID       int
		ParentCategoryID int
		OutcomeBy        string
		CreditCard       bool
	}

	Income struct {
		ID         int64
		Date       Date
		Name       string
		Amount     int
		CategoryID int
		IncomeBy   string
	}

	Category struct {
		ID   int
		Name string
	}

	// ParentCategory groups outcome categories. Position in the ordered
	// parent list is what the parentCategoryId query parameter refers to.
	ParentCategory struct {
		ID         int
		Name       string
		Categories []Category
	}

	Member struct {
		ID   string
		Name string
	}
)

var (
	ErrMissingDate      = errors.New("date is required")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrMissingCategory  = errors.New("category is required")
	ErrNameTooLong      = errors.New("name too long (max 255 characters)")
	ErrUnknownParent    = errors.New("unknown parent category")
	ErrMalformedDate    = errors.New("malformed date")
	ErrMalformedInteger = errors.New("malformed integer")
)

const maxNameLength = 255

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// LineTotal is amount times quantity, widened so large baskets cannot overflow.
func (o Outcome) LineTotal() int64 {
	return int64(o.Amount) * int64(o.Quantity)
}

func (o Outcome) Validate() error {
	if err := o.Date.Validate(); err != nil {
		return err
	}
	if err := validateName(o.Name); err != nil {
		return err
	}
	if o.Amount < 0 {
		return ErrInvalidAmount
	}
	if o.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if o.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}

func (i Income) Validate() error {
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if err := validateName(i.Name); err != nil {
		return err
	}
	if i.Amount < 0 {
		return ErrInvalidAmount
	}
	if i.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}
