// Package remote talks to the outcome and income REST services. Collection
// responses use the HAL layout: {"_embedded": {"<rel>": [...]}}.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moneygr/internal/core"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a client rooted at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse inout uri: %w", err)
	}
	return &Client{base: u, http: &http.Client{Timeout: timeout}}, nil
}

// NewWithHTTPClient lets tests point the client at an httptest server.
func NewWithHTTPClient(baseURL string, hc *http.Client) (*Client, error) {
	c, err := New(baseURL, 0)
	if err != nil {
		return nil, err
	}
	c.http = hc
	return c, nil
}

type outcomeDTO struct {
	OutcomeID        int64     `json:"outcomeId"`
	OutcomeName      string    `json:"outcomeName"`
	Amount           int       `json:"amount"`
	Quantity         int       `json:"quantity"`
	OutcomeDate      core.Date `json:"outcomeDate"`
	CategoryID       int       `json:"categoryId"`
	ParentCategoryID int       `json:"parentCategoryId,omitempty"`
	OutcomeBy        string    `json:"outcomeBy"`
	CreditCard       bool      `json:"creditCard"`
}

func (d outcomeDTO) toCore() core.Outcome {
	return core.Outcome{
		ID:               d.OutcomeID,
		Date:             d.OutcomeDate,
		Name:             d.OutcomeName,
		Amount:           d.Amount,
		Quantity:         d.Quantity,
		CategoryID:       d.CategoryID,
		ParentCategoryID: d.ParentCategoryID,
		OutcomeBy:        d.OutcomeBy,
		CreditCard:       d.CreditCard,
	}
}

type incomeDTO struct {
	IncomeID   int64     `json:"incomeId"`
	IncomeName string    `json:"incomeName"`
	Amount     int       `json:"amount"`
	IncomeDate core.Date `json:"incomeDate"`
	CategoryID int       `json:"categoryId"`
	IncomeBy   string    `json:"incomeBy"`
}

func (d incomeDTO) toCore() core.Income {
	return core.Income{
		ID:         d.IncomeID,
		Date:       d.IncomeDate,
		Name:       d.IncomeName,
		Amount:     d.Amount,
		CategoryID: d.CategoryID,
		IncomeBy:   d.IncomeBy,
	}
}

type categoryDTO struct {
	CategoryID   int    `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

type parentCategoryDTO struct {
	ParentCategoryID   int           `json:"parentCategoryId"`
	ParentCategoryName string        `json:"parentCategoryName"`
	Categories         []categoryDTO `json:"categories"`
}

type incomeCategoryDTO struct {
	IncomeCategoryID   int    `json:"incomeCategoryId"`
	IncomeCategoryName string `json:"incomeCategoryName"`
}

type memberDTO struct {
	MemberID   string `json:"memberId"`
	MemberName string `json:"memberName"`
}

type halCollection[T any] struct {
	Embedded map[string][]T `json:"_embedded"`
}

func dateParams(from, to core.Date) url.Values {
	return url.Values{"fromDate": {from.String()}, "toDate": {to.String()}}
}

func (c *Client) FindByOutcomeDate(ctx context.Context, from, to core.Date) ([]core.Outcome, error) {
	return c.outcomes(ctx, "/outcomes/search/findByOutcomeDate", dateParams(from, to))
}

func (c *Client) FindByOutcomeNameContaining(ctx context.Context, keyword string) ([]core.Outcome, error) {
	return c.outcomes(ctx, "/outcomes/search/findByOutcomeNameContaining", url.Values{"outcomeName": {keyword}})
}

func (c *Client) FindByParentCategoryID(ctx context.Context, parentCategoryID int, from, to core.Date) ([]core.Outcome, error) {
	q := dateParams(from, to)
	q.Set("parentCategoryId", strconv.Itoa(parentCategoryID))
	return c.outcomes(ctx, "/outcomes/search/findByParentCategoryId", q)
}

func (c *Client) outcomes(ctx context.Context, path string, q url.Values) ([]core.Outcome, error) {
	var body halCollection[outcomeDTO]
	if err := c.get(ctx, path, q, &body); err != nil {
		return nil, err
	}
	dtos := body.Embedded["outcomes"]
	out := make([]core.Outcome, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (c *Client) ReportByDate(ctx context.Context, from, to core.Date) ([]core.SummaryByDate, error) {
	var out []core.SummaryByDate
	if err := c.get(ctx, "/outcomes/reportByDate", dateParams(from, to), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ReportByParentCategory(ctx context.Context, from, to core.Date) ([]core.SummaryByParentCategory, error) {
	var out []core.SummaryByParentCategory
	if err := c.get(ctx, "/outcomes/reportByParentCategory", dateParams(from, to), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FindByIncomeDate(ctx context.Context, from, to core.Date) ([]core.Income, error) {
	var body halCollection[incomeDTO]
	if err := c.get(ctx, "/incomes/search/findByIncomeDate", dateParams(from, to), &body); err != nil {
		return nil, err
	}
	dtos := body.Embedded["incomes"]
	out := make([]core.Income, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (c *Client) ParentCategories(ctx context.Context) ([]core.ParentCategory, error) {
	var body halCollection[parentCategoryDTO]
	if err := c.get(ctx, "/parentCategories", url.Values{"projection": {"withCategories"}}, &body); err != nil {
		return nil, err
	}
	var out []core.ParentCategory
	for _, p := range body.Embedded["parentCategories"] {
		pc := core.ParentCategory{ID: p.ParentCategoryID, Name: p.ParentCategoryName}
		for _, c := range p.Categories {
			pc.Categories = append(pc.Categories, core.Category{ID: c.CategoryID, Name: c.CategoryName})
		}
		out = append(out, pc)
	}
	return out, nil
}

func (c *Client) IncomeCategories(ctx context.Context) ([]core.Category, error) {
	var body halCollection[incomeCategoryDTO]
	if err := c.get(ctx, "/incomeCategories", nil, &body); err != nil {
		return nil, err
	}
	var out []core.Category
	for _, ic := range body.Embedded["incomeCategories"] {
		out = append(out, core.Category{ID: ic.IncomeCategoryID, Name: ic.IncomeCategoryName})
	}
	return out, nil
}

func (c *Client) Members(ctx context.Context) ([]core.Member, error) {
	var body halCollection[memberDTO]
	if err := c.get(ctx, "/members", nil, &body); err != nil {
		return nil, err
	}
	var out []core.Member
	for _, m := range body.Embedded["members"] {
		out = append(out, core.Member{ID: m.MemberID, Name: m.MemberName})
	}
	return out, nil
}

// SaveOutcome posts o and returns the id from the response body, if any.
func (c *Client) SaveOutcome(ctx context.Context, o core.Outcome) (int64, error) {
	var created outcomeDTO
	in := outcomeDTO{
		OutcomeName:      o.Name,
		Amount:           o.Amount,
		Quantity:         o.Quantity,
		OutcomeDate:      o.Date,
		CategoryID:       o.CategoryID,
		ParentCategoryID: o.ParentCategoryID,
		OutcomeBy:        o.OutcomeBy,
		CreditCard:       o.CreditCard,
	}
	if err := c.post(ctx, "/outcomes", in, &created); err != nil {
		return 0, err
	}
	return created.OutcomeID, nil
}

func (c *Client) SaveIncome(ctx context.Context, i core.Income) (int64, error) {
	var created incomeDTO
	in := incomeDTO{
		IncomeName: i.Name,
		Amount:     i.Amount,
		IncomeDate: i.Date,
		CategoryID: i.CategoryID,
		IncomeBy:   i.IncomeBy,
	}
	if err := c.post(ctx, "/incomes", in, &created); err != nil {
		return 0, err
	}
	return created.IncomeID, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, q), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/hal+json, application/json")
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/hal+json, application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: req.Method, URL: req.URL.Path, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", req.URL.Path, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
