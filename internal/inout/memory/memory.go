// Package memory is an in-process inout.Store used for local runs and tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"moneygr/internal/core"
)

type Store struct {
	mu         sync.RWMutex
	parents    []core.ParentCategory
	incomeCats []core.Category
	members    []core.Member
	outcomes   []core.Outcome
	incomes    []core.Income
	nextID     int64
}

func New(parents []core.ParentCategory, incomeCats []core.Category, members []core.Member) *Store {
	return &Store{parents: parents, incomeCats: incomeCats, members: members}
}

// NewFromFiles seeds lookup tables from base/seed_categories.txt where each
// line reads "Parent: Child, Child". Missing or empty files fall back to a
// small default set.
func NewFromFiles(base string) *Store {
	parents := readParents(filepath.Join(base, "seed_categories.txt"))
	if len(parents) == 0 {
		parents = defaultParents()
	}
	incomeCats := toCategories(readLines(filepath.Join(base, "seed_income_categories.txt")), 1)
	if len(incomeCats) == 0 {
		incomeCats = []core.Category{{ID: 1, Name: "Salary"}, {ID: 2, Name: "Bonus"}, {ID: 3, Name: "Other income"}}
	}
	return New(parents, incomeCats, nil)
}

func defaultParents() []core.ParentCategory {
	return []core.ParentCategory{
		{ID: 1, Name: "Food", Categories: []core.Category{{ID: 1, Name: "Groceries"}, {ID: 2, Name: "Eating out"}}},
		{ID: 2, Name: "Home", Categories: []core.Category{{ID: 3, Name: "Rent"}, {ID: 4, Name: "Utilities"}}},
		{ID: 3, Name: "Transport", Categories: []core.Category{{ID: 5, Name: "Train and bus"}}},
		{ID: 4, Name: "Other", Categories: []core.Category{{ID: 6, Name: "Miscellaneous"}}},
	}
}

// AddMember registers a member for display lookups.
func (s *Store) AddMember(m core.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.members {
		if s.members[i].ID == m.ID {
			s.members[i] = m
			return
		}
	}
	s.members = append(s.members, m)
}

func (s *Store) SaveOutcome(_ context.Context, o core.Outcome) (int64, error) {
	if err := o.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ParentCategoryID == 0 {
		o.ParentCategoryID = s.parentOf(o.CategoryID)
	}
	s.nextID++
	o.ID = s.nextID
	s.outcomes = append(s.outcomes, o)
	return o.ID, nil
}

func (s *Store) SaveIncome(_ context.Context, i core.Income) (int64, error) {
	if err := i.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	i.ID = s.nextID
	s.incomes = append(s.incomes, i)
	return i.ID, nil
}

func (s *Store) FindByOutcomeDate(_ context.Context, from, to core.Date) ([]core.Outcome, error) {
	return s.filterOutcomes(func(o core.Outcome) bool { return inRange(o.Date, from, to) }, false), nil
}

func (s *Store) FindByOutcomeNameContaining(_ context.Context, keyword string) ([]core.Outcome, error) {
	return s.filterOutcomes(func(o core.Outcome) bool { return strings.Contains(o.Name, keyword) }, true), nil
}

func (s *Store) FindByParentCategoryID(_ context.Context, parentCategoryID int, from, to core.Date) ([]core.Outcome, error) {
	return s.filterOutcomes(func(o core.Outcome) bool {
		return o.ParentCategoryID == parentCategoryID && inRange(o.Date, from, to)
	}, false), nil
}

// ReportByDate sums line totals per day, date ascending.
func (s *Store) ReportByDate(ctx context.Context, from, to core.Date) ([]core.SummaryByDate, error) {
	items, _ := s.FindByOutcomeDate(ctx, from, to)
	var out []core.SummaryByDate
	for _, o := range items {
		if n := len(out); n > 0 && out[n-1].OutcomeDate.Equal(o.Date.Time) {
			out[n-1].SubTotal += o.LineTotal()
			continue
		}
		out = append(out, core.SummaryByDate{OutcomeDate: o.Date, SubTotal: o.LineTotal()})
	}
	return out, nil
}

// ReportByParentCategory sums line totals per parent, in parent order.
func (s *Store) ReportByParentCategory(ctx context.Context, from, to core.Date) ([]core.SummaryByParentCategory, error) {
	items, _ := s.FindByOutcomeDate(ctx, from, to)
	totals := make(map[int]int64)
	for _, o := range items {
		totals[o.ParentCategoryID] += o.LineTotal()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.SummaryByParentCategory
	for _, p := range s.parents {
		if t, ok := totals[p.ID]; ok {
			out = append(out, core.SummaryByParentCategory{ParentCategoryName: p.Name, SubTotal: t})
		}
	}
	return out, nil
}

func (s *Store) FindByIncomeDate(_ context.Context, from, to core.Date) ([]core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Income
	for _, i := range s.incomes {
		if inRange(i.Date, from, to) {
			out = append(out, i)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Income) int { return a.Date.Compare(b.Date.Time) })
	return out, nil
}

func (s *Store) ParentCategories(context.Context) ([]core.ParentCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.ParentCategory, len(s.parents))
	for i, p := range s.parents {
		p.Categories = slices.Clone(p.Categories)
		out[i] = p
	}
	return out, nil
}

func (s *Store) IncomeCategories(context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.incomeCats), nil
}

func (s *Store) Members(context.Context) ([]core.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.members), nil
}

func (s *Store) filterOutcomes(keep func(core.Outcome) bool, newestFirst bool) []core.Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Outcome
	for _, o := range s.outcomes {
		if keep(o) {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Outcome) int {
		if newestFirst {
			return b.Date.Compare(a.Date.Time)
		}
		return a.Date.Compare(b.Date.Time)
	})
	return out
}

func (s *Store) parentOf(categoryID int) int {
	for _, p := range s.parents {
		for _, c := range p.Categories {
			if c.ID == categoryID {
				return p.ID
			}
		}
	}
	return 0
}

func inRange(d, from, to core.Date) bool {
	return !d.Before(from) && !to.Before(d)
}

func readParents(path string) []core.ParentCategory {
	var parents []core.ParentCategory
	nextCat := 1
	for i, line := range readLines(path) {
		name, children, _ := strings.Cut(line, ":")
		p := core.ParentCategory{ID: i + 1, Name: strings.TrimSpace(name)}
		for _, c := range strings.Split(children, ",") {
			if c = strings.TrimSpace(c); c != "" {
				p.Categories = append(p.Categories, core.Category{ID: nextCat, Name: c})
				nextCat++
			}
		}
		parents = append(parents, p)
	}
	return parents
}

func toCategories(names []string, firstID int) []core.Category {
	out := make([]core.Category, 0, len(names))
	for i, n := range names {
		out = append(out, core.Category{ID: firstID + i, Name: n})
	}
	return out
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	seen := map[string]struct{}{}
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
