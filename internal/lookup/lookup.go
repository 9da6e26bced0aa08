// Package lookup caches category and member display tables per session and
// hands out read-only snapshots.
package lookup

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"moneygr/internal/cache"
	"moneygr/internal/core"
	"moneygr/internal/inout"
)

// Tables is an immutable snapshot of the lookup data. Callers must not
// modify the slices it returns.
type Tables struct {
	parents          []core.ParentCategory
	incomeCategories []core.Category
	members          []core.Member

	categoryNames map[int]string
	parentNames   map[int]string
	parentOf      map[int]int
	incomeNames   map[int]string
	memberNames   map[string]string
}

// NewTables indexes the given lookup data.
func NewTables(parents []core.ParentCategory, incomeCategories []core.Category, members []core.Member) *Tables {
	t := &Tables{
		parents:          parents,
		incomeCategories: incomeCategories,
		members:          members,
		categoryNames:    make(map[int]string),
		parentNames:      make(map[int]string, len(parents)),
		parentOf:         make(map[int]int),
		incomeNames:      make(map[int]string, len(incomeCategories)),
		memberNames:      make(map[string]string, len(members)),
	}
	for _, p := range parents {
		t.parentNames[p.ID] = p.Name
		for _, c := range p.Categories {
			t.categoryNames[c.ID] = c.Name
			t.parentOf[c.ID] = p.ID
		}
	}
	for _, c := range incomeCategories {
		t.incomeNames[c.ID] = c.Name
	}
	for _, m := range members {
		t.memberNames[m.ID] = m.Name
	}
	return t
}

// ParentCategories returns the ordered parent categories with their children.
func (t *Tables) ParentCategories() []core.ParentCategory { return t.parents }

func (t *Tables) IncomeCategories() []core.Category { return t.incomeCategories }

func (t *Tables) Members() []core.Member { return t.members }

// ParentAt resolves a 1-based position in the ordered parent list.
func (t *Tables) ParentAt(position int) (core.ParentCategory, error) {
	if position < 1 || position > len(t.parents) {
		return core.ParentCategory{}, fmt.Errorf("%w: %d", core.ErrUnknownParent, position)
	}
	return t.parents[position-1], nil
}

// CategoryName falls back to the numeric id when the category is unknown.
func (t *Tables) CategoryName(id int) string {
	if n, ok := t.categoryNames[id]; ok {
		return n
	}
	return fmt.Sprint(id)
}

func (t *Tables) ParentName(id int) string {
	if n, ok := t.parentNames[id]; ok {
		return n
	}
	return fmt.Sprint(id)
}

// ParentOf returns the parent id of an outcome category, or 0.
func (t *Tables) ParentOf(categoryID int) int {
	return t.parentOf[categoryID]
}

func (t *Tables) IncomeCategoryName(id int) string {
	if n, ok := t.incomeNames[id]; ok {
		return n
	}
	return fmt.Sprint(id)
}

// MemberName falls back to the raw member id.
func (t *Tables) MemberName(id string) string {
	if n, ok := t.memberNames[id]; ok {
		return n
	}
	return id
}

// Cache loads Tables from a LookupSource once per session and TTL.
type Cache struct {
	source inout.LookupSource
	lru    *cache.LRU[*Tables]
	group  singleflight.Group
}

func NewCache(source inout.LookupSource, size int, ttl time.Duration, opts ...cache.Option) *Cache {
	return &Cache{source: source, lru: cache.NewLRU[*Tables](size, ttl, opts...)}
}

// LRU exposes the underlying cache for registration with a cache.Manager.
func (c *Cache) LRU() *cache.LRU[*Tables] { return c.lru }

// Tables returns the snapshot for session, loading it on a miss. Concurrent
// misses for the same session share one load.
func (c *Cache) Tables(ctx context.Context, session string) (*Tables, error) {
	if t, ok := c.lru.Get(session); ok {
		return t, nil
	}
	v, err, _ := c.group.Do(session, func() (any, error) {
		t, err := c.load(ctx)
		if err != nil {
			return nil, err
		}
		c.lru.Set(session, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tables), nil
}

// Invalidate drops the session's snapshot so the next request reloads it.
func (c *Cache) Invalidate(session string) {
	c.lru.Delete(session)
}

func (c *Cache) load(ctx context.Context) (*Tables, error) {
	parents, err := c.source.ParentCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load parent categories: %w", err)
	}
	incomeCats, err := c.source.IncomeCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load income categories: %w", err)
	}
	members, err := c.source.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	return NewTables(parents, incomeCats, members), nil
}
