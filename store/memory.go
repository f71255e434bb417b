package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/raushankrgupta/fitly-api/models"
)

// MemoryTable keeps records as attribute maps, mirroring how a document
// store sees them. It backs local development and tests.
type MemoryTable[T any] struct {
	schema Schema

	mu   sync.RWMutex
	rows map[string]map[string]any
}

// NewMemoryTable returns an empty in-memory table.
func NewMemoryTable[T any](schema Schema) *MemoryTable[T] {
	return &MemoryTable[T]{schema: schema, rows: make(map[string]map[string]any)}
}

// NewMemoryBackend builds a Backend whose tables live in process memory.
func NewMemoryBackend(s Schemas) *Backend {
	return &Backend{
		Profiles:  NewMemoryTable[models.UserProfile](s.Profiles),
		CartItems: NewMemoryTable[models.CartItem](s.CartItems),
		Fits:      NewMemoryTable[models.FitJob](s.Fits),
	}
}

func (m *MemoryTable[T]) rowID(key Key) string {
	parts := make([]string, 0, 2)
	for _, a := range m.schema.keyAttrs() {
		parts = append(parts, key[a])
	}
	return strings.Join(parts, "\x00")
}

func (m *MemoryTable[T]) fail(op string, err error) error {
	return &Error{Table: m.schema.Name, Op: op, Err: err}
}

// Get implements Table.
func (m *MemoryTable[T]) Get(ctx context.Context, key Key) (*T, error) {
	if err := m.schema.checkKey(key); err != nil {
		return nil, m.fail("get", err)
	}
	m.mu.RLock()
	row, ok := m.rows[m.rowID(key)]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	rec, err := fromAttrs[T](row)
	if err != nil {
		return nil, m.fail("get", err)
	}
	return rec, nil
}

// Put implements Table.
func (m *MemoryTable[T]) Put(ctx context.Context, rec *T) error {
	row, err := toAttrs(rec)
	if err != nil {
		return m.fail("put", err)
	}
	key := Key{}
	for _, a := range m.schema.keyAttrs() {
		if s, ok := row[a].(string); ok {
			key[a] = s
		}
	}
	if err := m.schema.checkKey(key); err != nil {
		return m.fail("put", err)
	}
	m.mu.Lock()
	m.rows[m.rowID(key)] = row
	m.mu.Unlock()
	return nil
}

// Update implements Table.
func (m *MemoryTable[T]) Update(ctx context.Context, key Key, set Fields, setOnInsert Fields) error {
	if err := m.schema.checkKey(key); err != nil {
		return m.fail("update", err)
	}
	setAttrs, err := toAttrs(map[string]any(set))
	if err != nil {
		return m.fail("update", err)
	}
	insertAttrs, err := toAttrs(map[string]any(setOnInsert))
	if err != nil {
		return m.fail("update", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.rowID(key)
	row := make(map[string]any)
	for k, v := range m.rows[id] {
		row[k] = v
	}
	for k, v := range key {
		row[k] = v
	}
	for k, v := range setAttrs {
		row[k] = v
	}
	for k, v := range insertAttrs {
		if _, exists := row[k]; !exists {
			row[k] = v
		}
	}
	m.rows[id] = row
	return nil
}

// Query implements Table.
func (m *MemoryTable[T]) Query(ctx context.Context, q Query) (Page[T], error) {
	pk, sk, err := m.schema.queryKeys(q.Index)
	if err != nil {
		return Page[T]{}, m.fail("query", err)
	}
	order := m.schema.orderAttrs(q.Index)

	var after map[string]any
	if q.Cursor != "" {
		after, err = DecodeCursor(q.Cursor, m.schema.cursorAttrs(q.Index), pk, q.Partition)
		if err != nil {
			return Page[T]{}, err
		}
	}

	m.mu.RLock()
	var matched []map[string]any
	for _, row := range m.rows {
		if row[pk] != q.Partition {
			continue
		}
		if sk != "" {
			if _, ok := row[sk]; !ok {
				continue
			}
		}
		matched = append(matched, row)
	}
	m.mu.RUnlock()

	sign := 1
	if q.Descending {
		sign = -1
	}
	sort.Slice(matched, func(i, j int) bool {
		return sign*compareRows(matched[i], matched[j], order) < 0
	})

	start := 0
	if after != nil {
		start = len(matched)
		for i, row := range matched {
			if sign*compareRows(row, after, order) > 0 {
				start = i
				break
			}
		}
	}
	rest := matched[start:]

	page := Page[T]{Items: make([]T, 0, len(rest))}
	if q.Limit > 0 && len(rest) > int(q.Limit) {
		rest = rest[:q.Limit]
		last := make(map[string]any)
		for _, a := range m.schema.cursorAttrs(q.Index) {
			last[a] = rest[len(rest)-1][a]
		}
		if page.NextCursor, err = EncodeCursor(last); err != nil {
			return Page[T]{}, m.fail("query", err)
		}
	}
	for _, row := range rest {
		rec, err := fromAttrs[T](row)
		if err != nil {
			return Page[T]{}, m.fail("query", err)
		}
		page.Items = append(page.Items, *rec)
	}
	return page, nil
}

func toAttrs(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var attrs map[string]any
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

func fromAttrs[T any](attrs map[string]any) (*T, error) {
	raw, err := json.Marshal(attrs)
	if err != nil {
		return nil, err
	}
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func compareRows(a, b map[string]any, attrs []string) int {
	for _, attr := range attrs {
		if c := compareValues(a[attr], b[attr]); c != 0 {
			return c
		}
	}
	return 0
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
