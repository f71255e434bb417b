// Package store is the record store adapter used by every stateful handler.
//
// A Table offers point reads, full-replace writes, partial updates with
// set-on-insert semantics, and partition queries with opaque cursors. The same
// contract is implemented on DynamoDB, MongoDB and in memory.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/raushankrgupta/fitly-api/config"
	"github.com/raushankrgupta/fitly-api/models"
)

// ErrInvalidCursor is returned by Query when the cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

var errInvalidKey = errors.New("key is missing a key attribute")

// Error is a persistence fault. Handlers map it to a 500 response and make
// no assumption about partial writes.
type Error struct {
	Table string
	Op    string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Key identifies one record by its key attributes.
type Key map[string]string

// Fields maps attribute names to new values.
type Fields map[string]any

// Query selects records sharing a partition key, on the table itself or on
// one of its secondary indexes.
type Query struct {
	Index      string
	Partition  string
	Descending bool
	Limit      int32
	Cursor     string
}

// Page is one page of query results. NextCursor is empty on the last page.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// Table is the record store contract for one logical table.
type Table[T any] interface {
	// Get returns nil and no error when the record does not exist.
	Get(ctx context.Context, key Key) (*T, error)
	// Put inserts or fully replaces the record.
	Put(ctx context.Context, rec *T) error
	// Update sets fields on the record, creating it if absent. Fields in
	// setOnInsert are written only when the attribute does not exist yet.
	Update(ctx context.Context, key Key, set Fields, setOnInsert Fields) error
	Query(ctx context.Context, q Query) (Page[T], error)
}

// Index describes a secondary index.
type Index struct {
	PartitionKey string
	SortKey      string
}

// Schema describes the keys of a table.
type Schema struct {
	Name         string
	PartitionKey string
	SortKey      string
	Indexes      map[string]Index
}

func (s Schema) keyAttrs() []string {
	if s.SortKey == "" {
		return []string{s.PartitionKey}
	}
	return []string{s.PartitionKey, s.SortKey}
}

// queryKeys resolves the partition and sort attribute for a query target.
func (s Schema) queryKeys(index string) (string, string, error) {
	if index == "" {
		return s.PartitionKey, s.SortKey, nil
	}
	idx, ok := s.Indexes[index]
	if !ok {
		return "", "", fmt.Errorf("unknown index %q", index)
	}
	return idx.PartitionKey, idx.SortKey, nil
}

// orderAttrs lists the attributes a query result is ordered by: the sort
// key first, then the remaining table key attributes as tie breakers.
func (s Schema) orderAttrs(index string) []string {
	pk, sk, _ := s.queryKeys(index)
	var attrs []string
	if sk != "" {
		attrs = append(attrs, sk)
	}
	for _, a := range s.keyAttrs() {
		if a != pk && a != sk {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

// cursorAttrs lists the attributes making up a last-evaluated key.
func (s Schema) cursorAttrs(index string) []string {
	attrs := s.keyAttrs()
	if index == "" {
		return attrs
	}
	pk, sk, _ := s.queryKeys(index)
	for _, a := range []string{pk, sk} {
		if a != "" && !contains(attrs, a) {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

func (s Schema) checkKey(key Key) error {
	for _, a := range s.keyAttrs() {
		if key[a] == "" {
			return fmt.Errorf("%w: %s", errInvalidKey, a)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Schemas holds the three table layouts of the service.
type Schemas struct {
	Profiles  Schema
	CartItems Schema
	Fits      Schema
}

// SchemasFor builds the table layouts from configured names.
func SchemasFor(cfg config.Config) Schemas {
	return Schemas{
		Profiles: Schema{
			Name:         cfg.ProfilesTable,
			PartitionKey: "user_id",
		},
		CartItems: Schema{
			Name:         cfg.CartItemsTable,
			PartitionKey: "user_id",
			SortKey:      "item_key",
		},
		Fits: Schema{
			Name:         cfg.FitsTable,
			PartitionKey: "fitId",
			Indexes: map[string]Index{
				cfg.FitsUserIndex: {PartitionKey: "user_id", SortKey: "createdAt"},
			},
		},
	}
}

// Backend bundles the typed tables of one store driver.
type Backend struct {
	Profiles  Table[models.UserProfile]
	CartItems Table[models.CartItem]
	Fits      Table[models.FitJob]

	ensure func(ctx context.Context) error
	close  func(ctx context.Context) error
}

// EnsureSchema creates missing tables and indexes. It is safe to re-run.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	if b.ensure == nil {
		return nil
	}
	return b.ensure(ctx)
}

// Close releases connections held by the backend.
func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}
