package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"todo-manager/backend/internal/cache"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserDirectory maps user ids to display names. Ids with no known name
// are simply absent from the result.
type UserDirectory interface {
	ResolveNamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

// NoopDirectory is used when no user table is available.
type NoopDirectory struct{}

func (NoopDirectory) ResolveNamesByIDs(context.Context, []string) (map[string]string, error) {
	return map[string]string{}, nil
}

type TableDirectory struct {
	db         *gorm.DB
	table      string
	idColumn   string
	nameColumn string
}

// NewTableDirectory checks once that table has the id and name columns.
// When it does not, a NoopDirectory is returned so name resolution
// degrades to nulls instead of failing every read.
func NewTableDirectory(db *gorm.DB, table, nameColumn string) UserDirectory {
	migrator := db.Migrator()
	if !migrator.HasTable(table) {
		log.Printf("User directory: table %q not found, owner names disabled", table)
		return NoopDirectory{}
	}
	for _, column := range []string{"id", nameColumn} {
		if !migrator.HasColumn(table, column) {
			log.Printf("User directory: column %q missing on %q, owner names disabled", column, table)
			return NoopDirectory{}
		}
	}
	return &TableDirectory{db: db, table: table, idColumn: "id", nameColumn: nameColumn}
}

func (d *TableDirectory) ResolveNamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return names, nil
	}

	var rows []struct {
		ID   string
		Name *string
	}
	err := d.db.WithContext(ctx).
		Table(d.table).
		Select("?, ?", clause.Column{Name: d.idColumn, Alias: "id"}, clause.Column{Name: d.nameColumn, Alias: "name"}).
		Where(clause.IN{Column: clause.Column{Name: d.idColumn}, Values: toValues(ids)}).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("resolve user names: %w", err)
	}

	for _, row := range rows {
		if row.Name != nil && *row.Name != "" {
			names[row.ID] = *row.Name
		}
	}
	return names, nil
}

const ownerNameKeyPrefix = "owner_name:"

// CachedDirectory puts a cache in front of another directory. Cache
// failures are treated as misses.
type CachedDirectory struct {
	next  UserDirectory
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedDirectory(next UserDirectory, c cache.Cache, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{next: next, cache: c, ttl: ttl}
}

func (d *CachedDirectory) ResolveNamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	var missing []string

	for _, id := range uniqueIDs(ids) {
		var name string
		err := d.cache.Get(ctx, ownerNameKeyPrefix+id, &name)
		switch {
		case err == nil:
			names[id] = name
		case errors.Is(err, cache.ErrCacheMiss):
			missing = append(missing, id)
		default:
			log.Printf("User directory cache read failed for %s: %v", id, err)
			missing = append(missing, id)
		}
	}

	if len(missing) == 0 {
		return names, nil
	}

	resolved, err := d.next.ResolveNamesByIDs(ctx, missing)
	if err != nil {
		return names, err
	}
	for id, name := range resolved {
		names[id] = name
		if err := d.cache.Set(ctx, ownerNameKeyPrefix+id, name, d.ttl); err != nil {
			log.Printf("User directory cache write failed for %s: %v", id, err)
		}
	}
	return names, nil
}

// Invalidate drops cached names, e.g. after an operator renames a user.
func (d *CachedDirectory) Invalidate(ctx context.Context, ids ...string) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, ownerNameKeyPrefix+id)
	}
	return d.cache.Delete(ctx, keys...)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toValues(ids []string) []interface{} {
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return values
}
