// Package storage persists translation catalogs.
//
// A [Store] holds one nested [value.Map] per (locale, namespace). Writes
// replace the whole namespace; there are no partial updates and no
// transactions across namespaces, so a crash in the middle of an export can
// leave some namespaces updated and others not. Reading a namespace that was
// never written returns an empty map, not an error.
//
// Backends:
//
//   - [FileStore]: one JSON file per namespace under <dir>/<locale>/.
//   - [MemoryStore]: in-process map, for tests and previews.
//   - [SQLiteStore]: a single table in a SQLite database (modernc.org/sqlite).
//   - [MongoStore]: one document per namespace in a MongoDB collection.
//
// Use [Open] to select a backend from a location string.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// Store reads and writes translation namespaces.
type Store interface {
	// Read returns the namespace, or an empty map if it does not exist.
	Read(ctx context.Context, locale, namespace string) (value.Map, error)

	// Write replaces the namespace with m.
	Write(ctx context.Context, locale, namespace string, m value.Map) error

	// Namespaces lists the stored namespaces of locale in ascending order.
	Namespaces(ctx context.Context, locale string) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}

// Open returns the store described by location:
//
//	memory:                       MemoryStore
//	sqlite:///path/to/db.sqlite   SQLiteStore
//	mongodb://host:27017/db       MongoStore (also mongodb+srv://)
//	file:///path/to/dir           FileStore
//	path/to/dir                   FileStore
func Open(ctx context.Context, location string) (Store, error) {
	switch {
	case location == "memory:" || location == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(location, "sqlite://"):
		return NewSQLiteStore(strings.TrimPrefix(location, "sqlite://"))
	case strings.HasPrefix(location, "mongodb://"), strings.HasPrefix(location, "mongodb+srv://"):
		return NewMongoStore(ctx, location, "", "")
	case strings.HasPrefix(location, "file://"):
		return NewFileStore(strings.TrimPrefix(location, "file://"))
	case strings.Contains(location, "://"):
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported storage location %q", location)
	case location == "":
		return nil, errors.New(errors.ErrCodeInvalidConfig, "empty storage location")
	}
	return NewFileStore(location)
}

func validate(locale, namespace string) error {
	if err := errors.ValidateSegment("locale", locale); err != nil {
		return err
	}
	return errors.ValidateSegment("namespace", namespace)
}

func persistErr(op, locale, namespace string, err error) error {
	return errors.Wrap(errors.ErrCodePersistence, err, "%s %s", op, key(locale, namespace))
}

func key(locale, namespace string) string {
	return fmt.Sprintf("%s/%s", locale, namespace)
}
