// Package storagetest opens throwaway migrated databases for tests.
package storagetest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/HIMANADH789/careworkers/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Open returns a migrated in-memory sqlite database private to the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:careworkers_test_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := storage.Open(storage.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close(db) })

	require.NoError(t, storage.Migrate(db, zap.NewNop()))
	return db
}
