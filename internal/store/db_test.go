package store

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_more.sql": {Data: []byte("SELECT 2;")},
		"m/001_init.sql": {Data: []byte("SELECT 1;")},
		"m/README.md":    {Data: []byte("docs")},
		"m/sub/003.sql":  {Data: []byte("SELECT 3;")},
	}
	files, err := migrationFiles(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_more.sql"}, files)
}

func TestEmbeddedSchemaPresent(t *testing.T) {
	files, err := migrationFiles(migrationFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_init.sql", files[0])
}

func TestRedisHealthy(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr())
	defer r.Close()
	assert.True(t, r.Healthy(context.Background()))

	mr.Close()
	assert.False(t, r.Healthy(context.Background()))

	var nilRedis *Redis
	assert.False(t, nilRedis.Healthy(context.Background()))
}
