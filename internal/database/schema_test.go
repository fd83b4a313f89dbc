package database

import (
	"context"
	"testing"
	"testing/fstest"

	"scribe/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"hybrid development", config.Config{Env: "development", DBSchemaMode: "hybrid"}, true, true, false},
		{"hybrid production", config.Config{Env: "production", DBSchemaMode: "hybrid"}, true, false, false},
		{"empty mode defaults to hybrid", config.Config{Env: "test"}, true, true, false},
		{"sql only", config.Config{Env: "development", DBSchemaMode: "sql"}, true, false, false},
		{"auto development", config.Config{Env: "development", DBSchemaMode: "auto"}, false, true, false},
		{"auto refused in staging", config.Config{Env: "staging", DBSchemaMode: "auto"}, false, false, true},
		{"unknown mode", config.Config{Env: "development", DBSchemaMode: "yolo"}, false, false, true},
		{"sqlite always auto", config.Config{Env: "development", DBDriver: "sqlite", DBSchemaMode: "hybrid"}, false, true, false},
		{"sqlite refuses sql", config.Config{Env: "development", DBDriver: "sqlite", DBSchemaMode: "sql"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestEmbeddedMigrationsRegistered(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "initial_schema", all[0].Name)
	assert.Contains(t, all[0].UpScript, "chk_follows_not_self")
	assert.Contains(t, all[0].DownScript, "DROP TABLE IF EXISTS follows")
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Version, all[i].Version)
	}
	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_second.up.sql":   {Data: []byte("SELECT 2")},
		"m/000002_second.down.sql": {Data: []byte("SELECT -2")},
		"m/000001_first.up.sql":    {Data: []byte("SELECT 1")},
		"m/000001_first.down.sql":  {Data: []byte("SELECT -1")},
		"m/README.md":              {Data: []byte("ignored")},
		"m/bogus.up.sql":           {Data: []byte("ignored")},
	}

	got, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "000001_first", got[0].String())
	assert.Equal(t, "SELECT -2", got[1].DownScript)
}

func TestLoadMigrations_MissingDown(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000001_first.up.sql": {Data: []byte("SELECT 1")},
	}
	_, err := LoadMigrations(fsys, "m")
	assert.Error(t, err)
}

type fakeMigrationStore struct {
	applied []int
	ran     []int
}

func (f *fakeMigrationStore) GetAppliedMigrations(context.Context) ([]int, error) {
	return f.applied, nil
}

func (f *fakeMigrationStore) ApplyMigration(_ context.Context, m Migration) error {
	f.ran = append(f.ran, m.Version)
	f.applied = append(f.applied, m.Version)
	return nil
}

func (f *fakeMigrationStore) RevertMigration(context.Context, Migration) error {
	return nil
}

func TestRunPending(t *testing.T) {
	registered := []Migration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}, {Version: 3, Name: "c"}}

	store := &fakeMigrationStore{applied: []int{1}}
	require.NoError(t, runPending(context.Background(), store, registered))
	assert.Equal(t, []int{2, 3}, store.ran)

	store.ran = nil
	require.NoError(t, runPending(context.Background(), store, registered))
	assert.Empty(t, store.ran)
}

func TestRunPending_UnknownAppliedVersion(t *testing.T) {
	store := &fakeMigrationStore{applied: []int{1, 7}}
	err := runPending(context.Background(), store, []Migration{{Version: 1, Name: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}
