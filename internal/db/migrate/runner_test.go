package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/carsonjc04/Hive-Engine/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EmptyDSN(t *testing.T) {
	for _, dsn := range []string{"", "   "} {
		err := Run(dsn, DirectionUp)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database url is empty")
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	for _, direction := range []string{"", "sideways", "UP", "Down"} {
		t.Run(direction, func(t *testing.T) {
			err := Run("postgres://localhost/hive", direction)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "direction must be up or down")
		})
	}
}

func TestMigrationFS_PairsUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(db.MigrationFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrationFS_DeclaresUniqueConstraints(t *testing.T) {
	employees, err := fs.ReadFile(db.MigrationFS, "migrations/000001_create_employees.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(employees), "uq_employee_email")

	devices, err := fs.ReadFile(db.MigrationFS, "migrations/000002_create_devices.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(devices), "uq_device_serial_number")
}
