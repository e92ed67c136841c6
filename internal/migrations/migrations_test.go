package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames_Ordered(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"0001_tenants.sql",
		"0002_calendar_events.sql",
		"0003_audit_logs.sql",
	}, names)
}

func TestEmbeddedFiles_CreateTables(t *testing.T) {
	tables := map[string]string{
		"0001_tenants.sql":         "tenants",
		"0002_calendar_events.sql": "calendar_events",
		"0003_audit_logs.sql":      "audit_logs",
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			body, err := files.ReadFile("sql/" + name)
			require.NoError(t, err)
			assert.True(t, strings.Contains(string(body), "CREATE TABLE IF NOT EXISTS "+table+" ("))
		})
	}
}
