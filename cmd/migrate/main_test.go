package main

import (
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	cmd, dir, err := parseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "up", cmd)
	assert.Equal(t, ".", dir)

	cmd, dir, err = parseArgs([]string{"status", "migrations"})
	require.NoError(t, err)
	assert.Equal(t, "status", cmd)
	assert.Equal(t, "migrations", dir)

	_, _, err = parseArgs([]string{"redo"})
	assert.ErrorContains(t, err, "unknown command")
}

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	require.NoError(t, configure("."))
	defer goose.SetBaseFS(nil)

	found, err := goose.CollectMigrations(".", 0, goose.MaxVersion)
	require.NoError(t, err)
	require.NotEmpty(t, found)
	assert.Equal(t, int64(1), found[0].Version)
	for i := 1; i < len(found); i++ {
		assert.Greater(t, found[i].Version, found[i-1].Version)
	}
}
