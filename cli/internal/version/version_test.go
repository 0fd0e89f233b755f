package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfo(t *testing.T) {
	info := Get()
	v, err := info.Semver()
	require.NoError(t, err)
	assert.Equal(t, Version, v.Original())

	assert.Contains(t, info.String(), "sqlkit version "+Version)
	assert.NotContains(t, info.FullString(), "SQLite")

	info.Engine = "3.46.1"
	assert.Contains(t, info.FullString(), "SQLite: 3.46.1")
}
