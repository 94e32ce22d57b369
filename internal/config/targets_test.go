package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regro/metachannel/pkg/channel"
)

const sampleTargets = `
[[target]]
channels = ["conda-forge"]
arch = "linux-64"

[[target]]
channels = ["conda-forge", "bioconda"]
arch = "noarch"
`

func TestLoadTargetsParsesEachEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTargets), 0o644))

	targets, err := LoadTargets(path)
	require.NoError(t, err)
	require.Len(t, targets, 2)

	assert.Equal(t, channel.Ref{"conda-forge"}, targets[0].Channels)
	assert.Equal(t, channel.Arch("linux-64"), targets[0].Arch)
	assert.Equal(t, channel.Ref{"conda-forge", "bioconda"}, targets[1].Channels)
}

func TestLoadTargetsMissingFileErrors(t *testing.T) {
	_, err := LoadTargets(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
