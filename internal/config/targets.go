package config

import (
	"github.com/BurntSushi/toml"

	"github.com/regro/metachannel/pkg/channel"
	"github.com/regro/metachannel/pkg/store"
)

// targetsFile is the TOML shape of a warm-targets file, e.g.:
//
//	[[target]]
//	channels = ["conda-forge"]
//	arch = "linux-64"
//
//	[[target]]
//	channels = ["conda-forge", "bioconda"]
//	arch = "noarch"
type targetsFile struct {
	Target []struct {
		Channels []string `toml:"channels"`
		Arch     string   `toml:"arch"`
	} `toml:"target"`
}

// LoadTargets parses a TOML warm-targets file into warmer targets.
func LoadTargets(path string) ([]store.Target, error) {
	var tf targetsFile
	if _, err := toml.DecodeFile(path, &tf); err != nil {
		return nil, err
	}

	targets := make([]store.Target, 0, len(tf.Target))
	for _, t := range tf.Target {
		targets = append(targets, store.Target{
			Channels: channel.Ref(t.Channels),
			Arch:     channel.Arch(t.Arch),
		})
	}
	return targets, nil
}
