// Package repodata fetches and decodes one upstream (channel, arch,
// variant) repodata document and turns it into a graph-ified RawRepoData,
// the unit of work owned by the raw cache tier.
package repodata

import (
	"time"

	"github.com/regro/metachannel/pkg/channel"
	"github.com/regro/metachannel/pkg/depgraph"
)

// Variant distinguishes the full repodata document from the "current"
// variant, which upstream publishes as a smaller, latest-build-only index.
type Variant string

const (
	// VariantFull is the standard repodata.json(.bz2) document.
	VariantFull Variant = "full"
	// VariantCurrent is current_repodata.json, present only for some
	// upstream channels.
	VariantCurrent Variant = "current"
)

// Key identifies one fetch target for the raw cache tier.
type Key struct {
	Channel string
	Arch    channel.Arch
	Variant Variant
}

// RawRepoData is the parsed, graph-ified result of one (channel, arch,
// variant) fetch. It is immutable once constructed and is the unit
// memoized by the raw cache tier.
type RawRepoData struct {
	Key       Key
	Graph     *depgraph.Graph
	URLPrefix string
	FetchedAt time.Time
}
