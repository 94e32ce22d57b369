// Package channel defines the request-scoped identifiers the proxy
// routes on: an ordered ChannelRef (precedence-ordered upstream
// channels), an Arch tag, and the Constraints parsed from the request
// path's constraint segment.
package channel

import (
	"strings"

	apierr "github.com/regro/metachannel/pkg/errors"
)

// Ref is an ordered, non-empty sequence of channel identifiers. Order
// encodes precedence: earlier entries win on conflict during fusion.
type Ref []string

// ParseRef parses a comma-separated list of channel identifiers
// (e.g. "conda-forge,bioconda") into a Ref, preserving order.
func ParseRef(raw string) (Ref, error) {
	parts := splitNonEmpty(raw, ',')
	if len(parts) == 0 {
		return nil, apierr.New(apierr.CodeMalformedRequest, "channel list must not be empty")
	}
	ref := make(Ref, 0, len(parts))
	for _, p := range parts {
		if err := apierr.ValidateChannelID(p); err != nil {
			return nil, err
		}
		ref = append(ref, p)
	}
	return ref, nil
}

// String renders the Ref back into its comma-separated wire form.
func (r Ref) String() string {
	return strings.Join(r, ",")
}

// Key returns a value usable as a map key capturing both membership and
// order, since precedence depends on order.
func (r Ref) Key() string {
	return r.String()
}

// Arch is a target-platform slice of a channel (e.g. "linux-64", "noarch").
type Arch string

// NoArch is the cross-platform architecture every concrete-arch request
// implicitly also consumes.
const NoArch Arch = "noarch"

// NoArchFallback is the arch substituted when a request's own Arch is
// "noarch" and an auxiliary noarch-sibling graph would otherwise be
// fetched for itself. This is the "mostly convenience" choice documented
// as an open question in the design notes; behavior when this arch is
// itself unavailable for the channel is undefined upstream, and this
// proxy surfaces that as an UpstreamUnavailable error rather than
// silently degrading.
const NoArchFallback Arch = "linux-64"

// ParseArch validates and returns an Arch from a path segment.
func ParseArch(raw string) (Arch, error) {
	if err := apierr.ValidateChannelID(raw); err != nil {
		return "", err
	}
	return Arch(raw), nil
}

func splitNonEmpty(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
