package repodata

import (
	"encoding/json"

	"github.com/regro/metachannel/pkg/artifact"
	"github.com/regro/metachannel/pkg/depgraph"
	apierr "github.com/regro/metachannel/pkg/errors"
)

// wireDocument mirrors the top-level shape of an upstream repodata.json
// document. "packages" holds legacy .tar.bz2 entries, "packages.conda"
// holds the newer .conda format; both key by filename and share the
// artifact record shape, so they are merged into one Document.
type wireDocument struct {
	Packages      map[string]artifact.Artifact `json:"packages"`
	PackagesConda map[string]artifact.Artifact `json:"packages.conda"`
}

// ParseDocument decodes raw upstream repodata JSON bytes into a
// depgraph.Document. It returns a *errors.Error with CodeParse on malformed
// JSON.
func ParseDocument(body []byte) (depgraph.Document, error) {
	var wire wireDocument
	if err := json.Unmarshal(body, &wire); err != nil {
		return depgraph.Document{}, apierr.Wrap(apierr.CodeParse, err, "decode repodata document")
	}

	merged := make(map[string]artifact.Artifact, len(wire.Packages)+len(wire.PackagesConda))
	for filename, a := range wire.Packages {
		merged[filename] = a
	}
	for filename, a := range wire.PackagesConda {
		merged[filename] = a
	}

	return depgraph.Document{Packages: merged}, nil
}
