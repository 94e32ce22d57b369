package repodata

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/dsnet/compress/bzip2"

	"github.com/regro/metachannel/pkg/depgraph"
	apierr "github.com/regro/metachannel/pkg/errors"
	"github.com/regro/metachannel/pkg/httputil"
)

// Fetcher retrieves and decompresses one upstream repodata document.
// Implementations are stateless; caching lives entirely in the store
// package, one layer up.
type Fetcher interface {
	// Fetch retrieves and parses the repodata document at
	// (channel, arch, variant). Errors are *errors.Error values from the
	// pkg/errors taxonomy: CodeUpstreamUnavailable for transport
	// failures, CodeDecode for unreadable bytes, CodeParse for malformed
	// JSON, CodeNotFound when the "current" variant does not exist for
	// this upstream.
	Fetch(ctx context.Context, key Key) (*RawRepoData, error)
}

// HTTPFetcher fetches repodata over HTTP from a configurable base URL,
// built the way the rest of this codebase's HTTP clients are built: a
// shared *http.Client, retry-with-backoff on transient failures, and a
// client timeout bounding each HTTP attempt (up to three attempts per
// document); the call as a whole is bounded only by ctx.
type HTTPFetcher struct {
	BaseURL string // e.g. "https://conda.anaconda.org"
	HTTP    *http.Client
}

// NewHTTPFetcher returns a Fetcher pointed at baseURL with a sane default
// timeout. Pass a *http.Client with a custom Transport to tune connection
// pooling; a nil client is replaced with one carrying a 30s timeout.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{BaseURL: baseURL, HTTP: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, key Key) (*RawRepoData, error) {
	urlPrefix := f.BaseURL + "/" + key.Channel + "/" + string(key.Arch)

	var (
		body []byte
		err  error
	)
	switch key.Variant {
	case VariantCurrent:
		body, err = f.getBytes(ctx, urlPrefix+"/current_repodata.json")
	default:
		var compressed []byte
		compressed, err = f.getBytes(ctx, urlPrefix+"/repodata.json.bz2")
		if apierr.Is(err, apierr.CodeNotFound) {
			err = apierr.Wrap(apierr.CodeUpstreamUnavailable, err, "no repodata for %s", urlPrefix)
		}
		if err == nil {
			body, err = decompressBzip2(compressed)
		}
	}
	if err != nil {
		return nil, err
	}

	doc, err := ParseDocument(body)
	if err != nil {
		return nil, err
	}

	graph := depgraph.Build(doc, key.Arch, urlPrefix)
	return &RawRepoData{Key: key, Graph: graph, URLPrefix: urlPrefix, FetchedAt: time.Now()}, nil
}

func (f *HTTPFetcher) getBytes(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := httputil.Retry(ctx, 3, time.Second, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return apierr.Wrap(apierr.CodeInternal, err, "build request for %s", url)
		}

		resp, err := f.HTTP.Do(req)
		if err != nil {
			return httputil.Retryable(apierr.Wrap(apierr.CodeUpstreamUnavailable, err, "fetch %s", url))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			data, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				return apierr.Wrap(apierr.CodeUpstreamUnavailable, readErr, "read body of %s", url)
			}
			body = data
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return apierr.New(apierr.CodeNotFound, "no upstream document at %s", url)
		case resp.StatusCode >= 500:
			return httputil.Retryable(apierr.New(apierr.CodeUpstreamUnavailable, "upstream status %d for %s", resp.StatusCode, url))
		default:
			return apierr.New(apierr.CodeUpstreamUnavailable, "upstream status %d for %s", resp.StatusCode, url)
		}
	})
	return body, err
}

func decompressBzip2(data []byte) ([]byte, error) {
	r, err := bzip2.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeDecode, err, "open bzip2 stream")
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeDecode, err, "decompress bzip2 stream")
	}
	return out, nil
}
