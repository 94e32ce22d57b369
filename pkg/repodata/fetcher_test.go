package repodata

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dsnet/compress/bzip2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierr "github.com/regro/metachannel/pkg/errors"
)

func bzip2Compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, nil)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const sampleRepodata = `{
  "packages": {
    "flask-2.0-0.tar.bz2": {"name": "flask", "version": "2.0", "build": "0", "depends": ["python >=3.8"]}
  },
  "packages.conda": {
    "python-3.11-0.conda": {"name": "python", "version": "3.11", "build": "0"}
  }
}`

func TestHTTPFetcherFullVariantDecompressesAndParses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conda-forge/linux-64/repodata.json.bz2", r.URL.Path)
		w.Write(bzip2Compress(t, []byte(sampleRepodata)))
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL, nil)
	data, err := f.Fetch(context.Background(), Key{Channel: "conda-forge", Arch: "linux-64", Variant: VariantFull})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"flask", "python"}, data.Graph.Nodes())
	assert.Equal(t, []string{"python"}, data.Graph.Predecessors("flask"))
}

func TestHTTPFetcherCurrentVariantIsPlainJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conda-forge/noarch/current_repodata.json", r.URL.Path)
		w.Write([]byte(sampleRepodata))
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL, nil)
	data, err := f.Fetch(context.Background(), Key{Channel: "conda-forge", Arch: "noarch", Variant: VariantCurrent})
	require.NoError(t, err)
	assert.Equal(t, 2, data.Graph.Len())
}

func TestHTTPFetcherNotFoundMapsToCodeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL, nil)
	_, err := f.Fetch(context.Background(), Key{Channel: "conda-forge", Arch: "noarch", Variant: VariantCurrent})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeNotFound, apierr.GetCode(err))
}

func TestHTTPFetcherServerErrorMapsToUpstreamUnavailable(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL, nil)
	_, err := f.Fetch(context.Background(), Key{Channel: "conda-forge", Arch: "linux-64", Variant: VariantFull})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeUpstreamUnavailable, apierr.GetCode(err))
	assert.Equal(t, 3, attempts, "transient 5xx responses should be retried up to the attempt limit")
}

func TestHTTPFetcherMalformedBzip2MapsToCodeDecode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not actually bzip2"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL, nil)
	_, err := f.Fetch(context.Background(), Key{Channel: "conda-forge", Arch: "linux-64", Variant: VariantFull})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeDecode, apierr.GetCode(err))
}

func TestHTTPFetcherMalformedJSONMapsToCodeParse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL, nil)
	_, err := f.Fetch(context.Background(), Key{Channel: "conda-forge", Arch: "noarch", Variant: VariantCurrent})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeParse, apierr.GetCode(err))
}
