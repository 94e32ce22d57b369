package channel

import (
	"testing"

	apierr "github.com/regro/metachannel/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRefOrderIsPreserved(t *testing.T) {
	ref, err := ParseRef("conda-forge,bioconda")
	require.NoError(t, err)
	assert.Equal(t, Ref{"conda-forge", "bioconda"}, ref)
	assert.Equal(t, "conda-forge,bioconda", ref.String())
}

func TestParseRefRejectsEmpty(t *testing.T) {
	_, err := ParseRef("")
	require.Error(t, err)
	assert.Equal(t, apierr.CodeMalformedRequest, apierr.GetCode(err))
}

func TestParseRefRejectsTraversal(t *testing.T) {
	_, err := ParseRef("conda-forge,../etc")
	require.Error(t, err)
}

func TestParseArch(t *testing.T) {
	a, err := ParseArch("linux-64")
	require.NoError(t, err)
	assert.Equal(t, Arch("linux-64"), a)
}
