package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	require.NoError(t, validateName("nexify"))
	require.NoError(t, validateName("my-brand"))
	require.NoError(t, validateName("nexify.com"))

	require.Error(t, validateName("-nexify"))
	require.Error(t, validateName("nex_ify"))
	require.Error(t, validateName("nexify."))
	require.Error(t, validateName("nexify.c"))
}

func TestResolveNamesPositional(t *testing.T) {
	names, err := resolveNames([]string{"Nexify", " brandly ", ""}, "")
	require.NoError(t, err)
	require.Equal(t, []string{"nexify", "brandly"}, names)

	_, err = resolveNames(nil, "")
	require.Error(t, err)
}

func TestResolveNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, os.WriteFile(path, []byte("# candidates\nnexify\n\nBrandly.io\n"), 0644))

	names, err := resolveNames(nil, path)
	require.NoError(t, err)
	require.Equal(t, []string{"nexify", "brandly.io"}, names)
}

func TestResolveNamesFileConflictsWithPositional(t *testing.T) {
	_, err := resolveNames([]string{"nexify"}, "names.txt")
	require.Error(t, err)
}

func TestExpandDomains(t *testing.T) {
	domains := expandDomains([]string{"nexify", "brandly.io"}, []string{"com", ".dev"})
	require.Equal(t, []string{"nexify.com", "nexify.dev", "brandly.io"}, domains)
}

func TestExpandDomainsDefaultsToCom(t *testing.T) {
	domains := expandDomains([]string{"nexify"}, nil)
	require.Equal(t, []string{"nexify.com"}, domains)
}
