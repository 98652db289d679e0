package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/palisade/internal/model"
)

func TestDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultNodeSize, s.NodeSize)
	assert.Equal(t, model.IP4Model, s.IPAddressModel())
	assert.True(t, s.Strict())
	assert.False(t, s.ModelOptions().Contains(model.OptApplication))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palisade.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
node_size  = 500000
cache_size = 50000
ip_model   = "ip64"

applications  = true
users         = true
strict_parser = false

dns_server = "192.0.2.53:53"
log_level  = "debug"
`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500000, s.NodeSize)
	assert.Equal(t, 50000, s.CacheSize)
	assert.Equal(t, model.IP64Model, s.IPAddressModel())
	assert.False(t, s.Strict())
	assert.Equal(t, "192.0.2.53:53", s.DNSServer)
	assert.Equal(t, "debug", s.LogLevel)

	opts := s.ModelOptions()
	assert.True(t, opts.Contains(model.OptApplication))
	assert.True(t, opts.Contains(model.OptUser))
	assert.False(t, opts.Contains(model.OptURL))
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palisade.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`ip_model = "ip6"`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.IP6Model, s.IPAddressModel())
	assert.Equal(t, model.DefaultNodeSize, s.NodeSize)
	assert.True(t, s.Strict())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.hcl")
	require.NoError(t, os.WriteFile(bad, []byte(`ip_model = "ipx"`), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
