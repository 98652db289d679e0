package ostore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/palisade/internal/model"
)

const testCatalog = `
users = ["alice", "bob"]
urls = ["news"]

[addresses]
web-server = "192.0.2.10"
dmz = ["192.0.2.0/24"]

[services]
http = "tcp/80"
https = "tcp/443"

[applications.web-browsing]
services = ["http", "https"]
use-app-svc = true

[pools.addresses]
servers = ["web-server", "dmz"]

[pools.services]
web = ["http", "https"]
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.LoadCatalog(writeTemp(t, "objects.toml", testCatalog)))

	assert.Equal(t, []string{"dmz", "web-server"}, s.Names(CatAddresses))
	assert.Equal(t, []string{"http", "https"}, s.Names(CatServices))
	assert.Equal(t, []string{"web-browsing"}, s.Names(CatApplications))
	assert.Equal(t, []string{"alice", "bob"}, s.Names(CatUsers))
	assert.Equal(t, []string{"news"}, s.Names(CatURLs))

	group, unresolved := s.ResolveSrcAddresses([]string{"servers"}, model.IP4Model)
	assert.Empty(t, unresolved)
	assert.Equal(t, []string{"web-server", "dmz"}, group.Names())

	svcs, unresolved := s.ResolveServices([]string{"web"})
	assert.Empty(t, unresolved)
	assert.Equal(t, []string{"http", "https"}, svcs.Names())
}

func TestLoadCatalogFQDNEntry(t *testing.T) {
	s, _ := newTestStore(t)
	s.fqdn = fqdnFunc(func(name string) ([]string, error) {
		return []string{"192.0.2.77", "192.0.2.78"}, nil
	})
	require.NoError(t, s.LoadCatalog(writeTemp(t, "objects.toml", `
[addresses]
crm = { fqdn = "crm.example.com" }
`)))

	group, unresolved := s.ResolveSrcAddresses([]string{"crm"}, model.IP4Model)
	require.Empty(t, unresolved)
	items := group.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "192.0.2.77", items[0].String())
}

type fqdnFunc func(string) ([]string, error)

func (f fqdnFunc) Lookup(name string) ([]string, error) { return f(name) }

func TestLoadCatalogErrors(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Error(t, s.LoadCatalog(writeTemp(t, "bad.toml", "addresses = 3")))
	assert.Error(t, s.LoadCatalog(writeTemp(t, "badpool.toml", `
[pools.nonsense]
x = ["y"]
`)))
	assert.Error(t, s.LoadCatalog(filepath.Join(t.TempDir(), "missing.toml")))
}
