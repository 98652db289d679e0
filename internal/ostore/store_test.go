package ostore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/palisade/internal/model"
)

func newTestStore(t *testing.T) (*Store, *model.Domains) {
	t.Helper()
	doms, err := model.NewDomains(200_000, 20_000)
	require.NoError(t, err)
	return New(doms, model.NewModelOptions(), true, nil), doms
}

func TestStoreDuplicateObjectsRejected(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.AddAddress(&AddressObject{Name: "web", Specs: []string{"192.0.2.1"}}))
	assert.Error(t, s.AddAddress(&AddressObject{Name: "WEB", Specs: []string{"192.0.2.2"}}))

	require.NoError(t, s.AddService(&ServiceObject{Name: "http", Spec: "tcp/80"}))
	assert.Error(t, s.AddService(&ServiceObject{Name: "http", Spec: "tcp/8080"}))
	// An invalid spec is rejected at registration time.
	assert.Error(t, s.AddService(&ServiceObject{Name: "bad", Spec: "gre/1"}))
}

func TestResolveAddressTokens(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.AddAddress(&AddressObject{Name: "web", Specs: []string{"192.0.2.1"}}))

	group, unresolved := s.ResolveSrcAddresses([]string{"web", "10.0.0.0/8", "any"}, model.IP4Model)
	assert.Empty(t, unresolved)
	items := group.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "web", items[0].Name())
	assert.Equal(t, "10.0.0.0/8", items[1].Name())
	assert.True(t, items[2].IsAny())
}

func TestResolveSharesAtoms(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.AddAddress(&AddressObject{Name: "web", Specs: []string{"192.0.2.1"}}))

	a, unresolved := s.ResolveSrcAddresses([]string{"web"}, model.IP4Model)
	require.Empty(t, unresolved)
	b, unresolved := s.ResolveSrcAddresses([]string{"WEB"}, model.IP4Model)
	require.Empty(t, unresolved)

	// Same object, same atom: identity-based rule filters depend on it.
	assert.Same(t, a.Items()[0], b.Items()[0])
}

func TestResolveUnknownTokens(t *testing.T) {
	s, _ := newTestStore(t)

	_, unresolved := s.ResolveSrcAddresses([]string{"no-such-object"}, model.IP4Model)
	assert.Equal(t, []string{"no-such-object"}, unresolved)

	_, unresolved = s.ResolveServices([]string{"no-such-service"})
	assert.Equal(t, []string{"no-such-service"}, unresolved)

	_, unresolved = s.ResolveApplications([]string{"no-such-app"})
	assert.Equal(t, []string{"no-such-app"}, unresolved)
}

func TestPoolExpansion(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.AddAddress(&AddressObject{Name: "web", Specs: []string{"192.0.2.1"}}))
	require.NoError(t, s.AddAddress(&AddressObject{Name: "db", Specs: []string{"192.0.2.2"}}))
	require.NoError(t, s.AddPool(CatAddresses, "tier1", []string{"web"}))
	require.NoError(t, s.AddPool(CatAddresses, "all", []string{"tier1", "db"}))

	group, unresolved := s.ResolveSrcAddresses([]string{"all"}, model.IP4Model)
	assert.Empty(t, unresolved)
	assert.Equal(t, []string{"web", "db"}, group.Names())
}

func TestPoolCycleDetected(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.AddPool(CatAddresses, "a", []string{"b"}))
	require.NoError(t, s.AddPool(CatAddresses, "b", []string{"a"}))

	_, err := s.expandPool(CatAddresses, "a", map[string]bool{})
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)

	// Through the resolver the cycle surfaces as an unresolved token.
	_, unresolved := s.ResolveSrcAddresses([]string{"a"}, model.IP4Model)
	assert.Equal(t, []string{"a"}, unresolved)
}

func TestResolveApplicationsWithDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	s.opts.Add(model.OptApplication)
	require.NoError(t, s.AddService(&ServiceObject{Name: "http", Spec: "tcp/80"}))
	require.NoError(t, s.AddApplication(&ApplicationObject{
		Name: "web-browsing", Services: []string{"http"}, UseAppSvc: false,
	}))

	group, unresolved := s.ResolveApplications([]string{"web-browsing"})
	require.Empty(t, unresolved)
	items := group.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "web-browsing", items[0].Name())
	assert.Equal(t, []string{"http"}, items[0].Services().Names())
}

func TestResolveUsersRegistersOnFirstUse(t *testing.T) {
	s, _ := newTestStore(t)
	group, unresolved := s.ResolveUsers([]string{"alice", "alice", "bob"})
	assert.Empty(t, unresolved)
	assert.Equal(t, []string{"alice", "bob"}, group.Names())
	assert.Equal(t, []string{"alice", "bob"}, s.Names(CatUsers))
}

func TestIDGeneratorOverflow(t *testing.T) {
	g := idGen{domain: "test", next: 1, upper: 2}
	id, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, uint16(1), id)
	_, err = g.Next()
	require.NoError(t, err)
	_, err = g.Next()
	var overflow *model.DomainOverflowError
	assert.ErrorAs(t, err, &overflow)
}
