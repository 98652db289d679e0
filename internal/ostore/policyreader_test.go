package ostore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/model"
)

func newTestFirewall(t *testing.T, s *Store, doms *model.Domains) *model.Firewall {
	t.Helper()
	nw := model.NewNetwork(doms, s.Options())
	fw, err := nw.AddFirewall("fw", model.IP4Model)
	require.NoError(t, err)
	return fw
}

func loadPolicy(t *testing.T, s *Store, fw *model.Firewall, csv string) *LoaderStatus {
	t.Helper()
	reader := NewPolicyReader(s, logging.Default())
	status, err := reader.Load(strings.NewReader(csv), fw)
	require.NoError(t, err)
	return status
}

func TestLoadPolicyBasic(t *testing.T) {
	s, doms := newTestStore(t)
	fw := newTestFirewall(t, s, doms)

	status := loadPolicy(t, s, fw, strings.TrimSpace(`
id,name,status,action,src.zone,dst.zone,src.addr,dst.addr,svc,app,usr,url,src.negate,dst.negate
1,web-in,enabled,allow,wan,dmz,any,192.0.2.10,tcp/80;tcp/443,,,,no,no
2,,enabled,deny,any,any,any,any,any,,,,,
`))

	assert.True(t, status.OK(), "findings: %v", status.Summary())
	assert.Equal(t, 2, status.Rows)
	assert.Equal(t, 2, status.Loaded)

	rule, err := fw.GetRule(1)
	require.NoError(t, err)
	assert.Equal(t, "web-in", rule.Name())
	assert.Equal(t, model.ActionAllow, rule.Action())
	assert.Equal(t, []string{"tcp/80", "tcp/443"}, rule.Predicate().Services().Names())

	rule2, err := fw.GetRule(2)
	require.NoError(t, err)
	assert.True(t, rule2.IsDenyAll())
}

func TestLoadPolicyActionSpellings(t *testing.T) {
	s, doms := newTestStore(t)
	fw := newTestFirewall(t, s, doms)

	status := loadPolicy(t, s, fw, strings.TrimSpace(`
1,,enabled,accept,z1,z2,10.0.0.1,10.0.0.2,tcp/80,,,,,
2,,disabled,drop,z1,z2,10.0.0.1,10.0.0.2,any,,,,,
`))
	require.True(t, status.OK(), "findings: %v", status.Summary())

	r1, _ := fw.GetRule(1)
	assert.Equal(t, model.ActionAllow, r1.Action())
	r2, _ := fw.GetRule(2)
	assert.Equal(t, model.ActionDeny, r2.Action())
	assert.Equal(t, model.StatusDisabled, r2.Status())
	assert.Equal(t, []int{1}, fw.ACL().IDList())
}

func TestLoadPolicyDuplicateID(t *testing.T) {
	s, doms := newTestStore(t)
	fw := newTestFirewall(t, s, doms)

	status := loadPolicy(t, s, fw, strings.TrimSpace(`
1,,enabled,allow,z1,z2,10.0.0.1,10.0.0.2,tcp/80,,,,,
1,,enabled,deny,z1,z2,10.0.0.1,10.0.0.2,any,,,,,
`))
	assert.False(t, status.OK())
	assert.Equal(t, []int{1}, status.DuplicateIDs)
	assert.Equal(t, 1, status.Loaded)
}

func TestLoadPolicyEmptyFieldsAndUnresolved(t *testing.T) {
	s, doms := newTestStore(t)
	fw := newTestFirewall(t, s, doms)

	status := loadPolicy(t, s, fw, strings.TrimSpace(`
1,,enabled,allow,z1,z2,,10.0.0.2,tcp/80,,,,,
2,,enabled,allow,z1,z2,no-such-name,10.0.0.2,tcp/80,,,,,
`))
	assert.False(t, status.OK())
	require.Len(t, status.EmptyFields, 1)
	assert.Equal(t, "src.addr", status.EmptyFields[0].Field)
	require.Len(t, status.Unresolved, 1)
	assert.Equal(t, "no-such-name", status.Unresolved[0].Token)
	assert.Equal(t, 0, status.Loaded)
}

func TestLoadPolicyApplicationDefault(t *testing.T) {
	s, doms := newTestStore(t)
	s.opts.Add(model.OptApplication)
	require.NoError(t, s.AddService(&ServiceObject{Name: "http", Spec: "tcp/80"}))
	require.NoError(t, s.AddApplication(&ApplicationObject{
		Name: "web-browsing", Services: []string{"http"}, UseAppSvc: true,
	}))
	fw := newTestFirewall(t, s, doms)

	status := loadPolicy(t, s, fw, strings.TrimSpace(`
1,,enabled,allow,z1,z2,any,any,application-default,web-browsing,,,,
`))
	require.True(t, status.OK(), "findings: %v", status.Summary())

	rule, err := fw.GetRule(1)
	require.NoError(t, err)
	assert.True(t, rule.IsDefaultAppSvc())
	assert.True(t, rule.Predicate().Services().IsAppServices())
}

func TestLoadPolicyNegation(t *testing.T) {
	s, doms := newTestStore(t)
	fw := newTestFirewall(t, s, doms)

	status := loadPolicy(t, s, fw, strings.TrimSpace(`
1,,enabled,allow,z1,z2,10.0.0.0/8,any,tcp/80,,,,yes,no
`))
	require.True(t, status.OK(), "findings: %v", status.Summary())
	rule, _ := fw.GetRule(1)
	assert.True(t, rule.Predicate().NegateSrcAddresses())
	assert.False(t, rule.Predicate().NegateDstAddresses())
}

func TestLoadPolicyBadRows(t *testing.T) {
	s, doms := newTestStore(t)
	fw := newTestFirewall(t, s, doms)

	status := loadPolicy(t, s, fw, strings.TrimSpace(`
x,,enabled,allow,z1,z2,10.0.0.1,10.0.0.2,tcp/80,,,,,
1,,enabled,sideways,z1,z2,10.0.0.1,10.0.0.2,tcp/80,,,,,
2,,enabled,allow,z1,z2,10.0.0.1,10.0.0.2,application-default,,,,,
`))
	assert.False(t, status.OK())
	assert.Len(t, status.BadRows, 3)
	assert.Equal(t, 0, status.Loaded)
}
