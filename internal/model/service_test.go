package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceForms(t *testing.T) {
	doms := newTestDomains(t)

	tests := []struct {
		token  string
		proto  ProtocolType
		lo, hi uint64
		str    string
	}{
		{"tcp/80", ProtoTCP, 80, 80, "tcp/80"},
		{"TCP/80", ProtoTCP, 80, 80, "tcp/80"},
		{"udp/53", ProtoUDP, 53, 53, "udp/53"},
		{"tcp/8000-8080", ProtoTCP, 8000, 8080, "tcp/8000-8080"},
		{"tcp", ProtoTCP, 0, 65535, "tcp"},
		{"tcp/any", ProtoTCP, 0, 65535, "tcp"},
		{"udp/dynamic", ProtoUDP, 0, 0, "udp/0"},
		{"icmp/8", ProtoICMP, 8, 8, "icmp/8"},
		{"icmp", ProtoICMP, 0, 255, "icmp"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			svc, err := ParseService(doms, tt.token, tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.proto, svc.Protocol())
			assert.Equal(t, U128(tt.lo), svc.Ports().Lo())
			assert.Equal(t, U128(tt.hi), svc.Ports().Hi())
			assert.Equal(t, tt.str, svc.String())
		})
	}
}

func TestParseServiceErrors(t *testing.T) {
	doms := newTestDomains(t)
	for _, token := range []string{
		"", "gre", "tcp/70000", "tcp/90-80", "icmp/300", "tcp/x",
	} {
		_, err := ParseService(doms, token, token)
		var invalid *InvalidServiceError
		assert.ErrorAs(t, err, &invalid, "token %q", token)
	}
}

func TestServicePortDomainsAreDisjoint(t *testing.T) {
	doms := newTestDomains(t)
	e := doms.Engine()

	tcp, err := ParseService(doms, "t", "tcp/80")
	require.NoError(t, err)
	udp, err := ParseService(doms, "u", "udp/80")
	require.NoError(t, err)

	// Same port number, different protocols: the conditions must be
	// disjoint because the protocol factor differs.
	assert.True(t, e.Disjoint(tcp.MakeBdd(), udp.MakeBdd()))
}

func TestServiceAnySentinel(t *testing.T) {
	doms := newTestDomains(t)
	e := doms.Engine()

	svc := AnyService(doms)
	assert.True(t, svc.IsAny())
	assert.True(t, e.IsTrue(svc.MakeBdd()))
	assert.Equal(t, AnyName, svc.String())
}

func TestServiceGroupAppDefault(t *testing.T) {
	doms := newTestDomains(t)

	https, err := ParseService(doms, "https", "tcp/443")
	require.NoError(t, err)
	g := NewAppDefaultServiceGroup(https)
	assert.True(t, g.IsAppServices())
	assert.False(t, NewServiceGroup("", https).IsAppServices())

	c := g.Clone()
	assert.True(t, c.IsAppServices())
}

func TestApplicationDefaultServices(t *testing.T) {
	doms := newTestDomains(t)
	opts := NewModelOptions(OptApplication)

	http, err := ParseService(doms, "http", "tcp/80")
	require.NoError(t, err)
	https, err := ParseService(doms, "https", "tcp/443")
	require.NoError(t, err)

	web := NewApplication(doms, "web", 1, NewAppDefaultServiceGroup(http, https), opts, true)
	mail := NewApplication(doms, "mail", 2, NewAppDefaultServiceGroup(https), opts, true)

	g := NewApplicationGroup("", web, mail)
	defaults := g.DefaultServices()
	assert.True(t, defaults.IsAppServices())
	names := defaults.Names()
	assert.ElementsMatch(t, []string{"http", "https"}, names)
}

func TestApplicationOptionGate(t *testing.T) {
	doms := newTestDomains(t)
	e := doms.Engine()
	opts := NewModelOptions()

	app := NewApplication(doms, "web", 1, nil, opts, false)
	// Application modeling off: the atom compiles to true.
	assert.True(t, e.IsTrue(app.MakeBdd()))

	opts.Add(OptApplication)
	assert.False(t, e.IsTrue(app.MakeBdd()))
}

func TestUserAndURLOptionGate(t *testing.T) {
	doms := newTestDomains(t)
	e := doms.Engine()
	opts := NewModelOptions()

	usr := NewUser(doms, "alice", 1, opts)
	url := NewURL(doms, "news", 1, opts)
	assert.True(t, e.IsTrue(usr.MakeBdd()))
	assert.True(t, e.IsTrue(url.MakeBdd()))

	opts.Add(OptUser)
	opts.Add(OptURL)
	assert.False(t, e.IsTrue(usr.MakeBdd()))
	assert.False(t, e.IsTrue(url.MakeBdd()))
}
