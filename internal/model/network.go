package model

import (
	"fmt"
	"sort"
	"strings"
)

// Network owns the firewalls, the zone registry and the shared modeling
// options. Names are case-insensitive.
type Network struct {
	doms      *Domains
	opts      *ModelOptions
	firewalls map[string]*Firewall
	zones     *ZoneRegistry
}

// NewNetwork builds an empty network over the given domain registry.
func NewNetwork(doms *Domains, opts *ModelOptions) *Network {
	return &Network{
		doms:      doms,
		opts:      opts,
		firewalls: make(map[string]*Firewall),
		zones:     NewZoneRegistry(doms),
	}
}

// Domains returns the packet-space registry.
func (n *Network) Domains() *Domains { return n.doms }

// Options returns the shared modeling options.
func (n *Network) Options() *ModelOptions { return n.opts }

// Zones returns the zone registry.
func (n *Network) Zones() *ZoneRegistry { return n.zones }

// AddFirewall creates an empty firewall with the given address model.
func (n *Network) AddFirewall(name string, ipModel IPModel) (*Firewall, error) {
	key := strings.ToLower(name)
	if _, dup := n.firewalls[key]; dup {
		return nil, fmt.Errorf("firewall %q already exists", name)
	}
	fw := newFirewall(name, n, ipModel)
	n.firewalls[key] = fw
	return fw, nil
}

// GetFirewall looks a firewall up by name.
func (n *Network) GetFirewall(name string) (*Firewall, error) {
	if fw, ok := n.firewalls[strings.ToLower(name)]; ok {
		return fw, nil
	}
	return nil, &FirewallNotFoundError{Name: name}
}

// DeleteFirewall removes a firewall and its rules.
func (n *Network) DeleteFirewall(name string) error {
	key := strings.ToLower(name)
	if _, ok := n.firewalls[key]; !ok {
		return &FirewallNotFoundError{Name: name}
	}
	delete(n.firewalls, key)
	return nil
}

// CopyFirewall deep-copies src into a new firewall named dst.
func (n *Network) CopyFirewall(src, dst string) (*Firewall, error) {
	from, err := n.GetFirewall(src)
	if err != nil {
		return nil, err
	}
	to, err := n.AddFirewall(dst, from.ipModel)
	if err != nil {
		return nil, err
	}
	from.copyInto(to)
	return to, nil
}

// FirewallNames returns the firewall names, sorted.
func (n *Network) FirewallNames() []string {
	names := make([]string, 0, len(n.firewalls))
	for _, fw := range n.firewalls {
		names = append(names, fw.name)
	}
	sort.Strings(names)
	return names
}

// ZoneRegistry allocates the 10-bit zone ids and owns the canonical
// zone atoms. The "any" zone is prefilled.
type ZoneRegistry struct {
	doms *Domains
	ids  map[string]uint16
	next uint16
	src  map[string]*SrcZone
	dst  map[string]*DstZone
}

// NewZoneRegistry builds a registry holding only the sentinel zone.
func NewZoneRegistry(doms *Domains) *ZoneRegistry {
	return &ZoneRegistry{
		doms: doms,
		ids:  make(map[string]uint16),
		next: 1,
		src:  map[string]*SrcZone{AnyName: AnySrcZone(doms)},
		dst:  map[string]*DstZone{AnyName: AnyDstZone(doms)},
	}
}

// Register returns the id of a zone name, allocating one on first use.
func (z *ZoneRegistry) Register(name string) (uint16, error) {
	key := strings.ToLower(name)
	if id, ok := z.ids[key]; ok {
		return id, nil
	}
	if uint64(z.next) > z.doms.Upper(SrcZoneDomain).Lo {
		return 0, &DomainOverflowError{Domain: SrcZoneDomain.String()}
	}
	id := z.next
	z.next++
	z.ids[key] = id
	return id, nil
}

// SrcZone returns the canonical source atom of a zone, registering the
// name on first use.
func (z *ZoneRegistry) SrcZone(name string) (*SrcZone, error) {
	key := strings.ToLower(name)
	if atom, ok := z.src[key]; ok {
		return atom, nil
	}
	id, err := z.Register(name)
	if err != nil {
		return nil, err
	}
	atom := NewSrcZone(z.doms, name, id)
	z.src[key] = atom
	return atom, nil
}

// DstZone returns the canonical destination atom of a zone, registering
// the name on first use.
func (z *ZoneRegistry) DstZone(name string) (*DstZone, error) {
	key := strings.ToLower(name)
	if atom, ok := z.dst[key]; ok {
		return atom, nil
	}
	id, err := z.Register(name)
	if err != nil {
		return nil, err
	}
	atom := NewDstZone(z.doms, name, id)
	z.dst[key] = atom
	return atom, nil
}

// Names returns the registered zone names, sorted.
func (z *ZoneRegistry) Names() []string {
	names := make([]string, 0, len(z.ids))
	for n := range z.ids {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
