package model

import (
	"strconv"
	"strings"

	"grimm.is/palisade/internal/bdd"
)

// ProtocolType identifies one of the modeled transport protocols. The
// numeric values are the ids stored in the protocol domain.
type ProtocolType int

const (
	ProtoUDP ProtocolType = iota
	ProtoTCP
	ProtoICMP
)

func (p ProtocolType) String() string {
	switch p {
	case ProtoUDP:
		return "udp"
	case ProtoTCP:
		return "tcp"
	case ProtoICMP:
		return "icmp"
	default:
		return "unknown"
	}
}

// portDomain maps a protocol to the domain its destination ports (or
// ICMP types) live in.
func portDomain(p ProtocolType) DomainType {
	switch p {
	case ProtoTCP:
		return DstTCPPortDomain
	case ProtoUDP:
		return DstUDPPortDomain
	default:
		return ICMPTypeDomain
	}
}

// Service pairs a protocol with a destination-port (or ICMP-type)
// interval. The port interval lives in the domain selected by the
// protocol, so tcp/80 and udp/80 never compare equal.
type Service struct {
	name     string
	proto    ProtocolType
	protoVal Mvalue
	ports    Mvalue
	anyPorts bool
	any      bool
}

// NewService builds a service atom for the given protocol and port
// interval.
func NewService(doms *Domains, name string, proto ProtocolType, loPort, hiPort uint16) *Service {
	pd := portDomain(proto)
	ports := NewRange(doms.Width(pd), U128(uint64(loPort)), U128(uint64(hiPort)))
	return &Service{
		name:     name,
		proto:    proto,
		protoVal: NewMvalue(doms, ProtocolDomain, Singleton(doms.Width(ProtocolDomain), U128(uint64(proto)))),
		ports:    NewMvalue(doms, pd, ports),
		anyPorts: ports.IsFull(),
	}
}

// AnyService returns the sentinel spanning every protocol and port.
func AnyService(doms *Domains) *Service {
	return &Service{
		name:     AnyName,
		proto:    ProtoTCP,
		protoVal: NewMvalue(doms, ProtocolDomain, doms.FullRange(ProtocolDomain)),
		ports:    NewMvalue(doms, DstTCPPortDomain, doms.FullRange(DstTCPPortDomain)),
		anyPorts: true,
		any:      true,
	}
}

// ParseService parses a proto[/ports] token: "tcp", "udp/53",
// "tcp/8000-8080", "icmp/8", with ports "any" spanning the whole port
// domain and "dynamic" naming port 0.
func ParseService(doms *Domains, name, token string) (*Service, error) {
	proto, lo, hi, err := parseProtocolPort(doms, token)
	if err != nil {
		return nil, err
	}
	return NewService(doms, name, proto, lo, hi), nil
}

// Name returns the service name.
func (s *Service) Name() string { return s.name }

// Protocol returns the transport protocol.
func (s *Service) Protocol() ProtocolType { return s.proto }

// Ports returns the port (or ICMP type) interval.
func (s *Service) Ports() Range { return s.ports.Range() }

// IsAny reports whether this is the sentinel service.
func (s *Service) IsAny() bool { return s.any }

// MakeBdd compiles the protocol and port conjunction.
func (s *Service) MakeBdd() bdd.Node {
	e := s.protoVal.doms.Engine()
	if s.any {
		return e.True()
	}
	cond := s.protoVal.MakeBdd()
	if !s.anyPorts {
		cond = e.And(cond, s.ports.MakeBdd())
	}
	return cond
}

func (s *Service) String() string {
	if s.any {
		return AnyName
	}
	if s.anyPorts {
		return s.proto.String()
	}
	return s.proto.String() + "/" + s.ports.String()
}

// ServiceGroup collects the services a rule opens. The appDefault flag
// marks the synthetic group holding an application's intrinsic services;
// such a group stands in for the rule's service column when the rule
// uses application-default.
type ServiceGroup struct {
	*Group[*Service]
	appDefault bool
}

// NewServiceGroup allocates a service group.
func NewServiceGroup(name string, services ...*Service) *ServiceGroup {
	return &ServiceGroup{Group: NewGroup(name, services...)}
}

// NewAppDefaultServiceGroup allocates the group of an application's
// intrinsic services.
func NewAppDefaultServiceGroup(services ...*Service) *ServiceGroup {
	return &ServiceGroup{Group: NewGroup("app-default", services...), appDefault: true}
}

// IsAppServices reports whether this group holds application-default
// services.
func (g *ServiceGroup) IsAppServices() bool { return g.appDefault }

// Clone deep-copies the group structure; atoms are shared.
func (g *ServiceGroup) Clone() *ServiceGroup {
	return &ServiceGroup{Group: g.Group.Clone(), appDefault: g.appDefault}
}

// IsAnyServices reports whether the group's condition spans every
// service.
func (g *ServiceGroup) IsAnyServices(e *bdd.Engine) bool {
	return e.IsTrue(g.MakeBdd(e))
}

func parseProtocolPort(doms *Domains, token string) (ProtocolType, uint16, uint16, error) {
	fail := func() (ProtocolType, uint16, uint16, error) {
		return 0, 0, 0, &InvalidServiceError{Token: token}
	}
	if token == "" {
		return fail()
	}
	protoPart, portPart, havePorts := strings.Cut(token, "/")
	var proto ProtocolType
	switch strings.ToLower(protoPart) {
	case "tcp":
		proto = ProtoTCP
	case "udp":
		proto = ProtoUDP
	case "icmp":
		proto = ProtoICMP
	default:
		return fail()
	}
	upper := doms.Upper(portDomain(proto)).Lo

	if !havePorts || portPart == "any" {
		return proto, 0, uint16(upper), nil
	}
	if portPart == "dynamic" {
		return proto, 0, 0, nil
	}
	loPart, hiPart, isRange := strings.Cut(portPart, "-")
	lo, err := strconv.ParseUint(loPart, 10, 16)
	if err != nil || lo > upper {
		return fail()
	}
	hi := lo
	if isRange {
		hi, err = strconv.ParseUint(hiPart, 10, 16)
		if err != nil || hi > upper || lo > hi {
			return fail()
		}
	}
	return proto, uint16(lo), uint16(hi), nil
}
