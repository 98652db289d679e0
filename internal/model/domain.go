package model

import (
	"fmt"

	"grimm.is/palisade/internal/bdd"
)

// DomainType names one finite integer dimension of the packet space.
// Source and destination variants of zones and addresses are distinct
// domains with disjoint variable blocks: a source-address condition can
// never be meaningfully compared with a destination-address condition.
type DomainType int

const (
	SrcZoneDomain DomainType = iota
	DstZoneDomain
	SrcAddress4Domain
	DstAddress4Domain
	SrcAddress6Domain
	DstAddress6Domain
	ProtocolDomain
	DstTCPPortDomain
	DstUDPPortDomain
	ICMPTypeDomain
	ApplicationDomain
	UserDomain
	URLDomain

	numDomains
)

// domainWidths holds the bit width of each domain, indexed by DomainType.
// The order must match the constant declaration order above.
var domainWidths = [numDomains]int{
	10,  // SrcZoneDomain
	10,  // DstZoneDomain
	32,  // SrcAddress4Domain
	32,  // DstAddress4Domain
	128, // SrcAddress6Domain
	128, // DstAddress6Domain
	8,   // ProtocolDomain
	16,  // DstTCPPortDomain
	16,  // DstUDPPortDomain
	8,   // ICMPTypeDomain
	16,  // ApplicationDomain
	16,  // UserDomain
	16,  // URLDomain
}

func (dt DomainType) String() string {
	switch dt {
	case SrcZoneDomain:
		return "src.zone"
	case DstZoneDomain:
		return "dst.zone"
	case SrcAddress4Domain:
		return "src.addr4"
	case DstAddress4Domain:
		return "dst.addr4"
	case SrcAddress6Domain:
		return "src.addr6"
	case DstAddress6Domain:
		return "dst.addr6"
	case ProtocolDomain:
		return "protocol"
	case DstTCPPortDomain:
		return "dst.tcp-port"
	case DstUDPPortDomain:
		return "dst.udp-port"
	case ICMPTypeDomain:
		return "icmp-type"
	case ApplicationDomain:
		return "application"
	case UserDomain:
		return "user"
	case URLDomain:
		return "url"
	default:
		return "unknown"
	}
}

// Domains is the packet-space variable registry: it owns the BDD engine
// and one contiguous bit-vector per domain, allocated once in
// declaration order. Construct it once at program start and pass it to
// every component that compiles conditions.
type Domains struct {
	eng  *bdd.Engine
	vecs [numDomains]bdd.Vec
}

// DefaultNodeSize and DefaultCacheSize size the BDD node table for
// typical policies; the configuration file can override them.
const (
	DefaultNodeSize  = 1_000_000
	DefaultCacheSize = 100_000
)

// NewDomains initializes the BDD engine and allocates every domain's
// variable block.
func NewDomains(nodeSize, cacheSize int) (*Domains, error) {
	total := 0
	for _, w := range domainWidths {
		total += w
	}
	eng, err := bdd.NewEngine(total, nodeSize, cacheSize)
	if err != nil {
		return nil, err
	}
	d := &Domains{eng: eng}
	offset := 0
	for dt := DomainType(0); dt < numDomains; dt++ {
		d.vecs[dt] = eng.NewVec(domainWidths[dt], offset)
		offset += domainWidths[dt]
	}
	return d, nil
}

func (d *Domains) check(dt DomainType) {
	if d == nil || d.eng == nil {
		panic("model: domains not initialized")
	}
	if dt < 0 || dt >= numDomains {
		panic(fmt.Sprintf("model: invalid domain %d", int(dt)))
	}
}

// Engine returns the BDD engine backing this registry.
func (d *Domains) Engine() *bdd.Engine {
	if d == nil || d.eng == nil {
		panic("model: domains not initialized")
	}
	return d.eng
}

// Var returns the bit-vector encoding dt.
func (d *Domains) Var(dt DomainType) bdd.Vec {
	d.check(dt)
	return d.vecs[dt]
}

// Width returns the bit width of dt.
func (d *Domains) Width(dt DomainType) int {
	d.check(dt)
	return domainWidths[dt]
}

// Upper returns the largest value representable in dt.
func (d *Domains) Upper(dt DomainType) Uint128 {
	d.check(dt)
	return MaxForWidth(domainWidths[dt])
}

// FullRange returns the interval spanning the whole of dt.
func (d *Domains) FullRange(dt DomainType) Range {
	d.check(dt)
	return NewRange(domainWidths[dt], Uint128{}, MaxForWidth(domainWidths[dt]))
}
