package model

// ModelOption toggles one optional modeling axis. When an axis is off,
// the corresponding atoms compile to the true condition so the same
// predicate evaluates differently under different modeling modes.
type ModelOption int

const (
	OptApplication ModelOption = iota
	OptUser
	OptURL
)

// ModelOptions is the set of enabled modeling axes. One instance is
// shared by every atom of a network; flipping an option changes how the
// next analysis compiles predicates.
type ModelOptions struct {
	set map[ModelOption]bool
}

// NewModelOptions returns an empty option set.
func NewModelOptions(opts ...ModelOption) *ModelOptions {
	m := &ModelOptions{set: make(map[ModelOption]bool)}
	for _, o := range opts {
		m.Add(o)
	}
	return m
}

var emptyOptions = NewModelOptions()

// EmptyOptions returns the shared immutable empty option set used by
// atoms that are never option-gated.
func EmptyOptions() *ModelOptions { return emptyOptions }

// Contains reports whether o is enabled.
func (m *ModelOptions) Contains(o ModelOption) bool { return m.set[o] }

// Add enables o.
func (m *ModelOptions) Add(o ModelOption) { m.set[o] = true }

// Remove disables o.
func (m *ModelOptions) Remove(o ModelOption) { delete(m.set, o) }

// IPModel selects which address domains a firewall's rules are encoded
// in: IPv4 only, IPv6 only, or combined with IPv4 addresses mapped into
// the 128-bit domains.
type IPModel int

const (
	IP4Model IPModel = iota
	IP6Model
	IP64Model
)

func (m IPModel) String() string {
	switch m {
	case IP4Model:
		return "ip4"
	case IP6Model:
		return "ip6"
	case IP64Model:
		return "ip64"
	default:
		return "unknown"
	}
}

// ParseIPModel parses the configuration spelling of an IPModel.
func ParseIPModel(s string) (IPModel, bool) {
	switch s {
	case "", "ip4":
		return IP4Model, true
	case "ip6":
		return IP6Model, true
	case "ip64":
		return IP64Model, true
	default:
		return IP4Model, false
	}
}
