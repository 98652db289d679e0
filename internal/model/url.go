package model

import "grimm.is/palisade/internal/bdd"

// URL constrains the URL-category coordinate of a packet.
type URL struct {
	name  string
	value Mvalue
	opts  *ModelOptions
	any   bool
}

// NewURL builds a URL atom over a single id.
func NewURL(doms *Domains, name string, id uint16, opts *ModelOptions) *URL {
	return &URL{
		name:  name,
		value: NewMvalue(doms, URLDomain, Singleton(doms.Width(URLDomain), U128(uint64(id)))),
		opts:  opts,
	}
}

// AnyURL returns the sentinel spanning every URL.
func AnyURL(doms *Domains) *URL {
	return &URL{
		name:  AnyName,
		value: NewMvalue(doms, URLDomain, doms.FullRange(URLDomain)),
		opts:  EmptyOptions(),
		any:   true,
	}
}

// Name returns the URL.
func (u *URL) Name() string { return u.name }

// IsAny reports whether this is the sentinel URL.
func (u *URL) IsAny() bool { return u.any }

// MakeBdd compiles the URL condition, or true while URL modeling is
// disabled.
func (u *URL) MakeBdd() bdd.Node {
	e := u.value.doms.Engine()
	if u.any || !u.opts.Contains(OptURL) {
		return e.True()
	}
	return u.value.MakeBdd()
}

func (u *URL) String() string {
	if u.any {
		return AnyName
	}
	return u.value.String()
}

// URLGroup collects the URLs a rule names.
type URLGroup = Group[*URL]
