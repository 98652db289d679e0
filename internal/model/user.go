package model

import "grimm.is/palisade/internal/bdd"

// User constrains the user coordinate of a packet.
type User struct {
	name  string
	value Mvalue
	opts  *ModelOptions
	any   bool
}

// NewUser builds a user atom over a single id.
func NewUser(doms *Domains, name string, id uint16, opts *ModelOptions) *User {
	return &User{
		name:  name,
		value: NewMvalue(doms, UserDomain, Singleton(doms.Width(UserDomain), U128(uint64(id)))),
		opts:  opts,
	}
}

// AnyUser returns the sentinel spanning every user.
func AnyUser(doms *Domains) *User {
	return &User{
		name:  AnyName,
		value: NewMvalue(doms, UserDomain, doms.FullRange(UserDomain)),
		opts:  EmptyOptions(),
		any:   true,
	}
}

// Name returns the user name.
func (u *User) Name() string { return u.name }

// IsAny reports whether this is the sentinel user.
func (u *User) IsAny() bool { return u.any }

// MakeBdd compiles the user condition, or true while user modeling is
// disabled.
func (u *User) MakeBdd() bdd.Node {
	e := u.value.doms.Engine()
	if u.any || !u.opts.Contains(OptUser) {
		return e.True()
	}
	return u.value.MakeBdd()
}

func (u *User) String() string {
	if u.any {
		return AnyName
	}
	return u.value.String()
}

// UserGroup collects the users a rule names.
type UserGroup = Group[*User]
