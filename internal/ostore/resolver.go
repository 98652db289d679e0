package ostore

import (
	"fmt"
	"strings"

	"grimm.is/palisade/internal/model"
)

// Token resolution order, identical for every catalog: a pool name is
// expanded into its members first; each remaining token is then the
// "any" sentinel, a named object, or — for addresses and services — a
// literal. Unresolvable tokens are reported back to the loader, never
// guessed at.

// ResolveSrcAddresses resolves address tokens into a source group.
func (s *Store) ResolveSrcAddresses(tokens []string, m model.IPModel) (*model.SrcAddressGroup, []string) {
	group := model.NewGroup[*model.SrcAddress]("")
	var unresolved []string
	for _, token := range expandTokens(s, CatAddresses, tokens, &unresolved) {
		atoms, err := s.srcAddressAtoms(token, m)
		if err != nil {
			unresolved = append(unresolved, token)
			continue
		}
		for _, a := range atoms {
			group.AddItem(a)
		}
	}
	return group, unresolved
}

// ResolveDstAddresses resolves address tokens into a destination group.
func (s *Store) ResolveDstAddresses(tokens []string, m model.IPModel) (*model.DstAddressGroup, []string) {
	group := model.NewGroup[*model.DstAddress]("")
	var unresolved []string
	for _, token := range expandTokens(s, CatAddresses, tokens, &unresolved) {
		atoms, err := s.dstAddressAtoms(token, m)
		if err != nil {
			unresolved = append(unresolved, token)
			continue
		}
		for _, a := range atoms {
			group.AddItem(a)
		}
	}
	return group, unresolved
}

// ResolveServices resolves service tokens into a service group.
func (s *Store) ResolveServices(tokens []string) (*model.ServiceGroup, []string) {
	group := model.NewServiceGroup("")
	var unresolved []string
	for _, token := range expandTokens(s, CatServices, tokens, &unresolved) {
		atom, err := s.serviceAtom(token)
		if err != nil {
			unresolved = append(unresolved, token)
			continue
		}
		group.AddItem(atom)
	}
	return group, unresolved
}

// ResolveApplications resolves application tokens.
func (s *Store) ResolveApplications(tokens []string) (*model.ApplicationGroup, []string) {
	group := model.NewApplicationGroup("")
	var unresolved []string
	for _, token := range expandTokens(s, CatApplications, tokens, &unresolved) {
		atom, err := s.applicationAtom(token)
		if err != nil {
			unresolved = append(unresolved, token)
			continue
		}
		group.AddItem(atom)
	}
	return group, unresolved
}

// ResolveUsers resolves user tokens. Unknown users are registered on
// first use: the policy is authoritative for the user population.
func (s *Store) ResolveUsers(tokens []string) (*model.UserGroup, []string) {
	group := model.NewGroup[*model.User]("")
	var unresolved []string
	for _, token := range expandTokens(s, CatUsers, tokens, &unresolved) {
		atom, err := s.userAtom(token)
		if err != nil {
			unresolved = append(unresolved, token)
			continue
		}
		group.AddItem(atom)
	}
	return group, unresolved
}

// ResolveURLs resolves URL tokens, registering unknown URLs on first
// use.
func (s *Store) ResolveURLs(tokens []string) (*model.URLGroup, []string) {
	group := model.NewGroup[*model.URL]("")
	var unresolved []string
	for _, token := range expandTokens(s, CatURLs, tokens, &unresolved) {
		atom, err := s.urlAtom(token)
		if err != nil {
			unresolved = append(unresolved, token)
			continue
		}
		group.AddItem(atom)
	}
	return group, unresolved
}

// expandTokens replaces pool tokens by their flattened members. Cycles
// and unknown sub-pools surface as unresolved tokens.
func expandTokens(s *Store, cat Category, tokens []string, unresolved *[]string) []string {
	var out []string
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if s.isPool(cat, token) {
			members, err := s.expandPool(cat, token, make(map[string]bool))
			if err != nil {
				*unresolved = append(*unresolved, token)
				continue
			}
			out = append(out, members...)
		} else {
			out = append(out, token)
		}
	}
	return out
}

func (s *Store) srcAddressAtoms(token string, m model.IPModel) ([]*model.SrcAddress, error) {
	key := srcAddrKey{token: strings.ToLower(token), m: m}
	if atoms, ok := s.srcAtoms[key]; ok {
		return atoms, nil
	}
	var atoms []*model.SrcAddress
	if token == model.AnyName {
		atoms = []*model.SrcAddress{model.AnySrcAddress(s.doms, m)}
	} else if obj, ok := s.addresses[key.token]; ok {
		specs, err := s.objectSpecs(obj)
		if err != nil {
			return nil, err
		}
		for _, spec := range specs {
			atom, err := model.ParseSrcAddress(s.doms, m, obj.Name, spec, s.strict)
			if err != nil {
				return nil, err
			}
			atoms = append(atoms, atom)
		}
	} else {
		atom, err := model.ParseSrcAddress(s.doms, m, token, token, s.strict)
		if err != nil {
			return nil, err
		}
		atoms = []*model.SrcAddress{atom}
	}
	s.srcAtoms[key] = atoms
	return atoms, nil
}

func (s *Store) dstAddressAtoms(token string, m model.IPModel) ([]*model.DstAddress, error) {
	key := dstAddrKey{token: strings.ToLower(token), m: m}
	if atoms, ok := s.dstAtoms[key]; ok {
		return atoms, nil
	}
	var atoms []*model.DstAddress
	if token == model.AnyName {
		atoms = []*model.DstAddress{model.AnyDstAddress(s.doms, m)}
	} else if obj, ok := s.addresses[key.token]; ok {
		specs, err := s.objectSpecs(obj)
		if err != nil {
			return nil, err
		}
		for _, spec := range specs {
			atom, err := model.ParseDstAddress(s.doms, m, obj.Name, spec, s.strict)
			if err != nil {
				return nil, err
			}
			atoms = append(atoms, atom)
		}
	} else {
		atom, err := model.ParseDstAddress(s.doms, m, token, token, s.strict)
		if err != nil {
			return nil, err
		}
		atoms = []*model.DstAddress{atom}
	}
	s.dstAtoms[key] = atoms
	return atoms, nil
}

// objectSpecs returns the literal specs of an address object, resolving
// an FQDN entry through the resolver.
func (s *Store) objectSpecs(obj *AddressObject) ([]string, error) {
	if obj.FQDN == "" {
		return obj.Specs, nil
	}
	if len(obj.Specs) > 0 {
		return obj.Specs, nil
	}
	if s.fqdn == nil {
		return nil, fmt.Errorf("no resolver for fqdn object %q", obj.Name)
	}
	specs, err := s.fqdn.Lookup(obj.FQDN)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", obj.FQDN, err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("fqdn %q resolved to no addresses", obj.FQDN)
	}
	obj.Specs = specs
	return specs, nil
}

func (s *Store) serviceAtom(token string) (*model.Service, error) {
	key := strings.ToLower(token)
	if atom, ok := s.svcAtoms[key]; ok {
		return atom, nil
	}
	var atom *model.Service
	var err error
	if token == model.AnyName {
		atom = model.AnyService(s.doms)
	} else if obj, ok := s.services[key]; ok {
		atom, err = model.ParseService(s.doms, obj.Name, obj.Spec)
	} else {
		atom, err = model.ParseService(s.doms, token, token)
	}
	if err != nil {
		return nil, err
	}
	s.svcAtoms[key] = atom
	return atom, nil
}

func (s *Store) applicationAtom(token string) (*model.Application, error) {
	key := strings.ToLower(token)
	if atom, ok := s.appAtoms[key]; ok {
		return atom, nil
	}
	if token == model.AnyName {
		atom := model.AnyApplication(s.doms)
		s.appAtoms[key] = atom
		return atom, nil
	}
	obj, ok := s.apps[key]
	if !ok {
		return nil, fmt.Errorf("unknown application %q", token)
	}
	services := model.NewAppDefaultServiceGroup()
	for _, svcName := range obj.Services {
		svc, err := s.serviceAtom(svcName)
		if err != nil {
			return nil, err
		}
		services.AddItem(svc)
	}
	id, err := s.appIDs.Next()
	if err != nil {
		return nil, err
	}
	atom := model.NewApplication(s.doms, obj.Name, id, services, s.opts, obj.UseAppSvc)
	s.appAtoms[key] = atom
	return atom, nil
}

func (s *Store) userAtom(token string) (*model.User, error) {
	key := strings.ToLower(token)
	if atom, ok := s.usrAtoms[key]; ok {
		return atom, nil
	}
	if token == model.AnyName {
		atom := model.AnyUser(s.doms)
		s.usrAtoms[key] = atom
		return atom, nil
	}
	id, err := s.userIDs.Next()
	if err != nil {
		return nil, err
	}
	s.users[key] = struct{}{}
	atom := model.NewUser(s.doms, token, id, s.opts)
	s.usrAtoms[key] = atom
	return atom, nil
}

func (s *Store) urlAtom(token string) (*model.URL, error) {
	key := strings.ToLower(token)
	if atom, ok := s.urlAtoms[key]; ok {
		return atom, nil
	}
	if token == model.AnyName {
		atom := model.AnyURL(s.doms)
		s.urlAtoms[key] = atom
		return atom, nil
	}
	id, err := s.urlIDs.Next()
	if err != nil {
		return nil, err
	}
	s.urls[key] = struct{}{}
	atom := model.NewURL(s.doms, token, id, s.opts)
	s.urlAtoms[key] = atom
	return atom, nil
}
