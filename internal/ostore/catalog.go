package ostore

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// catalogFile is the TOML shape of an object catalog. The users and urls
// arrays are top-level keys, so they come before the first table header.
//
//	users = ["alice", "bob"]
//	urls = ["news", "social-media"]
//
//	[addresses]
//	web-server = "192.0.2.10"
//	dmz = ["192.0.2.0/24", "2001:db8::/64"]
//	crm = { fqdn = "crm.example.com" }
//
//	[services]
//	http = "tcp/80"
//
//	[applications.web-browsing]
//	services = ["http"]
//	use-app-svc = true
//
//	[pools.addresses]
//	servers = ["web-server", "dmz"]
type catalogFile struct {
	Addresses    map[string]any          `toml:"addresses"`
	Services     map[string]string       `toml:"services"`
	Applications map[string]appEntry     `toml:"applications"`
	Users        []string                `toml:"users"`
	URLs         []string                `toml:"urls"`
	Pools        map[string]poolsSection `toml:"pools"`
}

type appEntry struct {
	Services  []string `toml:"services"`
	UseAppSvc bool     `toml:"use-app-svc"`
}

type poolsSection map[string][]string

// LoadCatalog reads a TOML object catalog into the store.
func (s *Store) LoadCatalog(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing catalog %s: %w", path, err)
	}

	for name, value := range file.Addresses {
		obj := &AddressObject{Name: name}
		switch v := value.(type) {
		case string:
			obj.Specs = []string{v}
		case []any:
			for _, item := range v {
				spec, ok := item.(string)
				if !ok {
					return fmt.Errorf("catalog %s: address %q: expected string entries", path, name)
				}
				obj.Specs = append(obj.Specs, spec)
			}
		case map[string]any:
			fqdn, ok := v["fqdn"].(string)
			if !ok {
				return fmt.Errorf("catalog %s: address %q: expected fqdn key", path, name)
			}
			obj.FQDN = fqdn
		default:
			return fmt.Errorf("catalog %s: address %q: unsupported value", path, name)
		}
		if err := s.AddAddress(obj); err != nil {
			return fmt.Errorf("catalog %s: %w", path, err)
		}
	}

	for name, spec := range file.Services {
		if err := s.AddService(&ServiceObject{Name: name, Spec: spec}); err != nil {
			return fmt.Errorf("catalog %s: %w", path, err)
		}
	}

	for name, entry := range file.Applications {
		obj := &ApplicationObject{Name: name, Services: entry.Services, UseAppSvc: entry.UseAppSvc}
		if err := s.AddApplication(obj); err != nil {
			return fmt.Errorf("catalog %s: %w", path, err)
		}
	}

	for _, name := range file.Users {
		s.AddUser(name)
	}
	for _, name := range file.URLs {
		s.AddURL(name)
	}

	for section, pools := range file.Pools {
		cat := Category(section)
		if _, ok := s.pools[cat]; !ok {
			return fmt.Errorf("catalog %s: unknown pool section %q", path, section)
		}
		for name, members := range pools {
			if err := s.AddPool(cat, name, members); err != nil {
				return fmt.Errorf("catalog %s: %w", path, err)
			}
		}
	}

	return nil
}
