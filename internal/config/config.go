// Package config loads the analyzer's HCL settings file.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"grimm.is/palisade/internal/model"
)

// Settings is the top-level structure of the settings file. Every field
// is optional; the analyzer runs with defaults when no file is given.
type Settings struct {
	// BDD node table sizing.
	NodeSize  int `hcl:"node_size,optional"`
	CacheSize int `hcl:"cache_size,optional"`

	// Address model: ip4, ip6 or ip64.
	IPModel string `hcl:"ip_model,optional"`

	// Optional modeling axes.
	Applications bool `hcl:"applications,optional"`
	Users        bool `hcl:"users,optional"`
	URLs         bool `hcl:"urls,optional"`

	// Strict address parsing rejects subnets with host bits set.
	StrictParser *bool `hcl:"strict_parser,optional"`

	// FQDN resolution.
	DNSServer string `hcl:"dns_server,optional"`
	CachePath string `hcl:"cache_path,optional"`
	Offline   bool   `hcl:"offline,optional"`

	// Show object names in rule tables by default.
	ShowNames bool `hcl:"show_names,optional"`

	LogLevel string `hcl:"log_level,optional"`
}

// Default returns the settings used when no file is present.
func Default() *Settings {
	strict := true
	return &Settings{
		NodeSize:     model.DefaultNodeSize,
		CacheSize:    model.DefaultCacheSize,
		IPModel:      "ip4",
		StrictParser: &strict,
		DNSServer:    "127.0.0.1:53",
		LogLevel:     "warn",
	}
}

// Load reads a settings file, filling unset fields with defaults.
func Load(path string) (*Settings, error) {
	def := Default()
	if path == "" {
		return def, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("settings file %s does not exist", path)
	}

	var s Settings
	if err := hclsimple.DecodeFile(path, nil, &s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if s.NodeSize == 0 {
		s.NodeSize = def.NodeSize
	}
	if s.CacheSize == 0 {
		s.CacheSize = def.CacheSize
	}
	if s.IPModel == "" {
		s.IPModel = def.IPModel
	}
	if _, ok := model.ParseIPModel(s.IPModel); !ok {
		return nil, fmt.Errorf("invalid ip_model %q (want ip4, ip6 or ip64)", s.IPModel)
	}
	if s.StrictParser == nil {
		s.StrictParser = def.StrictParser
	}
	if s.DNSServer == "" {
		s.DNSServer = def.DNSServer
	}
	if s.LogLevel == "" {
		s.LogLevel = def.LogLevel
	}
	return &s, nil
}

// ModelOptions derives the modeling option set.
func (s *Settings) ModelOptions() *model.ModelOptions {
	opts := model.NewModelOptions()
	if s.Applications {
		opts.Add(model.OptApplication)
	}
	if s.Users {
		opts.Add(model.OptUser)
	}
	if s.URLs {
		opts.Add(model.OptURL)
	}
	return opts
}

// IPAddressModel returns the parsed address model.
func (s *Settings) IPAddressModel() model.IPModel {
	m, _ := model.ParseIPModel(s.IPModel)
	return m
}

// Strict reports whether strict address parsing is on.
func (s *Settings) Strict() bool {
	return s.StrictParser == nil || *s.StrictParser
}
