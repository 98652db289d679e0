// Package brand provides centralized branding constants for the
// analyzer. This makes it easy to fork or white-label the product by
// changing brand.json.
//
// The brand identity is loaded from brand.json at compile time via
// go:embed so other tools (scripts, docs generators) can read the same
// file.
package brand

import (
	_ "embed"
	"encoding/json"
)

//go:embed brand.json
var brandJSON []byte

// Brand holds all branding information.
type Brand struct {
	Name             string `json:"name"`
	LowerName        string `json:"lowerName"`
	Vendor           string `json:"vendor"`
	Description      string `json:"description"`
	Tagline          string `json:"tagline"`
	BinaryName       string `json:"binaryName"`
	ConfigFileName   string `json:"configFileName"`
	DefaultConfigDir string `json:"defaultConfigDir"`
	DefaultCacheDir  string `json:"defaultCacheDir"`
	Version          string `json:"version"`
}

var b Brand

// Exported branding values, initialized from brand.json.
var (
	Name             string
	LowerName        string
	Vendor           string
	Description      string
	Tagline          string
	BinaryName       string
	ConfigFileName   string
	DefaultConfigDir string
	DefaultCacheDir  string
	Version          string
)

func init() {
	if err := json.Unmarshal(brandJSON, &b); err != nil {
		panic("failed to parse brand.json: " + err.Error())
	}

	Name = b.Name
	LowerName = b.LowerName
	Vendor = b.Vendor
	Description = b.Description
	Tagline = b.Tagline
	BinaryName = b.BinaryName
	ConfigFileName = b.ConfigFileName
	DefaultConfigDir = b.DefaultConfigDir
	DefaultCacheDir = b.DefaultCacheDir
	Version = b.Version
}
