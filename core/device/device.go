// Package device models the configured instruments and the read-only
// registry the translation core consults. Devices are created and edited by
// the configuration surface, which is outside this repo; the core only looks
// them up.
package device

import (
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/scopeflow/scopeflow/pkgs/errors"
)

// UnknownAlias is the sentinel returned when no device context can be
// resolved for a statement. Code generation emits against this name rather
// than inventing a default target.
const UnknownAlias = "unknown"

// Backend identifies the transport family used to reach an instrument.
type Backend string

const (
	BackendGPIB      Backend = "gpib"      // legacy instrument protocol
	BackendVendorSDK Backend = "vendorSDK" // driver stack supplied by the vendor
	BackendSocket    Backend = "socket"    // raw socket, high-speed transfers
	BackendHybrid    Backend = "hybrid"    // VISA control plane + socket data plane
	BackendVISA      Backend = "visa"      // generic network VISA
)

// Valid reports whether b is one of the known backends.
func (b Backend) Valid() bool {
	switch b {
	case BackendGPIB, BackendVendorSDK, BackendSocket, BackendHybrid, BackendVISA:
		return true
	}
	return false
}

// Device is one configured instrument.
type Device struct {
	ID         string  `yaml:"id"`
	Alias      string  `yaml:"alias"`
	Backend    Backend `yaml:"backend"`
	Host       string  `yaml:"host"`
	Port       int     `yaml:"port"`
	TimeoutSec int     `yaml:"timeout"`
	Driver     string  `yaml:"driver"`
}

// Registry is a read-only device lookup. The zero value is an empty registry:
// every lookup misses, which the callers treat as the unknown sentinel.
type Registry struct {
	byAlias map[string]Device
	byID    map[string]Device
	order   []string // aliases in declaration order
}

// NewRegistry builds a registry from a device list. Missing IDs are filled
// in, missing ports and timeouts get the documented defaults (4000 / 10s,
// the socket transport's conventions). A duplicate alias is a configuration
// error: aliases are the user-visible names generated code is written in.
func NewRegistry(devices []Device) (*Registry, error) {
	r := &Registry{
		byAlias: make(map[string]Device),
		byID:    make(map[string]Device),
	}
	for _, d := range devices {
		if d.Alias == "" {
			return nil, errors.New(errors.ErrRegistryParse, "device with empty alias")
		}
		if _, dup := r.byAlias[d.Alias]; dup {
			return nil, errors.NewDuplicateAliasError(d.Alias)
		}
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if d.Port == 0 {
			d.Port = 4000
		}
		if d.TimeoutSec == 0 {
			d.TimeoutSec = 10
		}
		if d.Backend == "" {
			d.Backend = BackendVISA
		}
		if !d.Backend.Valid() {
			return nil, errors.New(errors.ErrRegistryParse,
				fmt.Sprintf("device %q: unknown backend %q", d.Alias, d.Backend))
		}
		r.byAlias[d.Alias] = d
		r.byID[d.ID] = d
		r.order = append(r.order, d.Alias)
	}
	return r, nil
}

// ByAlias looks a device up by its user-visible alias.
func (r *Registry) ByAlias(alias string) (Device, bool) {
	if r == nil || r.byAlias == nil {
		return Device{}, false
	}
	d, ok := r.byAlias[alias]
	return d, ok
}

// ByID looks a device up by its identifier.
func (r *Registry) ByID(id string) (Device, bool) {
	if r == nil || r.byID == nil {
		return Device{}, false
	}
	d, ok := r.byID[id]
	return d, ok
}

// Aliases returns the registered aliases in declaration order.
func (r *Registry) Aliases() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SortedAliases returns the registered aliases sorted, for error messages.
func (r *Registry) SortedAliases() []string {
	out := r.Aliases()
	sort.Strings(out)
	return out
}

// registryFile is the on-disk registry document.
type registryFile struct {
	Devices []Device `yaml:"devices"`
}

// LoadRegistry reads a YAML registry file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrRegistryRead,
			fmt.Sprintf("failed to read device registry %q", path), err)
	}
	return ParseRegistry(data)
}

// ParseRegistry parses a YAML registry document.
func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrRegistryParse, "malformed device registry", err)
	}
	return NewRegistry(f.Devices)
}
