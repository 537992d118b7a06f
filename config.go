package go_openid

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// TOML configuration for deployments embedding this library. Settings are
// local policy, never negotiated: each side loads its own file and the
// handshake discovers the intersection.
//
// Example:
//
//	association_lifetime_seconds = 1209600
//	store_path = "/var/lib/openid/associations"
//
//	[relying_party]
//	minimum_hash_bits = 160
//	maximum_hash_bits = 256
//
//	[provider]
//	minimum_hash_bits = 256
//	maximum_hash_bits = 256
//	require_association_security = true

// SecurityConfig is the serialized form of SecuritySettings.
type SecurityConfig struct {
	MinimumHashBits            int  `toml:"minimum_hash_bits"`
	MaximumHashBits            int  `toml:"maximum_hash_bits"`
	RequireAssociationSecurity bool `toml:"require_association_security"`
}

// Settings converts the config section into runtime settings.
func (c SecurityConfig) Settings() SecuritySettings {
	return SecuritySettings{
		MinimumHashBits:            c.MinimumHashBits,
		MaximumHashBits:            c.MaximumHashBits,
		RequireAssociationSecurity: c.RequireAssociationSecurity,
	}
}

// Config is the top-level configuration.
type Config struct {
	// AssociationLifetimeSeconds is the lifetime of provider-created
	// associations. Zero selects the protocol default.
	AssociationLifetimeSeconds int64 `toml:"association_lifetime_seconds"`

	// StorePath selects the LevelDB association store location. Empty
	// selects the in-memory store.
	StorePath string `toml:"store_path"`

	RelyingParty SecurityConfig `toml:"relying_party"`
	Provider     SecurityConfig `toml:"provider"`
}

// DefaultConfig returns a configuration accepting everything the protocol
// offers, with in-memory storage.
func DefaultConfig() *Config {
	def := DefaultSecuritySettings()
	sec := SecurityConfig{
		MinimumHashBits: def.MinimumHashBits,
		MaximumHashBits: def.MaximumHashBits,
	}
	return &Config{
		AssociationLifetimeSeconds: int64(DEFAULT_ASSOCIATION_LIFETIME / time.Second),
		RelyingParty:               sec,
		Provider:                   sec,
	}
}

// LoadConfig reads a TOML configuration file, filling unset security
// sections with the defaults.
func LoadConfig(path string) (*Config, error) {
	conf := DefaultConfig()
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	Debug("Loaded association config from %q", path)
	return conf, nil
}

// Validate rejects configurations no handshake could satisfy.
func (c *Config) Validate() error {
	for name, sec := range map[string]SecurityConfig{
		"relying_party": c.RelyingParty,
		"provider":      c.Provider,
	} {
		if sec.MinimumHashBits <= 0 || sec.MaximumHashBits < sec.MinimumHashBits {
			return fmt.Errorf("config section %q has invalid hash bit bounds [%d, %d]: %w",
				name, sec.MinimumHashBits, sec.MaximumHashBits, ErrInvalidArgument)
		}
	}
	if c.AssociationLifetimeSeconds != 0 && c.AssociationLifetime() < MIN_ASSOCIATION_LIFETIME {
		return fmt.Errorf("association lifetime %ds below minimum: %w",
			c.AssociationLifetimeSeconds, ErrInvalidArgument)
	}
	return nil
}

// AssociationLifetime returns the configured lifetime, or the protocol
// default when unset.
func (c *Config) AssociationLifetime() time.Duration {
	if c.AssociationLifetimeSeconds <= 0 {
		return DEFAULT_ASSOCIATION_LIFETIME
	}
	return time.Duration(c.AssociationLifetimeSeconds) * time.Second
}

// OpenStore opens the configured association store for the given role:
// LevelDB when a store path is set, in-memory otherwise.
func (c *Config) OpenStore(role StoreRole) (AssociationStore, error) {
	if c.StorePath == "" {
		return NewMemoryStore(role), nil
	}
	return OpenLevelDBStore(role, c.StorePath)
}
