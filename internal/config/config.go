// Package config loads the settings of the dxf command from dxf.yaml and
// DXF_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tsawler/dxf/dialect"
	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/model"
)

const (
	configFileName = "dxf"
	envPrefix      = "DXF"

	KeyReferencePolicy = "reference_policy"
	KeyRemovalPolicy   = "removal_policy"
	KeyVersion         = "version"
	KeyBinary          = "binary"
	KeyApproximate     = "approximate"
	KeyDrop            = "drop"
	KeyChordTolerance  = "chord_tolerance"
	KeySplineSegments  = "spline_segments"
	KeyCatalog         = "catalog"
)

// DefaultYAML is the content written by "dxf config init".
const DefaultYAML = `# dxf configuration

# Missing layers, linetypes, styles and blocks: autocreate or strict
reference_policy: autocreate

# Removing a record that is still used: reject or cascade
removal_policy: reject

# Default output version for convert (R12, R2000 ... R2018); empty keeps
# the input version
version: ""
binary: false

# Entity kinds approximated when writing R12; "none" disables
approximate: [ellipse, spline, mtext]
# Entity types without an R12 equivalent (LEADER, HATCH ...) removed when
# writing R12 instead of failing; "*" removes all of them
drop: []
chord_tolerance: 0.01
spline_segments: 8

# Drawing index used by "dxf index" and "dxf find"
catalog: dxf-catalog.db
`

// Config is the resolved configuration.
type Config struct {
	References model.ReferencePolicy
	Removal    model.RemovalPolicy
	Version    format.Version // Unknown keeps the input version
	Binary     bool
	Policy     dialect.Policy
	Catalog    string

	// File is the configuration file that was read, empty when none was.
	File string
}

// ModelOptions returns the integrity options for imports.
func (c *Config) ModelOptions() model.Options {
	return model.Options{References: c.References, Removal: c.Removal}
}

// New returns a viper instance with the defaults and environment
// overrides set up.
func New() *viper.Viper {
	p := dialect.DefaultPolicy()
	kinds := make([]string, len(p.Approximate))
	for i, k := range p.Approximate {
		kinds[i] = strings.ToLower(k.String())
	}

	v := viper.New()
	v.SetDefault(KeyReferencePolicy, model.AutoCreate.String())
	v.SetDefault(KeyRemovalPolicy, model.Reject.String())
	v.SetDefault(KeyVersion, "")
	v.SetDefault(KeyBinary, false)
	v.SetDefault(KeyApproximate, kinds)
	v.SetDefault(KeyDrop, []string{})
	v.SetDefault(KeyChordTolerance, p.ChordTolerance)
	v.SetDefault(KeySplineSegments, p.SplineSegments)
	v.SetDefault(KeyCatalog, "dxf-catalog.db")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads path, or dxf.yaml from the working directory when path is
// empty. Only an explicitly named file has to exist.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return Decode(v)
}

// Decode resolves the settings held by v.
func Decode(v *viper.Viper) (*Config, error) {
	c := &Config{
		Binary:  v.GetBool(KeyBinary),
		Catalog: v.GetString(KeyCatalog),
		File:    v.ConfigFileUsed(),
	}

	var err error
	if c.References, err = model.ParseReferencePolicy(v.GetString(KeyReferencePolicy)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyReferencePolicy, err)
	}
	if c.Removal, err = model.ParseRemovalPolicy(v.GetString(KeyRemovalPolicy)); err != nil {
		return nil, fmt.Errorf("%s: %w", KeyRemovalPolicy, err)
	}
	if s := strings.TrimSpace(v.GetString(KeyVersion)); s != "" {
		if c.Version, err = format.ParseVersion(s); err != nil {
			return nil, fmt.Errorf("%s: %w", KeyVersion, err)
		}
	}

	c.Policy = dialect.DefaultPolicy()
	kinds, err := dialect.ParseKinds(splitList(v.GetStringSlice(KeyApproximate)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyApproximate, err)
	}
	c.Policy.Approximate = kinds
	for _, name := range splitList(v.GetStringSlice(KeyDrop)) {
		c.Policy.Drop = append(c.Policy.Drop, strings.ToUpper(name))
	}
	if c.Policy.ChordTolerance = v.GetFloat64(KeyChordTolerance); c.Policy.ChordTolerance <= 0 {
		return nil, fmt.Errorf("%s must be positive", KeyChordTolerance)
	}
	if c.Policy.SplineSegments = v.GetInt(KeySplineSegments); c.Policy.SplineSegments <= 0 {
		return nil, fmt.Errorf("%s must be positive", KeySplineSegments)
	}
	return c, nil
}

// splitList accepts YAML lists as well as comma separated environment
// values.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
