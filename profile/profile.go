// Package profile stores named device setups: the mode a device is opened in
// and the config values applied before it is started. Profiles are read from
// YAML files and merged over the built-in set.
package profile

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

type Setting struct {
	Path  string      `yaml:"path"`
	Value interface{} `yaml:"value"`
}

type Profile struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Mode        rtsa.DeviceMode `yaml:"mode"`
	Memory      string          `yaml:"memory,omitempty"`
	Settings    []Setting       `yaml:"settings"`
}

type file struct {
	Profiles []*Profile `yaml:"profiles"`
}

// MemoryMode returns the memory mode the profile asks for, medium if unset.
func (p *Profile) MemoryMode() (rtsa.MemoryMode, error) {
	if p.Memory == "" {
		return rtsa.MemoryMedium, nil
	}
	return rtsa.ParseMemoryMode(p.Memory)
}

// Apply configures d with the profile settings in order. d must have been
// opened in the profile mode.
func (p *Profile) Apply(d *rtsa.Device) error {
	if d.Mode() != p.Mode {
		return fmt.Errorf("profile %q is for mode %s, device %s is open in mode %s", p.Name, p.Mode, d, d.Mode())
	}
	settings := make([]rtsa.Setting, 0, len(p.Settings))
	for _, s := range p.Settings {
		settings = append(settings, rtsa.Setting{Path: s.Path, Value: s.Value})
	}
	if err := d.Configure(settings); err != nil {
		return fmt.Errorf("unable to apply profile %q: %w", p.Name, err)
	}
	return nil
}

func (p *Profile) validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile without name")
	}
	if !slices.Contains(rtsa.Modes, p.Mode) {
		return fmt.Errorf("profile %q: unsupported mode %q", p.Name, p.Mode)
	}
	if _, err := p.MemoryMode(); err != nil {
		return fmt.Errorf("profile %q: %s", p.Name, err)
	}
	for i, s := range p.Settings {
		if s.Path == "" {
			return fmt.Errorf("profile %q: setting %d has no path", p.Name, i)
		}
		switch s.Value.(type) {
		case int, float64, string, bool:
		default:
			return fmt.Errorf("profile %q: setting %s has unsupported value %v", p.Name, s.Path, s.Value)
		}
	}
	return nil
}

// Parse reads profiles from YAML of the form
//
//	profiles:
//	- name: iqreceiver
//	  mode: iqreceiver
//	  settings:
//	  - {path: main/centerfreq, value: 2440e6}
func Parse(data []byte) ([]*Profile, error) {
	var f file
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("unable to parse profiles: %s", err)
	}
	for _, p := range f.Profiles {
		if err := p.validate(); err != nil {
			return nil, err
		}
	}
	return f.Profiles, nil
}

// Set is a collection of profiles by name.
type Set map[string]*Profile

// Load returns the built-in profiles overlaid with those read from path. A
// profile in the file replaces the built-in of the same name. An empty path
// returns the built-ins only.
func Load(path string) (Set, error) {
	set := Builtin()
	if path == "" {
		return set, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	profiles, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", path, err)
	}
	for _, p := range profiles {
		set[p.Name] = p
	}
	return set, nil
}

func (s Set) Get(name string) (*Profile, error) {
	p, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("no profile named %q", name)
	}
	return p, nil
}

// Names returns the profile names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Marshal encodes profiles in the format read by Parse.
func Marshal(profiles []*Profile) ([]byte, error) {
	return yaml.Marshal(file{Profiles: profiles})
}
