package stack

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked for when no stack file is given explicitly.
const DefaultFileName = "stack.yml"

// Stack is a parsed stack file.
type Stack struct {
	Version  string                `yaml:"version,omitempty"`
	Services map[string]*Service   `yaml:"services"`
	Volumes  map[string]VolumeSpec `yaml:"volumes,omitempty"`

	path string
	dir  string
}

// VolumeSpec declares a named volume. The declaration reserves the name; it
// carries no options.
type VolumeSpec struct{}

var serviceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// Load reads, interpolates, and parses the stack file at path. ${VAR}
// references resolve against the process environment, supplemented by an
// optional .env file beside the stack file (the process environment wins).
func Load(path string) (*Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stack file: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve stack file path: %w", err)
	}
	lookup, err := EnvLookup(filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	st, err := Parse(data, lookup)
	if err != nil {
		return nil, err
	}
	st.path = abs
	st.dir = filepath.Dir(abs)
	return st, nil
}

// Parse decodes stack YAML, expanding ${VAR} references through lookup. A
// nil lookup skips interpolation.
func Parse(data []byte, lookup LookupFunc) (*Stack, error) {
	var st Stack
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse stack file: %w", err)
	}
	if len(st.Services) == 0 {
		return nil, errors.New("stack file declares no services")
	}
	for name, svc := range st.Services {
		if svc == nil {
			return nil, fmt.Errorf("service %s has no body", name)
		}
		if !serviceNamePattern.MatchString(name) {
			return nil, fmt.Errorf("invalid service name %q", name)
		}
		svc.name = name
	}
	if lookup != nil {
		st.expand(lookup)
	}
	return &st, nil
}

// Path returns the absolute stack file path, when loaded from disk.
func (s *Stack) Path() string {
	return s.path
}

// Dir returns the directory of the stack file. Relative host binds and the
// default state directory resolve against it.
func (s *Stack) Dir() string {
	return s.dir
}

// ServiceNames returns the declared service names in lexical order.
func (s *Stack) ServiceNames() []string {
	names := make([]string, 0, len(s.Services))
	for name := range s.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VolumeNames returns the declared named volumes in lexical order.
func (s *Stack) VolumeNames() []string {
	names := make([]string, 0, len(s.Volumes))
	for name := range s.Volumes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render marshals the stack back to YAML with interpolation applied.
func (s *Stack) Render() ([]byte, error) {
	return yaml.Marshal(s)
}

func (s *Stack) expand(lookup LookupFunc) {
	for _, svc := range s.Services {
		for k, v := range svc.Environment {
			svc.Environment[k] = Expand(v, lookup)
		}
		svc.Command.Shell = Expand(svc.Command.Shell, lookup)
		for i := range svc.Command.Argv {
			svc.Command.Argv[i] = Expand(svc.Command.Argv[i], lookup)
		}
		svc.WorkDir = Expand(svc.WorkDir, lookup)
		for i := range svc.Volumes {
			svc.Volumes[i].Source = Expand(svc.Volumes[i].Source, lookup)
			svc.Volumes[i].Target = Expand(svc.Volumes[i].Target, lookup)
		}
		if svc.Healthcheck != nil {
			for i := range svc.Healthcheck.Test.Args {
				svc.Healthcheck.Test.Args[i] = Expand(svc.Healthcheck.Test.Args[i], lookup)
			}
		}
	}
}
