package stack

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Service declares one supervised process.
type Service struct {
	Command         Command       `yaml:"command"`
	WorkDir         string        `yaml:"workdir,omitempty"`
	Environment     Environment   `yaml:"environment,omitempty"`
	Ports           []PortMapping `yaml:"ports,omitempty"`
	Volumes         []MountSpec   `yaml:"volumes,omitempty"`
	DependsOn       DependsOn     `yaml:"depends_on,omitempty"`
	Healthcheck     *Healthcheck  `yaml:"healthcheck,omitempty"`
	OneShot         bool          `yaml:"oneshot,omitempty"`
	StopGracePeriod Duration      `yaml:"stop_grace_period,omitempty"`

	name string
}

// Name returns the service's key in the stack file.
func (s *Service) Name() string {
	return s.name
}

// Command is a service entrypoint. It accepts both an argv sequence and a
// scalar shell form:
//
//	command: ["postgres", "-D", "/var/lib/pg"]
//	command: ./bin/serve --port 2080
//
// The scalar form runs through "/bin/sh -c".
type Command struct {
	Argv  []string
	Shell string
}

// UnmarshalYAML for Command handles both scalar (shell) and sequence (argv) forms
func (c *Command) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		c.Shell = value.Value
		return nil
	case yaml.SequenceNode:
		return value.Decode(&c.Argv)
	default:
		return fmt.Errorf("line %d: command must be a string or a sequence", value.Line)
	}
}

func (c Command) MarshalYAML() (interface{}, error) {
	if c.Shell != "" {
		return c.Shell, nil
	}
	return c.Argv, nil
}

// Resolved returns the argv to execute, wrapping shell-form commands in
// "/bin/sh -c".
func (c Command) Resolved() []string {
	if c.Shell != "" {
		return []string{"/bin/sh", "-c", c.Shell}
	}
	return append([]string(nil), c.Argv...)
}

// Empty reports whether no command was declared.
func (c Command) Empty() bool {
	return c.Shell == "" && len(c.Argv) == 0
}

// Environment holds a service's environment variables. It accepts both a
// mapping and a KEY=VALUE sequence.
type Environment map[string]string

// UnmarshalYAML for Environment handles both mapping and sequence forms
func (e *Environment) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		m := make(Environment, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			key := value.Content[i]
			val := value.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: environment value for %s must be a scalar", val.Line, key.Value)
			}
			m[key.Value] = val.Value
		}
		*e = m
		return nil
	case yaml.SequenceNode:
		var entries []string
		if err := value.Decode(&entries); err != nil {
			return err
		}
		m := make(Environment, len(entries))
		for _, entry := range entries {
			key, val, ok := strings.Cut(entry, "=")
			if !ok || key == "" {
				return fmt.Errorf("line %d: environment entry %q is not KEY=VALUE", value.Line, entry)
			}
			m[key] = val
		}
		*e = m
		return nil
	default:
		return fmt.Errorf("line %d: environment must be a mapping or a sequence", value.Line)
	}
}

// Sorted returns the variables as KEY=VALUE pairs in key order.
func (e Environment) Sorted() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+e[k])
	}
	return pairs
}

// DependsOn maps dependency names to the condition each must reach. It
// accepts both a plain sequence of names (condition defaults to
// service_started) and a qualified mapping:
//
//	depends_on: [application]
//	depends_on:
//	  database:
//	    condition: service_healthy
type DependsOn map[string]DependencySpec

// DependencySpec qualifies one dependency edge.
type DependencySpec struct {
	Condition Condition `yaml:"condition"`
}

// UnmarshalYAML for DependsOn handles both sequence and mapping forms
func (d *DependsOn) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		m := make(DependsOn, len(names))
		for _, name := range names {
			m[name] = DependencySpec{Condition: ConditionServiceStarted}
		}
		*d = m
		return nil
	case yaml.MappingNode:
		var m map[string]DependencySpec
		if err := value.Decode(&m); err != nil {
			return err
		}
		*d = m
		return nil
	default:
		return fmt.Errorf("line %d: depends_on must be a sequence or a mapping", value.Line)
	}
}

// Names returns the dependency names in lexical order.
func (d DependsOn) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PortMapping declares a listening port as HOST:TARGET, or a single port for
// both. Ports are declarations used for validation and display; the
// processes bind them on their own.
type PortMapping struct {
	Host   int
	Target int
}

func (p *PortMapping) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: port must be a scalar", value.Line)
	}
	if err := p.parse(value.Value); err != nil {
		return fmt.Errorf("line %d: %v", value.Line, err)
	}
	return nil
}

func (p *PortMapping) parse(s string) error {
	host, target, found := strings.Cut(s, ":")
	if !found {
		target = host
	}
	h, err := strconv.Atoi(host)
	if err != nil || h < 1 || h > 65535 {
		return fmt.Errorf("invalid port %q", s)
	}
	t, err := strconv.Atoi(target)
	if err != nil || t < 1 || t > 65535 {
		return fmt.Errorf("invalid port %q", s)
	}
	p.Host = h
	p.Target = t
	return nil
}

func (p PortMapping) String() string {
	if p.Host == p.Target {
		return strconv.Itoa(p.Host)
	}
	return fmt.Sprintf("%d:%d", p.Host, p.Target)
}

func (p PortMapping) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// MountSpec is a volume reference of the form SOURCE:TARGET[:ro]. A source
// that looks like a path (starting with /, ./, ../, or ~) is a host bind
// resolved relative to the stack file; anything else names a volume declared
// under the top-level volumes key.
type MountSpec struct {
	Source   string
	Target   string
	ReadOnly bool
}

func (m *MountSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: volume reference must be a string", value.Line)
	}
	parts := strings.Split(value.Value, ":")
	switch len(parts) {
	case 2:
	case 3:
		switch parts[2] {
		case "ro":
			m.ReadOnly = true
		case "rw":
		default:
			return fmt.Errorf("line %d: volume mode %q must be ro or rw", value.Line, parts[2])
		}
	default:
		return fmt.Errorf("line %d: volume reference %q is not SOURCE:TARGET[:ro]", value.Line, value.Value)
	}
	if parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("line %d: volume reference %q is not SOURCE:TARGET[:ro]", value.Line, value.Value)
	}
	m.Source = parts[0]
	m.Target = parts[1]
	return nil
}

// IsBind reports whether the source is a host path rather than a named
// volume.
func (m MountSpec) IsBind() bool {
	return strings.HasPrefix(m.Source, "/") ||
		strings.HasPrefix(m.Source, "./") ||
		strings.HasPrefix(m.Source, "../") ||
		strings.HasPrefix(m.Source, "~")
}

func (m MountSpec) String() string {
	s := m.Source + ":" + m.Target
	if m.ReadOnly {
		s += ":ro"
	}
	return s
}

func (m MountSpec) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}
