package stack

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"
)

// ValidationError aggregates every problem found in a stack file.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid stack: " + e.Issues[0]
	}
	return fmt.Sprintf("invalid stack: %d problems:\n  - %s",
		len(e.Issues), strings.Join(e.Issues, "\n  - "))
}

// Validate checks the stack's static invariants: every service runs
// something, dependency references resolve and carry a satisfiable
// condition, probes are well-formed, declared host ports don't collide,
// named volumes are declared, and no volume has more than one writer.
// Cycle detection lives in the graph package.
func (s *Stack) Validate() error {
	var issues []string
	add := func(format string, args ...interface{}) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	for _, name := range s.ServiceNames() {
		svc := s.Services[name]
		if svc.Command.Empty() {
			add("service %s: no command", name)
		}
		if svc.StopGracePeriod < 0 {
			add("service %s: negative stop_grace_period", name)
		}
		if svc.Healthcheck != nil {
			validateHealthcheck(name, svc.Healthcheck, add)
		}
		for _, dep := range svc.DependsOn.Names() {
			spec := svc.DependsOn[dep]
			if dep == name {
				add("service %s: depends on itself", name)
				continue
			}
			target, ok := s.Services[dep]
			if !ok {
				add("service %s: depends on undeclared service %s", name, dep)
				continue
			}
			switch spec.Condition {
			case ConditionServiceHealthy:
				if target.Healthcheck == nil || target.Healthcheck.Test.Disabled() {
					add("service %s: requires %s healthy, but %s declares no healthcheck", name, dep, dep)
				}
			case ConditionServiceCompletedSuccessfully:
				if !target.OneShot {
					add("service %s: requires %s to complete, but %s is not a oneshot", name, dep, dep)
				}
			}
		}
		for _, m := range svc.Volumes {
			if m.IsBind() {
				continue
			}
			if _, ok := s.Volumes[m.Source]; !ok {
				add("service %s: mounts undeclared volume %s", name, m.Source)
			}
		}
	}

	claimed := map[int]string{}
	for _, name := range s.ServiceNames() {
		for _, p := range s.Services[name].Ports {
			if prev, ok := claimed[p.Host]; ok {
				add("host port %d claimed by both %s and %s", p.Host, prev, name)
				continue
			}
			claimed[p.Host] = name
		}
	}

	// Each volume gets exactly one writer; read-only mounts may be shared.
	writers := map[string]string{}
	for _, name := range s.ServiceNames() {
		for _, m := range s.Services[name].Volumes {
			if m.ReadOnly {
				continue
			}
			key := m.Source
			if m.IsBind() {
				key = filepath.Clean(m.Source)
			}
			if prev, ok := writers[key]; ok {
				add("volume %s writable by both %s and %s; mount one of them read-only", m.Source, prev, name)
				continue
			}
			writers[key] = name
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func validateHealthcheck(name string, hc *Healthcheck, add func(string, ...interface{})) {
	if hc.Test.Disabled() {
		return
	}
	switch hc.Test.Kind {
	case ProbeCmd:
		if len(hc.Test.Args) == 0 {
			add("service %s: CMD probe needs an argv", name)
		}
	case ProbeCmdShell:
		if len(hc.Test.Args) != 1 {
			add("service %s: CMD-SHELL probe takes exactly one command string", name)
		}
	case ProbeHTTP:
		if len(hc.Test.Args) != 1 {
			add("service %s: HTTP probe takes exactly one URL", name)
			break
		}
		u, err := url.Parse(hc.Test.Args[0])
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("service %s: HTTP probe URL %q is not an http(s) URL", name, hc.Test.Args[0])
		}
	case ProbeTCP:
		if len(hc.Test.Args) != 1 {
			add("service %s: TCP probe takes exactly one host:port address", name)
			break
		}
		if _, _, err := net.SplitHostPort(hc.Test.Args[0]); err != nil {
			add("service %s: TCP probe address %q is not host:port", name, hc.Test.Args[0])
		}
	case ProbePostgres:
		if len(hc.Test.Args) != 1 {
			add("service %s: POSTGRES probe takes exactly one connection string", name)
		}
	}
	if hc.Interval <= 0 {
		add("service %s: healthcheck interval must be positive", name)
	}
	if hc.Timeout <= 0 {
		add("service %s: healthcheck timeout must be positive", name)
	}
	if hc.Retries < 1 {
		add("service %s: healthcheck retries must be at least 1", name)
	}
	if hc.StartPeriod < 0 {
		add("service %s: negative healthcheck start_period", name)
	}
}
