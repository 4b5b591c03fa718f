package probe

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os/exec"

	_ "github.com/lib/pq"

	"github.com/gantry-sh/gantry/pkg/stack"
)

// Prober executes a single readiness check. A nil return means the check
// passed. The context carries the per-attempt timeout.
type Prober interface {
	Check(ctx context.Context) error
}

// New builds the Prober for a healthcheck test declaration.
func New(test stack.ProbeTest) (Prober, error) {
	switch test.Kind {
	case stack.ProbeCmd:
		return &CommandProber{Argv: test.Args}, nil
	case stack.ProbeCmdShell:
		return &CommandProber{Argv: []string{"/bin/sh", "-c", test.Args[0]}}, nil
	case stack.ProbeHTTP:
		return &HTTPProber{URL: test.Args[0]}, nil
	case stack.ProbeTCP:
		return &TCPProber{Address: test.Args[0]}, nil
	case stack.ProbePostgres:
		return &PostgresProber{DSN: test.Args[0]}, nil
	default:
		return nil, fmt.Errorf("no prober for healthcheck kind %q", test.Kind)
	}
}

// CommandProber runs an argv and passes when it exits zero.
type CommandProber struct {
	Argv []string
	Dir  string
}

func (p *CommandProber) Check(ctx context.Context) error {
	if len(p.Argv) == 0 {
		return fmt.Errorf("command probe has no argv")
	}
	cmd := exec.CommandContext(ctx, p.Argv[0], p.Argv[1:]...)
	cmd.Dir = p.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		if len(out) > 0 {
			return fmt.Errorf("%s: %w: %s", p.Argv[0], err, firstLine(out))
		}
		return fmt.Errorf("%s: %w", p.Argv[0], err)
	}
	return nil
}

// HTTPProber issues a GET and passes on any status below 300.
type HTTPProber struct {
	URL    string
	Client *http.Client
}

func (p *HTTPProber) Check(ctx context.Context) error {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s: status %d", p.URL, resp.StatusCode)
	}
	return nil
}

// TCPProber passes when the address accepts a connection.
type TCPProber struct {
	Address string
}

func (p *TCPProber) Check(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return err
	}
	return conn.Close()
}

// PostgresProber passes when the database answers a driver-level ping. It
// opens a fresh connection per attempt so a recovering server is observed
// without pool staleness.
type PostgresProber struct {
	DSN string

	// DB overrides the connection for tests.
	DB *sql.DB
}

func (p *PostgresProber) Check(ctx context.Context) error {
	db := p.DB
	if db == nil {
		var err error
		db, err = sql.Open("postgres", p.DSN)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
	}
	return db.PingContext(ctx)
}

func firstLine(out []byte) []byte {
	for i, b := range out {
		if b == '\n' {
			return out[:i]
		}
	}
	return out
}
