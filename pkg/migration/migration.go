// Package migration contains the logic for moving a SQLite database
// into a PostgreSQL or MySQL server.
package migration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/outgrowdb/outgrow/pkg/copier"
	"github.com/outgrowdb/outgrow/pkg/metrics"
	"github.com/outgrowdb/outgrow/pkg/status"
	"github.com/outgrowdb/outgrow/pkg/typeconv"
)

const (
	defaultHost     = "127.0.0.1"
	defaultUsername = "postgres"
	defaultPassword = ""
	defaultDatabase = "postgres"
	defaultSSLMode  = "disable"

	defaultPostgresPort = 5432
	defaultMySQLPort    = 3306
)

type Migration struct {
	Source         string  `name:"source" help:"Path to the SQLite database file to migrate" optional:""`
	TargetHost     string  `name:"target-host" help:"Target server hostname, optionally host:port" optional:"" env:"OUTGROW_TARGET_HOST"`
	TargetUsername string  `name:"target-username" help:"Target server user" optional:"" env:"OUTGROW_TARGET_USERNAME"`
	TargetPassword *string `name:"target-password" help:"Target server password" optional:"" env:"OUTGROW_TARGET_PASSWORD"`
	TargetDatabase string  `name:"target-database" help:"Target database name" optional:"" env:"OUTGROW_TARGET_DATABASE"`
	TargetEngine   string  `name:"target-engine" help:"Target engine" optional:"" default:"postgres" enum:"postgres,mysql"`
	SSLMode        string  `name:"ssl-mode" help:"PostgreSQL sslmode: disable, require, verify-ca or verify-full" optional:""`
	BatchSize      int     `name:"batch-size" help:"Number of rows per INSERT statement" optional:"" default:"100"`
	Tables         string  `name:"tables" help:"Comma-separated list of tables to migrate (default: all)" optional:""`
	Yes            bool    `name:"yes" help:"Skip the confirmation prompt" optional:"" default:"false"`
	PromptPassword bool    `name:"prompt-password" help:"Read the target password from the terminal" optional:"" default:"false"`
	ConfFile       string  `name:"defaults-file" help:"Read connection defaults from an ini file" optional:""`

	// SSH tunnel configuration
	SSHHost       string `name:"ssh-host" help:"Reach the target through an SSH tunnel via this host (host or host:port)" optional:"" env:"OUTGROW_SSH_HOST"`
	SSHUser       string `name:"ssh-user" help:"SSH user for the tunnel" optional:"" env:"OUTGROW_SSH_USER"`
	SSHKeyPath    string `name:"ssh-key" help:"Path to the SSH private key for the tunnel" optional:"" env:"OUTGROW_SSH_KEY"`
	SSHKnownHosts string `name:"ssh-known-hosts" help:"known_hosts file for host key verification (empty disables verification)" optional:""`

	// Hidden options
	LogMetrics bool `name:"log-metrics" help:"Log batch metrics instead of discarding them" optional:"" default:"false" hidden:""`

	// promptInput is where the confirmation prompt reads its answer.
	// Tests replace it; nil means os.Stdin.
	promptInput io.Reader
	tables      []string
}

func (m *Migration) Run() error {
	if m.PromptPassword {
		fmt.Print("Target password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("%w: read password: %w", status.ErrConfiguration, err)
		}
		password := string(pw)
		m.TargetPassword = &password
	}
	migration, err := NewRunner(m)
	if err != nil {
		return err
	}
	defer migration.Close()
	if m.LogMetrics {
		migration.SetMetricsSink(metrics.NewLogSink(slog.Default()))
	}
	if err := migration.Run(context.TODO()); err != nil {
		return err
	}
	return nil
}

// normalizeOptions does some validation and sets defaults. Connection
// parameters resolve in precedence order: command line first, then the
// defaults-file, then built-in defaults.
func (m *Migration) normalizeOptions() error {
	if m.BatchSize == 0 {
		m.BatchSize = copier.DefaultBatchSize
	}
	if m.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1", status.ErrConfiguration)
	}
	if m.TargetEngine == "" {
		m.TargetEngine = string(typeconv.TargetTypePostgreSQL)
	}
	engine := typeconv.TargetType(m.TargetEngine)
	if engine != typeconv.TargetTypePostgreSQL && engine != typeconv.TargetTypeMySQL {
		return fmt.Errorf("%w: unsupported target engine %q", status.ErrConfiguration, m.TargetEngine)
	}

	params, err := newConfParams(m.ConfFile)
	if err != nil {
		return fmt.Errorf("%w: read defaults file: %w", status.ErrConfiguration, err)
	}
	if m.Source == "" {
		m.Source = params.GetSourcePath()
	}
	if m.Source == "" {
		return fmt.Errorf("%w: source database path is required", status.ErrConfiguration)
	}
	if m.TargetHost == "" {
		m.TargetHost = params.GetHost()
	}
	if !strings.Contains(m.TargetHost, ":") {
		port := params.GetPort()
		if port == 0 {
			port = defaultPort(engine)
		}
		m.TargetHost = fmt.Sprintf("%s:%d", m.TargetHost, port)
	}
	if m.TargetUsername == "" {
		m.TargetUsername = params.GetUser()
	}
	if m.TargetPassword == nil {
		password := params.GetPassword()
		m.TargetPassword = &password
	}
	if m.TargetDatabase == "" {
		m.TargetDatabase = params.GetDatabase()
	}
	if m.SSLMode == "" {
		m.SSLMode = params.GetSSLMode()
	}
	if m.SSHHost != "" {
		if m.SSHUser == "" {
			return fmt.Errorf("%w: ssh-user is required when ssh-host is set", status.ErrConfiguration)
		}
		if m.SSHKeyPath == "" {
			return fmt.Errorf("%w: ssh-key is required when ssh-host is set", status.ErrConfiguration)
		}
	}
	m.tables = nil
	if m.Tables != "" {
		for _, name := range strings.Split(m.Tables, ",") {
			if name = strings.TrimSpace(name); name != "" {
				m.tables = append(m.tables, name)
			}
		}
	}
	return nil
}

func defaultPort(engine typeconv.TargetType) int {
	if engine == typeconv.TargetTypeMySQL {
		return defaultMySQLPort
	}
	return defaultPostgresPort
}
