package dbconn

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTestKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestNewTunnelMissingKey(t *testing.T) {
	_, err := NewTunnel(&TunnelConfig{
		Host:    "bastion.example.com",
		User:    "deploy",
		KeyPath: "/nonexistent/id_rsa",
	}, "db.internal:5432", discardLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "read ssh private key")
}

func TestNewTunnelGarbageKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id_rsa")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))
	_, err := NewTunnel(&TunnelConfig{
		Host:    "bastion.example.com",
		User:    "deploy",
		KeyPath: path,
	}, "db.internal:5432", discardLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "parse ssh private key")
}

func TestNewTunnelBadKnownHosts(t *testing.T) {
	_, err := NewTunnel(&TunnelConfig{
		Host:       "bastion.example.com",
		User:       "deploy",
		KeyPath:    writeTestKey(t),
		KnownHosts: "/nonexistent/known_hosts",
	}, "db.internal:5432", discardLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "load known_hosts")
}

func TestNewTunnelUnreachableServer(t *testing.T) {
	// Port 1 is refused on loopback; a valid key must get as far as the
	// dial before failing.
	_, err := NewTunnel(&TunnelConfig{
		Host:    "127.0.0.1:1",
		User:    "deploy",
		KeyPath: writeTestKey(t),
	}, "db.internal:5432", discardLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "connect to ssh server")
}
