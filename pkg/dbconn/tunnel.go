package dbconn

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/outgrowdb/outgrow/pkg/utils"
)

// TunnelConfig describes an SSH tunnel used to reach the target server.
type TunnelConfig struct {
	Host       string // ssh server as host or host:port, port defaults to 22
	User       string
	KeyPath    string // path to the private key file
	KnownHosts string // path to a known_hosts file; empty skips host key verification
}

// Tunnel forwards connections from a local ephemeral port to a remote
// address through an SSH server.
type Tunnel struct {
	LocalAddr string // host:port the target connection should dial instead
	listener  net.Listener
	client    *ssh.Client
	logger    *slog.Logger
}

// NewTunnel dials the SSH server and starts forwarding connections
// from a local listener to remoteAddr.
func NewTunnel(config *TunnelConfig, remoteAddr string, logger *slog.Logger) (*Tunnel, error) {
	key, err := os.ReadFile(config.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read ssh private key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse ssh private key: %w", err)
	}
	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec // opted into when no known_hosts file is configured
	if config.KnownHosts != "" {
		hostKeyCallback, err = knownhosts.New(config.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("load known_hosts: %w", err)
		}
	}

	sshAddr := config.Host
	if _, _, err := net.SplitHostPort(sshAddr); err != nil {
		sshAddr = net.JoinHostPort(sshAddr, "22")
	}
	client, err := ssh.Dial("tcp", sshAddr, &ssh.ClientConfig{
		User:            config.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to ssh server %s: %w", sshAddr, err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		utils.CloseAndLog(client)
		return nil, fmt.Errorf("listen for tunnel connections: %w", err)
	}
	t := &Tunnel{
		LocalAddr: listener.Addr().String(),
		listener:  listener,
		client:    client,
		logger:    logger,
	}
	go t.serve(remoteAddr)
	return t, nil
}

func (t *Tunnel) serve(remoteAddr string) {
	for {
		localConn, err := t.listener.Accept()
		if err != nil {
			return // listener closed
		}
		remoteConn, err := t.client.Dial("tcp", remoteAddr)
		if err != nil {
			t.logger.Error("tunnel could not reach remote", "remote", remoteAddr, "error", err)
			utils.CloseAndLog(localConn)
			continue
		}
		go proxyConn(localConn, remoteConn)
		go proxyConn(remoteConn, localConn)
	}
}

func proxyConn(dst, src net.Conn) {
	defer dst.Close()
	defer src.Close()
	_, _ = io.Copy(dst, src)
}

// Close stops accepting tunnel connections and closes the SSH session.
func (t *Tunnel) Close() error {
	if err := t.listener.Close(); err != nil {
		return err
	}
	return t.client.Close()
}
