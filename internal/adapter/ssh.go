package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"netaudit/internal/domain"
)

// SSHRunner runs commands on devices over SSH
type SSHRunner struct {
	connectTimeout time.Duration
	commandTimeout time.Duration
	knownHosts     string
}

// NewSSHRunner creates an SSH command runner. An empty knownHostsFile
// disables host key checking.
func NewSSHRunner(connectTimeout, commandTimeout time.Duration, knownHostsFile string) *SSHRunner {
	return &SSHRunner{
		connectTimeout: connectTimeout,
		commandTimeout: commandTimeout,
		knownHosts:     knownHostsFile,
	}
}

// Run connects to device, executes command and returns its output
func (s *SSHRunner) Run(ctx context.Context, device domain.InventoryDevice, command string) (string, error) {
	client, err := s.connect(ctx, device)
	if err != nil {
		return "", err
	}
	defer client.Close()

	return s.runCommand(ctx, client, command)
}

// connect establishes an SSH connection to the device
func (s *SSHRunner) connect(ctx context.Context, device domain.InventoryDevice) (*ssh.Client, error) {
	config, err := s.buildSSHConfig(device)
	if err != nil {
		return nil, fmt.Errorf("failed to build SSH config: %w", err)
	}

	port := device.Port
	if port == 0 {
		port = domain.DefaultSSHPort
	}
	addr := net.JoinHostPort(device.Address, strconv.Itoa(port))

	dialer := &net.Dialer{
		Timeout: s.connectTimeout,
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	// NewClientConn ignores both config.Timeout and ctx, so the handshake is
	// bounded by a socket deadline and aborted by closing conn on cancel.
	if s.connectTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(s.connectTimeout)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set handshake deadline: %w", err)
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if !stop() {
		if err == nil {
			sshConn.Close()
		}
		return nil, fmt.Errorf("failed to establish SSH connection: %w", ctx.Err())
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish SSH connection: %w", err)
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		sshConn.Close()
		return nil, fmt.Errorf("failed to clear handshake deadline: %w", err)
	}

	return ssh.NewClient(sshConn, chans, reqs), nil
}

// buildSSHConfig prefers key auth when the device has a key file and falls
// back to its password
func (s *SSHRunner) buildSSHConfig(device domain.InventoryDevice) (*ssh.ClientConfig, error) {
	if device.Username == "" {
		return nil, errors.New("no username for device")
	}

	var auth []ssh.AuthMethod
	if device.KeyFile != "" {
		signer, err := loadSigner(device.KeyFile, device.Password)
		if err != nil {
			return nil, err
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if device.Password != "" {
		auth = append(auth, ssh.Password(device.Password))
	}
	if len(auth) == 0 {
		return nil, errors.New("no password or key file for device")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if s.knownHosts != "" {
		cb, err := knownhosts.New(s.knownHosts)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	return &ssh.ClientConfig{
		User:            device.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         s.connectTimeout,
	}, nil
}

// loadSigner parses a private key file, using passphrase for encrypted keys
func loadSigner(path, passphrase string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) && passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return signer, nil
}

// runCommand executes a command over SSH and returns the output
func (s *SSHRunner) runCommand(ctx context.Context, client *ssh.Client, cmd string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	type result struct {
		output []byte
		err    error
	}
	done := make(chan result, 1)
	go func() {
		out, err := session.CombinedOutput(cmd)
		done <- result{out, err}
	}()

	timer := time.NewTimer(s.commandTimeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			// Non-zero exit still carries the configuration on some platforms
			var exitErr *ssh.ExitError
			if errors.As(r.err, &exitErr) && len(r.output) > 0 {
				return string(r.output), nil
			}
			return "", fmt.Errorf("command failed: %w", r.err)
		}
		return string(r.output), nil
	case <-timer.C:
		session.Signal(ssh.SIGKILL)
		return "", errors.New("command timeout")
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		return "", ctx.Err()
	}
}
