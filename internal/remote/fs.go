package remote

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	pathpkg "path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"github.com/sadopc/dtree/internal/logger"
	"golang.org/x/crypto/ssh"
)

const defaultRemotePath = "."

const defaultTimeout = 15 * time.Second

// Config configures a remote SFTP session.
type Config struct {
	Target    string // user@host
	Port      int
	BatchMode bool
	Timeout   time.Duration
	Log       logger.Logger
}

type sftpClient interface {
	Lstat(string) (os.FileInfo, error)
	ReadDir(string) ([]os.FileInfo, error)
	ReadLink(string) (string, error)
	RealPath(string) (string, error)
}

var dialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}

var sshNewClientConn = func(conn net.Conn, addr string, config *ssh.ClientConfig) (ssh.Conn, <-chan ssh.NewChannel, <-chan *ssh.Request, error) {
	return ssh.NewClientConn(conn, addr, config)
}

// FS is a walker.FileSystem backed by an SFTP session. Paths use POSIX
// semantics regardless of the local platform.
type FS struct {
	client sftpClient
	closer io.Closer
}

// Dial opens an SSH connection and starts the SFTP subsystem.
func Dial(ctx context.Context, cfg Config) (*FS, error) {
	client, closer, err := dialSFTP(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &FS{client: client, closer: closer}, nil
}

// Close ends the SFTP session and the SSH connection.
func (f *FS) Close() error {
	if f == nil || f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

func (f *FS) Lstat(name string) (os.FileInfo, error) {
	return f.client.Lstat(cleanRemotePath(name))
}

// ReadDirNames lists a remote directory. The SFTP server already stats each
// entry, but only names are returned so the walker classifies every child
// the same way on both filesystems.
func (f *FS) ReadDirNames(name string) ([]string, error) {
	infos, err := f.client.ReadDir(cleanRemotePath(name))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

// Enter asks the server to stat name's "." entry, which fails when name is
// not searchable.
func (f *FS) Enter(name string) error {
	_, err := f.client.Lstat(cleanRemotePath(name) + "/.")
	return err
}

func (f *FS) ReadLink(name string) (string, error) {
	return f.client.ReadLink(cleanRemotePath(name))
}

func (f *FS) RealPath(name string) (string, error) {
	resolved, err := f.client.RealPath(cleanRemotePath(name))
	if err != nil {
		return "", err
	}
	return cleanRemotePath(resolved), nil
}

func (f *FS) Join(elem ...string) string {
	return cleanRemotePath(pathpkg.Join(elem...))
}

func cleanRemotePath(p string) string {
	if p == "" {
		return defaultRemotePath
	}
	clean := pathpkg.Clean(strings.ReplaceAll(p, "\\", "/"))
	if clean == "" {
		return defaultRemotePath
	}
	return clean
}

func dialSFTP(ctx context.Context, cfg Config) (sftpClient, io.Closer, error) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, nil, fmt.Errorf("ssh port must be between 1 and 65535")
	}
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	user, host, err := parseSSHTarget(cfg.Target)
	if err != nil {
		return nil, nil, err
	}

	hostCB, err := hostKeyCallback(host, cfg.Port, cfg.BatchMode)
	if err != nil {
		return nil, nil, err
	}

	auth, err := buildAuthMethods(user, host, cfg.BatchMode)
	if err != nil {
		return nil, nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sshConfig := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostCB,
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(strings.Trim(host, "[]"), fmt.Sprintf("%d", cfg.Port))
	log.Debug("connecting", "addr", addr, "user", user, "auth_methods", len(auth))
	sshClient, err := connectSSH(dialCtx, addr, sshConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("SSH connection failed: %w", err)
	}

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, nil, fmt.Errorf("cannot start SFTP subsystem: %w", err)
	}
	log.Info("sftp session started", "addr", addr)

	return client, &sessionCloser{ssh: sshClient, sftp: client}, nil
}

func connectSSH(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	conn, err := dialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	// Cancellation must interrupt the handshake and authentication too.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	c, chans, reqs, err := sshNewClientConn(conn, addr, config)
	close(done)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

type sessionCloser struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

func (c *sessionCloser) Close() error {
	var retErr error
	if c.sftp != nil {
		if err := c.sftp.Close(); err != nil {
			retErr = err
		}
	}
	if c.ssh != nil {
		if err := c.ssh.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}
	return retErr
}
