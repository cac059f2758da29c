package remote

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"
)

var defaultPrivateKeyFiles = []string{
	"id_ed25519",
	"id_ecdsa",
	"id_rsa",
}

func parseSSHTarget(target string) (string, string, error) {
	if strings.TrimSpace(target) == "" {
		return "", "", fmt.Errorf("remote target is required")
	}

	user, host, ok := strings.Cut(target, "@")
	if !ok || user == "" || host == "" {
		return "", "", fmt.Errorf("invalid remote target %q: expected user@host", target)
	}

	return user, host, nil
}

// terminal asks the user questions on the controlling terminal. Prompts go
// to stderr so they never mix with the tree on stdout.
type terminal struct {
	in  *os.File
	out io.Writer

	mu      sync.Mutex
	pass    string
	hasPass bool
}

func newTerminal() *terminal {
	return &terminal{in: os.Stdin, out: os.Stderr}
}

func (t *terminal) interactive() bool {
	return term.IsTerminal(int(t.in.Fd()))
}

func (t *terminal) confirm(question string) (bool, error) {
	if !t.interactive() {
		return false, fmt.Errorf("cannot ask %q: stdin is not a terminal", firstLine(question))
	}
	fmt.Fprint(t.out, question)
	answer, err := bufio.NewReader(t.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return isYes(answer), nil
}

// password prompts once and caches the answer for later auth rounds.
func (t *terminal) password(user, host string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hasPass {
		return t.pass, nil
	}
	if !t.interactive() {
		return "", fmt.Errorf("cannot prompt for SSH password: stdin is not a terminal")
	}

	fmt.Fprintf(t.out, "%s@%s's password: ", user, host)
	raw, err := term.ReadPassword(int(t.in.Fd()))
	fmt.Fprintln(t.out)
	if err != nil {
		return "", fmt.Errorf("password prompt failed: %w", err)
	}
	t.pass, t.hasPass = string(raw), true
	return t.pass, nil
}

func isYes(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "y" || a == "yes"
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// knownHosts verifies server keys against ~/.ssh/known_hosts, trusting new
// hosts on first use unless running in batch mode.
type knownHosts struct {
	path  string
	host  string
	port  int
	batch bool
	ask   func(string) (bool, error)
}

func hostKeyCallback(host string, port int, batchMode bool) (ssh.HostKeyCallback, error) {
	path, err := ensureKnownHostsFile()
	if err != nil {
		return nil, err
	}
	kh := &knownHosts{path: path, host: host, port: port, batch: batchMode, ask: newTerminal().confirm}
	return kh.check, nil
}

func (k *knownHosts) check(hostname string, remote net.Addr, key ssh.PublicKey) error {
	verify, err := knownhosts.New(k.path)
	if err != nil {
		return fmt.Errorf("cannot load known_hosts: %w", err)
	}
	err = verify(hostname, remote, key)
	if err == nil {
		return nil
	}

	var keyErr *knownhosts.KeyError
	if !errors.As(err, &keyErr) {
		return fmt.Errorf("host key verification failed: %w", err)
	}

	address := knownHostAddress(k.host, k.port)
	presented := ssh.FingerprintSHA256(key)

	if len(keyErr.Want) == 0 {
		if k.batch {
			return fmt.Errorf("unknown host key for %s (%s); connect once with ssh to trust it, or drop --ssh-batch", address, presented)
		}
		ok, err := k.ask(fmt.Sprintf(
			"The authenticity of host '%s' can't be established.\n%s key fingerprint is %s.\nTrust this host and continue connecting (yes/no)? ",
			address, key.Type(), presented,
		))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("host key for %s was not trusted", address)
		}
		return appendKnownHost(k.path, k.host, k.port, key)
	}

	expected := make([]string, 0, len(keyErr.Want))
	for _, want := range keyErr.Want {
		expected = append(expected, ssh.FingerprintSHA256(want.Key))
	}
	mismatch := fmt.Sprintf("host key mismatch for %s: expected %s, presented %s",
		address, strings.Join(expected, ", "), presented)
	if k.batch {
		return errors.New(mismatch)
	}

	ok, err := k.ask("WARNING: " + mismatch + "\nReplace stored key and continue (yes/no)? ")
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(mismatch)
	}
	return replaceKnownHost(k.path, k.host, k.port, key)
}

func ensureKnownHostsFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for known_hosts: %w", err)
	}

	sshDir := filepath.Join(home, ".ssh")
	if err := os.MkdirAll(sshDir, 0o700); err != nil {
		return "", fmt.Errorf("cannot create ~/.ssh directory: %w", err)
	}

	path := filepath.Join(sshDir, "known_hosts")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			return "", fmt.Errorf("cannot create known_hosts: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("cannot access known_hosts: %w", err)
	}

	return path, nil
}

func knownHostAddress(host string, port int) string {
	if port == 22 {
		return host
	}
	return fmt.Sprintf("[%s]:%d", strings.Trim(host, "[]"), port)
}

func appendKnownHost(path, host string, port int, key ssh.PublicKey) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("cannot update known_hosts: %w", err)
	}
	defer f.Close()

	line := knownhosts.Line([]string{knownHostAddress(host, port)}, key)
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("cannot write known_hosts entry: %w", err)
	}
	return nil
}

func replaceKnownHost(path, host string, port int, key ssh.PublicKey) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read known_hosts: %w", err)
	}

	kept := removeKnownHostEntries(data, host, port)
	if len(kept) > 0 && kept[len(kept)-1] != '\n' {
		kept = append(kept, '\n')
	}
	kept = append(kept, knownhosts.Line([]string{knownHostAddress(host, port)}, key)...)
	kept = append(kept, '\n')

	if err := os.WriteFile(path, kept, 0o600); err != nil {
		return fmt.Errorf("cannot write known_hosts: %w", err)
	}
	return nil
}

// removeKnownHostEntries drops every line whose host field names host:port.
// Comments, blank lines and other hosts are kept verbatim.
func removeKnownHostEntries(data []byte, host string, port int) []byte {
	bare := strings.Trim(host, "[]")
	match := map[string]bool{
		fmt.Sprintf("[%s]:%d", bare, port): true,
	}
	if port == 22 {
		match[host] = true
		match[bare] = true
	}

	lines := strings.Split(string(data), "\n")
	kept := lines[:0]
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0][0] == '@' {
			fields = fields[1:]
		}
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			kept = append(kept, line)
			continue
		}

		drop := false
		for _, h := range strings.Split(fields[0], ",") {
			if match[h] {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, line)
		}
	}
	return []byte(strings.Join(kept, "\n"))
}

func buildAuthMethods(user, host string, batchMode bool) ([]ssh.AuthMethod, error) {
	methods := make([]ssh.AuthMethod, 0, 4)

	if m := agentAuthMethod(); m != nil {
		methods = append(methods, m)
	}
	if signers := loadDefaultKeySigners(); len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}

	if !batchMode {
		t := newTerminal()
		password := func() (string, error) { return t.password(user, host) }
		methods = append(methods,
			ssh.PasswordCallback(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, echos []bool) ([]string, error) {
				pass, err := password()
				if err != nil {
					return nil, err
				}
				answers := make([]string, len(questions))
				for i := range questions {
					if i < len(echos) && echos[i] {
						continue
					}
					answers[i] = pass
				}
				return answers, nil
			}),
		)
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("no SSH auth methods available (configure ssh-agent or private keys, or drop --ssh-batch)")
	}
	return methods, nil
}

func agentAuthMethod() ssh.AuthMethod {
	sock := strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK"))
	if sock == "" {
		return nil
	}

	return ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		return agent.NewClient(conn).Signers()
	})
}

// loadDefaultKeySigners loads unencrypted keys from ~/.ssh. Keys that need a
// passphrase are skipped; ssh-agent covers those.
func loadDefaultKeySigners() []ssh.Signer {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	var signers []ssh.Signer
	for _, name := range defaultPrivateKeyFiles {
		pem, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			continue
		}
		signers = append(signers, signer)
	}
	return signers
}
