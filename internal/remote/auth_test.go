package remote

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestParseSSHTarget(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		user    string
		host    string
		wantErr bool
	}{
		{name: "valid", target: "alice@example.com", user: "alice", host: "example.com"},
		{name: "empty", target: "", wantErr: true},
		{name: "no at", target: "example.com", wantErr: true},
		{name: "missing user", target: "@example.com", wantErr: true},
		{name: "missing host", target: "alice@", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user, host, err := parseSSHTarget(tc.target)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user != tc.user || host != tc.host {
				t.Fatalf("unexpected result: got %q@%q want %q@%q", user, host, tc.user, tc.host)
			}
		})
	}
}

func TestCleanRemotePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "."},
		{in: ".", want: "."},
		{in: "/tmp/../var", want: "/var"},
		{in: "/srv/data/", want: "/srv/data"},
		{in: `C:\temp\x`, want: "C:/temp/x"},
	}

	for _, tc := range tests {
		if got := cleanRemotePath(tc.in); got != tc.want {
			t.Fatalf("cleanRemotePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestKnownHostAddress(t *testing.T) {
	if got := knownHostAddress("example.com", 22); got != "example.com" {
		t.Fatalf("unexpected address for port 22: %q", got)
	}
	if got := knownHostAddress("example.com", 2222); got != "[example.com]:2222" {
		t.Fatalf("unexpected address for custom port: %q", got)
	}
}

func TestRemoveKnownHostEntries(t *testing.T) {
	input := strings.Join([]string{
		"example.com ssh-ed25519 AAAA",
		"[example.com]:22 ssh-ed25519 BBBB",
		"[example.com]:2222 ssh-ed25519 CCCC",
		"other.com ssh-ed25519 DDDD",
		"",
	}, "\n")

	out22 := string(removeKnownHostEntries([]byte(input), "example.com", 22))
	if strings.Contains(out22, "example.com ssh-ed25519 AAAA") {
		t.Fatal("expected plain host entry removed for port 22")
	}
	if strings.Contains(out22, "[example.com]:22 ssh-ed25519 BBBB") {
		t.Fatal("expected bracketed :22 entry removed")
	}
	if !strings.Contains(out22, "[example.com]:2222 ssh-ed25519 CCCC") {
		t.Fatal("expected non-target port entry to remain")
	}

	out2222 := string(removeKnownHostEntries([]byte(input), "example.com", 2222))
	if strings.Contains(out2222, "[example.com]:2222 ssh-ed25519 CCCC") {
		t.Fatal("expected custom port entry removed")
	}
	if !strings.Contains(out2222, "example.com ssh-ed25519 AAAA") {
		t.Fatal("expected default host entry to remain when replacing custom port")
	}
	if !strings.Contains(out2222, "[example.com]:22 ssh-ed25519 BBBB") {
		t.Fatal("expected :22 entry to remain when replacing custom port")
	}
	if !strings.Contains(out2222, "other.com ssh-ed25519 DDDD") {
		t.Fatal("expected unrelated host entry to remain")
	}
}

func TestIsYes(t *testing.T) {
	for _, answer := range []string{"y\n", "YES", " yes "} {
		if !isYes(answer) {
			t.Fatalf("isYes(%q) = false", answer)
		}
	}
	for _, answer := range []string{"", "no", "yeah", "n\n"} {
		if isYes(answer) {
			t.Fatalf("isYes(%q) = true", answer)
		}
	}
}

func newTestKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("public key: %v", err)
	}
	return key
}

func newKnownHostsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "known_hosts")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write known_hosts: %v", err)
	}
	return path
}

var testAddr = &net.TCPAddr{IP: net.ParseIP("192.0.2.10"), Port: 22}

func TestKnownHosts_BatchRejectsUnknownHost(t *testing.T) {
	path := newKnownHostsFile(t, "")
	kh := &knownHosts{path: path, host: "example.com", port: 22, batch: true, ask: func(string) (bool, error) {
		t.Fatal("batch mode must not prompt")
		return false, nil
	}}

	err := kh.check("example.com:22", testAddr, newTestKey(t))
	if err == nil || !strings.Contains(err.Error(), "unknown host key") {
		t.Fatalf("expected unknown host error, got %v", err)
	}
}

func TestKnownHosts_TrustOnFirstUse(t *testing.T) {
	path := newKnownHostsFile(t, "# managed by hand\n")
	if err := appendKnownHost(path, "other.com", 22, newTestKey(t)); err != nil {
		t.Fatalf("seed known_hosts: %v", err)
	}
	key := newTestKey(t)
	asked := 0
	kh := &knownHosts{path: path, host: "example.com", port: 2222, ask: func(q string) (bool, error) {
		asked++
		if !strings.Contains(q, "[example.com]:2222") {
			t.Fatalf("prompt does not name the host: %q", q)
		}
		return true, nil
	}}

	if err := kh.check("[example.com]:2222", testAddr, key); err != nil {
		t.Fatalf("first connection: %v", err)
	}
	if err := kh.check("[example.com]:2222", testAddr, key); err != nil {
		t.Fatalf("second connection: %v", err)
	}
	if asked != 1 {
		t.Fatalf("expected one prompt, got %d", asked)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read known_hosts: %v", err)
	}
	if !strings.HasPrefix(string(data), "# managed by hand\nother.com ssh-ed25519 ") {
		t.Fatal("existing entries must be kept")
	}
}

func TestKnownHosts_DeclinedHostIsRejected(t *testing.T) {
	path := newKnownHostsFile(t, "")
	kh := &knownHosts{path: path, host: "example.com", port: 22, ask: func(string) (bool, error) { return false, nil }}

	if err := kh.check("example.com:22", testAddr, newTestKey(t)); err == nil {
		t.Fatal("expected rejection")
	}
	data, _ := os.ReadFile(path)
	if len(data) != 0 {
		t.Fatalf("declined key must not be stored, got %q", data)
	}
}

func TestKnownHosts_MismatchReplacesOnlyWhenConfirmed(t *testing.T) {
	path := newKnownHostsFile(t, "")
	oldKey, newKey := newTestKey(t), newTestKey(t)
	if err := appendKnownHost(path, "example.com", 22, oldKey); err != nil {
		t.Fatalf("seed known_hosts: %v", err)
	}

	batch := &knownHosts{path: path, host: "example.com", port: 22, batch: true}
	if err := batch.check("example.com:22", testAddr, newKey); err == nil || !strings.Contains(err.Error(), "host key mismatch") {
		t.Fatalf("expected mismatch error, got %v", err)
	}

	promptErr := errors.New("no terminal")
	failing := &knownHosts{path: path, host: "example.com", port: 22, ask: func(string) (bool, error) { return false, promptErr }}
	if err := failing.check("example.com:22", testAddr, newKey); !errors.Is(err, promptErr) {
		t.Fatalf("expected prompt error, got %v", err)
	}

	confirm := &knownHosts{path: path, host: "example.com", port: 22, ask: func(string) (bool, error) { return true, nil }}
	if err := confirm.check("example.com:22", testAddr, newKey); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := batch.check("example.com:22", testAddr, newKey); err != nil {
		t.Fatalf("replaced key should verify: %v", err)
	}
	if err := batch.check("example.com:22", testAddr, oldKey); err == nil {
		t.Fatal("old key should no longer verify")
	}
}
