package remote

import (
	"strings"
	"testing"
)

func existsOnly(paths ...string) func(string) bool {
	return func(p string) bool {
		for _, candidate := range paths {
			if candidate == p {
				return true
			}
		}
		return false
	}
}

func TestResolveTarget_DefaultLocal(t *testing.T) {
	target, err := ResolveTarget(nil, existsOnly())
	if err != nil {
		t.Fatalf("ResolveTarget returned error: %v", err)
	}
	if target.Remote {
		t.Fatal("expected local target")
	}
	if target.Root() != "." {
		t.Fatalf("unexpected root: %q", target.Root())
	}
}

func TestResolveTarget_ExistingLocalPathWins(t *testing.T) {
	target, err := ResolveTarget([]string{"alice@server"}, existsOnly("alice@server"))
	if err != nil {
		t.Fatalf("ResolveTarget returned error: %v", err)
	}
	if target.Remote {
		t.Fatal("expected local target")
	}
	if target.LocalPath != "alice@server" {
		t.Fatalf("unexpected local path: %q", target.LocalPath)
	}

	if _, err := ResolveTarget([]string{"alice@server", "/tmp"}, existsOnly("alice@server")); err == nil {
		t.Fatal("expected error for extra args in local mode")
	}
}

func TestResolveTarget_MissingLocalPathStaysLocal(t *testing.T) {
	target, err := ResolveTarget([]string{"does/not/exist"}, existsOnly())
	if err != nil {
		t.Fatalf("ResolveTarget returned error: %v", err)
	}
	if target.Remote || target.Root() != "does/not/exist" {
		t.Fatalf("unexpected target: %+v", target)
	}
}

func TestResolveTarget_RemoteDefaultPath(t *testing.T) {
	target, err := ResolveTarget([]string{"alice@10.0.0.5"}, existsOnly())
	if err != nil {
		t.Fatalf("ResolveTarget returned error: %v", err)
	}
	if !target.Remote {
		t.Fatal("expected remote target")
	}
	if target.SSHDestination != "alice@10.0.0.5" {
		t.Fatalf("unexpected ssh target: %q", target.SSHDestination)
	}
	if target.Root() != "." {
		t.Fatalf("unexpected remote path: %q", target.Root())
	}
}

func TestResolveTarget_RemoteCustomPath(t *testing.T) {
	target, err := ResolveTarget([]string{"alice@10.0.0.5", "/var/log"}, existsOnly())
	if err != nil {
		t.Fatalf("ResolveTarget returned error: %v", err)
	}
	if !target.Remote || target.RemotePath != "/var/log" {
		t.Fatalf("unexpected target: %+v", target)
	}

	if _, err := ResolveTarget([]string{"alice@10.0.0.5", "/a", "/b"}, existsOnly()); err == nil {
		t.Fatal("expected error for extra remote args")
	}
}

func TestResolveTarget_RejectsMalformedRemotes(t *testing.T) {
	tests := []struct {
		arg      string
		wantHint string
	}{
		{arg: "alice@example.com:2222", wantHint: "--ssh-port"},
		{arg: "alice@[::1]:2222", wantHint: "--ssh-port"},
		{arg: "@example.com", wantHint: "user@host"},
		{arg: "alice@", wantHint: "user@host"},
		{arg: "alice@[::1", wantHint: "bracketed"},
		{arg: "alice@[]", wantHint: "empty host"},
		{arg: "-o@host", wantHint: "invalid remote target"},
	}

	for _, tc := range tests {
		_, err := ResolveTarget([]string{tc.arg}, existsOnly())
		if err == nil {
			t.Fatalf("%q: expected error", tc.arg)
		}
		if !strings.Contains(err.Error(), tc.wantHint) {
			t.Fatalf("%q: expected %q in error, got: %v", tc.arg, tc.wantHint, err)
		}
	}
}

func TestResolveTarget_BracketedIPv6Remote(t *testing.T) {
	target, err := ResolveTarget([]string{"alice@[::1]"}, existsOnly())
	if err != nil {
		t.Fatalf("ResolveTarget returned error: %v", err)
	}
	if !target.Remote || target.SSHDestination != "alice@[::1]" {
		t.Fatalf("unexpected target: %+v", target)
	}
}

func TestResolveTarget_PathsWithSlashesAreLocal(t *testing.T) {
	target, err := ResolveTarget([]string{"./alice@host"}, existsOnly())
	if err != nil {
		t.Fatalf("ResolveTarget returned error: %v", err)
	}
	if target.Remote {
		t.Fatal("expected local target for a path containing a slash")
	}
}
