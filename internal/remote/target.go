package remote

import (
	"fmt"
	"strings"
)

// Target is the resolved tree root: a local path or a remote user@host path.
type Target struct {
	Remote         bool
	LocalPath      string
	SSHDestination string
	RemotePath     string
}

// Root returns the path handed to the walker.
func (t Target) Root() string {
	if t.Remote {
		return t.RemotePath
	}
	return t.LocalPath
}

// ResolveTarget interprets the positional arguments. An argument naming an
// existing local path always wins over the user@host form.
func ResolveTarget(args []string, exists func(string) bool) (Target, error) {
	if len(args) == 0 {
		return Target{LocalPath: "."}, nil
	}

	first := args[0]
	if exists(first) {
		if len(args) > 1 {
			return Target{}, fmt.Errorf("too many positional arguments for a local tree")
		}
		return Target{LocalPath: first}, nil
	}

	if isRemote, err := validateRemoteTarget(first); isRemote {
		if err != nil {
			return Target{}, err
		}
		if len(args) > 2 {
			return Target{}, fmt.Errorf("too many positional arguments for a remote tree")
		}

		remotePath := defaultRemotePath
		if len(args) == 2 && strings.TrimSpace(args[1]) != "" {
			remotePath = args[1]
		}
		return Target{Remote: true, SSHDestination: first, RemotePath: remotePath}, nil
	}

	if len(args) > 1 {
		return Target{}, fmt.Errorf("too many positional arguments")
	}
	return Target{LocalPath: first}, nil
}

// validateRemoteTarget reports whether raw looks like user@host and, if so,
// whether it is well formed.
func validateRemoteTarget(raw string) (bool, error) {
	if strings.ContainsAny(raw, `/\`) || strings.Count(raw, "@") != 1 {
		return false, nil
	}

	user, host, _ := strings.Cut(raw, "@")
	switch {
	case user == "" || host == "":
		return true, fmt.Errorf("invalid remote target %q: expected user@host", raw)
	case strings.HasPrefix(user, "-") || strings.HasPrefix(host, "-"):
		return true, fmt.Errorf("invalid remote target %q", raw)
	case strings.ContainsAny(raw, " \t\n\r"):
		return true, fmt.Errorf("invalid remote target %q: spaces are not allowed", raw)
	}

	if strings.HasPrefix(host, "[") {
		end := strings.Index(host, "]")
		switch {
		case end == -1:
			return true, fmt.Errorf("invalid remote target %q: malformed bracketed host", raw)
		case end == 1:
			return true, fmt.Errorf("invalid remote target %q: empty host", raw)
		case end != len(host)-1:
			rest := host[end+1:]
			if strings.HasPrefix(rest, ":") && isAllDigits(rest[1:]) {
				return true, fmt.Errorf("remote target %q must not include :port; use --ssh-port", raw)
			}
			return true, fmt.Errorf("invalid remote target %q: malformed bracketed host", raw)
		}
		return true, nil
	}
	if strings.Contains(host, "]") {
		return true, fmt.Errorf("invalid remote target %q: malformed bracketed host", raw)
	}
	if _, port, ok := strings.Cut(host, ":"); ok && strings.Count(host, ":") == 1 && isAllDigits(port) {
		return true, fmt.Errorf("remote target %q must not include :port; use --ssh-port", raw)
	}
	return true, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
