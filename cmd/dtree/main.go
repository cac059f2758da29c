package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sadopc/dtree/internal/config"
	"github.com/sadopc/dtree/internal/logger"
	"github.com/sadopc/dtree/internal/pager"
	"github.com/sadopc/dtree/internal/remote"
	"github.com/sadopc/dtree/internal/render"
	"github.com/sadopc/dtree/internal/walker"
	"golang.org/x/term"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes dtree and returns the process exit code: 0 when every entry
// was rendered, 1 on usage errors, an unreadable root or any per-entry error.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Parse("dtree", args, stdout, stderr)
	switch {
	case errors.Is(err, config.ErrHelp), errors.Is(err, config.ErrVersion):
		return 0
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	log, closeLog, err := logger.New(cfg.LoggerConfig(stderr))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog.Close()

	target, err := remote.ResolveTarget(cfg.Paths, pathExists)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var fsys walker.FileSystem = walker.NewLocalFS()
	if target.Remote {
		rfs, err := remote.Dial(ctx, remote.Config{
			Target:    target.SSHDestination,
			Port:      cfg.SSHPort,
			BatchMode: cfg.SSHBatch,
			Timeout:   cfg.SSHTimeoutDuration(),
			Log:       log.With("component", "remote"),
		})
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer rfs.Close()
		fsys = rfs
	}

	out := stdout
	var paged bytes.Buffer
	if cfg.Pager {
		out = &paged
	}
	r := newRenderer(cfg, out, isTerminal(stdout))

	w := walker.New(fsys, cfg.WalkOptions(), log.With("component", "walker"))
	res, err := w.Walk(ctx, target.Root(), r)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if cfg.Pager {
		status := ""
		if res.ErrorOccurred {
			status = fmt.Sprintf("%d error(s)", res.Errors)
		}
		if err := pager.Run(target.Root(), paged.String(), status, stdin, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if res.ErrorOccurred {
		return 1
	}
	return 0
}

func newRenderer(cfg *config.Config, out io.Writer, stdoutIsTerminal bool) walker.Renderer {
	if cfg.JSON {
		return render.NewJSON(out, render.JSONOptions{Details: cfg.Long})
	}
	return render.NewText(out, render.TextOptions{
		Details: cfg.Long,
		Report:  cfg.Report,
		Style:   render.NewStyle(out, cfg.UseColor(stdoutIsTerminal)),
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
