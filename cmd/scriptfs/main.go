package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/scriptfs/scriptfs/internal/fusebind"
	"github.com/scriptfs/scriptfs/internal/logsink"
	"github.com/scriptfs/scriptfs/internal/scriptfs"
	"github.com/scriptfs/scriptfs/internal/version"
	"github.com/scriptfs/scriptfs/pkg/config"
)

// daemonizedEnv marks a re-exec'd child so it doesn't daemonize again.
const daemonizedEnv = "SCRIPTFS_DAEMONIZED"

func main() {
	cfg, err := config.FromArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.ShowVersion {
		fmt.Println("scriptfs version:", version.Get())
		return
	}

	if !cfg.Foreground && os.Getenv(daemonizedEnv) == "" {
		daemonize()
		return
	}

	if err := logsink.Configure("", cfg.Debug); err != nil {
		log.Fatalf("log configure: %v", err)
	}
	log.Printf("scriptfs version: %s", version.Get())

	procedures, err := parseProcedures(cfg.Procedures)
	if err != nil {
		log.Fatalf("procedure: %v", err)
	}

	persistent, err := scriptfs.NewPersistent(cfg.Mirror, procedures, cfg.EagerSize)
	if err != nil {
		log.Fatalf("mirror %s: %v", cfg.Mirror, err)
	}
	defer persistent.Close()

	core := scriptfs.New(persistent)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := logsink.Reopen(); err != nil {
					log.Printf("log reopen failed: %v", err)
				} else {
					log.Printf("log reopened on SIGHUP")
				}
			}
		}
	}()

	log.Printf("mounting %s at %s", cfg.Mirror, cfg.Mountpoint)
	if err := fusebind.Mount(ctx, core, cfg.Mountpoint, fusebind.Options{
		Debug:       cfg.Debug,
		FuseOptions: cfg.FuseOptions,
	}); err != nil {
		log.Fatalf("fuse: %v", err)
	}
}

// daemonize re-execs the current process detached from the controlling
// terminal, the way a FUSE frontend backgrounds itself without -f
// (spec.md §6 treats this as out-of-scope plumbing, but calls out that
// some default behavior is still needed). Go cannot fork(2) safely once
// the runtime has started other threads, so this re-execs the same
// binary with the same argv in a new session instead of forking in place.
func daemonize() {
	child := exec.Command(os.Args[0], os.Args[1:]...)
	child.Env = append(os.Environ(), daemonizedEnv+"=1")
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scriptfs: daemonize: %v\n", err)
		os.Exit(1)
	}
	defer devnull.Close()
	child.Stdin = devnull
	child.Stdout = devnull
	child.Stderr = devnull

	if err := child.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "scriptfs: daemonize: %v\n", err)
		os.Exit(1)
	}
}

// parseProcedures parses the -p flags in order, falling back to
// DefaultProcedure ("auto", whose test is shebang-or-executable) when none
// are given.
func parseProcedures(specs []string) ([]scriptfs.Procedure, error) {
	if len(specs) == 0 {
		return []scriptfs.Procedure{scriptfs.DefaultProcedure()}, nil
	}
	procedures := make([]scriptfs.Procedure, 0, len(specs))
	for _, spec := range specs {
		proc, err := scriptfs.ParseProcedure(spec)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", spec, err)
		}
		procedures = append(procedures, proc)
	}
	return procedures, nil
}
