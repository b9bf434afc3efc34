//go:build !linux
// +build !linux

// Package fusebind selects the FUSE binding for the running platform:
// bazil.org/fuse on Linux, cgofuse everywhere else.
package fusebind

import (
	"context"

	"github.com/scriptfs/scriptfs/internal/fusebind/cgofuse"
	"github.com/scriptfs/scriptfs/internal/scriptfs"
)

// Options mirrors the binding-facing subset of pkg/config.Config.
type Options struct {
	Debug       bool
	FuseOptions []string
}

// Mount mounts core at mountpoint using the platform's FUSE binding and
// blocks until ctx is cancelled or the binding reports a fatal error.
func Mount(ctx context.Context, core *scriptfs.Filesystem, mountpoint string, opts Options) error {
	return cgofuse.Mount(ctx, core, mountpoint, cgofuse.MountOptions{
		FuseOptions: opts.FuseOptions,
	})
}
