//go:build linux
// +build linux

// Package linux adapts internal/scriptfs.Filesystem onto bazil.org/fuse,
// the binding the reference scriptfs targets (FUSE3 on Linux). It carries
// no script-materialization logic of its own: every method here converts a
// bazil.org/fuse request into a scriptfs.Filesystem call and a
// scriptfs.Filesystem result back into a bazil.org/fuse response.
package linux

import (
	"context"
	"path"
	"syscall"
	"time"

	"bazil.org/fuse"
	bfs "bazil.org/fuse/fs"

	"github.com/scriptfs/scriptfs/internal/logsink"
	"github.com/scriptfs/scriptfs/internal/scriptfs"
)

// MountOptions mirrors the flags scriptfs passes through to the binding
// (spec.md §6: -f foreground, -d debug, -o OPT).
type MountOptions struct {
	Debug       bool
	FuseOptions []string
}

// Mount mounts core at mountpoint and serves requests until ctx is
// cancelled or an unrecoverable FUSE error occurs.
func Mount(ctx context.Context, core *scriptfs.Filesystem, mountpoint string, opts MountOptions) error {
	mountOpts := []fuse.MountOption{
		fuse.FSName("scriptfs"),
		fuse.Subtype("scriptfs"),
	}
	mountOpts = append(mountOpts, translateOptions(opts.FuseOptions)...)

	c, err := fuse.Mount(mountpoint, mountOpts...)
	if err != nil {
		return err
	}
	defer c.Close()

	if opts.Debug {
		fuse.Debug = func(msg interface{}) { logsink.Vprintf("fuse: %v", msg) }
	}

	errCh := make(chan error, 1)
	go func() { errCh <- bfs.Serve(c, &FS{core: core}) }()

	select {
	case <-ctx.Done():
		_ = fuse.Unmount(mountpoint)
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// translateOptions maps the subset of "-o OPT" strings scriptfs understands
// onto bazil.org/fuse MountOptions; anything else is logged and dropped,
// matching spec.md §1's treatment of the binding's own flags as plumbing.
func translateOptions(raw []string) []fuse.MountOption {
	var out []fuse.MountOption
	for _, opt := range raw {
		switch opt {
		case "allow_other":
			out = append(out, fuse.AllowOther())
		case "ro":
			out = append(out, fuse.ReadOnly())
		case "default_permissions":
			out = append(out, fuse.DefaultPermissions())
		default:
			logsink.Vprintf("fuse: ignoring unrecognized -o %s", opt)
		}
	}
	return out
}

// FS is the bazil.org/fuse entry point: its only job is to hand back the
// root Node.
type FS struct {
	core *scriptfs.Filesystem
}

var _ bfs.FS = (*FS)(nil)
var _ bfs.FSStatfser = (*FS)(nil)

func (f *FS) Root() (bfs.Node, error) {
	return &Node{fs: f, path: "/"}, nil
}

func (f *FS) Statfs(ctx context.Context, req *fuse.StatfsRequest, resp *fuse.StatfsResponse) error {
	st, err := f.core.Statfs()
	if err != nil {
		return errno(err)
	}
	resp.Blocks = st.Blocks
	resp.Bfree = st.Bfree
	resp.Bavail = st.Bavail
	resp.Files = st.Files
	resp.Ffree = st.Ffree
	resp.Bsize = uint32(st.Bsize)
	resp.Namelen = uint32(st.Namelen)
	resp.Frsize = uint32(st.Frsize)
	return nil
}

// Node represents one path in the virtual tree. Unlike the teacher's
// Dir/File split, a single type suffices here: every operation is
// dispatched through scriptfs.Filesystem by virtual path, and that's where
// the Dir-vs-Regular-vs-Script distinction actually lives.
type Node struct {
	fs   *FS
	path string
}

var (
	_ bfs.Node               = (*Node)(nil)
	_ bfs.NodeStringLookuper = (*Node)(nil)
	_ bfs.HandleReadDirAller = (*Node)(nil)
	_ bfs.NodeMkdirer        = (*Node)(nil)
	_ bfs.NodeRemover        = (*Node)(nil)
	_ bfs.NodeRenamer        = (*Node)(nil)
	_ bfs.NodeSetattrer      = (*Node)(nil)
	_ bfs.NodeOpener         = (*Node)(nil)
	_ bfs.NodeCreater        = (*Node)(nil)
	_ bfs.NodeAccesser       = (*Node)(nil)
	_ bfs.NodeSymlinker      = (*Node)(nil)
	_ bfs.NodeReadlinker     = (*Node)(nil)
	_ bfs.NodeLinker         = (*Node)(nil)
)

func (n *Node) Attr(ctx context.Context, a *fuse.Attr) error {
	st, err := n.fs.core.Getattr(n.path)
	if err != nil {
		return errno(err)
	}
	fillAttr(a, st)
	return nil
}

func (n *Node) Lookup(ctx context.Context, name string) (bfs.Node, error) {
	child := path.Join(n.path, name)
	if _, err := n.fs.core.Getattr(child); err != nil {
		return nil, fuse.ENOENT
	}
	return &Node{fs: n.fs, path: child}, nil
}

func (n *Node) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	entries, err := n.fs.core.ListDir(n.path)
	if err != nil {
		return nil, errno(err)
	}
	res := make([]fuse.Dirent, 0, len(entries))
	for _, e := range entries {
		de := fuse.Dirent{Name: e.Name()}
		if e.IsDir() {
			de.Type = fuse.DT_Dir
		} else {
			de.Type = fuse.DT_File
		}
		res = append(res, de)
	}
	return res, nil
}

func (n *Node) Mkdir(ctx context.Context, req *fuse.MkdirRequest) (bfs.Node, error) {
	child := path.Join(n.path, req.Name)
	if err := n.fs.core.Mkdir(child, uint32(req.Mode)); err != nil {
		return nil, errno(err)
	}
	return &Node{fs: n.fs, path: child}, nil
}

func (n *Node) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	child := path.Join(n.path, req.Name)
	var err error
	if req.Dir {
		err = n.fs.core.Rmdir(child)
	} else {
		err = n.fs.core.Unlink(child)
	}
	return errno(err)
}

func (n *Node) Rename(ctx context.Context, req *fuse.RenameRequest, newDir bfs.Node) error {
	nd, ok := newDir.(*Node)
	if !ok {
		return fuse.Errno(syscall.EXDEV)
	}
	from := path.Join(n.path, req.OldName)
	to := path.Join(nd.path, req.NewName)
	return errno(n.fs.core.Rename(from, to, 0))
}

func (n *Node) Symlink(ctx context.Context, req *fuse.SymlinkRequest) (bfs.Node, error) {
	child := path.Join(n.path, req.NewName)
	if err := n.fs.core.Symlink(req.Target, child); err != nil {
		return nil, errno(err)
	}
	return &Node{fs: n.fs, path: child}, nil
}

func (n *Node) Readlink(ctx context.Context, req *fuse.ReadlinkRequest) (string, error) {
	target, err := n.fs.core.Readlink(n.path)
	return target, errno(err)
}

func (n *Node) Link(ctx context.Context, req *fuse.LinkRequest, old bfs.Node) (bfs.Node, error) {
	oldNode, ok := old.(*Node)
	if !ok {
		return nil, fuse.Errno(syscall.EXDEV)
	}
	child := path.Join(n.path, req.NewName)
	if err := n.fs.core.Link(oldNode.path, child); err != nil {
		return nil, errno(err)
	}
	return &Node{fs: n.fs, path: child}, nil
}

func (n *Node) Access(ctx context.Context, req *fuse.AccessRequest) error {
	return errno(n.fs.core.Access(n.path, uint32(req.Mask)))
}

func (n *Node) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	if req.Valid.Mode() {
		if err := n.fs.core.Chmod(n.path, uint32(req.Mode)); err != nil {
			return errno(err)
		}
	}
	if req.Valid.Size() {
		if err := n.fs.core.Truncate(n.path, int64(req.Size)); err != nil {
			return errno(err)
		}
	}
	if req.Valid.Atime() || req.Valid.Mtime() {
		at, mt := req.Atime, req.Mtime
		if !req.Valid.Atime() {
			at = time.Now()
		}
		if !req.Valid.Mtime() {
			mt = time.Now()
		}
		if err := n.fs.core.Utimens(n.path, at, mt); err != nil {
			return errno(err)
		}
	}
	if st, err := n.fs.core.Getattr(n.path); err == nil {
		fillAttr(&resp.Attr, st)
	}
	return nil
}

func (n *Node) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (bfs.Handle, error) {
	h, err := n.fs.core.Open(n.path, int(req.Flags), 0)
	if err != nil {
		return nil, errno(err)
	}
	if h.Kind == scriptfs.ScriptHandleKind {
		resp.Flags |= fuse.OpenDirectIO
	}
	return &Handle{fs: n.fs, h: h}, nil
}

func (n *Node) Create(ctx context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (bfs.Node, bfs.Handle, error) {
	child := path.Join(n.path, req.Name)
	h, err := n.fs.core.Create(child, uint32(req.Mode))
	if err != nil {
		return nil, nil, errno(err)
	}
	return &Node{fs: n.fs, path: child}, &Handle{fs: n.fs, h: h}, nil
}

// Handle wraps a scriptfs.Handle for the duration of one open.
type Handle struct {
	fs *FS
	h  *scriptfs.Handle
}

var (
	_ bfs.Handle         = (*Handle)(nil)
	_ bfs.HandleReader   = (*Handle)(nil)
	_ bfs.HandleWriter   = (*Handle)(nil)
	_ bfs.HandleReleaser = (*Handle)(nil)
)

func (h *Handle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	buf := make([]byte, req.Size)
	n, err := h.fs.core.Read(h.h, buf, req.Offset)
	if err != nil {
		return errno(err)
	}
	resp.Data = buf[:n]
	return nil
}

func (h *Handle) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	n, err := h.fs.core.Write(h.h, req.Data, req.Offset)
	if err != nil {
		return errno(err)
	}
	resp.Size = n
	return nil
}

func (h *Handle) Release(ctx context.Context, req *fuse.ReleaseRequest) error {
	return errno(h.fs.core.Release(h.h))
}
