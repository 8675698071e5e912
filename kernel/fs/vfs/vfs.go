// Package vfs implements the VFS component (spec §4.10): a global mount
// table, path resolution with `.`/`..` handling, and dispatch to whichever
// mounted FileSystem owns the longest-prefix mount of a target path.
package vfs

import (
	"strings"

	"minios/kernel/fs/blockdev"
	"minios/kernel/kerror"
)

// NodeType distinguishes a regular file from a directory.
type NodeType uint8

const (
	FileNode NodeType = iota
	DirNode
)

// Dirent is the node interface every mounted filesystem implements;
// kernel/fs/ramfs and kernel/fs/sfs both satisfy it. It intentionally omits
// symlinks: spec §4.10 explicitly scopes symlink-following out of the core.
type Dirent interface {
	Name() string
	Type() NodeType
	Size() int64

	Lookup(name string) (Dirent, *kerror.Error)
	Readdir() []Dirent

	Mkdir(name string) (Dirent, *kerror.Error)
	Create(name string) (Dirent, *kerror.Error)
	Unlink(name string) *kerror.Error
	Rename(name string, newParent Dirent, newName string) *kerror.Error

	ReadAt(buf []byte, offset int64) (int, *kerror.Error)
	WriteAt(buf []byte, offset int64) (int, *kerror.Error)
	Truncate(size int64) *kerror.Error
}

// FileSystem is a mounted instance of a FileSystemType.
type FileSystem interface {
	Root() Dirent
}

// FileSystemType is registered once per filesystem implementation (spec
// §4.10: "register FileSystemType"); Mount instantiates a FileSystem,
// optionally backed by a BlockDevice (nil for a purely in-memory fs like
// RAMFS).
type FileSystemType interface {
	Name() string
	Mount(dev blockdev.BlockDevice) (FileSystem, *kerror.Error)
}

var (
	// errNotFound is kerror.ErrNotFound rather than a package-local value:
	// kernel/fs/ramfs returns the same singleton for a missing lookup, and
	// Open's OCreat path needs pointer identity to tell "create it" apart
	// from any other resolution failure.
	errNotFound = kerror.ErrNotFound
	errNotDir   = kerror.FromErrno("vfs", kerror.ENOTDIR)
	errExists   = kerror.FromErrno("vfs", kerror.EEXIST)
	errInvalid  = kerror.FromErrno("vfs", kerror.EINVAL)
)

type mount struct {
	path string // canonical, no trailing slash except for "/"
	fs   FileSystem
}

// VFS owns the mount table and path-resolution logic; kernel/kmain
// constructs exactly one instance.
type VFS struct {
	types  map[string]FileSystemType
	mounts []mount // kept sorted by descending path length for longest-prefix dispatch
}

// New returns an empty VFS with no registered types or mounts.
func New() *VFS {
	return &VFS{types: make(map[string]FileSystemType)}
}

// RegisterType makes a FileSystemType available to Mount by name.
func (v *VFS) RegisterType(t FileSystemType) {
	v.types[t.Name()] = t
}

// Mount instantiates typeName at path (which must already resolve to an
// existing directory, or be "/" for the very first mount) and adds it to
// the mount table.
func (v *VFS) Mount(typeName, path string, dev blockdev.BlockDevice) *kerror.Error {
	t, ok := v.types[typeName]
	if !ok {
		return errNotFound
	}
	fs, err := t.Mount(dev)
	if err != nil {
		return err
	}

	path = canonicalizeMountPath(path)
	v.mounts = append(v.mounts, mount{path: path, fs: fs})

	// Longest path first so Resolve's linear scan finds the most specific
	// mount without needing a trie.
	for i := len(v.mounts) - 1; i > 0 && len(v.mounts[i].path) > len(v.mounts[i-1].path); i-- {
		v.mounts[i], v.mounts[i-1] = v.mounts[i-1], v.mounts[i]
	}
	return nil
}

func canonicalizeMountPath(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimSuffix(path, "/")
}

// Canonicalize resolves path against cwd per spec §4.10: absolute paths
// ignore cwd, relative paths are prepended with it, and `.`/`..` components
// are resolved textually (`..` at the root is a no-op). The result always
// starts with "/" and never ends with "/" unless it is the root itself.
func Canonicalize(cwd, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = cwd + "/" + path
	}

	var stack []string
	for _, comp := range strings.Split(path, "/") {
		switch comp {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, comp)
		}
	}

	if len(stack) == 0 {
		return "/"
	}
	return "/" + strings.Join(stack, "/")
}

// Resolve walks canonicalPath (as produced by Canonicalize) to its Dirent,
// dispatching through whichever mount owns the longest matching prefix.
func (v *VFS) Resolve(canonicalPath string) (Dirent, *kerror.Error) {
	m, rest := v.findMount(canonicalPath)
	if m == nil {
		return nil, errNotFound
	}

	cur := m.fs.Root()
	if rest == "" {
		return cur, nil
	}

	for _, comp := range strings.Split(rest, "/") {
		if comp == "" {
			continue
		}
		next, err := cur.Lookup(comp)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// ResolveParent resolves the directory containing the final component of
// canonicalPath, returning that Dirent and the final component's name —
// used by operations (Mkdir, Create, Unlink, Rename) that must act on a
// name within a directory rather than on the named node itself.
func (v *VFS) ResolveParent(canonicalPath string) (Dirent, string, *kerror.Error) {
	idx := strings.LastIndexByte(canonicalPath, '/')
	parentPath, name := canonicalPath[:idx], canonicalPath[idx+1:]
	if parentPath == "" {
		parentPath = "/"
	}
	if name == "" {
		return nil, "", errInvalid
	}

	parent, err := v.Resolve(parentPath)
	if err != nil {
		return nil, "", err
	}
	if parent.Type() != DirNode {
		return nil, "", errNotDir
	}
	return parent, name, nil
}

// findMount returns the most specific mount owning path, and the path
// remaining below that mount point (no leading slash).
func (v *VFS) findMount(path string) (*mount, string) {
	for i := range v.mounts {
		m := &v.mounts[i]
		if m.path == "/" {
			return m, strings.TrimPrefix(path, "/")
		}
		if path == m.path {
			return m, ""
		}
		if strings.HasPrefix(path, m.path+"/") {
			return m, path[len(m.path)+1:]
		}
	}
	return nil, ""
}
