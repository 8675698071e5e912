// Package ramfs implements the RAMFS component (spec §4.11): a rooted tree
// of in-memory Inodes, mounted at "/" by kernel/kmain and pre-populated with
// the standard directory skeleton and a welcome file.
package ramfs

import (
	"minios/kernel/fs/blockdev"
	"minios/kernel/fs/vfs"
	"minios/kernel/kerror"
)

// growthIncrement is the byte-buffer growth step spec §4.11 mandates for
// regular-file writes past the current capacity.
const growthIncrement = 4096

// inode is a single node in the tree; Type distinguishes a directory's
// children slice from a regular file's data buffer.
type inode struct {
	ino      uint64
	name     string
	typ      vfs.NodeType
	parent   *inode
	children []*inode // directories only
	data     []byte   // regular files only; len(data) is the visible size
}

func (n *inode) Name() string      { return n.name }
func (n *inode) Type() vfs.NodeType { return n.typ }
func (n *inode) Size() int64 {
	if n.typ == vfs.DirNode {
		return int64(len(n.children))
	}
	return int64(len(n.data))
}

func (n *inode) Lookup(name string) (vfs.Dirent, *kerror.Error) {
	if n.typ != vfs.DirNode {
		return nil, errNotDir
	}
	for _, c := range n.children {
		if c.name == name {
			return c, nil
		}
	}
	return nil, errNotFound
}

func (n *inode) Readdir() []vfs.Dirent {
	out := make([]vfs.Dirent, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *inode) Mkdir(name string) (vfs.Dirent, *kerror.Error) {
	return n.addChild(name, vfs.DirNode)
}

func (n *inode) Create(name string) (vfs.Dirent, *kerror.Error) {
	return n.addChild(name, vfs.FileNode)
}

func (n *inode) addChild(name string, typ vfs.NodeType) (vfs.Dirent, *kerror.Error) {
	if n.typ != vfs.DirNode {
		return nil, errNotDir
	}
	if _, err := n.Lookup(name); err == nil {
		return nil, errExists
	}

	child := &inode{ino: nextIno(), name: name, typ: typ, parent: n}
	n.children = append(n.children, child)
	return child, nil
}

func (n *inode) Unlink(name string) *kerror.Error {
	if n.typ != vfs.DirNode {
		return errNotDir
	}
	for i, c := range n.children {
		if c.name != name {
			continue
		}
		if c.typ == vfs.DirNode && len(c.children) != 0 {
			return errNotEmpty
		}
		n.children = append(n.children[:i], n.children[i+1:]...)
		return nil
	}
	return errNotFound
}

func (n *inode) Rename(name string, newParentDirent vfs.Dirent, newName string) *kerror.Error {
	if n.typ != vfs.DirNode {
		return errNotDir
	}
	newParent, ok := newParentDirent.(*inode)
	if !ok || newParent.typ != vfs.DirNode {
		return errNotDir
	}

	var idx = -1
	for i, c := range n.children {
		if c.name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errNotFound
	}
	if _, err := newParent.Lookup(newName); err == nil {
		return errExists
	}

	moved := n.children[idx]
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	moved.name = newName
	moved.parent = newParent
	newParent.children = append(newParent.children, moved)
	return nil
}

func (n *inode) ReadAt(buf []byte, offset int64) (int, *kerror.Error) {
	if n.typ != vfs.FileNode {
		return 0, errIsDir
	}
	if offset < 0 || offset >= int64(len(n.data)) {
		return 0, nil
	}
	cnt := copy(buf, n.data[offset:])
	return cnt, nil
}

func (n *inode) WriteAt(buf []byte, offset int64) (int, *kerror.Error) {
	if n.typ != vfs.FileNode {
		return 0, errIsDir
	}
	if offset < 0 {
		return 0, errInvalid
	}

	end := offset + int64(len(buf))
	if end > int64(len(n.data)) {
		n.growTo(end)
	}
	copy(n.data[offset:end], buf)
	return len(buf), nil
}

func (n *inode) Truncate(size int64) *kerror.Error {
	if n.typ != vfs.FileNode {
		return errIsDir
	}
	if size < 0 {
		return errInvalid
	}
	if size <= int64(len(n.data)) {
		n.data = n.data[:size]
		return nil
	}
	n.growTo(size)
	return nil
}

// growTo extends data so its length is at least size, rounding the
// underlying capacity up to the next 4 KiB increment per spec §4.11.
func (n *inode) growTo(size int64) {
	newCap := ((size + growthIncrement - 1) / growthIncrement) * growthIncrement
	grown := make([]byte, size, newCap)
	copy(grown, n.data)
	n.data = grown
}

var nextInoCounter uint64 = 1

func nextIno() uint64 {
	nextInoCounter++
	return nextInoCounter
}

var (
	errNotFound = kerror.ErrNotFound
	errNotDir   = kerror.FromErrno("ramfs", kerror.ENOTDIR)
	errIsDir    = kerror.FromErrno("ramfs", kerror.EISDIR)
	errExists   = kerror.FromErrno("ramfs", kerror.EEXIST)
	errNotEmpty = kerror.FromErrno("ramfs", kerror.ENOTEMPTY)
	errInvalid  = kerror.FromErrno("ramfs", kerror.EINVAL)
)

// FS is the mounted RAMFS instance.
type FS struct {
	root *inode
}

func (f *FS) Root() vfs.Dirent { return f.root }

// FileSystemType registers RAMFS with a VFS under the name "ramfs". dev is
// ignored: RAMFS has no on-disk format to stage through a BlockDevice.
type FileSystemType struct{}

func (FileSystemType) Name() string { return "ramfs" }

func (FileSystemType) Mount(dev blockdev.BlockDevice) (vfs.FileSystem, *kerror.Error) {
	root := &inode{ino: 1, name: "", typ: vfs.DirNode}
	return &FS{root: root}, nil
}

// Seed pre-populates a freshly mounted FS with the standard directory
// skeleton and welcome file spec §4.11 requires at boot.
func Seed(fs *FS) *kerror.Error {
	for _, dir := range []string{"bin", "etc", "tmp", "home", "dev"} {
		if _, err := fs.root.Mkdir(dir); err != nil {
			return err
		}
	}

	welcome, err := fs.root.Create("welcome.txt")
	if err != nil {
		return err
	}
	msg := []byte("Welcome to MiniOS.\n")
	if _, err := welcome.WriteAt(msg, 0); err != nil {
		return err
	}
	return nil
}
