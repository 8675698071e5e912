package vfs

import "minios/kernel/kerror"

// Open flags (spec §4.10).
const (
	ORdOnly = 0
	OWrOnly = 1
	ORdWr   = 2
	OCreat  = 1 << 6
	OExcl   = 1 << 7
	OTrunc  = 1 << 9
	OAppend = 1 << 10
)

// OpenFile is the kernel-side object a per-task fd refers to (spec §4.10's
// File); multiple fds (from dup, or independent opens of the same path) may
// each hold their own OpenFile with an independent position, sharing the
// same underlying Dirent.
type OpenFile struct {
	dirent Dirent
	pos    int64
	flags  int
}

// Open resolves path (already canonicalized against cwd by the caller) and
// returns an OpenFile ready for Read/Write/Seek, creating the file first if
// OCreat is set and it does not exist.
func (v *VFS) Open(canonicalPath string, flags int, mode uint32) (*OpenFile, *kerror.Error) {
	node, err := v.Resolve(canonicalPath)
	preexisting := err == nil
	if err == errNotFound && flags&OCreat != 0 {
		parent, name, perr := v.ResolveParent(canonicalPath)
		if perr != nil {
			return nil, perr
		}
		node, err = parent.Create(name)
	}
	if err != nil {
		return nil, err
	}
	if preexisting && flags&OCreat != 0 && flags&OExcl != 0 {
		return nil, errExists
	}
	if node.Type() != FileNode && (flags&(OWrOnly|ORdWr) != 0) {
		return nil, kerror.FromErrno("vfs", kerror.EISDIR)
	}

	of := &OpenFile{dirent: node, flags: flags}
	if flags&OTrunc != 0 {
		if err := node.Truncate(0); err != nil {
			return nil, err
		}
	}
	if flags&OAppend != 0 {
		of.pos = node.Size()
	}
	return of, nil
}

// Read reads up to len(buf) bytes at the file's current position, advancing
// it by the number of bytes actually read.
func (f *OpenFile) Read(buf []byte) (int, *kerror.Error) {
	n, err := f.dirent.ReadAt(buf, f.pos)
	f.pos += int64(n)
	return n, err
}

// Write writes buf at the file's current position (or at EOF if opened with
// OAppend), advancing the position by the number of bytes written.
func (f *OpenFile) Write(buf []byte) (int, *kerror.Error) {
	if f.flags&OAppend != 0 {
		f.pos = f.dirent.Size()
	}
	n, err := f.dirent.WriteAt(buf, f.pos)
	f.pos += int64(n)
	return n, err
}

// Seek origins, matching lseek(2).
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// Seek repositions the file per spec §4.10's seek(path, offset, whence).
func (f *OpenFile) Seek(offset int64, whence int) (int64, *kerror.Error) {
	switch whence {
	case SeekSet:
		f.pos = offset
	case SeekCur:
		f.pos += offset
	case SeekEnd:
		f.pos = f.dirent.Size() + offset
	default:
		return 0, errInvalid
	}
	if f.pos < 0 {
		f.pos = 0
		return 0, errInvalid
	}
	return f.pos, nil
}

// Close releases an OpenFile. Closing drops this handle's reference; since
// Dirent data lives directly in the filesystem's tree rather than behind a
// separate refcounted object, there is nothing further to release here —
// the comment records the invariant spec §4.10 states ("freed when the
// last fd closes"), which kernel/task's FdTable.Release already provides by
// dropping the last Go-level reference to this OpenFile.
func (f *OpenFile) Close() *kerror.Error { return nil }

// Mkdir creates a new directory at canonicalPath.
func (v *VFS) Mkdir(canonicalPath string) *kerror.Error {
	parent, name, err := v.ResolveParent(canonicalPath)
	if err != nil {
		return err
	}
	_, err = parent.Mkdir(name)
	return err
}

// Rmdir removes the empty directory at canonicalPath.
func (v *VFS) Rmdir(canonicalPath string) *kerror.Error {
	parent, name, err := v.ResolveParent(canonicalPath)
	if err != nil {
		return err
	}
	target, err := parent.Lookup(name)
	if err != nil {
		return err
	}
	if target.Type() != DirNode {
		return errNotDir
	}
	if len(target.Readdir()) != 0 {
		return kerror.FromErrno("vfs", kerror.ENOTEMPTY)
	}
	return parent.Unlink(name)
}

// Unlink removes the file or empty directory at canonicalPath.
func (v *VFS) Unlink(canonicalPath string) *kerror.Error {
	parent, name, err := v.ResolveParent(canonicalPath)
	if err != nil {
		return err
	}
	return parent.Unlink(name)
}

// Rename moves/renames oldPath to newPath; both must already be
// canonicalized and resolve within the same mounted filesystem (a
// cross-filesystem rename is out of scope, matching spec §4.11's
// same-tree-only Rename).
func (v *VFS) Rename(oldPath, newPath string) *kerror.Error {
	oldParent, oldName, err := v.ResolveParent(oldPath)
	if err != nil {
		return err
	}
	newParent, newName, err := v.ResolveParent(newPath)
	if err != nil {
		return err
	}
	return oldParent.Rename(oldName, newParent, newName)
}

// Stat reports the type and size of the node at canonicalPath.
func (v *VFS) Stat(canonicalPath string) (NodeType, int64, *kerror.Error) {
	node, err := v.Resolve(canonicalPath)
	if err != nil {
		return 0, 0, err
	}
	return node.Type(), node.Size(), nil
}

// Readdir lists the names of canonicalPath's children; canonicalPath must
// resolve to a directory.
func (v *VFS) Readdir(canonicalPath string) ([]string, *kerror.Error) {
	node, err := v.Resolve(canonicalPath)
	if err != nil {
		return nil, err
	}
	if node.Type() != DirNode {
		return nil, errNotDir
	}
	children := node.Readdir()
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = c.Name()
	}
	return names, nil
}
