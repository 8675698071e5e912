package sfs

import (
	"minios/kernel/fs/vfs"
	"minios/kernel/kerror"
)

const (
	dirEntrySize    = 64
	dirNameMaxLen   = dirEntrySize - 4
	entriesPerBlock = blockSize / dirEntrySize
)

// node is the vfs.Dirent kernel/fs/vfs drives; it is a thin handle onto an
// inode number, re-reading the diskInode from fs.dev on every operation so
// there is exactly one place (fs.readInode/writeInode) that touches the
// on-disk representation. name is carried alongside ino because an SFS
// inode record has no name of its own — spec §6's on-disk inode is
// {mode, size, blocks, direct, indirect, ctime, mtime} — the name lives
// only in the parent directory's entry that points at this inode.
type node struct {
	fs   *FS
	ino  uint32
	name string
}

func (n *node) Name() string { return n.name }

func (n *node) Type() vfs.NodeType {
	di, err := n.fs.readInode(n.ino)
	if err != nil {
		return vfs.FileNode
	}
	if di.Mode&modeTypeMask == modeDirectory {
		return vfs.DirNode
	}
	return vfs.FileNode
}

func (n *node) Size() int64 {
	di, err := n.fs.readInode(n.ino)
	if err != nil {
		return 0
	}
	return int64(di.Size)
}

// dirEntry is the fixed-size on-disk directory record: a 4-byte inode
// number followed by a NUL-padded name.
type dirEntry struct {
	ino  uint32
	name string
}

func encodeDirEntry(buf []byte, e dirEntry) {
	putLE32(buf[0:4], e.ino)
	copy(buf[4:], e.name)
	for i := 4 + len(e.name); i < dirEntrySize; i++ {
		buf[i] = 0
	}
}

func decodeDirEntry(buf []byte) dirEntry {
	ino := le32(buf[0:4])
	end := 4
	for end < dirEntrySize && buf[end] != 0 {
		end++
	}
	return dirEntry{ino: ino, name: string(buf[4:end])}
}

// forEachEntry walks every occupied directory slot (ino != 0) across this
// directory's logical blocks.
func (n *node) forEachEntry(fn func(idx uint32, e dirEntry) bool) *kerror.Error {
	di, err := n.fs.readInode(n.ino)
	if err != nil {
		return err
	}
	count := uint32(di.Size) / dirEntrySize

	buf := make([]byte, blockSize)
	var curBlockIdx uint32 = ^uint32(0)
	for i := uint32(0); i < count; i++ {
		blockIdx := i / entriesPerBlock
		if blockIdx != curBlockIdx {
			block, err := n.fs.blockForIndex(&di, blockIdx, false)
			if err != nil {
				return err
			}
			if block == 0 {
				continue
			}
			if err := n.fs.dev.ReadBlock(block, buf); err != nil {
				return err
			}
			curBlockIdx = blockIdx
		}
		off := int(i%entriesPerBlock) * dirEntrySize
		e := decodeDirEntry(buf[off : off+dirEntrySize])
		if e.ino == 0 {
			continue
		}
		if !fn(i, e) {
			return nil
		}
	}
	return nil
}

func (n *node) Lookup(name string) (vfs.Dirent, *kerror.Error) {
	if n.Type() != vfs.DirNode {
		return nil, errNotDir
	}
	var found *node
	n.forEachEntry(func(_ uint32, e dirEntry) bool {
		if e.name == name {
			found = &node{fs: n.fs, ino: e.ino, name: name}
			return false
		}
		return true
	})
	if found == nil {
		return nil, errNotFound
	}
	return found, nil
}

func (n *node) Readdir() []vfs.Dirent {
	var out []vfs.Dirent
	n.forEachEntry(func(_ uint32, e dirEntry) bool {
		out = append(out, &node{fs: n.fs, ino: e.ino, name: e.name})
		return true
	})
	return out
}

// addEntry appends {ino, name} to this directory's entry list, growing the
// directory's inode by one block when the current last block is full.
func (n *node) addEntry(childIno uint32, name string) *kerror.Error {
	if len(name) > dirNameMaxLen {
		return errInvalid
	}
	di, err := n.fs.readInode(n.ino)
	if err != nil {
		return err
	}
	idx := uint32(di.Size) / dirEntrySize
	blockIdx := idx / entriesPerBlock

	block, err := n.fs.blockForIndex(&di, blockIdx, true)
	if err != nil {
		return err
	}

	buf := make([]byte, blockSize)
	if err := n.fs.dev.ReadBlock(block, buf); err != nil {
		return err
	}
	off := int(idx%entriesPerBlock) * dirEntrySize
	encodeDirEntry(buf[off:off+dirEntrySize], dirEntry{ino: childIno, name: name})
	if err := n.fs.dev.WriteBlock(block, buf); err != nil {
		return err
	}

	di.Size += dirEntrySize
	return n.fs.writeInode(n.ino, di)
}

// removeEntry clears the slot holding name by zeroing its inode number,
// leaving a hole rather than compacting — simpler, and harmless since
// forEachEntry already skips ino == 0 slots.
func (n *node) removeEntry(name string) *kerror.Error {
	di, err := n.fs.readInode(n.ino)
	if err != nil {
		return err
	}
	count := uint32(di.Size) / dirEntrySize

	buf := make([]byte, blockSize)
	for i := uint32(0); i < count; i++ {
		blockIdx := i / entriesPerBlock
		block, err := n.fs.blockForIndex(&di, blockIdx, false)
		if err != nil {
			return err
		}
		if block == 0 {
			continue
		}
		if err := n.fs.dev.ReadBlock(block, buf); err != nil {
			return err
		}
		off := int(i%entriesPerBlock) * dirEntrySize
		e := decodeDirEntry(buf[off : off+dirEntrySize])
		if e.ino == 0 || e.name != name {
			continue
		}
		putLE32(buf[off:off+4], 0)
		return n.fs.dev.WriteBlock(block, buf)
	}
	return errNotFound
}

func (n *node) Mkdir(name string) (vfs.Dirent, *kerror.Error) {
	return n.createChild(name, modeDirectory)
}

func (n *node) Create(name string) (vfs.Dirent, *kerror.Error) {
	return n.createChild(name, modeRegular)
}

func (n *node) createChild(name string, modeType uint32) (vfs.Dirent, *kerror.Error) {
	if n.Type() != vfs.DirNode {
		return nil, errNotDir
	}
	if _, err := n.Lookup(name); err == nil {
		return nil, errExists
	}

	childIno, err := n.fs.allocInode(modeType)
	if err != nil {
		return nil, err
	}
	if err := n.addEntry(childIno, name); err != nil {
		return nil, err
	}
	return &node{fs: n.fs, ino: childIno, name: name}, nil
}

func (n *node) Unlink(name string) *kerror.Error {
	if n.Type() != vfs.DirNode {
		return errNotDir
	}
	child, err := n.Lookup(name)
	if err != nil {
		return err
	}
	if child.Type() == vfs.DirNode && len(child.Readdir()) != 0 {
		return errNotEmpty
	}
	if err := n.removeEntry(name); err != nil {
		return err
	}
	return n.fs.freeInode(child.(*node).ino)
}

func (n *node) Rename(name string, newParentDirent vfs.Dirent, newName string) *kerror.Error {
	newParent, ok := newParentDirent.(*node)
	if !ok || newParent.Type() != vfs.DirNode {
		return errNotDir
	}
	child, err := n.Lookup(name)
	if err != nil {
		return err
	}
	if _, err := newParent.Lookup(newName); err == nil {
		return errExists
	}
	if err := n.removeEntry(name); err != nil {
		return err
	}
	return newParent.addEntry(child.(*node).ino, newName)
}

func (n *node) ReadAt(buf []byte, offset int64) (int, *kerror.Error) {
	di, err := n.fs.readInode(n.ino)
	if err != nil {
		return 0, err
	}
	if di.Mode&modeTypeMask != modeRegular {
		return 0, errIsDir
	}
	if offset < 0 || offset >= int64(di.Size) {
		return 0, nil
	}

	remaining := int64(di.Size) - offset
	if int64(len(buf)) > remaining {
		buf = buf[:remaining]
	}

	total := 0
	block := make([]byte, blockSize)
	for total < len(buf) {
		pos := offset + int64(total)
		blockIdx := uint32(pos / blockSize)
		withinBlock := int(pos % blockSize)

		abs, err := n.fs.blockForIndex(&di, blockIdx, false)
		if err != nil {
			return total, err
		}
		if abs == 0 {
			// sparse hole: treated as zero-filled
			n := copy(buf[total:], make([]byte, blockSize-withinBlock))
			total += n
			continue
		}
		if err := n.fs.dev.ReadBlock(abs, block); err != nil {
			return total, err
		}
		cnt := copy(buf[total:], block[withinBlock:])
		total += cnt
	}
	return total, nil
}

func (n *node) WriteAt(buf []byte, offset int64) (int, *kerror.Error) {
	di, err := n.fs.readInode(n.ino)
	if err != nil {
		return 0, err
	}
	if di.Mode&modeTypeMask != modeRegular {
		return 0, errIsDir
	}
	if offset < 0 {
		return 0, errInvalid
	}

	total := 0
	block := make([]byte, blockSize)
	for total < len(buf) {
		pos := offset + int64(total)
		blockIdx := uint32(pos / blockSize)
		withinBlock := int(pos % blockSize)

		abs, err := n.fs.blockForIndex(&di, blockIdx, true)
		if err != nil {
			return total, err
		}
		if withinBlock != 0 {
			if err := n.fs.dev.ReadBlock(abs, block); err != nil {
				return total, err
			}
		} else {
			for i := range block {
				block[i] = 0
			}
		}
		cnt := copy(block[withinBlock:], buf[total:])
		if err := n.fs.dev.WriteBlock(abs, block); err != nil {
			return total, err
		}
		total += cnt
	}

	if end := offset + int64(len(buf)); end > int64(di.Size) {
		di.Size = uint64(end)
	}
	if err := n.fs.writeInode(n.ino, di); err != nil {
		return total, err
	}
	return total, nil
}

func (n *node) Truncate(size int64) *kerror.Error {
	if size < 0 {
		return errInvalid
	}
	di, err := n.fs.readInode(n.ino)
	if err != nil {
		return err
	}
	if di.Mode&modeTypeMask != modeRegular {
		return errIsDir
	}
	di.Size = uint64(size)
	return n.fs.writeInode(n.ino, di)
}
