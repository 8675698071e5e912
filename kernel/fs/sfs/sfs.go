// Package sfs implements the Simple File System component documented (but
// not required to ship) in spec §6: a block-device-backed, superblock +
// bitmap + inode-table layout, exercising kernel/fs/blockdev's BlockDevice
// interface end to end. It is mounted as a non-default filesystem
// (kernel/kmain mounts RAMFS at "/"; SFS is available for a second mount
// point over a RAM-disk) so the block-device path has a real consumer.
package sfs

import (
	"encoding/binary"

	"minios/kernel/fs/blockdev"
	"minios/kernel/fs/vfs"
	"minios/kernel/kerror"
)

// On-disk layout, matching spec §6's "Persisted state layout" exactly:
// block 0 is the superblock, blocks 1..7 the free-block bitmap, blocks
// 8..63 the inode table, and everything from block 64 on is data.
const (
	blockSize        = blockdev.BlockSize
	superblockNum    = 0
	bitmapStartBlock = 1
	bitmapBlocks     = 7
	inodeTableStart  = 8
	inodeTableBlocks = 56
	dataStartBlock   = inodeTableStart + inodeTableBlocks

	magic = 0x53465300

	directPointers   = 12
	pointersPerBlock = blockSize / 4 // uint32 block numbers packed into an indirect block
)

// superblock mirrors spec §6's on-disk superblock record.
type superblock struct {
	Magic       uint32
	BlockSize   uint32
	TotalBlocks uint32
	InodeBlocks uint32
	DataBlocks  uint32
	FreeBlocks  uint32
	RootInode   uint32
}

const superblockWireSize = 4 * 7

func (s *superblock) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], s.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], s.BlockSize)
	binary.LittleEndian.PutUint32(buf[8:12], s.TotalBlocks)
	binary.LittleEndian.PutUint32(buf[12:16], s.InodeBlocks)
	binary.LittleEndian.PutUint32(buf[16:20], s.DataBlocks)
	binary.LittleEndian.PutUint32(buf[20:24], s.FreeBlocks)
	binary.LittleEndian.PutUint32(buf[24:28], s.RootInode)
}

func decodeSuperblock(buf []byte) superblock {
	return superblock{
		Magic:       binary.LittleEndian.Uint32(buf[0:4]),
		BlockSize:   binary.LittleEndian.Uint32(buf[4:8]),
		TotalBlocks: binary.LittleEndian.Uint32(buf[8:12]),
		InodeBlocks: binary.LittleEndian.Uint32(buf[12:16]),
		DataBlocks:  binary.LittleEndian.Uint32(buf[16:20]),
		FreeBlocks:  binary.LittleEndian.Uint32(buf[20:24]),
		RootInode:   binary.LittleEndian.Uint32(buf[24:28]),
	}
}

// diskInode mirrors spec §6's per-inode record: mode, size, block count,
// 12 direct block pointers, one single-indirect pointer, and timestamps.
type diskInode struct {
	Mode    uint32
	Size    uint64
	Blocks  uint32
	Direct  [directPointers]uint32
	Indirect uint32
	Ctime   uint64
	Mtime   uint64
}

const diskInodeWireSize = 4 + 8 + 4 + directPointers*4 + 4 + 8 + 8 // 84 bytes
const inodesPerBlock = blockSize / diskInodeWireSize

// Mode bits, matching spec §6.
const (
	modeTypeMask  = 0o170000
	modeRegular   = 0o100000
	modeDirectory = 0o040000
)

func (n *diskInode) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], n.Mode)
	binary.LittleEndian.PutUint64(buf[4:12], n.Size)
	binary.LittleEndian.PutUint32(buf[12:16], n.Blocks)
	off := 16
	for i := 0; i < directPointers; i++ {
		binary.LittleEndian.PutUint32(buf[off:off+4], n.Direct[i])
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], n.Indirect)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:off+8], n.Ctime)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], n.Mtime)
}

func decodeDiskInode(buf []byte) diskInode {
	var n diskInode
	n.Mode = binary.LittleEndian.Uint32(buf[0:4])
	n.Size = binary.LittleEndian.Uint64(buf[4:12])
	n.Blocks = binary.LittleEndian.Uint32(buf[12:16])
	off := 16
	for i := 0; i < directPointers; i++ {
		n.Direct[i] = binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
	}
	n.Indirect = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	n.Ctime = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	n.Mtime = binary.LittleEndian.Uint64(buf[off : off+8])
	return n
}

var (
	errNoSpace  = kerror.FromErrno("sfs", kerror.ENOSPC)
	errCorrupt  = kerror.ErrCorrupt
	errNotFound = kerror.ErrNotFound
	errNotDir   = kerror.FromErrno("sfs", kerror.ENOTDIR)
	errIsDir    = kerror.FromErrno("sfs", kerror.EISDIR)
	errExists   = kerror.FromErrno("sfs", kerror.EEXIST)
	errNotEmpty = kerror.FromErrno("sfs", kerror.ENOTEMPTY)
	errInvalid  = kerror.FromErrno("sfs", kerror.EINVAL)
)

// FS is a mounted SFS instance, backed by dev.
type FS struct {
	dev  blockdev.BlockDevice
	sb   superblock
	root *node
}

func (f *FS) Root() vfs.Dirent { return f.root }

// FileSystemType registers SFS with a VFS under the name "sfs". dev must be
// non-nil: unlike RAMFS, SFS always stages through a BlockDevice.
type FileSystemType struct{}

func (FileSystemType) Name() string { return "sfs" }

func (FileSystemType) Mount(dev blockdev.BlockDevice) (vfs.FileSystem, *kerror.Error) {
	if dev == nil {
		return nil, errInvalid
	}
	total := dev.BlockCount()
	if total <= dataStartBlock {
		return nil, errNoSpace
	}

	fs := &FS{dev: dev}
	fs.sb = superblock{
		Magic:       magic,
		BlockSize:   blockSize,
		TotalBlocks: total,
		InodeBlocks: inodeTableBlocks,
		DataBlocks:  total - dataStartBlock,
		FreeBlocks:  total - dataStartBlock,
		RootInode:   1,
	}
	if err := fs.writeSuperblock(); err != nil {
		return nil, err
	}
	if err := fs.formatBitmap(); err != nil {
		return nil, err
	}

	rootInode, err := fs.allocInode(modeDirectory)
	if err != nil {
		return nil, err
	}
	if rootInode != fs.sb.RootInode {
		return nil, errCorrupt
	}
	fs.root = &node{fs: fs, ino: rootInode}
	return fs, nil
}

func (fs *FS) writeSuperblock() *kerror.Error {
	buf := make([]byte, blockSize)
	fs.sb.encode(buf)
	return fs.dev.WriteBlock(superblockNum, buf)
}

func (fs *FS) formatBitmap() *kerror.Error {
	zero := make([]byte, blockSize)
	for b := uint32(0); b < bitmapBlocks; b++ {
		if err := fs.dev.WriteBlock(bitmapStartBlock+b, zero); err != nil {
			return err
		}
	}
	return nil
}
