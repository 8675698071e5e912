// Package blockdev implements the Block Device component (spec §4.10): a
// uniform read_block/write_block/sync interface, plus a RAM-disk
// implementation that backs storage when no real hardware exists.
package blockdev

import "minios/kernel/kerror"

// BlockSize is the fixed block size every BlockDevice in this kernel uses.
const BlockSize = 512

// BlockDevice is the contract kernel/fs/vfs and kernel/fs/sfs code against;
// kernel/fs/ramfs does not use one (it has no on-disk format to stage
// through blocks).
type BlockDevice interface {
	// ReadBlock reads block n into buf, which must be exactly BlockSize
	// bytes.
	ReadBlock(n uint32, buf []byte) *kerror.Error
	// WriteBlock writes buf (exactly BlockSize bytes) to block n.
	WriteBlock(n uint32, buf []byte) *kerror.Error
	// Sync flushes any buffered writes. A no-op for RAMDisk.
	Sync() *kerror.Error
	// BlockCount returns the number of addressable blocks.
	BlockCount() uint32
}

var (
	errOutOfRange  = kerror.FromErrno("blockdev", kerror.EINVAL)
	errBadBufferSz = kerror.FromErrno("blockdev", kerror.EINVAL)
)

// RAMDisk is a BlockDevice backed entirely by a Go byte slice, the reference
// pool's uniform stand-in for real storage hardware.
type RAMDisk struct {
	blocks []byte
}

// NewRAMDisk allocates a RAMDisk with the given number of blocks.
func NewRAMDisk(blockCount uint32) *RAMDisk {
	return &RAMDisk{blocks: make([]byte, uint64(blockCount)*BlockSize)}
}

func (d *RAMDisk) BlockCount() uint32 { return uint32(len(d.blocks) / BlockSize) }

func (d *RAMDisk) ReadBlock(n uint32, buf []byte) *kerror.Error {
	if len(buf) != BlockSize {
		return errBadBufferSz
	}
	if n >= d.BlockCount() {
		return errOutOfRange
	}
	copy(buf, d.blocks[uint64(n)*BlockSize:uint64(n+1)*BlockSize])
	return nil
}

func (d *RAMDisk) WriteBlock(n uint32, buf []byte) *kerror.Error {
	if len(buf) != BlockSize {
		return errBadBufferSz
	}
	if n >= d.BlockCount() {
		return errOutOfRange
	}
	copy(d.blocks[uint64(n)*BlockSize:uint64(n+1)*BlockSize], buf)
	return nil
}

func (d *RAMDisk) Sync() *kerror.Error { return nil }
