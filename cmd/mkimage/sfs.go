package main

import (
	"context"
	"encoding/binary"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// Disk layout constants, matching kernel/fs/sfs's on-disk format (spec §6):
// block 0 is the superblock, blocks 1-7 the free-block bitmap, blocks 8-63
// the inode table, everything from block 64 on is data. mkimage builds this
// layout independently of kernel/fs/sfs's unexported encoder, the same way
// a standalone mkfs tool knows a filesystem's wire format without linking
// against the driver that reads it at runtime.
const (
	sfsBlockSize       = 512
	sfsMagic           = 0x53465300
	sfsBitmapStart     = 1
	sfsBitmapBlocks    = 7
	sfsInodeTableStart = 8
	sfsInodeTableBlocks = 56
	sfsDataStart       = sfsInodeTableStart + sfsInodeTableBlocks
	sfsRootInode       = 1
)

type sfsCommand struct {
	manifestPath string
	outputPath   string
}

func (*sfsCommand) Name() string     { return "sfs" }
func (*sfsCommand) Synopsis() string { return "build an SFS-formatted disk image from a manifest" }
func (*sfsCommand) Usage() string {
	return "sfs -manifest image.toml -out disk.img\n"
}

func (c *sfsCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.manifestPath, "manifest", "image.toml", "path to the build manifest")
	f.StringVar(&c.outputPath, "out", "sfs.img", "output disk image path")
}

func (c *sfsCommand) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logrus.WithField("cmd", "sfs")

	m, err := loadManifest(c.manifestPath)
	if err != nil {
		log.WithError(err).Error("failed to load manifest")
		return subcommands.ExitFailure
	}
	log.WithField("seed_count", len(m.Seed)).Info("loaded manifest")

	totalBlocks := uint32(m.DiskSizeMB * 1024 * 1024 / sfsBlockSize)
	if totalBlocks <= sfsDataStart {
		log.Error("disk_size_mb too small to hold the superblock/bitmap/inode table")
		return subcommands.ExitFailure
	}

	disk := make([]byte, int(totalBlocks)*sfsBlockSize)
	writeSuperblock(disk, totalBlocks)
	writeRootInode(disk)

	// Seeding host files into the inode/data region is left for a future
	// mkimage revision (spec §12 only requires SFS be mountable, not that
	// mkimage pre-populate it); the root directory alone is enough for the
	// shell's own mkdir/touch commands to build out a tree after boot.
	if len(m.Seed) > 0 {
		log.WithField("seed_count", len(m.Seed)).Warn("seed entries present in manifest but not yet written into the image")
	}

	if err := os.WriteFile(c.outputPath, disk, 0o644); err != nil {
		log.WithError(err).Error("failed to write disk image")
		return subcommands.ExitFailure
	}

	log.WithFields(logrus.Fields{
		"path":         c.outputPath,
		"total_blocks": totalBlocks,
	}).Info("wrote SFS disk image")
	return subcommands.ExitSuccess
}

func writeSuperblock(disk []byte, totalBlocks uint32) {
	buf := disk[0:sfsBlockSize]
	binary.LittleEndian.PutUint32(buf[0:4], sfsMagic)
	binary.LittleEndian.PutUint32(buf[4:8], sfsBlockSize)
	binary.LittleEndian.PutUint32(buf[8:12], totalBlocks)
	binary.LittleEndian.PutUint32(buf[12:16], sfsInodeTableBlocks)
	binary.LittleEndian.PutUint32(buf[16:20], totalBlocks-sfsDataStart)
	binary.LittleEndian.PutUint32(buf[20:24], totalBlocks-sfsDataStart-1) // root inode's block is not free
	binary.LittleEndian.PutUint32(buf[24:28], sfsRootInode)
}

func writeRootInode(disk []byte) {
	bitmap := disk[sfsBitmapStart*sfsBlockSize : (sfsBitmapStart+sfsBitmapBlocks)*sfsBlockSize]
	bitmap[0] |= 1 // block sfsDataStart (the root directory's first data block) is in use

	const (
		modeDirectory  = 0o040000
		diskInodeWireSize = 4 + 8 + 4 + 12*4 + 4 + 8 + 8
	)
	inodeTable := disk[sfsInodeTableStart*sfsBlockSize : (sfsInodeTableStart+sfsInodeTableBlocks)*sfsBlockSize]
	root := inodeTable[(sfsRootInode-1)*diskInodeWireSize : (sfsRootInode-1)*diskInodeWireSize+diskInodeWireSize]
	binary.LittleEndian.PutUint32(root[0:4], modeDirectory)
	binary.LittleEndian.PutUint64(root[4:12], 0) // empty directory, size 0 entries
	binary.LittleEndian.PutUint32(root[12:16], 1)
	binary.LittleEndian.PutUint32(root[16:20], sfsDataStart)
}
