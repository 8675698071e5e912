package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// seedEntry copies one host-side file or directory into the shipped
// RAMFS/SFS image at Target, matching spec §4.11/§12's "seed the standard
// directory skeleton" at a coarser, build-time granularity than kmain's own
// in-kernel seedRoot.
type seedEntry struct {
	Host   string `toml:"host"`
	Target string `toml:"target"`
}

// manifest is image.toml's schema: which host files seed which paths in
// the shipped filesystem image, and how large the backing disk should be.
type manifest struct {
	DiskSizeMB int         `toml:"disk_size_mb"`
	Seed       []seedEntry `toml:"seed"`
}

func loadManifest(path string) (*manifest, error) {
	var m manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("mkimage: parsing manifest %s: %w", path, err)
	}
	if m.DiskSizeMB <= 0 {
		return nil, fmt.Errorf("mkimage: manifest %s: disk_size_mb must be positive", path)
	}
	return &m, nil
}
