package sfs_test

import (
	"bytes"
	"testing"

	"minios/kernel/fs/blockdev"
	"minios/kernel/fs/sfs"
	"minios/kernel/fs/vfs"
)

func newMounted(t *testing.T) *vfs.VFS {
	t.Helper()
	dev := blockdev.NewRAMDisk(256)
	v := vfs.New()
	v.RegisterType(sfs.FileSystemType{})
	if err := v.Mount("sfs", "/", dev); err != nil {
		t.Fatalf("mount: %v", err)
	}
	return v
}

func TestMountFormatsAnEmptyRoot(t *testing.T) {
	v := newMounted(t)
	names, err := v.Readdir("/")
	if err != nil {
		t.Fatalf("readdir root: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected an empty freshly formatted root, got %v", names)
	}
}

func TestCreateWriteReadRoundTrip(t *testing.T) {
	v := newMounted(t)

	f, err := v.Open("/hello.txt", vfs.OCreat|vfs.OWrOnly, 0)
	if err != nil {
		t.Fatalf("open for create: %v", err)
	}
	payload := []byte("hello from a block device")
	if n, err := f.Write(payload); err != nil || n != len(payload) {
		t.Fatalf("write: n=%d err=%v", n, err)
	}

	f2, err := v.Open("/hello.txt", vfs.ORdOnly, 0)
	if err != nil {
		t.Fatalf("open for read: %v", err)
	}
	buf := make([]byte, 64)
	n, err := f2.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(buf[:n], payload) {
		t.Fatalf("got %q, want %q", buf[:n], payload)
	}
}

func TestWriteSpanningMultipleBlocksRoundTrips(t *testing.T) {
	v := newMounted(t)

	f, err := v.Open("/big.bin", vfs.OCreat|vfs.OWrOnly, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	payload := bytes.Repeat([]byte{0xAB}, 3*512+17)
	if n, err := f.Write(payload); err != nil || n != len(payload) {
		t.Fatalf("write: n=%d err=%v", n, err)
	}

	f2, _ := v.Open("/big.bin", vfs.ORdOnly, 0)
	buf := make([]byte, len(payload))
	n, err := f2.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != len(payload) || !bytes.Equal(buf, payload) {
		t.Fatalf("round trip mismatch: got %d bytes", n)
	}
}

func TestWriteThroughIndirectBlockRange(t *testing.T) {
	v := newMounted(t)

	f, err := v.Open("/indirect.bin", vfs.OCreat|vfs.OWrOnly, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// 12 direct blocks cover 6144 bytes; push well past that into the
	// single-indirect range without exceeding the RAM-disk's capacity.
	payload := bytes.Repeat([]byte{0x5a}, 12*512+3*512)
	if _, err := f.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	f2, _ := v.Open("/indirect.bin", vfs.ORdOnly, 0)
	buf := make([]byte, len(payload))
	if _, err := f2.Read(buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(buf, payload) {
		t.Fatalf("indirect-range round trip mismatch")
	}
}

func TestMkdirRmdirRoundTrip(t *testing.T) {
	v := newMounted(t)
	if err := v.Mkdir("/projects"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	typ, _, err := v.Stat("/projects")
	if err != nil || typ != vfs.DirNode {
		t.Fatalf("stat: type=%v err=%v", typ, err)
	}
	if err := v.Rmdir("/projects"); err != nil {
		t.Fatalf("rmdir: %v", err)
	}
	if _, _, err := v.Stat("/projects"); err == nil {
		t.Fatalf("expected /projects to be gone")
	}
}

func TestRmdirNonEmptyFails(t *testing.T) {
	v := newMounted(t)
	v.Mkdir("/d")
	if _, err := v.Open("/d/f", vfs.OCreat|vfs.OWrOnly, 0); err != nil {
		t.Fatalf("create in /d: %v", err)
	}
	if err := v.Rmdir("/d"); err == nil {
		t.Fatalf("expected rmdir of a non-empty directory to fail")
	}
}

func TestRenameAcrossDirectories(t *testing.T) {
	v := newMounted(t)
	v.Mkdir("/src")
	v.Mkdir("/dst")
	if _, err := v.Open("/src/a.txt", vfs.OCreat|vfs.OWrOnly, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := v.Rename("/src/a.txt", "/dst/b.txt"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, _, err := v.Stat("/dst/b.txt"); err != nil {
		t.Fatalf("stat new location: %v", err)
	}
	if _, _, err := v.Stat("/src/a.txt"); err == nil {
		t.Fatalf("expected old path to be gone")
	}
}

func TestUnlinkFreesInodeForReuse(t *testing.T) {
	v := newMounted(t)
	if _, err := v.Open("/a.txt", vfs.OCreat|vfs.OWrOnly, 0); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := v.Unlink("/a.txt"); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if _, _, err := v.Stat("/a.txt"); err == nil {
		t.Fatalf("expected /a.txt gone after unlink")
	}
	if _, err := v.Open("/b.txt", vfs.OCreat|vfs.OWrOnly, 0); err != nil {
		t.Fatalf("create b after freeing a's inode: %v", err)
	}
}

func TestTruncateShrinksFile(t *testing.T) {
	v := newMounted(t)
	f, _ := v.Open("/t.txt", vfs.OCreat|vfs.OWrOnly, 0)
	f.Write([]byte("0123456789"))

	typ, size, err := v.Stat("/t.txt")
	if err != nil || typ != vfs.FileNode || size != 10 {
		t.Fatalf("stat before truncate: type=%v size=%d err=%v", typ, size, err)
	}

	node, err := v.Resolve("/t.txt")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := node.Truncate(4); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if _, size, _ := v.Stat("/t.txt"); size != 4 {
		t.Fatalf("size after truncate = %d, want 4", size)
	}
}

func TestReaddirListsChildren(t *testing.T) {
	v := newMounted(t)
	v.Mkdir("/bin")
	v.Mkdir("/etc")
	if _, err := v.Open("/etc/motd", vfs.OCreat|vfs.OWrOnly, 0); err != nil {
		t.Fatalf("create: %v", err)
	}

	names, err := v.Readdir("/")
	if err != nil {
		t.Fatalf("readdir /: %v", err)
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["bin"] || !seen["etc"] {
		t.Fatalf("readdir / missing entries, got %v", names)
	}

	sub, err := v.Readdir("/etc")
	if err != nil || len(sub) != 1 || sub[0] != "motd" {
		t.Fatalf("readdir /etc = %v, err=%v", sub, err)
	}
}
