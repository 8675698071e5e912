package ramfs

import (
	"testing"

	"minios/kernel/fs/vfs"
)

func newMounted(t *testing.T) *FS {
	t.Helper()
	fsys, err := (FileSystemType{}).Mount(nil)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	return fsys.(*FS)
}

func TestSeedCreatesStandardSkeleton(t *testing.T) {
	fsys := newMounted(t)
	if err := Seed(fsys); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, name := range []string{"bin", "etc", "tmp", "home", "dev"} {
		child, err := fsys.Root().Lookup(name)
		if err != nil {
			t.Fatalf("lookup %q: %v", name, err)
		}
		if child.Type() != vfs.DirNode {
			t.Fatalf("%q is not a directory", name)
		}
	}

	welcome, err := fsys.Root().Lookup("welcome.txt")
	if err != nil {
		t.Fatalf("lookup welcome.txt: %v", err)
	}
	buf := make([]byte, 64)
	n, err := welcome.ReadAt(buf, 0)
	if err != nil {
		t.Fatalf("read welcome.txt: %v", err)
	}
	if string(buf[:n]) != "Welcome to MiniOS.\n" {
		t.Fatalf("unexpected welcome contents: %q", buf[:n])
	}
}

func TestMkdirThenUnlinkRoundTrip(t *testing.T) {
	fsys := newMounted(t)
	if _, err := fsys.Root().Mkdir("projects"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := fsys.Root().Unlink("projects"); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if _, err := fsys.Root().Lookup("projects"); err == nil {
		t.Fatalf("expected projects to be gone")
	}
}

func TestUnlinkNonEmptyDirectoryFails(t *testing.T) {
	fsys := newMounted(t)
	dir, _ := fsys.Root().Mkdir("d")
	if _, err := dir.Create("f"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := fsys.Root().Unlink("d"); err == nil {
		t.Fatalf("expected unlink of a non-empty directory to fail")
	}
}

func TestWriteGrowsBufferIn4KiBIncrements(t *testing.T) {
	fsys := newMounted(t)
	f, _ := fsys.Root().Create("big")

	payload := make([]byte, 5000)
	for i := range payload {
		payload[i] = byte(i)
	}
	n, err := f.WriteAt(payload, 0)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("wrote %d bytes, want %d", n, len(payload))
	}
	if f.Size() != 5000 {
		t.Fatalf("Size() = %d, want 5000", f.Size())
	}
	if c := cap(f.(*inode).data); c != 8192 {
		t.Fatalf("buffer capacity = %d, want 8192 (two 4 KiB steps)", c)
	}

	out := make([]byte, 5000)
	n, err = f.ReadAt(out, 0)
	if err != nil || n != 5000 {
		t.Fatalf("read back: n=%d err=%v", n, err)
	}
	for i := range out {
		if out[i] != byte(i) {
			t.Fatalf("data mismatch at %d: got %d want %d", i, out[i], byte(i))
		}
	}
}

func TestRenameMovesAcrossDirectories(t *testing.T) {
	fsys := newMounted(t)
	src, _ := fsys.Root().Mkdir("src")
	dst, _ := fsys.Root().Mkdir("dst")
	src.Create("file.txt")

	if err := src.Rename("file.txt", dst, "moved.txt"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := src.Lookup("file.txt"); err == nil {
		t.Fatalf("expected file.txt gone from src")
	}
	if _, err := dst.Lookup("moved.txt"); err != nil {
		t.Fatalf("expected moved.txt in dst: %v", err)
	}
}

func TestTruncateShrinksAndExtends(t *testing.T) {
	fsys := newMounted(t)
	f, _ := fsys.Root().Create("t")
	f.WriteAt([]byte("hello world"), 0)

	if err := f.Truncate(5); err != nil {
		t.Fatalf("truncate down: %v", err)
	}
	if f.Size() != 5 {
		t.Fatalf("Size() = %d, want 5", f.Size())
	}

	if err := f.Truncate(10); err != nil {
		t.Fatalf("truncate up: %v", err)
	}
	if f.Size() != 10 {
		t.Fatalf("Size() = %d, want 10", f.Size())
	}
}
