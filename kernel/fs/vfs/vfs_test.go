package vfs_test

import (
	"testing"

	"minios/kernel/fs/ramfs"
	"minios/kernel/fs/vfs"
)

func newRootedVFS(t *testing.T) *vfs.VFS {
	t.Helper()
	v := vfs.New()
	v.RegisterType(ramfs.FileSystemType{})
	if err := v.Mount("ramfs", "/", nil); err != nil {
		t.Fatalf("mount /: %v", err)
	}
	return v
}

func TestCanonicalize(t *testing.T) {
	cases := []struct{ cwd, path, want string }{
		{"/", "foo", "/foo"},
		{"/home/user", "foo", "/home/user/foo"},
		{"/home/user", "/etc", "/etc"},
		{"/home/user", "..", "/home"},
		{"/", "..", "/"},
		{"/a/b", "../../c", "/c"},
		{"/a", "./b/./c", "/a/b/c"},
		{"/", "/", "/"},
	}
	for _, c := range cases {
		if got := vfs.Canonicalize(c.cwd, c.path); got != c.want {
			t.Errorf("Canonicalize(%q, %q) = %q, want %q", c.cwd, c.path, got, c.want)
		}
	}
}

func TestOpenCreateWriteReadRoundTrip(t *testing.T) {
	v := newRootedVFS(t)

	f, err := v.Open("/hello.txt", vfs.OCreat|vfs.OWrOnly, 0)
	if err != nil {
		t.Fatalf("open for create: %v", err)
	}
	if _, err := f.Write([]byte("hi there")); err != nil {
		t.Fatalf("write: %v", err)
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
	if string(buf[:n]) != "hi there" {
		t.Fatalf("got %q", buf[:n])
	}
}

func TestOpenMissingWithoutCreateFails(t *testing.T) {
	v := newRootedVFS(t)
	if _, err := v.Open("/nope.txt", vfs.ORdOnly, 0); err == nil {
		t.Fatalf("expected ENOENT opening a missing file without OCreat")
	}
}

func TestMkdirRmdirRoundTrip(t *testing.T) {
	v := newRootedVFS(t)
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
	v := newRootedVFS(t)
	v.Mkdir("/d")
	if _, err := v.Open("/d/f", vfs.OCreat|vfs.OWrOnly, 0); err != nil {
		t.Fatalf("create file in /d: %v", err)
	}
	if err := v.Rmdir("/d"); err == nil {
		t.Fatalf("expected rmdir of a non-empty directory to fail")
	}
}

func TestRenameAcrossDirectories(t *testing.T) {
	v := newRootedVFS(t)
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
		t.Fatalf("expected the old path to be gone")
	}
}

func TestReaddirListsPreSeededSkeletonAfterManualPopulation(t *testing.T) {
	v := newRootedVFS(t)
	v.Mkdir("/bin")
	v.Mkdir("/etc")

	names, err := v.Readdir("/")
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	want := map[string]bool{"bin": true, "etc": true}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	for name := range want {
		if !seen[name] {
			t.Fatalf("Readdir missing %q, got %v", name, names)
		}
	}
}

func TestSeekModes(t *testing.T) {
	v := newRootedVFS(t)
	f, _ := v.Open("/s.txt", vfs.OCreat|vfs.OWrOnly, 0)
	f.Write([]byte("0123456789"))

	if pos, err := f.Seek(3, vfs.SeekSet); err != nil || pos != 3 {
		t.Fatalf("SeekSet: pos=%d err=%v", pos, err)
	}
	if pos, err := f.Seek(2, vfs.SeekCur); err != nil || pos != 5 {
		t.Fatalf("SeekCur: pos=%d err=%v", pos, err)
	}
	if pos, err := f.Seek(-1, vfs.SeekEnd); err != nil || pos != 9 {
		t.Fatalf("SeekEnd: pos=%d err=%v", pos, err)
	}
}

func TestLongestPrefixMountWins(t *testing.T) {
	v := vfs.New()
	v.RegisterType(ramfs.FileSystemType{})
	if err := v.Mount("ramfs", "/", nil); err != nil {
		t.Fatalf("mount /: %v", err)
	}
	v.Mkdir("/mnt")
	if err := v.Mount("ramfs", "/mnt", nil); err != nil {
		t.Fatalf("mount /mnt: %v", err)
	}

	if _, err := v.Open("/mnt/only-here.txt", vfs.OCreat|vfs.OWrOnly, 0); err != nil {
		t.Fatalf("create under /mnt: %v", err)
	}
	if _, _, err := v.Stat("/only-here.txt"); err == nil {
		t.Fatalf("the root mount must not see files created under /mnt's own fs instance")
	}
}
