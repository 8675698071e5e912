package kmain

import (
	"unsafe"

	"minios/kernel/driver/timer"
	"minios/kernel/fs/vfs"
	"minios/kernel/kerror"
	"minios/kernel/syscall"
	"minios/kernel/task"
)

// initSyscalls builds kernel/syscall's Implementation from the VFS and Task
// Model instances this package owns, and freezes the table (spec §4.9: the
// table is populated at init and never mutated afterward).
//
// MiniOS's syscall surface is a dispatch surface rather than a hardened
// privilege boundary (spec §1 non-goals), so argument pointers are
// dereferenced directly via unsafe rather than copied in/out through a
// user/kernel boundary check — there is no second address space to cross.
func initSyscalls() {
	syscall.Init(syscall.Implementation{
		Exit:     sysExit,
		Print:    sysPrint,
		Read:     sysRead,
		Write:    sysWrite,
		Getpid:   sysGetpid,
		Sleep:    sysSleep,
		Open:     sysOpen,
		Close:    sysClose,
		ReadFile: sysRead,
		WriteFile: sysWrite,
		Seek:     sysSeek,
		Mkdir:    sysMkdir,
		Rmdir:    sysRmdir,
		Unlink:   sysUnlink,
		Getcwd:   sysGetcwd,
		Chdir:    sysChdir,
		Stat:     sysStat,
		Readdir:  sysReaddir,
		Exec:     sysExec,
	})
}

// userBytes views a (pointer, length) argument pair as a byte slice. Valid
// only because MiniOS has no separate user address space to fault against
// (spec §1 non-goals); a hardened port would copy through a checked
// copyin/copyout pair here instead.
func userBytes(ptr int64, length int64) []byte {
	if ptr == 0 || length <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), int(length))
}

// userString reads a NUL-terminated string starting at ptr, used by the
// path-taking syscalls (open/mkdir/rmdir/unlink/chdir/stat/readdir), whose
// argument registers carry a C-style string pointer rather than a
// (pointer, length) pair.
func userString(ptr int64) string {
	if ptr == 0 {
		return ""
	}
	p := (*byte)(unsafe.Pointer(uintptr(ptr)))
	n := 0
	for *(*byte)(unsafe.Pointer(uintptr(ptr) + uintptr(n))) != 0 {
		n++
	}
	return unsafe.String(p, n)
}

func canonicalize(path string) string {
	return vfs.Canonicalize(task.Current().Cwd(), path)
}

func sysExit(args [6]int64) int64 {
	task.Exit()
	return 0 // unreached: Exit never returns
}

func sysPrint(args [6]int64) int64 {
	return sysWrite([6]int64{1, args[0], args[1]})
}

func sysGetpid(args [6]int64) int64 {
	return int64(task.Current().PID)
}

func sysSleep(args [6]int64) int64 {
	ms := args[0]
	task.SleepUntil(timer.NowUS() + uint64(ms)*1000)
	return 0
}

func fileForFd(fd int64) (*vfs.OpenFile, int64) {
	v, ok := task.Current().Fds().Get(int(fd))
	if !ok {
		return nil, int64(kerror.EBADF)
	}
	f, ok := v.(*vfs.OpenFile)
	if !ok {
		return nil, int64(kerror.EBADF)
	}
	return f, 0
}

func sysRead(args [6]int64) int64 {
	f, errno := fileForFd(args[0])
	if f == nil {
		return errno
	}
	buf := userBytes(args[1], args[2])
	n, err := f.Read(buf)
	if err != nil {
		return int64(kerror.ToErrno(err))
	}
	return int64(n)
}

func sysWrite(args [6]int64) int64 {
	f, errno := fileForFd(args[0])
	if f == nil {
		return errno
	}
	buf := userBytes(args[1], args[2])
	n, err := f.Write(buf)
	if err != nil {
		return int64(kerror.ToErrno(err))
	}
	return int64(n)
}

func sysOpen(args [6]int64) int64 {
	path := canonicalize(userString(args[0]))
	f, err := fsys.Open(path, int(args[1]), uint32(args[2]))
	if err != nil {
		return int64(kerror.ToErrno(err))
	}
	return int64(task.Current().Fds().Alloc(f))
}

func sysClose(args [6]int64) int64 {
	fd := int(args[0])
	if _, ok := task.Current().Fds().Get(fd); !ok {
		return int64(kerror.EBADF)
	}
	task.Current().Fds().Release(fd)
	return 0
}

func sysSeek(args [6]int64) int64 {
	f, errno := fileForFd(args[0])
	if f == nil {
		return errno
	}
	pos, err := f.Seek(args[1], int(args[2]))
	if err != nil {
		return int64(kerror.ToErrno(err))
	}
	return pos
}

func sysMkdir(args [6]int64) int64 {
	if err := fsys.Mkdir(canonicalize(userString(args[0]))); err != nil {
		return int64(kerror.ToErrno(err))
	}
	return 0
}

func sysRmdir(args [6]int64) int64 {
	if err := fsys.Rmdir(canonicalize(userString(args[0]))); err != nil {
		return int64(kerror.ToErrno(err))
	}
	return 0
}

func sysUnlink(args [6]int64) int64 {
	if err := fsys.Unlink(canonicalize(userString(args[0]))); err != nil {
		return int64(kerror.ToErrno(err))
	}
	return 0
}

func sysGetcwd(args [6]int64) int64 {
	cwd := task.Current().Cwd()
	buf := userBytes(args[0], args[1])
	if len(buf) < len(cwd)+1 {
		return int64(kerror.ENOSPC)
	}
	n := copy(buf, cwd)
	buf[n] = 0
	return int64(n)
}

func sysChdir(args [6]int64) int64 {
	path := canonicalize(userString(args[0]))
	node, err := fsys.Resolve(path)
	if err != nil {
		return int64(kerror.ToErrno(err))
	}
	if node.Type() != vfs.DirNode {
		return int64(kerror.ENOTDIR)
	}
	task.Current().SetCwd(path)
	return 0
}

// statBuf mirrors spec §6's stat output layout: {inode, mode, size, nlink,
// atime, mtime, ctime}. MiniOS does not track per-inode timestamps or link
// counts beyond what kernel/fs/vfs.Dirent exposes (Name/Type/Size), so the
// timestamp/nlink/inode fields are zero-filled placeholders rather than
// fabricated values — a caller inspecting them learns "not tracked", not a
// plausible-looking lie.
type statBuf struct {
	Inode uint64
	Mode  uint32
	Size  int64
	Nlink uint32
	Atime uint64
	Mtime uint64
	Ctime uint64
}

func sysStat(args [6]int64) int64 {
	path := canonicalize(userString(args[0]))
	typ, size, err := fsys.Stat(path)
	if err != nil {
		return int64(kerror.ToErrno(err))
	}
	mode := uint32(0o644)
	if typ == vfs.DirNode {
		mode = 0o040755
	} else {
		mode |= 0o100000
	}
	out := (*statBuf)(unsafe.Pointer(uintptr(args[1])))
	*out = statBuf{Mode: mode, Size: size}
	return 0
}

// sysReaddir takes a path (not an fd, unlike read/write) and a destination
// buffer, and packs the directory's entry names into it NUL-separated,
// mirroring getdents(2)'s "caller-owned buffer, kernel decides how many
// entries fit" contract rather than returning a Go-level []string across
// the syscall boundary, which spec §4.9's fixed six-int64-argument Handler
// signature has no room for.
func sysReaddir(args [6]int64) int64 {
	path := canonicalize(userString(args[0]))
	names, err := fsys.Readdir(path)
	if err != nil {
		return int64(kerror.ToErrno(err))
	}

	buf := userBytes(args[1], args[2])
	off := 0
	count := 0
	for _, name := range names {
		if off+len(name)+1 > len(buf) {
			break
		}
		off += copy(buf[off:], name)
		buf[off] = 0
		off++
		count++
	}
	return int64(count)
}

func sysExec(args [6]int64) int64 {
	// Dynamic linking / loading of user programs is out of scope (spec
	// §1 non-goals: "dynamic linking of user programs"); exec is
	// registered to keep the numbered table complete per spec §4.9 but
	// reports ENOSYS until a loader exists.
	return int64(kerror.ENOSYS)
}
