package shell

import (
	"runtime"
	"strconv"
	"strings"

	"minios/kernel/driver/timer"
	"minios/kernel/fs/vfs"
	"minios/kernel/kfmt"
	"minios/kernel/syscall"
	"minios/kernel/task"
)

// Handler is a built-in command's entry point. It receives the shell
// Context and the command's argv (argv[0] is the command name, matching
// spec §4.12's "&mut ShellContext, argc, argv"); argc is simply len(argv)
// in this Go rendering. It returns the command's exit code.
type Handler func(ctx *Context, argv []string) int

type command struct {
	name    string
	help    string
	handler Handler
}

// registry is the static command table (spec §4.12: "A static table of
// {name, help, handler}"). Each built-in registers itself from its own
// init(), the same self-registration idiom the console/terminal drivers use
// (see e.g. the teacher's vesa_fb.go/vga_text.go init() functions); the
// table is fully populated before any shell task can run.
var registry []command

func register(name, help string, h Handler) {
	registry = append(registry, command{name: name, help: help, handler: h})
}

func lookup(name string) (command, bool) {
	for _, c := range registry {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// dispatch finds argv[0] in the registry and runs it, printing spec
// §6's "<name>: command not found" for an unknown command. shouldExit is
// true only for the `exit` built-in, telling Run to stop its REPL loop.
func dispatch(ctx *Context, argv []string) (code int, shouldExit bool) {
	cmd, ok := lookup(argv[0])
	if !ok {
		ctx.Output("%s: command not found\n", argv[0])
		return 1, false
	}
	return cmd.handler(ctx, argv), cmd.name == "exit"
}

func init() {
	register("cd", "change the working directory", cmdCd)
	register("pwd", "print the working directory", cmdPwd)
	register("ls", "list directory contents", cmdLs)
	register("cat", "print file contents", cmdCat)
	register("mkdir", "create a directory", cmdMkdir)
	register("rmdir", "remove an empty directory", cmdRmdir)
	register("rm", "remove a file", cmdRm)
	register("cp", "copy a file", cmdCp)
	register("mv", "rename or move a file", cmdMv)
	register("touch", "create an empty file", cmdTouch)
	register("echo", "print arguments", cmdEcho)
	register("clear", "clear the console", cmdClear)
	register("help", "list available commands", cmdHelp)
	register("exit", "terminate the shell", cmdExit)
	register("ps", "list tasks", cmdPs)
	register("free", "report memory usage", cmdFree)
	register("uname", "print kernel information", cmdUname)
	register("date", "print the time since boot", cmdDate)
	register("uptime", "print how long the system has been running", cmdUptime)
	register("strace", "toggle syscall tracing (on|off)", cmdStrace)
}

func cmdCd(ctx *Context, argv []string) int {
	target := "/"
	if len(argv) > 1 {
		target = argv[1]
	}
	canon := vfs.Canonicalize(ctx.Cwd, target)
	node, err := ctx.VFS.Resolve(canon)
	if err != nil {
		return reportErr(ctx, err, target)
	}
	if node.Type() != vfs.DirNode {
		ctx.Output("error: not a directory: %s\n", target)
		return 1
	}
	ctx.Cwd = canon
	return 0
}

func cmdPwd(ctx *Context, argv []string) int {
	ctx.Output("%s\n", ctx.Cwd)
	return 0
}

func cmdLs(ctx *Context, argv []string) int {
	target := ctx.Cwd
	if len(argv) > 1 {
		target = argv[1]
	}
	canon := vfs.Canonicalize(ctx.Cwd, target)
	names, err := ctx.VFS.Readdir(canon)
	if err != nil {
		return reportErr(ctx, err, target)
	}
	for _, name := range names {
		ctx.Output("%s\n", name)
	}
	return 0
}

func cmdCat(ctx *Context, argv []string) int {
	if len(argv) < 2 {
		ctx.Output("error: invalid argument: cat requires a path\n")
		return 1
	}
	code := 0
	for _, path := range argv[1:] {
		canon := vfs.Canonicalize(ctx.Cwd, path)
		f, err := ctx.VFS.Open(canon, vfs.ORdOnly, 0)
		if err != nil {
			code = reportErr(ctx, err, path)
			continue
		}
		var buf [512]byte
		for {
			n, rerr := f.Read(buf[:])
			if rerr != nil {
				code = reportErr(ctx, rerr, path)
				break
			}
			if n == 0 {
				break
			}
			ctx.Output("%s", string(buf[:n]))
		}
		f.Close()
	}
	return code
}

func cmdMkdir(ctx *Context, argv []string) int {
	if len(argv) < 2 {
		ctx.Output("error: invalid argument: mkdir requires a path\n")
		return 1
	}
	canon := vfs.Canonicalize(ctx.Cwd, argv[1])
	if err := ctx.VFS.Mkdir(canon); err != nil {
		return reportErr(ctx, err, argv[1])
	}
	return 0
}

func cmdRmdir(ctx *Context, argv []string) int {
	if len(argv) < 2 {
		ctx.Output("error: invalid argument: rmdir requires a path\n")
		return 1
	}
	canon := vfs.Canonicalize(ctx.Cwd, argv[1])
	if err := ctx.VFS.Rmdir(canon); err != nil {
		return reportErr(ctx, err, argv[1])
	}
	return 0
}

func cmdRm(ctx *Context, argv []string) int {
	if len(argv) < 2 {
		ctx.Output("error: invalid argument: rm requires a path\n")
		return 1
	}
	canon := vfs.Canonicalize(ctx.Cwd, argv[1])
	if err := ctx.VFS.Unlink(canon); err != nil {
		return reportErr(ctx, err, argv[1])
	}
	return 0
}

func cmdTouch(ctx *Context, argv []string) int {
	if len(argv) < 2 {
		ctx.Output("error: invalid argument: touch requires a path\n")
		return 1
	}
	canon := vfs.Canonicalize(ctx.Cwd, argv[1])
	f, err := ctx.VFS.Open(canon, vfs.ORdOnly|vfs.OCreat, 0o644)
	if err != nil {
		return reportErr(ctx, err, argv[1])
	}
	f.Close()
	return 0
}

// cmdCp implements the supplemented cp built-in (see DESIGN.md) purely
// atop open/read/write, matching how every other file-mutating built-in
// here rides the same three syscalls rather than a dedicated copy call.
func cmdCp(ctx *Context, argv []string) int {
	if len(argv) < 3 {
		ctx.Output("error: invalid argument: cp requires a source and destination\n")
		return 1
	}
	srcCanon := vfs.Canonicalize(ctx.Cwd, argv[1])
	dstCanon := vfs.Canonicalize(ctx.Cwd, argv[2])

	src, err := ctx.VFS.Open(srcCanon, vfs.ORdOnly, 0)
	if err != nil {
		return reportErr(ctx, err, argv[1])
	}
	defer src.Close()

	dst, err := ctx.VFS.Open(dstCanon, vfs.OWrOnly|vfs.OCreat|vfs.OTrunc, 0o644)
	if err != nil {
		return reportErr(ctx, err, argv[2])
	}
	defer dst.Close()

	var buf [512]byte
	for {
		n, rerr := src.Read(buf[:])
		if rerr != nil {
			return reportErr(ctx, rerr, argv[1])
		}
		if n == 0 {
			return 0
		}
		if _, werr := dst.Write(buf[:n]); werr != nil {
			return reportErr(ctx, werr, argv[2])
		}
	}
}

func cmdMv(ctx *Context, argv []string) int {
	if len(argv) < 3 {
		ctx.Output("error: invalid argument: mv requires a source and destination\n")
		return 1
	}
	srcCanon := vfs.Canonicalize(ctx.Cwd, argv[1])
	dstCanon := vfs.Canonicalize(ctx.Cwd, argv[2])
	if err := ctx.VFS.Rename(srcCanon, dstCanon); err != nil {
		return reportErr(ctx, err, argv[1])
	}
	return 0
}

func cmdEcho(ctx *Context, argv []string) int {
	ctx.Output("%s\n", strings.Join(argv[1:], " "))
	return 0
}

func cmdClear(ctx *Context, argv []string) int {
	// Clearing the console is meaningless when redirected to a file; it
	// always targets the terminal directly rather than going through
	// Output, unlike every other built-in here.
	kfmt.Printf("\x1b[2J\x1b[H")
	return 0
}

func cmdHelp(ctx *Context, argv []string) int {
	for _, c := range registry {
		ctx.Output("%s %s\n", padRight(c.name, 8), c.help)
	}
	return 0
}

// padRight appends spaces until s is at least width bytes; kfmt.Printf only
// right-justifies its own %-width verbs, so the column layout ps/help print
// is built by hand rather than with a left-align flag kfmt doesn't support.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func cmdExit(ctx *Context, argv []string) int {
	code := 0
	if len(argv) > 1 {
		if n, err := strconv.Atoi(argv[1]); err == nil {
			code = n
		}
	}
	return code
}

func cmdPs(ctx *Context, argv []string) int {
	ctx.Output("%s %s %s %s\n", padRight("PID", 6), padRight("NAME", 12), padRight("STATE", 8), "PRIO")
	for _, info := range task.ListTasks() {
		ctx.Output("%s %s %s %d\n",
			padRight(strconv.FormatUint(uint64(info.PID), 10), 6),
			padRight(info.Name, 12),
			padRight(info.State.String(), 8),
			info.Priority)
	}
	return 0
}

func cmdFree(ctx *Context, argv []string) int {
	if ctx.PMM == nil {
		ctx.Output("error: not permitted: no physical allocator attached\n")
		return 1
	}
	const kbPerFrame = 4
	total := ctx.PMM.TotalFrames() * kbPerFrame
	free := ctx.PMM.FreeFrames() * kbPerFrame
	ctx.Output("total: %d kB  used: %d kB  free: %d kB\n", total, total-free, free)
	return 0
}

// cmdStrace toggles kernel/syscall's dispatch trace line, which logs each
// syscall by the name syscall.Name assigns it (spec §4.9's numbered table).
// With no argument it reports the current state.
func cmdStrace(ctx *Context, argv []string) int {
	if len(argv) < 2 {
		state := "off"
		if syscall.Tracing() {
			state = "on"
		}
		ctx.Output("strace is %s\n", state)
		return 0
	}
	switch argv[1] {
	case "on":
		syscall.SetTrace(true)
	case "off":
		syscall.SetTrace(false)
	default:
		ctx.Output("error: invalid argument: strace requires on or off\n")
		return 1
	}
	return 0
}

func cmdUname(ctx *Context, argv []string) int {
	ctx.Output("MiniOS 1.0 %s\n", runtime.GOARCH)
	return 0
}

func cmdDate(ctx *Context, argv []string) int {
	ctx.Output("MiniOS has no real-time clock; time since boot: %s\n", formatDuration(timer.NowUS()))
	return 0
}

func cmdUptime(ctx *Context, argv []string) int {
	ctx.Output("up %s\n", formatDuration(timer.NowUS()))
	return 0
}

// formatDuration renders microseconds since boot as hh:mm:ss; this core has
// no RTC driver (spec does not name one), so `date`/`uptime` both report
// boot-relative elapsed time rather than a wall-clock value.
func formatDuration(us uint64) string {
	totalSeconds := us / 1_000_000
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return pad2(h) + ":" + pad2(m) + ":" + pad2(s)
}

func pad2(v uint64) string {
	s := strconv.FormatUint(v, 10)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}
