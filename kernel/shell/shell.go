// Package shell implements the Shell Core component (spec §4.12): a line
// editor, a tokenizing parser with redirection support, a static built-in
// command registry, and the REPL loop that ties them together. It is the
// first task kernel/kmain spawns once the Task Model, VFS, and console are
// up, exactly as spec §2's control-flow summary requires ("first task =
// Shell").
package shell

import (
	"minios/kernel/fs/vfs"
	"minios/kernel/kerror"
	"minios/kernel/kfmt"
	"minios/kernel/mem/pmm"
	"minios/kernel/task"
)

const banner = "MiniOS Shell v1.0\n"
const prompt = "/MiniOS> "

// historyCapacity bounds the history ring; spec §9 calls the ShellContext
// "large (~4 KiB with a modest history)" and requires it be heap-allocated
// rather than stack-allocated, which New (returning a *Context) already
// gives us.
const historyCapacity = 32

// Context is spec §3's ShellContext: cwd, command buffer (folded into the
// line read each iteration), argv (local to dispatch), history ring,
// fd-table handle (via Task), and the redirection field §4.12 makes load
// bearing. It is owned by the shell task and freed when that task exits.
type Context struct {
	VFS  *vfs.VFS
	Task *task.Task
	PMM  *pmm.Allocator

	Cwd          string
	History      []string
	LastExitCode int

	// outputRedirectPath and outputAppend are the ShellContext fields
	// spec §4.12 requires: the parser sets them before invoking a
	// command and restores their previous value afterward. Built-ins
	// consult them through Output rather than re-parsing argv.
	outputRedirectPath string
	outputAppend       bool
	redirectOpened     bool

	inputRedirectPath string
}

// New allocates a Context rooted at "/" for VFS v. alloc is the caller's
// kernel/mem/pmm allocator, consulted by the `free` built-in; it may be nil
// in tests that do not exercise `free`.
func New(v *vfs.VFS, t *task.Task, alloc *pmm.Allocator) *Context {
	return &Context{
		VFS:  v,
		Task: t,
		PMM:  alloc,
		Cwd:  "/",
	}
}

// Run is the shell's REPL loop: read a line, parse it, dispatch to a
// built-in, repeat. It returns only when the `exit` built-in is invoked (or
// the underlying task is otherwise terminated), at which point the caller
// (kernel/kmain) is expected to let the task exit.
func Run(ctx *Context) {
	kfmt.Printf(banner)
	for {
		kfmt.Printf(prompt)
		line := readLine()
		ctx.pushHistory(line)

		argv, ok := parseLine(ctx, line)
		if !ok {
			kfmt.Printf("error: invalid argument: redirection missing target\n")
			continue
		}
		if len(argv) == 0 {
			continue
		}

		prevPath, prevAppend := ctx.outputRedirectPath, ctx.outputAppend
		ctx.redirectOpened = false

		code, shouldExit := dispatch(ctx, argv)
		ctx.LastExitCode = code

		// Restore per spec §4.12: "The parser restores the field to its
		// previous value after the command returns."
		ctx.outputRedirectPath, ctx.outputAppend = prevPath, prevAppend

		if shouldExit {
			return
		}
	}
}

func (c *Context) pushHistory(line string) {
	if line == "" {
		return
	}
	c.History = append(c.History, line)
	if len(c.History) > historyCapacity {
		c.History = c.History[len(c.History)-historyCapacity:]
	}
}

// Output is how every built-in produces output: straight to the console
// via kfmt, or into outputRedirectPath when the parser has set one. The
// first write under `>` truncates; every write under `>>`, or any write
// after the first under `>` in the same command, appends — so a command
// that emits output across several calls still produces one contiguous
// byte stream in the target file.
func (c *Context) Output(format string, args ...interface{}) {
	if c.outputRedirectPath == "" {
		kfmt.Printf(format, args...)
		return
	}

	flags := vfs.OWrOnly | vfs.OCreat
	if c.outputAppend || c.redirectOpened {
		flags |= vfs.OAppend
	} else {
		flags |= vfs.OTrunc
	}

	path := vfs.Canonicalize(c.Cwd, c.outputRedirectPath)
	f, err := c.VFS.Open(path, flags, 0o644)
	if err != nil {
		kfmt.Printf("error: %s: %s\n", err.Message, c.outputRedirectPath)
		return
	}
	kfmt.Fprintf(fileWriter{f}, format, args...)
	f.Close()
	c.redirectOpened = true
}

// reportErr prints the spec §7 user-visible failure format and returns the
// non-zero exit code every failing built-in reports.
func reportErr(ctx *Context, err *kerror.Error, context string) int {
	ctx.Output("error: %s: %s\n", err.Message, context)
	return 1
}

// fileWriter adapts a *vfs.OpenFile to io.Writer so kfmt.Fprintf (and any
// other io.Writer consumer) can target a redirected file.
type fileWriter struct{ f *vfs.OpenFile }

func (w fileWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, err
	}
	return n, nil
}
