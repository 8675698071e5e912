// Package kmain wires every other kernel/ package into the boot sequence
// spec §2 lays out: Boot Handoff -> Physical Allocator -> Address Space ->
// Heap -> Trap Vectors -> Interrupt Controller -> Timer/UART -> Device
// Registry -> Task Model -> Block+VFS (RAMFS mounted at "/") -> Syscall
// Dispatch -> first task = Shell. It is the package every other kernel/
// package's doc comment means by "kernel/kmain constructs" the shared
// VFS/Registry/syscall.Implementation instances — the same role gopher-os's
// kernel/kmain.Kmain plays as the one function the rt0 stub calls and every
// subsystem's Init is sequenced from.
package kmain

import (
	"minios/kernel/boot"
	"minios/kernel/cpu"
	"minios/kernel/device"
	"minios/kernel/driver/uart"
	"minios/kernel/fs/blockdev"
	"minios/kernel/fs/ramfs"
	"minios/kernel/fs/sfs"
	"minios/kernel/fs/vfs"
	"minios/kernel/goruntime"
	"minios/kernel/intc"
	"minios/kernel/kerror"
	"minios/kernel/kfmt"
	"minios/kernel/kmalloc"
	"minios/kernel/mem"
	"minios/kernel/mem/pmm"
	"minios/kernel/mem/vmm"
	"minios/kernel/shell"
	"minios/kernel/task"
)

// heapPages sizes the kmalloc backing region reserved from the physical
// allocator at boot. A teaching kernel's shell, its fd tables and RAMFS
// inodes comfortably fit in a few MiB; spec §4.7 leaves the exact size
// unspecified, only the alignment/overlap/bounds-checking properties.
const heapPages = 2048 // 8 MiB at 4 KiB pages

// sfsDiskBlocks sizes the RAM-disk SFS mounts over at "/mnt", purely to
// exercise the BlockDevice interface end to end per spec §6/§12 — this core
// does not ship SFS as the boot root.
const sfsDiskBlocks = 4096 // 2 MiB at blockdev.BlockSize

// directMapBase is the fixed virtual offset kmain identity-maps all of
// physical memory at, replacing gopher-os's x86-only recursive self-map
// (see kernel/mem/vmm's package doc) with a direct map both supported
// architectures share.
const directMapBase = 0xFFFF_8000_0000_0000

// errKmainReturned mirrors gopher-os's errKmainReturned: Kmain must never
// return to its caller (the rt0 stub has nothing sensible to do with
// control flow that falls out of the kernel), so falling off the end is
// itself treated as a fatal, reported condition.
var errKmainReturned = &kerror.Error{Module: "kmain", Message: "Kmain returned"}

// global kernel singletons, constructed once by Init and referenced by the
// Implementation closures this package builds for kernel/syscall. Per spec
// §9's "globals as explicit types", these live behind this package rather
// than as package-level zero-value vars elsewhere: every other kernel/
// package stays instance-based and importable from unit tests without this
// boot sequence ever running.
var (
	physAlloc pmm.Allocator
	addrSpace *vmm.AddressSpace
	heap      kmalloc.Heap
	registry  device.Registry
	fsys      *vfs.VFS
)

// frameAlloc adapts physAlloc to vmm.FrameAllocatorFn.
func frameAlloc() (pmm.Frame, *kerror.Error) {
	return physAlloc.Alloc(1, 1)
}

// Kmain is the Go symbol the platform-specific rt0 stub (out of scope per
// spec §1: "boot stubs... external collaborator") calls after establishing
// a minimal stack. bootInfoPtr is the raw address of the architecture's
// native boot structure (a Multiboot2 info block on amd64, a flattened
// device tree on arm64); kernelStart/kernelEnd are the physical addresses
// the linker script reports the kernel image itself occupies, force-
// reserved per spec §4.1 regardless of what the memory map claims.
//
// Kmain never returns.
func Kmain(bootInfoPtr, kernelStart, kernelEnd uintptr) {
	info, err := parseBootInfo(bootInfoPtr)
	if err != nil {
		kfmt.Panic(err)
	}

	initMemory(info, kernelStart, kernelEnd)
	installTrapTable()
	intc.Init(newInterruptController())
	registerDrivers(&registry)
	registerDevices(&registry)
	kfmt.SetOutputSink(uart.Writer{})
	cpu.EnableInterrupts()

	task.Init()
	initVFS()
	initSyscalls()
	spawnShell()

	kfmt.Panic(errKmainReturned)
}

// initMemory brings up the Physical Allocator, a direct map of all
// physical memory at directMapBase (replacing gopher-os's amd64-only
// recursive self-map, see kernel/mem/vmm's doc comment), an identity map of
// the kernel image itself so execution can continue once paging activates,
// and the kernel heap — in the order spec §2 requires.
func initMemory(info *boot.Info, kernelStart, kernelEnd uintptr) {
	visitAvailable := func(fn func(base, length uint64) bool) {
		info.VisitAvailable(func(r boot.MemoryRegion) bool {
			return fn(r.PhysBase, r.Length)
		})
	}
	physAlloc.Init(visitAvailable, pmm.FrameFromAddress(kernelStart), pmm.FrameFromAddress(kernelEnd))

	var allocErr *kerror.Error
	addrSpace, allocErr = vmm.New(frameAlloc)
	if allocErr != nil {
		kfmt.Panic(allocErr)
	}

	info.VisitAvailable(func(r boot.MemoryRegion) bool {
		mapRun(uintptr(r.PhysBase), directMapBase, mem.Size(r.Length).Pages(), vmm.FlagRW|vmm.FlagNoExecute)
		return true
	})

	// Identity-map the kernel's own image (code+rodata executable, no
	// NX) so the instruction pointer stays valid across Activate; spec
	// §4.2's policy ("kernel code+rodata mapped RX") is approximated
	// here at image granularity rather than per-section, since the
	// linker-provided section boundaries are themselves an external,
	// platform-stub concern (spec §1).
	kernelPages := mem.Size(kernelEnd-kernelStart).Pages()
	mapRun(kernelStart, 0, kernelPages, vmm.FlagRW)

	addrSpace.Activate()
	vmm.SetPhysToVirt(func(f pmm.Frame) uintptr { return directMapBase + f.Address() })

	goruntime.FrameAllocFn = frameAlloc
	goruntime.MapFn = func(page vmm.Page, frame pmm.Frame, flags vmm.PageTableEntryFlag) *kerror.Error {
		return addrSpace.Map(page, frame, vmm.FlagPresent|flags, frameAlloc, true)
	}

	heapBase, allocErr := physAlloc.Alloc(heapPages, 1)
	if allocErr != nil {
		kfmt.Panic(allocErr)
	}
	heap.Init(directMapBase+heapBase.Address(), mem.PageSize*heapPages)
}

// mapRun installs a contiguous identity-offset mapping of pageCount pages
// starting at physBase, placed at virtOffset+physBase.
func mapRun(physBase uintptr, virtOffset uintptr, pageCount uint32, flags vmm.PageTableEntryFlag) {
	startFrame := pmm.FrameFromAddress(physBase)
	for i := uint32(0); i < pageCount; i++ {
		frame := pmm.Frame(uint64(startFrame) + uint64(i))
		page := vmm.PageFromAddress(virtOffset + frame.Address())
		if err := addrSpace.Map(page, frame, vmm.FlagPresent|flags, frameAlloc, true); err != nil {
			kfmt.Panic(err)
		}
	}
}

// initVFS mounts RAMFS at "/", seeds its standard skeleton (spec §4.11),
// and registers+mounts SFS over a RAM-disk-backed BlockDevice at "/mnt" to
// exercise the block-device path end to end (spec §6/§12) without making
// SFS the boot root.
func initVFS() {
	fsys = vfs.New()
	fsys.RegisterType(ramfs.FileSystemType{})
	fsys.RegisterType(sfs.FileSystemType{})

	if err := fsys.Mount("ramfs", "/", nil); err != nil {
		kfmt.Panic(err)
	}
	seedRoot()

	if err := fsys.Mkdir("/mnt"); err != nil {
		kfmt.Panic(err)
	}
	disk := blockdev.NewRAMDisk(sfsDiskBlocks)
	if err := fsys.Mount("sfs", "/mnt", disk); err != nil {
		kfmt.Panic(err)
	}
}

// seedRoot pre-populates the freshly mounted root with the standard
// directory skeleton and welcome file spec §4.11 requires at boot, driven
// through the public VFS surface (the same open/mkdir operations a shell
// command would issue) rather than ramfs-internal types, since the
// concrete *ramfs.FS the VFS just mounted is not otherwise observable from
// outside the ramfs package.
func seedRoot() {
	for _, dir := range []string{"/bin", "/etc", "/tmp", "/home", "/dev"} {
		if err := fsys.Mkdir(dir); err != nil {
			kfmt.Panic(err)
		}
	}

	f, err := fsys.Open("/welcome.txt", vfs.OWrOnly|vfs.OCreat|vfs.OTrunc, 0o644)
	if err != nil {
		kfmt.Panic(err)
	}
	if _, err := f.Write([]byte("Welcome to MiniOS.\n")); err != nil {
		kfmt.Panic(err)
	}
}

// spawnShell allocates the shell's Context and spawns it as the first
// task, per spec §2's control-flow summary ("first task = Shell").
func spawnShell() {
	if _, err := task.Spawn("shell", task.PriorityNormal, runShell); err != nil {
		kfmt.Panic(err)
	}
}

func runShell() {
	ctx := shell.New(fsys, task.Current(), &physAlloc)
	shell.Run(ctx)
	task.Exit()
}
