package main

import (
	"context"
	"flag"
	"os"
	"os/exec"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

type runCommand struct {
	arch     string
	isoPath  string
	diskPath string
}

func (*runCommand) Name() string     { return "run" }
func (*runCommand) Synopsis() string { return "boot a packaged MiniOS image under QEMU with serial on stdio" }
func (*runCommand) Usage() string {
	return "run -arch amd64|arm64 -iso minios.iso [-disk sfs.img]\n"
}

func (c *runCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.arch, "arch", "amd64", "target architecture: amd64 or arm64")
	f.StringVar(&c.isoPath, "iso", "minios.iso", "bootable ISO produced by the iso subcommand")
	f.StringVar(&c.diskPath, "disk", "", "optional SFS disk image produced by the sfs subcommand")
}

// Execute launches QEMU the way a developer would from the command line,
// wiring the shell's serial console (spec §4.12's external interface) to
// the invoking terminal so the interactive shell is immediately usable.
func (c *runCommand) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logrus.WithField("cmd", "run")

	binary, args, err := qemuInvocation(c.arch, c.isoPath, c.diskPath)
	if err != nil {
		log.WithError(err).Error("unsupported configuration")
		return subcommands.ExitFailure
	}

	log.WithFields(logrus.Fields{"binary": binary, "args": args}).Info("launching QEMU")

	cmd := exec.Command(binary, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		log.WithError(err).Error("qemu exited with an error")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func qemuInvocation(arch, isoPath, diskPath string) (string, []string, error) {
	var binary string
	args := []string{"-serial", "stdio", "-display", "none", "-cdrom", isoPath}

	switch arch {
	case "amd64":
		binary = "qemu-system-x86_64"
	case "arm64":
		binary = "qemu-system-aarch64"
		args = append(args, "-M", "virt", "-cpu", "cortex-a57")
	default:
		return "", nil, errUnsupportedArch(arch)
	}

	if diskPath != "" {
		args = append(args, "-drive", "file="+diskPath+",format=raw,if=none,id=sfsdisk", "-device", "virtio-blk-device,drive=sfsdisk")
	}

	return binary, args, nil
}

type errUnsupportedArch string

func (e errUnsupportedArch) Error() string {
	return "mkimage: unsupported architecture " + string(e)
}
