// Command mkimage packages a built MiniOS kernel binary into a bootable
// image: an SFS-formatted disk seeded from a build manifest, a GRUB
// multiboot2 ISO for the amd64 target, or a direct QEMU smoke-test run of
// either. It is a hosted build-machine tool (spec.md §1 scopes ISO/image
// packaging as an external collaborator "specified only at its interface")
// with a full OS underneath, unlike everything under kernel/.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&sfsCommand{}, "")
	subcommands.Register(&isoCommand{}, "")
	subcommands.Register(&runCommand{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
