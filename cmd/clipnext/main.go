// clipnext: clipboard access over gRPC, HTTP and a local IPC socket.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clipnext",
		Short: "Clipboard access service",
		Long: `clipnext exposes the system clipboard (text, RTF, HTML, images and file
lists) to other processes, and notifies subscribers when it changes.

Run "clipnext serve" to start the service. The other sub-commands are
clients: they talk to a running service over the local IPC socket, or over
TCP when --server is given.

Config file search order (first found wins):
  /etc/clipnext/clipnext.toml
  $HOME/.config/clipnext/clipnext.toml
  path supplied via --config

All flags can be set via CLIPNEXT_<FLAG> env vars or config-file keys.
See "clipnext serve --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newHasCmd(),
		newReadCmd(),
		newWriteCmd(),
		newSnapshotCmd(),
		newWatchCmd(),
		newSimpleCmd("start-watch", "Start the clipboard change watcher", runStartWatch),
		newSimpleCmd("stop-watch", "Stop the clipboard change watcher", runStopWatch),
		newSimpleCmd("clear", "Clear the clipboard", runClear),
		newSimpleCmd("file-path", "Print the image cache directory", runFilePath),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clipnext %s\n", Version)
		},
	}
}
