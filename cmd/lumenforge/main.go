// Command lumenforge is the CLI binary: render, serve, resume, status and
// checkpoints subcommands live in the sibling cmd package.
package main

import "github.com/cwbudde/lumenforge/cmd"

func main() {
	cmd.Main()
}
