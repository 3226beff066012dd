// Command nodeflow edits NodeFlow project files from the command line.
package main

import "github.com/mesh-intelligence/nodeflow/internal/cli"

func main() {
	cli.Execute()
}
