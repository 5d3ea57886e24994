// Command shepherdsim drives an OptTagStore from a trace file of
// (address, owner) accesses and reports final replacement statistics,
// the way an akita example binary wires a component tree from a
// command tree and a .env file before running it.
package main

import "github.com/sarchlab/shepherdtags/cmd/shepherdsim/cmd"

func main() {
	cmd.Execute()
}
