// This program runs simulations offline and manages rules files.
package main

import "github.com/ardanlabs/argonsim/app/tooling/simctl/cmd"

func main() {
	cmd.Execute()
}
