// The main package for the harvester executable.
package main

import (
	"github.com/jobscope/harvester/cmd"
)

func main() {
	cmd.Execute()
}
