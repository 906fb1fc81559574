package main

import (
	"os"

	"github.com/videotools/vcap/cmd"
)

func main() {
	root := cmd.CreateRootCmd()
	root.AddCommand(cmd.CreateDevicesCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
