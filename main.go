package main

import (
	"os"

	"VelSave/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
