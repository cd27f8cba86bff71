package main

import (
	"os"

	"github.com/dirwatch/dirwatch/cmd/dirwatchctl/dirwatchctlcmd"
)

func main() {
	os.Exit(dirwatchctlcmd.Main())
}
