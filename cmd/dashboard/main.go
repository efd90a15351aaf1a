package main

import (
	"os"

	"github.com/unclebandit/smsleopard-dashboard/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
