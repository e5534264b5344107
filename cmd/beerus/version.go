package main

import (
	"fmt"

	"github.com/eigerco/beerus"
	"github.com/urfave/cli"
)

var versionCMD = cli.Command{
	Name:  "version",
	Usage: "Show version about beerus",
	Action: func(ctx *cli.Context) error {
		fmt.Print(getVersion(true))

		return nil
	},
}

func getVersion(all bool) string {
	version := fmt.Sprintf("Beerus version: %s\n", beerus.Version())
	if all {
		version += fmt.Sprintf("App build date: %s\n", beerus.BuildDate)
		version += fmt.Sprintf("System version: %s\n", beerus.Platform)
		version += fmt.Sprintf("Golang version: %s\n", beerus.GoVersion)
	}

	return version
}
