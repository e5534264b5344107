package main

import (
	"os"
	"time"

	"github.com/eigerco/beerus"
	"github.com/fatih/color"
	"github.com/meshplus/bitxhub-kit/log"
	"github.com/urfave/cli"
)

var logger = log.NewWithModule("cmd")

func main() {
	app := cli.NewApp()
	app.Name = "Beerus"
	app.Usage = "A trustless Starknet JSON-RPC gateway"
	app.Compiled = time.Now()
	app.Version = beerus.Version()

	// global flags
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "repo",
			Usage: "Beerus repository path",
		},
		configFlag,
	}

	app.Commands = []cli.Command{
		configCMD,
		initCMD,
		startCMD,
		versionCMD,
	}
	app.Action = start

	err := app.Run(os.Args)
	if err != nil {
		color.Red(err.Error())
		os.Exit(-1)
	}
}
