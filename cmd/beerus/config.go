package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli"
)

var configCMD = cli.Command{
	Name:  "config",
	Usage: "Print the effective configuration",
	Action: func(ctx *cli.Context) error {
		_, config, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))

		return nil
	},
}
