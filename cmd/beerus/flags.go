package main

import "github.com/urfave/cli"

var (
	configFlag = cli.StringFlag{
		Name:  "config, c",
		Usage: "Path to the config file (default: <repo>/beerus.toml)",
	}
	starknetRPCFlag = cli.StringFlag{
		Name:     "starknet-rpc",
		Usage:    "Specific Starknet full node JSON-RPC url",
		EnvVar:   "BEERUS_STARKNET_RPC",
		Required: false,
	}
	forceFlag = cli.BoolFlag{
		Name:  "force, f",
		Usage: "Overwrite an existing config file without asking",
	}
)
