package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eigerco/beerus/internal/repo"
	"github.com/meshplus/bitxhub-kit/fileutil"
	"github.com/urfave/cli"
)

var initCMD = cli.Command{
	Name:  "init",
	Usage: "Initialize beerus local configuration",
	Flags: []cli.Flag{
		starknetRPCFlag,
		forceFlag,
	},
	Action: func(ctx *cli.Context) error {
		repoRoot, err := repo.PathRootWithDefault(ctx.GlobalString("repo"))
		if err != nil {
			return err
		}
		rpcURL := ctx.String(starknetRPCFlag.Name)

		if !ctx.Bool("force") && fileutil.Exist(filepath.Join(repoRoot, repo.ConfigName)) {
			fmt.Println("beerus configuration file already exists")
			fmt.Println("reinitializing would overwrite your configuration, Y/N?")
			input := bufio.NewScanner(os.Stdin)
			input.Scan()
			if input.Text() == "Y" || input.Text() == "y" {
				return repo.Initialize(repoRoot, rpcURL, true)
			}
			return nil
		}

		if err := repo.Initialize(repoRoot, rpcURL, true); err != nil {
			return err
		}
		fmt.Printf("Initialized beerus repo at %s\n", repoRoot)
		return nil
	},
}
