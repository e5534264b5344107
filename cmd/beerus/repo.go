package main

import (
	"fmt"

	"github.com/eigerco/beerus/internal/repo"
	"github.com/urfave/cli"
)

// loadConfig resolves the repo root and reads the effective config from the
// global flags, the config file and the environment.
func loadConfig(ctx *cli.Context) (string, *repo.Config, error) {
	repoRoot, err := repo.PathRootWithDefault(ctx.GlobalString("repo"))
	if err != nil {
		return "", nil, err
	}
	repo.SetPath(repoRoot)

	config, err := repo.UnmarshalConfig(repoRoot, ctx.GlobalString("config"))
	if err != nil {
		return "", nil, fmt.Errorf("init config error: %w", err)
	}
	return repoRoot, config, nil
}
