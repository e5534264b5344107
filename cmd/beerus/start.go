package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/eigerco/beerus/internal/app"
	"github.com/eigerco/beerus/internal/loggers"
	"github.com/eigerco/beerus/internal/repo"
	"github.com/meshplus/bitxhub-kit/log"
	"github.com/urfave/cli"
)

var startCMD = cli.Command{
	Name:   "start",
	Usage:  "Start a long-running daemon process",
	Action: start,
}

func start(ctx *cli.Context) error {
	fmt.Println(getVersion(true))

	repoRoot, config, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := config.Check(); err != nil {
		return fmt.Errorf("check config: %w", err)
	}

	err = log.Initialize(
		log.WithReportCaller(config.Log.ReportCaller),
		log.WithPersist(config.Log.Persist),
		log.WithFilePath(filepath.Join(repoRoot, config.Log.Dir)),
		log.WithFileName(config.Log.Filename),
		log.WithMaxSize(2*1024*1024),
		log.WithMaxAge(24*time.Hour),
		log.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("log initialize: %w", err)
	}
	loggers.InitializeLogger(config)

	err = repo.WatchConfig(repoRoot, ctx.GlobalString("config"), func(c *repo.Config) {
		if err := c.Check(); err != nil {
			logger.WithField("error", err).Warn("Ignore invalid config change")
			return
		}
		loggers.Refresh(c)
		logger.Info("Log levels reloaded")
	}, func(err error) {
		logger.WithField("error", err).Warn("Reload config")
	})
	if err != nil {
		// running from env vars only, nothing to watch
		logger.WithField("reason", err).Debug("Config watch disabled")
	}

	b, err := app.NewBeerus(config)
	if err != nil {
		return err
	}

	if config.PProfPort > 0 {
		runPProf(config.PProfPort)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := b.Start(runCtx); err != nil {
		if stopErr := b.Stop(); stopErr != nil {
			logger.WithField("error", stopErr).Warn("Stop beerus")
		}
		return err
	}
	fmt.Printf("Beerus RPC server on port %d\n", b.Port())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.WithField("signal", s.String()).Info("Received signal")
	case <-b.Done():
		logger.Warn("RPC server exited")
	}

	if err := b.Stop(); err != nil {
		return err
	}

	logger.Info("Beerus exits")
	return nil
}

func runPProf(port int64) {
	go func() {
		addr := fmt.Sprintf("localhost:%d", port)
		fmt.Printf("Pprof on localhost:%d\n\n", port)
		err := http.ListenAndServe(addr, nil)
		if err != nil {
			logger.WithField("error", err).Error("Pprof server stopped")
		}
	}()
}
