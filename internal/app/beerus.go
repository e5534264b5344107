package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/strategy"
	"github.com/eigerco/beerus/api"
	"github.com/eigerco/beerus/internal/lite"
	"github.com/eigerco/beerus/internal/lite/starknet_lite"
	"github.com/eigerco/beerus/internal/loggers"
	"github.com/eigerco/beerus/internal/metrics"
	"github.com/eigerco/beerus/internal/repo"
	"github.com/eigerco/beerus/internal/rpc"
	"github.com/eigerco/beerus/internal/state"
	"github.com/eigerco/beerus/internal/syncer"
	"github.com/eigerco/beerus/internal/upstream"
	"github.com/eigerco/beerus/pkg/model"
	"github.com/meshplus/bitxhub-kit/storage"
	"github.com/meshplus/bitxhub-kit/storage/leveldb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const defaultRetryWait = time.Second

// Beerus wires the upstream client, the state syncer and the RPC server
// into one process.
type Beerus struct {
	config     *repo.Config
	client     upstream.Client
	lite       lite.Lite
	store      *state.Store
	storage    storage.Storage
	checkpoint *state.Checkpoint
	syncer     syncer.Syncer
	dispatcher *rpc.Dispatcher
	registry   *prometheus.Registry
	server     *api.Server
	chainID    string
	retryWait  time.Duration
	logger     logrus.FieldLogger
}

type Option func(*Beerus)

// WithClient replaces the HTTP client built from the configured URL.
func WithClient(client upstream.Client) Option {
	return func(b *Beerus) {
		b.client = client
	}
}

// WithRetryWait sets the pause between startup attempts.
func WithRetryWait(wait time.Duration) Option {
	return func(b *Beerus) {
		b.retryWait = wait
	}
}

// NewBeerus builds every component from config. Nothing talks to the
// network until Start.
func NewBeerus(config *repo.Config, opts ...Option) (*Beerus, error) {
	if err := config.Check(); err != nil {
		return nil, fmt.Errorf("check config: %w", err)
	}

	b := &Beerus{
		config:    config,
		retryWait: defaultRetryWait,
		logger:    loggers.Logger(loggers.App),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.client == nil {
		client, err := upstream.New(config.StarknetRPC,
			upstream.WithTimeout(config.Timeout()),
			upstream.WithLogger(loggers.Logger(loggers.Upstream)),
		)
		if err != nil {
			return nil, fmt.Errorf("create upstream client: %w", err)
		}
		b.client = client
	}

	b.lite = starknet_lite.New(b.client, loggers.Logger(loggers.Lite))
	b.store = state.NewStore()

	var m *metrics.Metrics
	if config.Metrics.Enabled {
		b.registry = prometheus.NewRegistry()
		var err error
		m, err = metrics.New(b.registry)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	if config.Store.Enabled {
		s, err := leveldb.New(config.StorePath())
		if err != nil {
			return nil, fmt.Errorf("open checkpoint store %s: %w", config.StorePath(), err)
		}
		b.storage = s
		b.checkpoint = state.NewCheckpoint(s, loggers.Logger(loggers.State))
		b.store.OnReplace(b.checkpoint.Hook())
	}

	sync, err := syncer.New(
		syncer.WithLite(b.lite),
		syncer.WithStore(b.store),
		syncer.WithInterval(config.PollInterval()),
		syncer.WithTimeout(config.Timeout()),
		syncer.WithLogger(loggers.Logger(loggers.Syncer)),
		syncer.WithMetrics(m),
	)
	if err != nil {
		b.closeStorage()
		return nil, fmt.Errorf("create syncer: %w", err)
	}
	b.syncer = sync

	b.dispatcher = rpc.New(b.client, b.store,
		rpc.WithWorkers(config.BatchWorkers),
		rpc.WithLogger(loggers.Logger(loggers.RPC)),
		rpc.WithMetrics(m),
	)

	return b, nil
}

// Start runs the version gate and the first state fetch, then starts the
// syncer and the RPC server. Any error leaves no listener behind.
func (b *Beerus) Start(ctx context.Context) error {
	if err := b.checkVersion(ctx); err != nil {
		return err
	}

	chainID, err := upstream.ChainID(ctx, b.client)
	if err != nil {
		b.logger.WithField("error", err).Warn("Get chain id")
	}
	b.chainID = chainID

	fresh, err := b.fetchState(ctx)
	if err != nil {
		return err
	}

	if b.checkpoint != nil {
		b.checkpoint.Compare(fresh)
	}
	b.store.Replace(fresh)
	b.logger.WithFields(logrus.Fields{
		"block_number": fresh.BlockNumber,
		"block_hash":   fresh.BlockHash.String(),
		"root":         fresh.Root.String(),
	}).Info("Initial state fetched")

	if err := b.syncer.Start(); err != nil {
		return fmt.Errorf("start syncer: %w", err)
	}

	opts := []api.Option{
		api.WithLogger(loggers.Logger(loggers.ApiServer)),
		api.WithCORSOrigins(b.config.CORSOrigins),
	}
	if b.registry != nil {
		opts = append(opts, api.WithMetrics(b.registry))
	}
	server, err := api.Serve(ctx, b.dispatcher, b.config.RPCAddr, opts...)
	if err != nil {
		if err := b.syncer.Stop(); err != nil {
			b.logger.WithField("error", err).Warn("Stop syncer")
		}
		return fmt.Errorf("start rpc server: %w", err)
	}
	b.server = server

	b.logger.WithFields(logrus.Fields{
		"port":     server.Port(),
		"chain_id": b.chainID,
		"upstream": b.config.StarknetRPC,
	}).Info("Beerus is ready")

	return nil
}

func (b *Beerus) checkVersion(ctx context.Context) error {
	var mismatch error
	err := retry.Retry(func(attempt uint) error {
		err := b.lite.CheckVersion(ctx)
		if errors.Is(err, starknet_lite.ErrVersionMismatch) {
			// retrying cannot fix a node serving another version
			mismatch = err
			return nil
		}
		if err != nil {
			b.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"error":   err,
			}).Warn("Check spec version")
		}
		return err
	}, b.startupStrategies()...)
	if mismatch != nil {
		return mismatch
	}
	if err != nil {
		return fmt.Errorf("check spec version: %w", err)
	}
	return nil
}

func (b *Beerus) fetchState(ctx context.Context) (model.State, error) {
	var fresh model.State
	err := retry.Retry(func(attempt uint) error {
		s, err := b.lite.FetchState(ctx)
		if err != nil {
			b.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"error":   err,
			}).Warn("Fetch initial state")
			return err
		}
		fresh = s
		return nil
	}, b.startupStrategies()...)
	if err != nil {
		return model.State{}, fmt.Errorf("fetch initial state: %w", err)
	}
	return fresh, nil
}

func (b *Beerus) startupStrategies() []strategy.Strategy {
	return []strategy.Strategy{
		strategy.Limit(b.config.StartupAttempts),
		strategy.Wait(b.retryWait),
	}
}

// Stop shuts the server down, stops the syncer and closes the checkpoint
// store. It is safe to call on a Beerus that failed to start.
func (b *Beerus) Stop() error {
	var errs []error
	if b.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.server.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop rpc server: %w", err))
		}
	}
	if err := b.syncer.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop syncer: %w", err))
	}
	b.closeStorage()

	if len(errs) != 0 {
		return errs[0]
	}
	b.logger.Info("Beerus stopped")
	return nil
}

func (b *Beerus) closeStorage() {
	if b.storage == nil {
		return
	}
	if err := b.storage.Close(); err != nil {
		b.logger.WithField("error", err).Warn("Close checkpoint store")
	}
	b.storage = nil
}

// Port returns the bound RPC port, or 0 before a successful Start.
func (b *Beerus) Port() int {
	if b.server == nil {
		return 0
	}
	return b.server.Port()
}

// Done is closed once the RPC server has exited. It is nil before Start.
func (b *Beerus) Done() <-chan struct{} {
	if b.server == nil {
		return nil
	}
	return b.server.Done()
}

// ChainID returns the chain id reported by the upstream at startup, or ""
// if it could not be read.
func (b *Beerus) ChainID() string {
	return b.chainID
}

// State returns the current snapshot.
func (b *Beerus) State() (model.State, error) {
	return b.store.Read()
}
