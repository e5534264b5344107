package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eigerco/beerus/internal/metrics"
	"github.com/eigerco/beerus/internal/state"
	"github.com/eigerco/beerus/internal/upstream"
	"github.com/eigerco/beerus/internal/utils"
	"github.com/eigerco/beerus/pkg/jsonrpc"
	"github.com/eigerco/beerus/pkg/model"
	"github.com/google/uuid"
	"github.com/meshplus/bitxhub-kit/log"
	"github.com/sirupsen/logrus"
)

const defaultWorkers = 8

var logger = log.NewWithModule("rpc")

// Dispatcher serves the Starknet JSON-RPC surface. Local methods read the
// state store, everything else goes to the upstream client.
//
// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	client  upstream.Client
	store   *state.Store
	methods map[string]*Method
	ordered []*Method
	workers int
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

type Option func(*Dispatcher)

// WithWorkers bounds the number of batch elements served at once.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		d.workers = n
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func New(client upstream.Client, store *state.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:  client,
		store:   store,
		methods: make(map[string]*Method),
		workers: defaultWorkers,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(d)
	}

	for _, m := range registry() {
		if _, ok := d.methods[m.Name]; ok {
			panic(fmt.Sprintf("method %s registered twice", m.Name))
		}
		d.methods[m.Name] = m
		d.ordered = append(d.ordered, m)
	}

	return d
}

// Methods returns the registry in declaration order.
func (d *Dispatcher) Methods() []*Method {
	return d.ordered
}

// Lookup returns the registry entry for name.
func (d *Dispatcher) Lookup(name string) (*Method, bool) {
	m, ok := d.methods[name]
	return m, ok
}

// State returns the current trusted snapshot.
func (d *Dispatcher) State() (model.State, error) {
	return d.store.Read()
}

// Handle serves a raw request body, single or batch. The bool result is
// false when nothing must be written back, which is the case when every
// request was a notification.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) ([]byte, bool) {
	reqs, batch, err := jsonrpc.ParseRequests(body)
	if err != nil {
		return d.encode(jsonrpc.ErrorResponse(jsonrpc.ParseError(err))), true
	}

	if !batch {
		resp := d.Call(ctx, reqs[0])
		if silent(reqs[0]) {
			return nil, false
		}
		return d.encode(resp), true
	}

	if len(reqs) == 0 {
		return d.encode(jsonrpc.ErrorResponse(jsonrpc.InvalidRequestError(errors.New("empty batch")))), true
	}

	resps := d.callBatch(ctx, reqs)

	out := make([]jsonrpc.Response, 0, len(resps))
	for i, resp := range resps {
		if !silent(reqs[i]) {
			out = append(out, resp)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return d.encode(out), true
}

// callBatch serves the batch elements concurrently, keeping request order
// in the result.
func (d *Dispatcher) callBatch(ctx context.Context, reqs []jsonrpc.Request) []jsonrpc.Response {
	resps := make([]jsonrpc.Response, len(reqs))
	pool := utils.NewGoPool(d.workers)
	for i := range reqs {
		i := i
		if err := pool.Go(ctx, func() {
			resps[i] = d.Call(ctx, reqs[i])
		}); err != nil {
			resps[i] = reqs[i].MakeError(jsonrpc.InternalError())
		}
	}
	pool.Wait()

	return resps
}

// silent reports whether req is a valid notification, which gets no
// response. An invalid request is always answered.
func silent(req jsonrpc.Request) bool {
	return req.IsNotification() && req.Validate() == nil
}

func (d *Dispatcher) encode(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		d.logger.WithField("error", err).Error("Marshal response")
		data, _ = json.Marshal(jsonrpc.ErrorResponse(jsonrpc.InternalError()))
	}
	return data
}

// Call serves a single request.
func (d *Dispatcher) Call(ctx context.Context, req jsonrpc.Request) jsonrpc.Response {
	start := time.Now()
	logger := d.logger.WithFields(logrus.Fields{
		"request_id": uuid.New().String(),
		"method":     req.Method,
	})

	if err := req.Validate(); err != nil {
		logger.WithField("error", err).Debug("Invalid request")
		return req.MakeInvalid(err)
	}

	m, ok := d.methods[req.Method]
	if !ok {
		d.metrics.ObserveRequest("unknown", "unknown", metrics.ResultError, time.Since(start))
		logger.Debug("Method not found")
		return req.MakeError(jsonrpc.MethodNotFoundError(req.Method))
	}

	resp := d.serve(ctx, logger, m, req)

	result := metrics.ResultOK
	if resp.Error != nil {
		result = metrics.ResultError
	}
	elapsed := time.Since(start)
	d.metrics.ObserveRequest(m.Name, m.Kind.String(), result, elapsed)
	logger.WithFields(logrus.Fields{
		"kind":    m.Kind.String(),
		"elapsed": elapsed,
	}).Debug("Served request")

	return resp
}

func (d *Dispatcher) serve(ctx context.Context, logger logrus.FieldLogger, m *Method, req jsonrpc.Request) jsonrpc.Response {
	if err := checkParams(m.Params, req.Params); err != nil {
		logger.WithField("error", err).Debug("Invalid params")
		return req.MakeError(jsonrpc.InvalidParamsError(err))
	}

	result, err := m.handler(ctx, d, m, req.Params)
	if err != nil {
		return req.MakeError(mapError(logger, err))
	}
	return req.MakeResponse(result)
}

// mapError turns a handler failure into the error object sent to the
// caller. Transport details are logged and never returned.
func mapError(logger logrus.FieldLogger, err error) *jsonrpc.Error {
	if rpcErr, ok := upstream.AsRPCError(err); ok {
		logger.WithFields(logrus.Fields{
			"code":    rpcErr.Code,
			"message": rpcErr.Message,
		}).Debug("Upstream returned error")
		return rpcErr
	}

	var upErr *upstream.Error
	if errors.As(err, &upErr) && upErr.Unavailable() {
		logger.WithFields(logrus.Fields{
			"kind":  upErr.Kind.String(),
			"error": err,
		}).Warn("Upstream unavailable")
		return jsonrpc.UpstreamUnavailableError()
	}

	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	if errors.Is(err, state.ErrUninitialized) {
		logger.Error("State read before initialization")
	} else {
		logger.WithField("error", err).Error("Internal error")
	}
	return jsonrpc.InternalError()
}
