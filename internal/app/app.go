// Package app wires configuration into a running spendsync client: the
// store, the transport and dispatcher, and the actions and components that
// write through them.
package app

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/spendsync/internal/config"
	"github.com/vango-dev/spendsync/internal/errors"
	"github.com/vango-dev/spendsync/internal/logging"
	"github.com/vango-dev/spendsync/pkg/actions/bankaccount"
	"github.com/vango-dev/spendsync/pkg/actions/intacct"
	"github.com/vango-dev/spendsync/pkg/api"
	"github.com/vango-dev/spendsync/pkg/components/attachment"
	"github.com/vango-dev/spendsync/pkg/localize"
	"github.com/vango-dev/spendsync/pkg/markup"
	"github.com/vango-dev/spendsync/pkg/state"
	"github.com/vango-dev/spendsync/pkg/transport"
	"github.com/vango-dev/spendsync/pkg/update"
	"github.com/vango-dev/spendsync/pkg/upload"
)

// Option configures New.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	transport api.Transport
	registry  *prometheus.Registry
	s3Client  upload.S3API
	presigner upload.Presigner
}

// WithLogger replaces the logger built from the config.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTransport replaces the transport built from the config.
func WithTransport(t api.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithRegistry sets the metrics registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithS3 replaces the S3 client and presigner of the s3 backend.
func WithS3(client upload.S3API, presigner upload.Presigner) Option {
	return func(o *options) {
		o.s3Client = client
		o.presigner = presigner
	}
}

// App is a wired client.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Registry   *prometheus.Registry
	Store      *state.Store
	Transport  api.Transport
	Dispatcher *api.Dispatcher
	Translator localize.Translator

	Parser  *markup.Parser
	Lookups *markup.LookupSync

	Attachments upload.Store
	Picker      *attachment.Picker

	Intacct *intacct.Connections
	Bank    *bankaccount.Actions

	tracker   *bankaccount.ACHTracker
	ready     atomic.Pointer[api.Dispatcher]
	closeOnce sync.Once
	closers   []func() error
}

// New validates cfg and builds an App.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	a := &App{
		Config:     cfg,
		Logger:     o.logger,
		Registry:   o.registry,
		Store:      state.NewStore(state.WithLogger(o.logger)),
		Translator: localize.Default().Translator(cfg.Locale),
	}

	tr, err := a.transport(ctx, o)
	if err != nil {
		return nil, err
	}
	a.Transport = tr

	a.Dispatcher = api.New(a.Store, tr,
		api.WithLogger(o.logger),
		api.WithTimeout(cfg.Timeout()),
		api.WithMetrics(api.NewMetrics(
			api.WithNamespace(cfg.Metrics.Namespace),
			api.WithRegistry(o.registry),
		)),
	)
	a.ready.Store(a.Dispatcher)

	store, err := a.attachments(ctx, o)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Attachments = store
	a.Picker = attachment.NewPicker(store, attachment.WithLogger(o.logger))

	lookups := markup.NewLookups()
	a.Parser = markup.NewParser(markup.WithLookups(lookups), markup.WithLogger(o.logger))
	a.Lookups = markup.NewLookupSync(lookups, o.logger)
	a.Lookups.Start(a.Store)

	a.tracker = bankaccount.NewACHTracker()
	a.tracker.Start(a.Store)

	a.Intacct = intacct.NewConnections(a.Dispatcher, a.Translator, intacct.WithLogger(o.logger))
	a.Bank = bankaccount.New(a.Dispatcher, a.Store, a.Translator,
		bankaccount.WithTracker(a.tracker),
		bankaccount.WithLogger(o.logger))

	return a, nil
}

func (a *App) transport(ctx context.Context, o *options) (api.Transport, error) {
	if o.transport != nil {
		return o.transport, nil
	}
	cfg := a.Config

	switch cfg.API.Transport {
	case config.TransportWS:
		ws, err := transport.DialWS(ctx, cfg.WebSocketURL(),
			transport.WithWSLogger(o.logger),
			transport.WithPushHandler(a.applyPush))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, ws.Close)
		return ws, nil
	default:
		return transport.NewHTTP(cfg.API.BaseURL,
			transport.WithHTTPLogger(o.logger),
			transport.WithRetry(cfg.RetryInitialInterval(), cfg.RetryMaxElapsed()))
	}
}

// applyPush applies server-initiated updates. Pushes can arrive before the
// dispatcher exists; they go straight to the store then.
func (a *App) applyPush(updates []update.Descriptor) {
	var err error
	if d := a.ready.Load(); d != nil {
		err = d.ApplyServerUpdates(updates)
	} else {
		err = update.Apply(a.Store, updates)
	}
	if err != nil {
		a.Logger.Error("push not applied", "error", err)
	}
}

func (a *App) attachments(ctx context.Context, o *options) (upload.Store, error) {
	cfg := a.Config.Attachments

	switch cfg.Backend {
	case config.BackendDisk:
		return upload.NewDiskStore(a.Config.AttachmentDir(), cfg.MaxSize)
	case config.BackendS3:
		client, presigner := o.s3Client, o.presigner
		if client == nil || presigner == nil {
			var loadOpts []func(*awsconfig.LoadOptions) error
			if cfg.Region != "" {
				loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
			}
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
			if err != nil {
				return nil, errors.New("S400").WithDetail("AWS configuration could not be loaded").Wrap(err)
			}
			c := s3.NewFromConfig(awsCfg)
			client, presigner = c, s3.NewPresignClient(c)
		}
		return upload.NewS3Store(client, presigner, cfg.Bucket, cfg.Prefix, cfg.MaxSize), nil
	default:
		return upload.NewMemoryStore(cfg.MaxSize), nil
	}
}

// Close waits for in-flight writes, stops the store subscriptions and
// closes the transport.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	a.closeOnce.Do(func() {
		if a.Dispatcher != nil {
			if err := a.Dispatcher.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if a.Lookups != nil {
			a.Lookups.Stop()
		}
		if a.tracker != nil {
			a.tracker.Stop()
		}
		for _, c := range a.closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return stderrors.Join(errs...)
}
