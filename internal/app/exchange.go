package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"cmlsync/internal/config"
	"cmlsync/internal/exchange"
	"cmlsync/internal/transport"
)

var (
	ErrMissingFile           = errors.New("file path is required for upload")
	ErrMissingRemoteFilename = errors.New("remote filename is required for standard exchange")
	ErrCancelled             = errors.New("exchange cancelled")
)

// ExchangeOptions selects what a single invocation exchanges
type ExchangeOptions struct {
	Mode           exchange.Mode
	FilePath       string // ModeUpload
	RemoteFilename string // ModeStandard
}

// Request converts the options to an engine request
func (o ExchangeOptions) Request() (exchange.Request, error) {
	if o.Mode == exchange.ModeUpload {
		if o.FilePath == "" {
			return exchange.Request{}, ErrMissingFile
		}
		return exchange.Request{Mode: exchange.ModeUpload, FilePath: o.FilePath}, nil
	}
	if o.RemoteFilename == "" {
		return exchange.Request{}, ErrMissingRemoteFilename
	}
	return exchange.Request{Mode: exchange.ModeStandard, RemoteFilename: o.RemoteFilename}, nil
}

// ExchangeApp runs one exchange for a CLI invocation
type ExchangeApp struct {
	config     *config.Config
	logger     *slog.Logger
	ui         Presenter
	fs         afero.Fs
	httpClient *http.Client
	out        io.Writer
}

// NewExchangeApp creates an exchange application
func NewExchangeApp(cfg *config.Config, logger *slog.Logger, ui Presenter) *ExchangeApp {
	return &ExchangeApp{
		config: cfg,
		logger: logger,
		ui:     ui,
		fs:     afero.NewOsFs(),
		out:    os.Stdout,
	}
}

// SetFs replaces the filesystem uploads are read from
func (a *ExchangeApp) SetFs(fs afero.Fs) { a.fs = fs }

// SetHTTPClient replaces the HTTP client used for the session
func (a *ExchangeApp) SetHTTPClient(c *http.Client) { a.httpClient = c }

// SetOutput sets where the run report is written
func (a *ExchangeApp) SetOutput(w io.Writer) { a.out = w }

// Run executes the exchange. The run is cancelled when ctx is done. The
// report is written whatever the outcome; a non-nil error means the run did
// not succeed or its report could not be written.
func (a *ExchangeApp) Run(ctx context.Context, opts *ExchangeOptions) (exchange.Result, error) {
	req, err := opts.Request()
	if err != nil {
		return exchange.Result{}, err
	}

	conn, err := transport.NewClient(transport.Config{
		BaseURL:  a.config.Exchange.URL,
		Login:    a.config.Exchange.Login,
		Password: a.config.Exchange.Password,
		Type:     a.config.Exchange.Type,
		Version:  a.config.Exchange.Version,
	}, a.httpClient)
	if err != nil {
		return exchange.Result{}, fmt.Errorf("failed to create exchange client: %w", err)
	}

	logger := a.logger.With("exchange_type", a.config.Exchange.Type)
	engine := exchange.NewEngine(
		exchange.WithFs(a.fs),
		exchange.WithLogger(logger),
		exchange.WithPollInterval(a.config.Exchange.PollInterval),
		exchange.WithMaxPolls(a.config.Exchange.MaxPolls),
	)

	run := engine.Start(ctx, conn, req)
	logger.Debug("exchange run started", "run_id", run.ID(), "mode", req.Mode.String())

	// the report follows the last rendered event
	var (
		g      errgroup.Group
		res    exchange.Result
		uiDone = make(chan struct{})
	)
	g.Go(func() error {
		defer close(uiDone)
		a.ui.Consume(run.Events())
		return nil
	})
	g.Go(func() error {
		res = run.Wait()
		<-uiDone
		if err := WriteReport(a.out, res, a.config.Output); err != nil {
			return fmt.Errorf("failed to write run report: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if res.Success() {
			return res, err
		}
		logger.Warn("run report incomplete", "error", err)
	}

	switch res.Status {
	case exchange.StatusSucceeded:
		return res, nil
	case exchange.StatusCancelled:
		return res, ErrCancelled
	default:
		return res, fmt.Errorf("exchange failed: %w", res.Err)
	}
}
