// Package exchange drives one synchronization run against a site's exchange
// endpoint: authenticate, optionally negotiate and upload, then import every
// manifest entry until the server reports success.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"cmlsync/internal/config"
	"cmlsync/internal/logging"
	"cmlsync/internal/manifest"
	"cmlsync/internal/reporter"
	"cmlsync/internal/transport"
)

// Mode selects how the import manifest is obtained
type Mode int

const (
	// ModeStandard imports a file the server already has; nothing is uploaded
	ModeStandard Mode = iota
	// ModeUpload negotiates, uploads a local XML or ZIP file, then imports it
	ModeUpload
)

func (m Mode) String() string {
	if m == ModeUpload {
		return "upload"
	}
	return "standard"
}

// Request describes what a run should exchange
type Request struct {
	Mode           Mode
	FilePath       string // ModeUpload: local file to send
	RemoteFilename string // ModeStandard: name of the file on the server
}

// Validate checks that the fields required by Mode are present
func (r Request) Validate() error {
	switch r.Mode {
	case ModeUpload:
		if r.FilePath == "" {
			return errors.New("file path is required for upload")
		}
	case ModeStandard:
		if r.RemoteFilename == "" {
			return errors.New("remote filename is required for standard exchange")
		}
	default:
		return fmt.Errorf("unknown exchange mode: %d", r.Mode)
	}
	return nil
}

// Conn is the network session a run uses. The run owns it and closes it
// exactly once, whatever way the run ends.
type Conn interface {
	CheckAuth(ctx context.Context) (*transport.Response, error)
	Init(ctx context.Context) (*transport.Response, error)
	SendFile(ctx context.Context, filename string, chunk []byte) (*transport.Response, error)
	Import(ctx context.Context, filename string) (*transport.Response, error)
	SetSessionID(id string)
	Close() error
}

var _ Conn = (*transport.Client)(nil)

// Engine runs exchanges. It holds no per-run state and may start several
// runs, but runs against the same remote session must not overlap.
type Engine struct {
	fs           afero.Fs
	logger       *slog.Logger
	pollInterval time.Duration
	maxPolls     int
	now          func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithFs sets the filesystem uploads and archives are read from
func WithFs(fs afero.Fs) Option {
	return func(e *Engine) { e.fs = fs }
}

// WithLogger sets the diagnostic logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithPollInterval sets the wait between two import requests for the same file
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithMaxPolls bounds the number of "progress" replies tolerated per file; 0 means no bound
func WithMaxPolls(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxPolls = n
		}
	}
}

// NewEngine creates an engine with the default 500ms poll interval and unbounded polling
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		fs:           afero.NewOsFs(),
		logger:       logging.Discard(),
		pollInterval: config.DefaultPollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one exchange on the calling goroutine, reporting events to
// sink, and returns when the run reached a terminal state. conn is closed
// before the outcome event is emitted.
func (e *Engine) Execute(ctx context.Context, conn Conn, req Request, sink reporter.Sink) Result {
	return e.execute(ctx, uuid.NewString(), conn, req, sink)
}

func (e *Engine) execute(ctx context.Context, runID string, conn Conn, req Request, sink reporter.Sink) (res Result) {
	x := &execution{
		engine: e,
		conn:   conn,
		req:    req,
		emit:   reporter.NewEmitter(sink),
		log:    e.logger.With("run_id", runID, "mode", req.Mode.String()),
	}
	x.result = Result{RunID: runID, Mode: req.Mode, Started: e.now()}

	var err error
	defer func() {
		if p := recover(); p != nil {
			err = &Error{Kind: KindUnexpected, Err: fmt.Errorf("panic: %v", p)}
		}
		if cerr := conn.Close(); cerr != nil {
			x.log.Warn("failed to release exchange session", "error", cerr)
		}
		res = x.finish(err)
	}()

	err = x.run(ctx)
	return x.result
}

type execution struct {
	engine *Engine
	conn   Conn
	req    Request
	emit   *reporter.Emitter
	log    *slog.Logger
	result Result
}

func (x *execution) run(ctx context.Context) error {
	if err := x.req.Validate(); err != nil {
		return &Error{Kind: KindUnexpected, Err: err}
	}

	x.log.Info("exchange started")

	if err := x.authenticate(ctx); err != nil {
		return err
	}

	artifact, err := x.produceArtifact(ctx)
	if err != nil {
		return err
	}

	names, err := manifest.Resolve(x.engine.fs, artifact)
	if err != nil {
		return &Error{Kind: KindManifestUnreadable, Filename: artifact.Name, Err: err}
	}
	x.result.Manifest = manifest.Order(names)
	x.log.Info("manifest resolved", "files", len(x.result.Manifest))

	if err := x.importAll(ctx, x.result.Manifest); err != nil {
		return err
	}

	x.emit.Range(reporter.RangeBounded)
	x.emit.Percent(100)
	x.emit.Log("Exchange completed successfully.")
	return nil
}

// produceArtifact uploads the local file in upload mode; standard mode refers
// to a file the server already holds.
func (x *execution) produceArtifact(ctx context.Context) (manifest.Artifact, error) {
	if x.req.Mode == ModeStandard {
		x.emit.Log("Steps 2 and 3: init and file are skipped for standard exchange.")
		return manifest.Artifact{Name: x.req.RemoteFilename}, nil
	}

	limit, err := x.negotiate(ctx)
	if err != nil {
		return manifest.Artifact{}, err
	}
	return x.upload(ctx, limit)
}

func (x *execution) finish(err error) Result {
	x.result.Finished = x.engine.now()

	switch {
	case err == nil:
		x.result.Status = StatusSucceeded
		x.log.Info("exchange succeeded", "files", len(x.result.Jobs), "duration", x.result.Duration())
	case errors.Is(err, errCancelled):
		x.result.Status = StatusCancelled
		x.emit.Log("Operation cancelled by user.")
		x.log.Warn("exchange cancelled")
	default:
		var classified *Error
		if !errors.As(err, &classified) {
			classified = &Error{Kind: KindUnexpected, Err: err}
		}
		x.result.Status = StatusFailed
		x.result.Err = classified
		x.emit.Log(failureText(classified))
		x.log.Error("exchange failed", "kind", classified.Kind.String(), "error", classified)
	}

	x.emit.Outcome(x.result.Status == StatusSucceeded)
	return x.result
}

func failureText(e *Error) string {
	switch e.Kind {
	case KindUnexpected:
		return fmt.Sprintf("Unexpected error: %v", e.Err)
	case KindAuthBadStatus:
		return fmt.Sprintf("Error: status %d during authorization", e.StatusCode)
	case KindAuthRejected:
		return "Authorization failed: " + orEmpty(e.Raw)
	case KindAuthMissingSession:
		return "Error: sessid not found"
	case KindInitRejected:
		return "Init failed: " + orEmpty(e.Raw)
	case KindUploadRejected:
		return "File upload failed: " + orEmpty(e.Raw)
	case KindManifestUnreadable:
		return fmt.Sprintf("Cannot read archive %s: %v", e.Filename, e.Err)
	case KindImportTransportError:
		return fmt.Sprintf("Import error: status %d for %s", e.StatusCode, e.Filename)
	default:
		return fmt.Sprintf("Import of %s failed, aborting: %s", e.Filename, orEmpty(e.Raw))
	}
}

func orEmpty(s string) string {
	if s == "" {
		return "<empty>"
	}
	return s
}

// fault classifies a request that never produced a response. A request cut
// short by cancellation counts as cancellation, not as a transport error.
func (x *execution) fault(ctx context.Context, filename string, err error) error {
	if ctx.Err() != nil {
		return errCancelled
	}
	return &Error{Kind: KindUnexpected, Filename: filename, Err: err}
}

func (x *execution) logExchange(resp *transport.Response, bodyLen int) {
	if bodyLen >= 0 {
		x.emit.Logf("Request: %s (%d bytes)", resp.RequestLine(), bodyLen)
	} else {
		x.emit.Logf("Request: %s", resp.RequestLine())
	}
	x.emit.Log("Server response:\n" + resp.Text())
	x.log.Debug("exchange response", "method", resp.Method, "status", resp.StatusCode, "body", resp.Text())
}
