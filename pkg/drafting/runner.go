package drafting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/macropower/draftkit/pkg/cad"
	"github.com/macropower/draftkit/pkg/config"
	"github.com/macropower/draftkit/pkg/templatestore"
)

var (
	// ErrConnect indicates the drawing application could not be reached.
	ErrConnect = errors.New("connect to drawing application")

	// ErrNoTemplates indicates a command needed templates but the runner has
	// no template source.
	ErrNoTemplates = errors.New("no template source configured")
)

// Connector connects to the drawing application. The returned closer
// releases the connection and must be called from the same goroutine.
type Connector func() (*cad.Application, io.Closer, error)

// StaticConnector returns a [Connector] that always hands out app and
// never closes it.
func StaticConnector(app *cad.Application) Connector {
	return func() (*cad.Application, io.Closer, error) {
		return app, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// TemplateSource writes a stored template to disk and returns its path.
type TemplateSource interface {
	Materialize(ctx context.Context, kind templatestore.Kind, name string) (string, error)
}

// Recorder receives drafting results, typically for metrics.
type Recorder interface {
	Placed(written, blanked, dropped int)
	Plotted(err error)
	ItemDone(command string, err error)
}

type nopRecorder struct{}

func (nopRecorder) Placed(int, int, int) {}

func (nopRecorder) Plotted(error) {}

func (nopRecorder) ItemDone(string, error) {}

// Runner executes drafting commands.
type Runner struct {
	templates TemplateSource
	recorder  Recorder
	connect   Connector
	config    *config.Config
	logger    *slog.Logger
	subs      []func(any)
	mu        sync.RWMutex
}

// Option configures a [Runner].
type Option func(*Runner)

// WithTemplates sets where catalog and border templates come from.
func WithTemplates(t TemplateSource) Option {
	return func(r *Runner) {
		r.templates = t
	}
}

// WithRecorder sets a [Recorder].
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithLogger sets the runner's logger. The default is [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner returns a runner for cfg that reaches the application through
// connect.
func NewRunner(cfg *config.Config, connect Connector, opts ...Option) *Runner {
	r := &Runner{
		config:   cfg,
		connect:  connect,
		recorder: nopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Subscribe registers f to receive events. Events are delivered on the
// goroutine running the command.
func (r *Runner) Subscribe(f func(any)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs = append(r.subs, f)
}

func (r *Runner) broadcastEvent(evt any) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sub := range r.subs {
		sub(evt)
	}
}

// done broadcasts the outcome of a command as [EventDone]. Every exported
// command defers it, so subscribers see exactly one per call, including
// calls that fail before connecting.
func (r *Runner) done(err *error) {
	r.broadcastEvent(EventDone{Err: *err})
}

// session connects, runs fn, and always releases the connection.
func (r *Runner) session(fn func(app *cad.Application) error) error {
	app, closer, err := r.connect()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil {
			r.logger.Warn("release drawing application", slog.Any("err", cerr))
		}
	}()

	return fn(app)
}

func (r *Runner) template(ctx context.Context, kind templatestore.Kind, name string) (string, error) {
	if r.templates == nil {
		return "", ErrNoTemplates
	}

	path, err := r.templates.Materialize(ctx, kind, name)
	if err != nil {
		return "", fmt.Errorf("%s template %q: %w", kind, name, err)
	}

	return path, nil
}

// resolve returns path unchanged when it is absolute or names an existing
// file, and otherwise joins it to root.
func resolve(root, path string) string {
	if root == "" || filepath.IsAbs(path) {
		return path
	}
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		return path
	}

	return filepath.Join(root, path)
}

func fileExists(path string) bool {
	st, err := os.Stat(path)

	return err == nil && !st.IsDir()
}
