package ui

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"cmlsync/internal/reporter"
)

const spinnerTick = 100 * time.Millisecond

// ConsoleUI renders a run's event stream on the terminal: LogLine events go
// through the logger, progress drives a bar that is either bounded (0-100) or
// an indeterminate spinner while the server imports.
type ConsoleUI struct {
	logger      *slog.Logger
	writer      io.Writer
	description string
	tick        time.Duration

	bar     *progressbar.ProgressBar
	mode    reporter.RangeMode
	percent int
	success bool
}

// Option configures a ConsoleUI
type Option func(*ConsoleUI)

// WithWriter sets where the progress bar is drawn (default stderr)
func WithWriter(w io.Writer) Option {
	return func(c *ConsoleUI) { c.writer = w }
}

// WithSpinnerTick sets how often the indeterminate spinner advances
func WithSpinnerTick(d time.Duration) Option {
	return func(c *ConsoleUI) {
		if d > 0 {
			c.tick = d
		}
	}
}

// NewConsoleUI creates a console UI labelled with description
func NewConsoleUI(description string, logger *slog.Logger, opts ...Option) *ConsoleUI {
	c := &ConsoleUI{
		logger:      logger,
		writer:      os.Stderr,
		description: description,
		tick:        spinnerTick,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consume renders events until the channel is closed and reports the run's outcome
func (c *ConsoleUI) Consume(events <-chan reporter.Event) bool {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				c.stopBar()
				return c.success
			}
			c.Emit(e)
		case <-ticker.C:
			if c.bar != nil && c.mode == reporter.RangeIndeterminate {
				_ = c.bar.Add(1)
			}
		}
	}
}

// Emit renders a single event; ConsoleUI can also be used directly as a reporter.Sink
func (c *ConsoleUI) Emit(e reporter.Event) {
	switch e.Kind {
	case reporter.KindLog:
		c.showLog(e.Text)
	case reporter.KindRange:
		c.setRange(e.Range)
	case reporter.KindPercent:
		c.setPercent(e.Percent)
	case reporter.KindOutcome:
		c.success = e.Success
		c.stopBar()
	}
}

// Percent returns the last rendered percentage
func (c *ConsoleUI) Percent() int {
	return c.percent
}

// Mode returns the current progress mode
func (c *ConsoleUI) Mode() reporter.RangeMode {
	return c.mode
}

func (c *ConsoleUI) showLog(text string) {
	if c.bar != nil {
		_ = c.bar.Clear()
	}
	// multi-line server replies are logged line by line
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		c.logger.Info(line)
	}
	if c.bar != nil {
		_ = c.bar.RenderBlank()
	}
}

func (c *ConsoleUI) setRange(mode reporter.RangeMode) {
	if c.bar != nil && c.mode == mode {
		return
	}
	c.stopBar()
	c.mode = mode
	if mode == reporter.RangeIndeterminate {
		c.bar = c.newBar(-1, c.description+": importing")
		return
	}
	c.bar = c.newBar(100, c.description)
	_ = c.bar.Set(c.percent)
}

func (c *ConsoleUI) setPercent(p int) {
	c.percent = p
	if c.bar == nil {
		c.mode = reporter.RangeBounded
		c.bar = c.newBar(100, c.description)
	}
	if c.mode == reporter.RangeBounded {
		_ = c.bar.Set(p)
	}
}

func (c *ConsoleUI) stopBar() {
	if c.bar == nil {
		return
	}
	_ = c.bar.Finish()
	c.bar = nil
}

func (c *ConsoleUI) newBar(limit int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(limit,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(c.writer),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(false),
	)
}
