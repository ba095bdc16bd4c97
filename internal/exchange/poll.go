package exchange

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cmlsync/internal/reporter"
	"cmlsync/internal/transport"
)

// importJob tracks a single manifest entry from its first request to a terminal state
type importJob struct {
	filename string
	state    JobState
	polls    int
}

func (j *importJob) transition(to JobState) {
	if j.state.Terminal() {
		panic(fmt.Sprintf("import job %s: transition %s -> %s after terminal state", j.filename, j.state, to))
	}
	j.state = to
}

func (j *importJob) record() JobRecord {
	return JobRecord{Filename: j.filename, State: j.state, Polls: j.polls}
}

// importAll imports the manifest strictly in order, one job at a time. The
// first job that does not succeed stops the run.
func (x *execution) importAll(ctx context.Context, names []string) error {
	x.emit.Log("Step 4: data import.")
	x.emit.Range(reporter.RangeIndeterminate)

	for _, name := range names {
		job := &importJob{filename: name, state: JobRequesting}
		err := x.runJob(ctx, job)
		x.result.Jobs = append(x.result.Jobs, job.record())
		if err != nil {
			return err
		}
	}
	return nil
}

// runJob is the per-entry state machine:
// Requesting -> (Polling -> Requesting)* -> Succeeded | Failed | Cancelled.
func (x *execution) runJob(ctx context.Context, job *importJob) error {
	log := x.log.With("file", job.filename)
	announced := false

	for {
		if ctx.Err() != nil {
			job.transition(JobCancelled)
			return errCancelled
		}

		resp, err := x.conn.Import(ctx, job.filename)
		if err != nil {
			ferr := x.fault(ctx, job.filename, err)
			if ferr == errCancelled {
				job.transition(JobCancelled)
			} else {
				job.transition(JobFailed)
			}
			return ferr
		}

		if !announced {
			x.emit.Logf("Request: %s", resp.RequestLine())
			announced = true
		}
		x.emit.Log("Server response:\n" + resp.Text())

		if resp.StatusCode != http.StatusOK {
			job.transition(JobFailed)
			return &Error{Kind: KindImportTransportError, Filename: job.filename, StatusCode: resp.StatusCode, Raw: resp.Text()}
		}

		line := resp.FirstLine()
		switch {
		case transport.HasPrefixFold(line, transport.StatusProgress):
			job.polls++
			if limit := x.engine.maxPolls; limit > 0 && job.polls > limit {
				job.transition(JobFailed)
				return &Error{
					Kind:       KindImportRejected,
					Filename:   job.filename,
					StatusCode: resp.StatusCode,
					Raw:        resp.Text(),
					Err:        fmt.Errorf("poll limit of %d reached", limit),
				}
			}
			job.transition(JobPolling)
			log.Debug("import in progress", "polls", job.polls)
			if !sleep(ctx, x.engine.pollInterval) {
				job.transition(JobCancelled)
				return errCancelled
			}
			job.transition(JobRequesting)

		case transport.HasPrefixFold(line, transport.StatusSuccess):
			job.transition(JobSucceeded)
			log.Info("file imported", "polls", job.polls)
			return nil

		default:
			job.transition(JobFailed)
			return &Error{Kind: KindImportRejected, Filename: job.filename, StatusCode: resp.StatusCode, Raw: resp.Text()}
		}
	}
}

// sleep waits for d and reports false if ctx was cancelled first
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
