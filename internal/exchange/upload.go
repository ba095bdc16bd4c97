package exchange

import (
	"context"
	"errors"
	"io"
	"net/http"

	"cmlsync/internal/manifest"
	"cmlsync/internal/processor"
	"cmlsync/internal/transport"
	"cmlsync/pkg/utils"
)

// upload streams the request's file in limit-sized chunks. Cancellation is
// checked before every chunk is read; nothing is sent after it is seen.
func (x *execution) upload(ctx context.Context, limit int64) (manifest.Artifact, error) {
	x.emit.Log("Step 3: file upload.")

	reader, err := processor.NewChunkReader(x.engine.fs, x.req.FilePath, limit)
	if err != nil {
		return manifest.Artifact{}, &Error{Kind: KindUnexpected, Filename: x.req.FilePath, Err: err}
	}
	defer reader.Close()

	plan := reader.Plan()
	x.log.Info("uploading file", "file", plan.Name, "size", plan.Size, "chunks", plan.Chunks())

	for {
		if ctx.Err() != nil {
			return manifest.Artifact{}, errCancelled
		}

		chunk, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return manifest.Artifact{}, &Error{Kind: KindUnexpected, Filename: plan.Name, Err: err}
		}

		resp, err := x.conn.SendFile(ctx, plan.Name, chunk)
		if err != nil {
			return manifest.Artifact{}, x.fault(ctx, plan.Name, err)
		}
		x.logExchange(resp, len(chunk))

		// a chunk counts only when the first line says success
		if resp.StatusCode != http.StatusOK || !transport.HasPrefixFold(resp.FirstLine(), transport.StatusSuccess) {
			return manifest.Artifact{}, &Error{Kind: KindUploadRejected, Filename: plan.Name, StatusCode: resp.StatusCode, Raw: resp.Text()}
		}

		plan.Advance(len(chunk))
		x.result.BytesSent = plan.Sent
		x.emit.Percent(plan.Percent())
		x.emit.Logf("Sent %d/%d bytes (%d%%)", plan.Sent, plan.Size, plan.Percent())
	}

	x.emit.Percent(100)
	x.result.Checksum = reader.Checksum()
	x.log.Info("file uploaded", "file", plan.Name, "size", utils.FormatFileSize(plan.Size), "sha256", x.result.Checksum)

	return manifest.Artifact{Name: plan.Name, Path: plan.Path, Uploaded: true}, nil
}
