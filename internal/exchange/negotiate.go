package exchange

import (
	"context"
	"net/http"

	"cmlsync/internal/transport"
)

// negotiate performs init and returns the server's chunk limit (0 = no chunking)
func (x *execution) negotiate(ctx context.Context) (int64, error) {
	x.emit.Log("Step 2: initialization.")

	if err := ctx.Err(); err != nil {
		return 0, errCancelled
	}

	resp, err := x.conn.Init(ctx)
	if err != nil {
		return 0, x.fault(ctx, "", err)
	}
	x.logExchange(resp, -1)

	// init replies carry no status line on success, so only an explicit failure rejects
	if resp.StatusCode != http.StatusOK || transport.HasPrefixFold(resp.Text(), transport.StatusFailure) {
		return 0, &Error{Kind: KindInitRejected, StatusCode: resp.StatusCode, Raw: resp.Text()}
	}

	limit := transport.ParseFileLimit(resp.Body)
	x.result.ChunkLimit = limit
	x.log.Info("upload negotiated", "file_limit", limit)
	return limit, nil
}
