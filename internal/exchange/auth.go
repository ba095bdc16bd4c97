package exchange

import (
	"context"
	"net/http"

	"cmlsync/internal/transport"
)

// authenticate performs checkauth and hands the sessid to the connection
func (x *execution) authenticate(ctx context.Context) error {
	x.emit.Log("Step 1: authorization.")

	resp, err := x.conn.CheckAuth(ctx)
	if err != nil {
		return x.fault(ctx, "", err)
	}
	x.logExchange(resp, -1)

	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindAuthBadStatus, StatusCode: resp.StatusCode, Raw: resp.Text()}
	}
	if !transport.HasPrefixFold(resp.FirstLine(), transport.StatusSuccess) {
		return &Error{Kind: KindAuthRejected, StatusCode: resp.StatusCode, Raw: resp.Text()}
	}

	sessid := transport.ParseSessionID(resp.Body)
	if sessid == "" {
		return &Error{Kind: KindAuthMissingSession, StatusCode: resp.StatusCode, Raw: resp.Text()}
	}

	x.conn.SetSessionID(sessid)
	x.log.Info("authorized")
	return nil
}
