package app

import (
	"context"
	"time"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/store"
)

// SendResult is the outcome of a send.
type SendResult struct {
	Response core.Response
	Err      error
}

// Send executes the request being edited against the active environment.
// A successful response is recorded in history; a failure is shown as an
// error envelope and returned. Sends are not serialized, so with several in
// flight the last to finish decides the shown response.
func (a *App) Send(ctx context.Context) (core.Response, error) {
	state := a.store.State()
	if state.CurrentRequest == nil {
		return core.Response{}, ErrNoRequest
	}
	req := *state.CurrentRequest

	a.store.Dispatch(store.SetLoading{Loading: true})
	defer a.store.Dispatch(store.SetLoading{Loading: false})
	a.store.Dispatch(store.SetResponse{Response: nil})

	start := time.Now()
	resp, err := a.sender.Send(ctx, req, state.ActiveEnvironment)
	if err != nil {
		if resp.StatusText == "" {
			resp = core.NewNetworkErrorResponse(err.Error(), time.Since(start).Milliseconds())
		}
		a.logger.Debug("send failed", "method", req.Method, "url", req.URL, "error", err)
		a.store.Dispatch(store.SetResponse{Response: &resp})
		return resp, err
	}

	a.logger.Debug("send completed",
		"method", req.Method,
		"url", req.URL,
		"status", resp.Status,
		"time_ms", resp.ResponseTime,
	)
	a.store.Dispatch(store.SetResponse{Response: &resp})
	a.store.Dispatch(store.AddToHistory{Entry: core.NewHistoryEntry(req, resp)})
	return resp, nil
}

// SendAsync runs Send on its own goroutine. The channel receives exactly one
// result and is then closed. Close waits for pending sends.
func (a *App) SendAsync(ctx context.Context) <-chan SendResult {
	ch := make(chan SendResult, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer close(ch)
		resp, err := a.Send(ctx)
		ch <- SendResult{Response: resp, Err: err}
	}()
	return ch
}
