package docconv

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// forwardableHeaders is the fixed allow-list of upstream response
// headers passed back to the original caller after a forward upload.
var forwardableHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Location",
	"ETag",
	"Last-Modified",
	"Content-Disposition",
	"Cache-Control",
}

// RemoteClient performs the pipeline's outbound HTTP legs: fetching
// remote input documents and forward-uploading converted artifacts.
// Deadlines come from the caller's context, not a client-wide timeout,
// so every leg shares the pipeline's uniform deadline scope.
type RemoteClient struct {
	hc *http.Client
}

// NewRemoteClient wraps hc; nil selects a dedicated default client.
func NewRemoteClient(hc *http.Client) *RemoteClient {
	if hc == nil {
		hc = &http.Client{}
	}
	return &RemoteClient{hc: hc}
}

// FetchToFile downloads url into path via bounded transfer.
// A non-success status or an empty payload is a staging failure.
func (c *RemoteClient) FetchToFile(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid download url: %v", ErrStaging, err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: fetching %s: %v", ErrStaging, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: remote returned %d for %s", ErrStaging, resp.StatusCode, url)
	}

	written, err := StageToFile(ctx, path, resp.Body)
	if err != nil {
		return written, fmt.Errorf("%w: %v", ErrStaging, err)
	}
	if written == 0 {
		return 0, fmt.Errorf("%w: empty response body from %s", ErrStaging, url)
	}
	return written, nil
}

// Put uploads body to url with the artifact's content type and
// disposition. A transport failure or non-success status is an
// ErrUploadForward; on success the caller owns the response and must
// close its body.
func (c *RemoteClient) Put(ctx context.Context, url string, body io.Reader, size int64, contentType, disposition string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid upload url: %v", ErrUploadForward, err)
	}
	if size >= 0 {
		req.ContentLength = size
	}
	req.Header.Set("Content-Type", contentType)
	if disposition != "" {
		req.Header.Set("Content-Disposition", disposition)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: uploading to %s: %v", ErrUploadForward, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused, then surface the
		// upstream status as the forwarding failure.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 8<<10))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: destination returned %d", ErrUploadForward, resp.StatusCode)
	}
	return resp, nil
}

// FilteredHeader copies only allow-listed headers from an upstream
// response, dropping anything else the destination may have set.
func FilteredHeader(upstream http.Header) http.Header {
	h := make(http.Header, len(forwardableHeaders))
	for _, name := range forwardableHeaders {
		for _, v := range upstream.Values(name) {
			h.Add(name, v)
		}
	}
	return h
}
