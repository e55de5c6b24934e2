package diagrams

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/core/usecases"
)

// HTTPRenderClient renders diagrams via a remote service, POSTing the
// preprocessed source to "{server}/{endpoint}/{format}" (§4.4).
type HTTPRenderClient struct {
	baseURL string
	http    *http.Client
}

var _ usecases.DiagramRenderClient = (*HTTPRenderClient)(nil)

// NewHTTPRenderClient builds a client against baseURL (the configured
// diagrams.kroki_url).
func NewHTTPRenderClient(baseURL string) *HTTPRenderClient {
	return &HTTPRenderClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
	}
}

// Render issues the request with a per-call timeout. Non-2xx responses are
// treated as permanent failures for that diagram.
func (c *HTTPRenderClient) Render(ctx context.Context, endpoint string, format entities.DiagramFormat, source string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, endpoint, format)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(source))
	if err != nil {
		return nil, entities.NewError(entities.KindHTTPRequest, "build diagram render request", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, entities.NewError(entities.KindHTTPRequest, "render diagram via "+url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, entities.NewError(entities.KindHTTPResponse, "read diagram render response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, entities.NewHTTPResponseError(resp.StatusCode, string(body))
	}
	return body, nil
}
