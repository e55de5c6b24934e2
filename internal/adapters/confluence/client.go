package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rwdocs/docstage/internal/core/entities"
)

const defaultTimeout = 30 * time.Second

// Client is a Confluence Server/Data Center REST API client, signing every
// request with OAuth 1.0 RSA-SHA1 (§6 Confluence REST surface).
type Client struct {
	httpClient *http.Client
	baseURL    string
	auth       *OAuth1Auth
}

// NewClient builds a Client against baseURL (trailing slash trimmed).
func NewClient(baseURL string, auth *OAuth1Auth) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		auth:       auth,
	}
}

// FromConfig is a convenience constructor mirroring the original
// ConfluenceClient::from_config signature.
func FromConfig(baseURL, consumerKey string, privateKeyPEM []byte, accessToken, accessSecret string) (*Client, error) {
	auth, err := NewOAuth1Auth(consumerKey, privateKeyPEM, accessToken, accessSecret)
	if err != nil {
		return nil, err
	}
	return NewClient(baseURL, auth), nil
}

func (c *Client) apiURL() string { return c.baseURL + "/rest/api" }

// BaseURL returns the client's configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, method, url string, body []byte, contentType string) (*http.Response, error) {
	authHeader, err := c.auth.Sign(method, url)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, entities.NewError(entities.KindHTTPRequest, "build request", err)
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, entities.NewError(entities.KindHTTPRequest, method+" "+url, err)
	}
	return resp, nil
}

func readJSONOrError(resp *http.Response, out any) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return entities.NewError(entities.KindHTTPRequest, "read response body", err)
	}
	if resp.StatusCode >= 400 {
		return entities.NewHTTPResponseError(resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return entities.NewError(entities.KindJSON, "decode response", err)
	}
	return nil
}

// GetPage fetches a page by id with optional field expansion (e.g.
// "body.storage", "version").
func (c *Client) GetPage(ctx context.Context, pageID string, expand []string) (*Page, error) {
	url := fmt.Sprintf("%s/content/%s", c.apiURL(), pageID)
	if len(expand) > 0 {
		url += "?expand=" + strings.Join(expand, ",")
	}

	resp, err := c.do(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}
	var page Page
	if err := readJSONOrError(resp, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePage PUTs a new version of a page's title and storage body.
// version is the page's *current* version number; Confluence expects
// current+1 in the request.
func (c *Client) UpdatePage(ctx context.Context, pageID, title, body string, version int, message string) (*Page, error) {
	url := fmt.Sprintf("%s/content/%s", c.apiURL(), pageID)

	payload := map[string]any{
		"type":  "page",
		"title": title,
		"body": map[string]any{
			"storage": map[string]any{
				"value":          body,
				"representation": "storage",
			},
		},
		"version": map[string]any{"number": version + 1},
	}
	if message != "" {
		payload["version"].(map[string]any)["message"] = message
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, entities.NewError(entities.KindJSON, "encode page update", err)
	}

	resp, err := c.do(ctx, http.MethodPut, url, payloadBytes, "application/json")
	if err != nil {
		return nil, err
	}
	var page Page
	if err := readJSONOrError(resp, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPageURL resolves the page's web UI URL, falling back to the legacy
// viewpage form if no webui link is present.
func (c *Client) GetPageURL(ctx context.Context, pageID string) (string, error) {
	page, err := c.GetPage(ctx, pageID, nil)
	if err != nil {
		return "", err
	}
	if page.Links != nil && page.Links.WebUI != "" {
		return c.baseURL + page.Links.WebUI, nil
	}
	return fmt.Sprintf("%s/pages/viewpage.action?pageId=%s", c.baseURL, pageID), nil
}

// GetAttachments lists a page's attachments.
func (c *Client) GetAttachments(ctx context.Context, pageID string) (*AttachmentsResponse, error) {
	url := fmt.Sprintf("%s/content/%s/child/attachment", c.apiURL(), pageID)
	resp, err := c.do(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}
	var out AttachmentsResponse
	if err := readJSONOrError(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) findAttachmentByName(ctx context.Context, pageID, filename string) (*Attachment, error) {
	attachments, err := c.GetAttachments(ctx, pageID)
	if err != nil {
		return nil, err
	}
	for _, a := range attachments.Results {
		if a.Title == filename {
			return &a, nil
		}
	}
	return nil, nil
}

// UploadAttachment upserts an attachment by filename: PUTs new bytes to an
// existing attachment's /data endpoint, or POSTs a new one.
func (c *Client) UploadAttachment(ctx context.Context, pageID, filename string, data []byte, contentType, comment string) (*Attachment, error) {
	existing, err := c.findAttachmentByName(ctx, pageID, filename)
	if err != nil {
		return nil, err
	}

	var url, method string
	if existing != nil {
		url = fmt.Sprintf("%s/content/%s/child/attachment/%s/data", c.apiURL(), pageID, existing.ID)
		method = http.MethodPut
	} else {
		url = fmt.Sprintf("%s/content/%s/child/attachment", c.apiURL(), pageID)
		method = http.MethodPost
	}

	body, boundary, err := buildMultipartAttachment(filename, data, contentType, comment)
	if err != nil {
		return nil, entities.NewError(entities.KindIO, "build attachment body", err)
	}

	authHeader, err := c.auth.Sign(method, url)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, entities.NewError(entities.KindHTTPRequest, "build request", err)
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	req.Header.Set("X-Atlassian-Token", "nocheck")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, entities.NewError(entities.KindHTTPRequest, method+" "+url, err)
	}

	if existing != nil {
		var att Attachment
		if err := readJSONOrError(resp, &att); err != nil {
			return nil, err
		}
		return &att, nil
	}
	var listed AttachmentsResponse
	if err := readJSONOrError(resp, &listed); err != nil {
		return nil, err
	}
	if len(listed.Results) == 0 {
		return nil, entities.NewHTTPResponseError(200, "empty attachment response")
	}
	return &listed.Results[0], nil
}

func buildMultipartAttachment(filename string, data []byte, contentType, comment string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreatePart(map[string][]string{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)},
		"Content-Type":        {contentType},
	})
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	if comment != "" {
		if err := w.WriteField("comment", comment); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.Boundary(), nil
}

// GetComments returns all comments on a page.
func (c *Client) GetComments(ctx context.Context, pageID string) (*CommentsResponse, error) {
	url := fmt.Sprintf("%s/content/%s/child/comment?expand=body.storage", c.apiURL(), pageID)
	resp, err := c.do(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}
	var out CommentsResponse
	if err := readJSONOrError(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
