package confluence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	auth, err := NewOAuth1Auth("ck", testPrivateKeyPEM(t), "tk", "ts")
	require.NoError(t, err)
	return NewClient(server.URL, auth), server
}

func TestClient_GetPage_SignsRequestAndDecodesJSON(t *testing.T) {
	var gotAuth string
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/rest/api/content/123", r.URL.Path)
		assert.Equal(t, "version,body.storage", r.URL.Query().Get("expand"))
		_ = json.NewEncoder(w).Encode(Page{ID: "123", Title: "Home", Version: Version{Number: 4}})
	})

	page, err := client.GetPage(context.Background(), "123", []string{"version", "body.storage"})
	require.NoError(t, err)
	assert.Equal(t, "123", page.ID)
	assert.Equal(t, 4, page.Version.Number)

	assert.True(t, strings.HasPrefix(gotAuth, `OAuth `))
	assert.Contains(t, gotAuth, `oauth_consumer_key="ck"`)
	assert.Contains(t, gotAuth, `oauth_signature_method="RSA-SHA1"`)
	assert.NotContains(t, gotAuth, "expand=")
}

func TestClient_GetPage_NonOKStatusReturnsHTTPResponseError(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"No content found"}`))
	})

	_, err := client.GetPage(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.True(t, entities.IsKind(err, entities.KindHTTPResponse))
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "No content found")
}

func TestClient_UpdatePage_IncrementsVersionNumber(t *testing.T) {
	var body map[string]any
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(Page{ID: "123", Version: Version{Number: 6}})
	})

	_, err := client.UpdatePage(context.Background(), "123", "Home", "<p>hi</p>", 5, "updated via automation")
	require.NoError(t, err)

	version := body["version"].(map[string]any)
	assert.Equal(t, float64(6), version["number"])
	assert.Equal(t, "updated via automation", version["message"])
}

func TestClient_UploadAttachment_PostsNewWhenNoneExists(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/child/attachment") && r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(AttachmentsResponse{Results: nil})
			return
		}
		gotMethod = r.Method
		gotPath = r.URL.Path
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		assert.Equal(t, "nocheck", r.Header.Get("X-Atlassian-Token"))
		_ = json.NewEncoder(w).Encode(AttachmentsResponse{Results: []Attachment{{ID: "att1", Title: "diagram.png"}}})
	})

	att, err := client.UploadAttachment(context.Background(), "123", "diagram.png", []byte("PNGDATA"), "image/png", "")
	require.NoError(t, err)
	assert.Equal(t, "att1", att.ID)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/rest/api/content/123/child/attachment", gotPath)
}

func TestClient_UploadAttachment_PutsDataWhenAttachmentExists(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/child/attachment") && r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(AttachmentsResponse{Results: []Attachment{{ID: "att1", Title: "diagram.png"}}})
			return
		}
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(Attachment{ID: "att1", Title: "diagram.png"})
	})

	att, err := client.UploadAttachment(context.Background(), "123", "diagram.png", []byte("PNGDATA2"), "image/png", "")
	require.NoError(t, err)
	assert.Equal(t, "att1", att.ID)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/rest/api/content/123/child/attachment/att1/data", gotPath)
}
