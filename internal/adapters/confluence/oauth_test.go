package confluence

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrivateKeyPEM(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func testPrivateKeyPEMPKCS1(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der := x509.MarshalPKCS1PrivateKey(key)
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der})
}

func TestLoadPrivateKey_PKCS8(t *testing.T) {
	_, err := loadPrivateKey(testPrivateKeyPEM(t))
	require.NoError(t, err)
}

func TestLoadPrivateKey_PKCS1(t *testing.T) {
	_, err := loadPrivateKey(testPrivateKeyPEMPKCS1(t))
	require.NoError(t, err)
}

func TestLoadPrivateKey_Invalid(t *testing.T) {
	_, err := loadPrivateKey([]byte("not a valid key"))
	require.Error(t, err)
}

func TestOAuthEncode_Unreserved(t *testing.T) {
	assert.Equal(t, "abc123", oauthEncode("abc123"))
	assert.Equal(t, "-._~", oauthEncode("-._~"))
}

func TestOAuthEncode_Reserved(t *testing.T) {
	assert.Equal(t, "%20", oauthEncode(" "))
	assert.Equal(t, "%26", oauthEncode("&"))
	assert.Equal(t, "%3D", oauthEncode("="))
	assert.Equal(t, "%2F", oauthEncode("/"))
}

// TestSignatureBaseString_LiteralScenario reproduces §8 scenario 5 exactly.
func TestSignatureBaseString_LiteralScenario(t *testing.T) {
	params := map[string]string{
		"a":                      "b",
		"oauth_consumer_key":     "ck",
		"oauth_nonce":            "N",
		"oauth_signature_method": "RSA-SHA1",
		"oauth_timestamp":        "T",
		"oauth_token":            "tk",
		"oauth_version":          "1.0",
	}
	base := buildSignatureBaseString("GET", "https://x/y/z", params)

	expected := "GET&https%3A%2F%2Fx%2Fy%2Fz&a%3Db%26oauth_consumer_key%3Dck%26oauth_nonce%3DN%26oauth_signature_method%3DRSA-SHA1%26oauth_timestamp%3DT%26oauth_token%3Dtk%26oauth_version%3D1.0"
	assert.Equal(t, expected, base)
}

func TestSign_ProducesWellFormedHeaderAndSignsQueryParams(t *testing.T) {
	auth, err := NewOAuth1Auth("ck", testPrivateKeyPEM(t), "tk", "")
	require.NoError(t, err)
	auth.nonceFunc = func() string { return "N" }
	auth.timestampFunc = func() string { return "T" }

	header, err := auth.Sign("GET", "https://x/y/z?a=b")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(header, "OAuth "))
	assert.Contains(t, header, `oauth_consumer_key="ck"`)
	assert.Contains(t, header, `oauth_nonce="N"`)
	assert.Contains(t, header, `oauth_timestamp="T"`)
	assert.Contains(t, header, `oauth_signature_method="RSA-SHA1"`)
	assert.Contains(t, header, `oauth_token="tk"`)
	assert.NotContains(t, header, "a=\"b\"") // query params sign but never appear in the header
}

func TestSign_DifferentQueryProducesDifferentSignature(t *testing.T) {
	auth, err := NewOAuth1Auth("ck", testPrivateKeyPEM(t), "tk", "")
	require.NoError(t, err)
	auth.nonceFunc = func() string { return "N" }
	auth.timestampFunc = func() string { return "T" }

	h1, err := auth.Sign("GET", "https://x/y/z?a=b")
	require.NoError(t, err)
	h2, err := auth.Sign("GET", "https://x/y/z?a=c")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}
