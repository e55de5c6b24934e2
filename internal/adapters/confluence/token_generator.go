package confluence

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rwdocs/docstage/internal/core/entities"
)

// RequestToken is the temporary credential returned by the first leg of the
// OAuth 1.0 three-legged dance (RFC 5849 §6.1).
type RequestToken struct {
	Token  string
	Secret string
}

// TokenGenerator drives the interactive OAuth 1.0 RSA-SHA1 authorization
// flow against Confluence's application-links endpoints, grounded on the
// standard Atlassian OAuth dance: request-token, user authorization,
// access-token exchange.
type TokenGenerator struct {
	baseURL       string
	consumerKey   string
	privateKeyPEM []byte
	httpClient    *http.Client
}

// NewTokenGenerator builds a TokenGenerator. privateKeyPEM must parse as an
// RSA private key (PKCS#1 or PKCS#8).
func NewTokenGenerator(baseURL, consumerKey string, privateKeyPEM []byte) (*TokenGenerator, error) {
	if _, err := NewOAuth1Auth(consumerKey, privateKeyPEM, "", ""); err != nil {
		return nil, err
	}
	return &TokenGenerator{
		baseURL:       strings.TrimRight(baseURL, "/"),
		consumerKey:   consumerKey,
		privateKeyPEM: privateKeyPEM,
		httpClient:    http.DefaultClient,
	}, nil
}

// RequestToken obtains a temporary credential and the URL the user must
// visit to authorize it (step 1 of the dance).
func (g *TokenGenerator) RequestToken() (RequestToken, string, error) {
	auth, err := NewOAuth1Auth(g.consumerKey, g.privateKeyPEM, "", "")
	if err != nil {
		return RequestToken{}, "", err
	}

	endpoint := g.baseURL + "/plugins/servlet/oauth/request-token"
	header, err := auth.Sign(http.MethodPost, endpoint)
	if err != nil {
		return RequestToken{}, "", err
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, nil)
	if err != nil {
		return RequestToken{}, "", entities.NewError(entities.KindHTTPRequest, "build request-token request", err)
	}
	req.Header.Set("Authorization", header)

	body, err := g.do(req)
	if err != nil {
		return RequestToken{}, "", err
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return RequestToken{}, "", entities.NewError(entities.KindOAuth, "parse request-token response", err)
	}

	token := RequestToken{Token: values.Get("oauth_token"), Secret: values.Get("oauth_token_secret")}
	if token.Token == "" {
		return RequestToken{}, "", entities.NewError(entities.KindOAuth, "request-token response missing oauth_token", nil)
	}

	authURL := g.baseURL + "/plugins/servlet/oauth/authorize?oauth_token=" + url.QueryEscape(token.Token)
	return token, authURL, nil
}

// AccessToken is the long-lived credential returned by the final leg of the
// dance (RFC 5849 §6.3).
type AccessToken struct {
	Token  string
	Secret string
}

// ExchangeVerifier trades a request token plus the user-supplied
// verification code for a permanent access token (step 3 of the dance).
func (g *TokenGenerator) ExchangeVerifier(requestToken, verifier string) (AccessToken, error) {
	auth, err := NewOAuth1Auth(g.consumerKey, g.privateKeyPEM, requestToken, "")
	if err != nil {
		return AccessToken{}, err
	}

	endpoint := g.baseURL + "/plugins/servlet/oauth/access-token?oauth_verifier=" + url.QueryEscape(verifier)
	header, err := auth.Sign(http.MethodPost, endpoint)
	if err != nil {
		return AccessToken{}, err
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, nil)
	if err != nil {
		return AccessToken{}, entities.NewError(entities.KindHTTPRequest, "build access-token request", err)
	}
	req.Header.Set("Authorization", header)

	body, err := g.do(req)
	if err != nil {
		return AccessToken{}, err
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return AccessToken{}, entities.NewError(entities.KindOAuth, "parse access-token response", err)
	}

	token := AccessToken{Token: values.Get("oauth_token"), Secret: values.Get("oauth_token_secret")}
	if token.Token == "" {
		return AccessToken{}, entities.NewError(entities.KindOAuth, "access-token response missing oauth_token", nil)
	}
	return token, nil
}

func (g *TokenGenerator) do(req *http.Request) ([]byte, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, entities.NewError(entities.KindHTTPRequest, "oauth token request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, entities.NewError(entities.KindIO, "read oauth token response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, entities.NewError(entities.KindHTTPResponse, "oauth token request returned "+resp.Status, nil)
	}
	return body, nil
}
