// Package httpclient configures the HTTP client used to call the imagery
// provider.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// NewOutbound creates a new outbound http client
func NewOutbound() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   128,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// NewAuthenticated wraps an outbound client with an OAuth2
// client-credentials token source. Token requests go through the same
// base transport.
func NewAuthenticated(base *http.Client, clientID, clientSecret, tokenURL string) *http.Client {
	if base == nil {
		base = NewOutbound()
	}
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: cc.TokenSource(ctx),
			Base:   base.Transport,
		},
		Timeout: base.Timeout,
	}
}
