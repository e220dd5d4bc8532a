package capture

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	utls "github.com/refraction-networking/utls"
)

const (
	fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	maxBodySize    = 25 << 20 // 25MB
)

// fetcher downloads direct artifact URLs over plain HTTP with a Chrome TLS
// fingerprint, so documents behind fingerprint-sensitive CDNs download the
// same way the browser would, without burning a browsing-context round trip.
type fetcher struct {
	client *http.Client
}

func newFetcher(proxy string) (*fetcher, error) {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = addr
			}
			dialer := &net.Dialer{Timeout: 15 * time.Second}
			raw, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			conn := utls.UClient(raw, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
			if err := conn.HandshakeContext(ctx); err != nil {
				raw.Close()
				return nil, err
			}
			return conn, nil
		},
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 15 * time.Second,
	}

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &fetcher{client: &http.Client{Transport: transport}}, nil
}

// get downloads targetURL and reports the post-redirect final URL, which is
// what provenance records: the address that actually served the bytes.
//
// cookieHeader carries the browsing session's cookies for the target. It
// must not be empty on a session-gated portal: without the session the
// portal answers with a login redirect, and a 200 from the login page would
// be persisted as if it were the artifact.
func (f *fetcher) get(ctx context.Context, targetURL, cookieHeader string) (body []byte, finalURL, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-IN,en;q=0.9")
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("fetching %s: %w", targetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", "", fmt.Errorf("fetching %s: status %d", targetURL, resp.StatusCode)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, "", "", fmt.Errorf("reading body of %s: %w", targetURL, err)
	}

	finalURL = resp.Request.URL.String()
	contentType = resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return body, finalURL, contentType, nil
}
