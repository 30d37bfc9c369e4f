// Package httpc provides the HTTP clients used to talk to a running lanebot.
package httpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout        = 5 * time.Second
	DefaultConnectTimeout = 3 * time.Second
	DefaultKeepAlive      = 30 * time.Second
)

func transport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
		MaxIdleConnsPerHost:   2,
		ResponseHeaderTimeout: DefaultTimeout,
	}
}

// Client is for short API calls.
var Client = &http.Client{
	Timeout:   DefaultTimeout,
	Transport: transport(),
}

// StreamClient has no overall timeout so an MJPEG response can stay open
// for as long as the request context lives. Connecting and the response
// headers are still bounded.
var StreamClient = &http.Client{
	Transport: transport(),
}

// GetJSON fetches url with Client and decodes the JSON body into v.
func GetJSON(ctx context.Context, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// OpenStream starts a GET with StreamClient and returns the response if it
// is 200 OK. The caller closes the body.
func OpenStream(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := StreamClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return resp, nil
}
