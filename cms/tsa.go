package cms

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/digitorus/timestamp"
)

// TSA describes an RFC 3161 time stamping authority.
type TSA struct {
	URL      string
	Username string
	Password string

	Client *http.Client // Defaults to http.DefaultClient.
}

func (t TSA) client() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return http.DefaultClient
}

// Request asks the TSA for a timestamp over signature and returns the raw
// response. Basic authentication is only sent when both credentials are set.
func (t TSA) Request(signature []byte) ([]byte, error) {
	ts_request, err := timestamp.CreateRequest(bytes.NewReader(signature), &timestamp.RequestOptions{
		Certificates: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, t.URL, bytes.NewReader(ts_request))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare request (%s): %w", t.URL, err)
	}
	req.Header.Set("Content-Type", "application/timestamp-query")
	req.Header.Set("Content-Transfer-Encoding", "binary")
	if t.Username != "" && t.Password != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}

	resp, err := t.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("non success response (0): %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("non success response (%d): %s", resp.StatusCode, body)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}
