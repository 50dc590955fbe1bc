// Package ipfs is a thin client for the content-addressed image store. The
// connection core treats it as a black box that accepts bytes and returns a
// content identifier plus a retrievable URL.
package ipfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/namegate/namegate/pkg/constants"
)

// Client pins files through an IPFS HTTP API endpoint.
type Client struct {
	apiURL     string
	gatewayURL string
	httpClient *http.Client
}

// NewClient creates a pin client. gatewayURL may be empty, in which case the
// default public gateway is used for retrieval URLs.
func NewClient(apiURL, gatewayURL string) *Client {
	if gatewayURL == "" {
		gatewayURL = constants.DefaultIPFSGatewayURL
	}
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		httpClient: &http.Client{Timeout: constants.PinTimeout},
	}
}

// addResponse is the IPFS add API response shape.
type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Pin uploads and pins a file, returning its content identifier.
func (c *Client) Pin(ctx context.Context, filename string, r io.Reader) (string, error) {
	var body strings.Builder
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("ipfs: create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("ipfs: read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("ipfs: finalize form: %w", err)
	}

	url := c.apiURL + "/api/v0/add?pin=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body.String()))
	if err != nil {
		return "", fmt.Errorf("ipfs: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ipfs: add request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ipfs: add returned status %d", resp.StatusCode)
	}

	var decoded addResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("ipfs: decode add response: %w", err)
	}
	if decoded.Hash == "" {
		return "", fmt.Errorf("ipfs: add response missing content identifier")
	}
	return decoded.Hash, nil
}

// GatewayURL returns a retrievable URL for a content identifier.
func (c *Client) GatewayURL(cid string) string {
	return fmt.Sprintf("%s/ipfs/%s", c.gatewayURL, cid)
}
