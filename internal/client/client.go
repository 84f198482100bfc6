package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Version is the protocol version negotiated at registration. The server
// must report the same version or the client refuses to run.
const Version = "2.0.0"

// ErrVersionMismatch indicates the server speaks a different protocol
// version than this client.
var ErrVersionMismatch = errors.New("server protocol version mismatch")

// Client talks to the mira server: registration, the remote enable flag,
// and sentence uploads.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client
}

func New(baseURL, clientID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		http:     &http.Client{Timeout: timeout},
	}
}

// Register announces this client to the server and verifies the protocol
// version. Any failure here is fatal to the session; the caller must not
// proceed.
func (c *Client) Register(ctx context.Context) error {
	endpoint := c.baseURL + "/register_client?" + url.Values{"client_id": {c.clientID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build register request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to register client: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("register_client: %w", err)
	}

	var body struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode register response: %w", err)
	}

	if body.Version != Version {
		return fmt.Errorf("%w: expected %s, got %s", ErrVersionMismatch, Version, body.Version)
	}

	log.Info().
		Str("client_id", c.clientID).
		Str("version", body.Version).
		Msg("Connected to server")

	return nil
}

// Deregister removes this client from the server. Best-effort: errors are
// returned for logging but never abort shutdown.
func (c *Client) Deregister(ctx context.Context) error {
	endpoint := c.baseURL + "/deregister_client?" + url.Values{"client_id": {c.clientID}}.Encode()
	if err := c.do(ctx, http.MethodPost, endpoint); err != nil {
		return fmt.Errorf("deregister_client: %w", err)
	}

	log.Info().Str("client_id", c.clientID).Msg("Disconnected from server")
	return nil
}

// Enable asks the server to mark this client enabled.
func (c *Client) Enable(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPatch, c.baseURL+"/enable"); err != nil {
		return fmt.Errorf("enable: %w", err)
	}

	log.Info().Msg("Mira enabled")
	return nil
}

// Disable asks the server to mark this client disabled.
func (c *Client) Disable(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPatch, c.baseURL+"/disable"); err != nil {
		return fmt.Errorf("disable: %w", err)
	}

	log.Info().Msg("Mira disabled")
	return nil
}

// Status fetches the remote enable flag. Polled once per loop iteration.
func (c *Client) Status(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false, fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to fetch status: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return false, fmt.Errorf("status: %w", err)
	}

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode status response: %w", err)
	}

	return body.Enabled, nil
}

// RegisterInteraction uploads one completed sentence buffer as raw audio
// bytes and returns the server's JSON result.
func (c *Client) RegisterInteraction(ctx context.Context, sentence []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/interactions/register", bytes.NewReader(sentence))
	if err != nil {
		return nil, fmt.Errorf("failed to build interaction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Interaction-ID", uuid.New().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to register interaction: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("interactions/register: %w", err)
	}

	result, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read interaction response: %w", err)
	}

	return json.RawMessage(result), nil
}

// do issues a bodyless request and checks for a 2xx response.
func (c *Client) do(ctx context.Context, method, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
