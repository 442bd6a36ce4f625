package perception

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// #region types

// GazeResult holds the camera-side response from the perception service:
// a normalized attention estimate derived from face/gaze presence.
type GazeResult struct {
	Score      float64 `json:"score"`
	FaceFound  bool    `json:"face_found"`
	EyesFound  bool    `json:"eyes_found"`
	DurationMs int64   `json:"duration_ms"`
}

// VoiceResult holds the microphone-side response: normalized voice
// activity for the last sampling window.
type VoiceResult struct {
	Score    float64 `json:"score"`
	Speaking bool    `json:"speaking"`
}

// #endregion types

// #region client-struct

// Client wraps the HTTP connection to the local perception service.
// The service owns the camera and microphone handles; this client only
// asks for normalized scores.
type Client struct {
	baseURL string
	http    *http.Client
}

// #endregion client-struct

// #region constructor

// NewClient creates a perception client for the given base URL with
// bounded connect and request timeouts.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// NewClientWithHTTP creates a Client with an injected *http.Client.
// Used for testing against httptest servers.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

// #endregion constructor

// #region gaze

// Gaze asks the service for the current camera attention estimate.
func (c *Client) Gaze(ctx context.Context) (GazeResult, error) {
	var out GazeResult
	if err := c.get(ctx, "/v1/gaze", &out); err != nil {
		return GazeResult{}, fmt.Errorf("gaze: %w", err)
	}
	return out, nil
}

// #endregion gaze

// #region voice

// Voice asks the service for the current voice activity estimate.
func (c *Client) Voice(ctx context.Context) (VoiceResult, error) {
	var out VoiceResult
	if err := c.get(ctx, "/v1/voice", &out); err != nil {
		return VoiceResult{}, fmt.Errorf("voice: %w", err)
	}
	return out, nil
}

// #endregion voice

// #region acquire-release

// AcquireCamera tells the service to open and hold the camera handle.
// Called once at engine startup; the handle is exclusive hardware.
func (c *Client) AcquireCamera(ctx context.Context) error {
	if err := c.post(ctx, "/v1/camera/acquire", nil); err != nil {
		return fmt.Errorf("acquire camera: %w", err)
	}
	return nil
}

// ReleaseCamera tells the service to release the camera handle.
func (c *Client) ReleaseCamera(ctx context.Context) error {
	if err := c.post(ctx, "/v1/camera/release", nil); err != nil {
		return fmt.Errorf("release camera: %w", err)
	}
	return nil
}

// #endregion acquire-release

// #region http-helpers

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("perception service returned %d", resp.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// #endregion http-helpers
