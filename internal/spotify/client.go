package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"tunepilot/internal/core"
)

// BaseURL is the Spotify Web API base URL.
const BaseURL = "https://api.spotify.com/v1"

const requestTimeout = 30 * time.Second

// Client issues authenticated requests against the Web API. A request that
// comes back 401 triggers exactly one token refresh and one replay; a
// second 401, or any other failure class, is surfaced to the caller
// unmodified. The replay applies to state-changing calls too, accepting the
// narrow duplicate-side-effect race over silent failure.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     *TokenStore
	logger     *zap.Logger
}

func NewClient(tokens *TokenStore, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    BaseURL,
		tokens:     tokens,
		logger:     logger,
	}
}

// SetBaseURL overrides the API base URL, for tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	status, respBody, err := c.attempt(ctx, method, path, jsonBody)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		c.logger.Debug("Access token rejected, refreshing",
			zap.String("method", method),
			zap.String("path", path))

		if err := c.tokens.Refresh(ctx); err != nil {
			return err
		}

		status, respBody, err = c.attempt(ctx, method, path, jsonBody)
		if err != nil {
			return err
		}
	}

	if status >= 400 {
		upstreamErr := decodeError(status, respBody)
		c.logger.Warn("Spotify request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.String("message", upstreamErr.Message))
		return upstreamErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

func (c *Client) attempt(ctx context.Context, method, path string, jsonBody []byte) (int, []byte, error) {
	var bodyReader io.Reader
	if jsonBody != nil {
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.tokens.Access())
	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("spotify request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

func decodeError(status int, body []byte) *core.UpstreamError {
	var envelope struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}

	message := http.StatusText(status)
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	return &core.UpstreamError{Status: status, Message: message}
}

func buildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return path + "?" + q.Encode()
}

// Wire shapes for the handful of response payloads the core consumes.
// Search result arrays can carry null entries, hence the pointer items.

type trackObject struct {
	ID      string `json:"id"`
	URI     string `json:"uri"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

type playlistObject struct {
	ID    string `json:"id"`
	URI   string `json:"uri"`
	Name  string `json:"name"`
	Owner struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
}

type searchResponse struct {
	Tracks *struct {
		Items []*trackObject `json:"items"`
	} `json:"tracks"`
	Playlists *struct {
		Items []*playlistObject `json:"items"`
	} `json:"playlists"`
}

type playlistPage struct {
	Items []*playlistObject `json:"items"`
}

type deviceList struct {
	Devices []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Active bool   `json:"is_active"`
	} `json:"devices"`
}

func convertTrack(t *trackObject) core.Track {
	track := core.Track{
		ID:    t.ID,
		URI:   t.URI,
		Title: t.Name,
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}

func convertPlaylist(p *playlistObject) core.Collection {
	return core.Collection{
		ID:    p.ID,
		URI:   p.URI,
		Name:  p.Name,
		Owner: p.Owner.DisplayName,
	}
}

// SearchTracks returns up to limit tracks in the provider's relevance order.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]core.Track, error) {
	path := buildURL("/search", map[string]string{
		"q":     query,
		"type":  "track",
		"limit": strconv.Itoa(limit),
	})

	var result searchResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	if result.Tracks == nil {
		return nil, nil
	}

	var tracks []core.Track
	for _, item := range result.Tracks.Items {
		if item != nil {
			tracks = append(tracks, convertTrack(item))
		}
	}
	return tracks, nil
}

// SearchCollections returns up to limit public collections in the
// provider's relevance order.
func (c *Client) SearchCollections(ctx context.Context, query string, limit int) ([]core.Collection, error) {
	path := buildURL("/search", map[string]string{
		"q":     query,
		"type":  "playlist",
		"limit": strconv.Itoa(limit),
	})

	var result searchResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	if result.Playlists == nil {
		return nil, nil
	}

	var collections []core.Collection
	for _, item := range result.Playlists.Items {
		if item != nil {
			collections = append(collections, convertPlaylist(item))
		}
	}
	return collections, nil
}

// SavedCollections returns the first page of the caller's own collections.
func (c *Client) SavedCollections(ctx context.Context, limit int) ([]core.Collection, error) {
	path := buildURL("/me/playlists", map[string]string{
		"limit": strconv.Itoa(limit),
	})

	var result playlistPage
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	var collections []core.Collection
	for _, item := range result.Items {
		if item != nil {
			collections = append(collections, convertPlaylist(item))
		}
	}
	return collections, nil
}

// Devices returns a fresh snapshot of the caller's playback devices.
func (c *Client) Devices(ctx context.Context) ([]core.Device, error) {
	var result deviceList
	if err := c.do(ctx, http.MethodGet, "/me/player/devices", nil, &result); err != nil {
		return nil, err
	}

	devices := make([]core.Device, 0, len(result.Devices))
	for _, d := range result.Devices {
		devices = append(devices, core.Device{
			ID:     d.ID,
			Name:   d.Name,
			Active: d.Active,
		})
	}
	return devices, nil
}

// TransferPlayback designates a device as active without starting playback.
func (c *Client) TransferPlayback(ctx context.Context, deviceID string) error {
	body := map[string]interface{}{
		"device_ids": []string{deviceID},
		"play":       false,
	}
	return c.do(ctx, http.MethodPut, "/me/player", body, nil)
}

// Play starts playback of the referenced resource on the device. A nil ref
// resumes (or primes) whatever context the device holds; the provider wants
// a JSON body even then.
func (c *Client) Play(ctx context.Context, deviceID string, ref *core.PlayableRef) error {
	path := buildURL("/me/player/play", deviceParams(deviceID, nil))

	body := map[string]interface{}{}
	if ref != nil {
		if ref.Kind == core.RefKindCollection {
			body["context_uri"] = ref.URI
		} else {
			body["uris"] = []string{ref.URI}
		}
	}

	return c.do(ctx, http.MethodPut, path, body, nil)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context, deviceID string) error {
	path := buildURL("/me/player/pause", deviceParams(deviceID, nil))
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context, deviceID string) error {
	path := buildURL("/me/player/next", deviceParams(deviceID, nil))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// SetVolume sets the playback volume in percent.
func (c *Client) SetVolume(ctx context.Context, deviceID string, level int) error {
	path := buildURL("/me/player/volume", deviceParams(deviceID, map[string]string{
		"volume_percent": strconv.Itoa(level),
	}))
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

// SetShuffle sets the shuffle state.
func (c *Client) SetShuffle(ctx context.Context, deviceID string, on bool) error {
	path := buildURL("/me/player/shuffle", deviceParams(deviceID, map[string]string{
		"state": strconv.FormatBool(on),
	}))
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

func deviceParams(deviceID string, params map[string]string) map[string]string {
	if params == nil {
		params = map[string]string{}
	}
	if deviceID != "" {
		params["device_id"] = deviceID
	}
	return params
}
