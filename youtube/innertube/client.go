package innertube

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/ytget/streamres/internal/attest"
	"github.com/ytget/streamres/internal/logger"
)

const (
	headerContentTypeJSON = "application/json"
	visitorIDMaxAge       = 10 * time.Hour
	playerPath            = "/youtubei/v1/player"
)

// Client talks to the player endpoint on behalf of one or more personas.
// A single Client is safe for concurrent use; the visitor id is shared
// across personas on purpose, so a resolution pass looks like one viewer.
type Client struct {
	HTTPClient *http.Client
	log        *logger.ComponentLogger

	mu        sync.Mutex
	visitorID struct {
		value   string
		updated time.Time
	}

	po struct {
		solver attest.Solver
		mode   attest.Mode
		cache  attest.Cache
		ttl    time.Duration
	}
}

// New creates a client. A nil httpClient gets a tuned default transport.
func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
			},
			Timeout: 30 * time.Second,
		}
	}
	return &Client{
		HTTPClient: httpClient,
		log:        logger.Nop().WithComponent(logger.ComponentInnerTube),
	}
}

// WithLogger routes diagnostics through the given logger.
func (c *Client) WithLogger(log *logger.Logger) *Client {
	if log != nil {
		c.log = log.WithComponent(logger.ComponentInnerTube)
	}
	return c
}

// WithAttestation configures the po token solver, mode and cache.
func (c *Client) WithAttestation(solver attest.Solver, mode attest.Mode, cache attest.Cache) *Client {
	c.po.solver = solver
	c.po.mode = mode
	c.po.cache = cache
	return c
}

// WithAttestationTTL sets the TTL applied when the solver leaves ExpiresAt
// zero.
func (c *Client) WithAttestationTTL(ttl time.Duration) *Client {
	c.po.ttl = ttl
	return c
}

// GetPlayerResponse performs one /player call for the given persona. The
// returned response is decoded but not classified; callers run Classify on
// the playability block.
func (c *Client) GetPlayerResponse(ctx context.Context, profile ClientProfile, videoID string, opts RequestOptions) (*PlayerResponse, error) {
	if opts.VisitorData == "" && profile.SupportsCookies {
		if visitor, err := c.getVisitorID(ctx); err == nil {
			opts.VisitorData = visitor
		}
	}
	if opts.PoToken == "" && c.po.solver != nil && c.po.mode != attest.Off {
		if profile.WantsPoToken(ProtocolHTTPS) || c.po.mode == attest.Force {
			if token, err := c.poToken(ctx, profile, opts.VisitorData, videoID); err == nil {
				opts.PoToken = token
			} else {
				c.log.Warn("attestation failed", map[string]interface{}{
					"client": profile.Name, "error": err.Error(),
				})
			}
		}
	}

	body, err := json.Marshal(NewPlayerRequest(profile, videoID, opts))
	if err != nil {
		return nil, err
	}

	host := profile.Host
	if host == "" {
		host = "www.youtube.com"
	}
	endpoint := "https://" + host + playerPath
	if profile.APIKey != "" {
		endpoint += "?key=" + profile.APIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", headerContentTypeJSON)
	req.Header.Set("User-Agent", profile.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Origin", "https://"+host)
	req.Header.Set("Referer", "https://"+host+"/")
	if code := clientCode(profile); code != "" {
		req.Header.Set("X-YouTube-Client-Name", code)
	}
	req.Header.Set("X-YouTube-Client-Version", profile.Version)
	if opts.VisitorData != "" {
		req.Header.Set("X-Goog-Visitor-Id", opts.VisitorData)
	}
	if opts.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+opts.AccessToken)
	}

	c.log.Debug("player request", map[string]interface{}{
		"client": profile.Name, "version": profile.Version, "videoId": videoID,
	})

	resp, err := c.doWithAttestRetry(req, profile, opts, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("innertube: player endpoint returned %d for client %s", resp.StatusCode, profile.Name)
	}

	raw, err := readDecompressed(resp)
	if err != nil {
		return nil, fmt.Errorf("innertube: read response: %w", err)
	}

	var playerResponse PlayerResponse
	if err := json.Unmarshal(raw, &playerResponse); err != nil {
		return nil, fmt.Errorf("innertube: parse response: %w", err)
	}

	c.log.Debug("player response", map[string]interface{}{
		"client":  profile.Name,
		"status":  playerResponse.PlayabilityStatus.Status,
		"formats": len(playerResponse.StreamingData.Formats) + len(playerResponse.StreamingData.AdaptiveFormats),
	})
	return &playerResponse, nil
}

// readDecompressed unwraps the response body per Content-Encoding.
func readDecompressed(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzReader.Close()
		reader = gzReader
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "bzip2":
		reader = bzip2.NewReader(resp.Body)
	}
	return io.ReadAll(reader)
}

// doWithAttestRetry executes the request and, on 403 with attestation
// configured, solves once and retries the same request with the token
// applied.
func (c *Client) doWithAttestRetry(req *http.Request, profile ClientProfile, opts RequestOptions, body []byte) (*http.Response, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil || resp == nil || resp.StatusCode != http.StatusForbidden {
		return resp, err
	}
	if c.po.solver == nil || c.po.mode == attest.Off || opts.PoToken != "" {
		return resp, err
	}
	_ = resp.Body.Close()

	c.log.Warn("player endpoint returned 403, retrying with attestation", map[string]interface{}{
		"client": profile.Name,
	})
	token, aerr := c.poToken(req.Context(), profile, opts.VisitorData, "")
	if aerr != nil {
		return nil, fmt.Errorf("innertube: 403 from player endpoint and attestation failed: %w", aerr)
	}
	if token == "" {
		return nil, errors.New("innertube: 403 from player endpoint and attestation produced no token")
	}

	opts.PoToken = token
	retryBody, merr := json.Marshal(NewPlayerRequest(profile, requestVideoID(body), opts))
	if merr != nil {
		return nil, merr
	}
	retry := req.Clone(req.Context())
	retry.Body = io.NopCloser(bytes.NewReader(retryBody))
	retry.ContentLength = int64(len(retryBody))
	return c.HTTPClient.Do(retry)
}

func requestVideoID(body []byte) string {
	var probe struct {
		VideoID string `json:"videoId"`
	}
	_ = json.Unmarshal(body, &probe)
	return probe.VideoID
}

// poToken returns a cached or freshly solved po token for this persona.
func (c *Client) poToken(ctx context.Context, profile ClientProfile, visitorID, videoID string) (string, error) {
	in := attest.Input{
		UserAgent:     profile.UserAgent,
		ClientName:    profile.Name,
		ClientVersion: profile.Version,
		VisitorID:     visitorID,
		VideoID:       videoID,
	}
	key := attest.KeyFromInput(in)
	if c.po.cache != nil {
		if out, ok := c.po.cache.Get(key); ok && out.Token != "" &&
			(out.ExpiresAt.IsZero() || time.Until(out.ExpiresAt) > 0) {
			return out.Token, nil
		}
	}
	out, err := c.po.solver.Attest(ctx, in)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", nil
	}
	if out.ExpiresAt.IsZero() && c.po.ttl > 0 {
		out.ExpiresAt = time.Now().Add(c.po.ttl)
	}
	if c.po.cache != nil {
		c.po.cache.Set(key, out)
	}
	return out.Token, nil
}

// getVisitorID returns the cached visitor id, refreshing it when stale.
func (c *Client) getVisitorID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.visitorID.value != "" && time.Since(c.visitorID.updated) <= visitorIDMaxAge {
		return c.visitorID.value, nil
	}
	if err := c.refreshVisitorID(ctx); err != nil {
		return c.visitorID.value, err
	}
	return c.visitorID.value, nil
}

// refreshVisitorID scrapes a fresh visitor id from the site's embedded
// ytcfg block.
func (c *Client) refreshVisitorID(ctx context.Context) error {
	const sep = "\nytcfg.set("

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.youtube.com", nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", WebClient.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	_, tail, found := strings.Cut(string(data), sep)
	if !found {
		return errors.New("innertube: visitor id not found in page")
	}

	var value struct {
		InnertubeContext struct {
			Client struct {
				VisitorData string `json:"visitorData"`
			} `json:"client"`
		} `json:"INNERTUBE_CONTEXT"`
	}
	if err := json.NewDecoder(strings.NewReader(tail)).Decode(&value); err != nil {
		return err
	}

	c.visitorID.value = strings.ReplaceAll(value.InnertubeContext.Client.VisitorData, "%3D", "=")
	c.visitorID.updated = time.Now()
	return nil
}
