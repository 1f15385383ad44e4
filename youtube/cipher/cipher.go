package cipher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ytget/streamres/internal/kvstore"
	"github.com/ytget/streamres/internal/logger"
)

const (
	userAgentValue  = "Mozilla/5.0"
	ytBase          = "https://www.youtube.com"
	playerJSURLRe   = `"jsUrl":"([^"]+)"`
	jsURLGroupIndex = 1 // capture group index for jsUrl

	// Player builds roll roughly daily; a fetched script stays valid for
	// its lifetime, so the body cache tracks that cadence.
	playerJSTTL = 24 * time.Hour

	storeKeyPrefix = "playerjs|"
)

var playerJSURLRegex = regexp.MustCompile(playerJSURLRe)

// Resolver derives and caches one Program per player script URL. Writes are
// idempotent: deriving the same program twice yields the same transforms, so
// a lost race merely wastes one derivation.
type Resolver struct {
	httpClient *http.Client
	store      kvstore.Store
	log        *logger.ComponentLogger

	mu       sync.Mutex
	programs map[string]*Program
	bodies   map[string]bodyEntry
}

type bodyEntry struct {
	body  string
	expAt time.Time
}

// NewResolver creates a Resolver that fetches player scripts with httpClient.
func NewResolver(httpClient *http.Client) *Resolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Resolver{
		httpClient: httpClient,
		log:        logger.Nop().WithComponent(logger.ComponentCipher),
		programs:   make(map[string]*Program),
		bodies:     make(map[string]bodyEntry),
	}
}

// WithStore mirrors fetched player script bodies to s so later process runs
// skip the network fetch.
func (r *Resolver) WithStore(s kvstore.Store) *Resolver {
	r.store = s
	return r
}

// WithLogger routes diagnostics through l.
func (r *Resolver) WithLogger(l *logger.Logger) *Resolver {
	r.log = l.WithComponent(logger.ComponentCipher)
	return r
}

// Program returns the compiled cipher program for playerJSURL, deriving it on
// first use.
func (r *Resolver) Program(ctx context.Context, playerJSURL string) (*Program, error) {
	r.mu.Lock()
	if p, ok := r.programs[playerJSURL]; ok {
		r.mu.Unlock()
		return p, nil
	}
	r.mu.Unlock()

	source, err := r.playerJS(ctx, playerJSURL)
	if err != nil {
		return nil, err
	}
	p, err := compileProgram(playerJSURL, source, r.log)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	// Keep the winner of a concurrent derivation so memoized results are
	// shared.
	if existing, ok := r.programs[playerJSURL]; ok {
		p = existing
	} else {
		r.programs[playerJSURL] = p
	}
	r.mu.Unlock()
	return p, nil
}

func (r *Resolver) playerJS(ctx context.Context, playerJSURL string) (string, error) {
	r.mu.Lock()
	entry, ok := r.bodies[playerJSURL]
	r.mu.Unlock()
	if ok && time.Now().Before(entry.expAt) {
		return entry.body, nil
	}

	if r.store != nil {
		if e, ok := r.store.Get(storeKeyPrefix + playerJSURL); ok {
			r.remember(playerJSURL, e.Value, e.ExpiresAt)
			return e.Value, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, playerJSURL, nil)
	if err != nil {
		return "", NewError(ErrCodePlayerJSDownload, "create request for player script", err.Error())
	}
	req.Header.Set("User-Agent", userAgentValue)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", NewError(ErrCodeSignatureTimeout, "player script fetch timed out", playerJSURL)
		}
		return "", NewError(ErrCodePlayerJSDownload, "download player script", err.Error())
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", NewError(ErrCodePlayerJSDownload, "download player script", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewError(ErrCodePlayerJSDownload, "read player script", err.Error())
	}

	expAt := time.Now().Add(playerJSTTL)
	r.remember(playerJSURL, string(body), expAt)
	if r.store != nil {
		r.store.Set(storeKeyPrefix+playerJSURL, kvstore.Entry{Value: string(body), ExpiresAt: expAt})
	}
	r.log.Debug("fetched player script", map[string]interface{}{"url": playerJSURL, "bytes": len(body)})
	return string(body), nil
}

func (r *Resolver) remember(playerJSURL, body string, expAt time.Time) {
	r.mu.Lock()
	r.bodies[playerJSURL] = bodyEntry{body: body, expAt: expAt}
	r.mu.Unlock()
}

// FindPlayerJSURL requests a video page and scrapes the "jsUrl" field for the
// current player script URL.
func FindPlayerJSURL(ctx context.Context, httpClient *http.Client, videoURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgentValue)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	matches := playerJSURLRegex.FindSubmatch(body)
	if len(matches) <= jsURLGroupIndex || len(matches[jsURLGroupIndex]) == 0 {
		return "", NewError(ErrCodePlayerJSNotFound, "no jsUrl field in video page", videoURL)
	}

	playerJSURL := strings.Replace(string(matches[jsURLGroupIndex]), `\/`, `/`, -1)
	if strings.HasPrefix(playerJSURL, "http") {
		return playerJSURL, nil
	}
	return ytBase + playerJSURL, nil
}
