// Package streamres resolves a YouTube video id into an ordered list of
// playable stream candidates.
//
// Resolution walks an ordered set of client persona groups against the
// player endpoint, de-scrambles protected URLs through the cipher resolver,
// classifies every raw format entry, and — when adaptive video and audio
// survive — synthesizes a DASH manifest served from a loopback directory.
//
// Usage:
//
//	r := streamres.New().
//		WithConstraints(types.Constraints{MaxHeight: 1080, AllowHDR: true}).
//		WithLoopback("http://127.0.0.1:8090/streamres", "/tmp/streamres")
//	candidates, err := r.Resolve(ctx, "dQw4w9WgXcQ")
package streamres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ytget/streamres/client"
	"github.com/ytget/streamres/errs"
	"github.com/ytget/streamres/internal/attest"
	"github.com/ytget/streamres/internal/kvstore"
	"github.com/ytget/streamres/internal/logger"
	"github.com/ytget/streamres/internal/mimeext"
	"github.com/ytget/streamres/internal/sanitize"
	"github.com/ytget/streamres/types"
	"github.com/ytget/streamres/youtube/cipher"
	"github.com/ytget/streamres/youtube/dash"
	"github.com/ytget/streamres/youtube/hls"
	"github.com/ytget/streamres/youtube/innertube"
	"github.com/ytget/streamres/youtube/itags"
	"github.com/ytget/streamres/youtube/streams"
)

// Resolver is the stream-resolution entry point. Configure it with the
// chainable setters before the first Resolve call; a zero-configured
// resolver works with default personas, permissive constraints and no
// manifest synthesis.
type Resolver struct {
	httpClient  *http.Client
	log         *logger.Logger
	constraints types.Constraints
	language    string
	accessToken string
	loopback    string
	tempDir     string
	licenseURL  string
	store       kvstore.Store
	groups      []innertube.PersonaGroup

	po struct {
		solver attest.Solver
		mode   attest.Mode
		cache  attest.Cache
		ttl    time.Duration
	}

	once       sync.Once
	it         *innertube.Client
	ciphers    *cipher.Resolver
	hlsFetcher *hls.Fetcher
	clog       *logger.ComponentLogger
}

// New creates a resolver with default options.
func New() *Resolver {
	return &Resolver{
		log:    logger.Nop(),
		groups: innertube.DefaultGroups(),
		constraints: types.Constraints{
			AllowHDR: true, AllowHFR: true, AllowSurround: true,
		},
	}
}

// WithHTTPClient sets a custom HTTP client used for all network calls.
func (r *Resolver) WithHTTPClient(httpClient *http.Client) *Resolver {
	r.httpClient = httpClient
	return r
}

// WithLogger routes diagnostics through the given logger.
func (r *Resolver) WithLogger(log *logger.Logger) *Resolver {
	if log != nil {
		r.log = log
	}
	return r
}

// WithConstraints sets the quality gates applied during classification.
func (r *Resolver) WithConstraints(c types.Constraints) *Resolver {
	r.constraints = c
	return r
}

// WithLanguage sets the hl request field, shaping reason texts and default
// audio track selection.
func (r *Resolver) WithLanguage(lang string) *Resolver {
	r.language = lang
	return r
}

// WithAccessToken attaches OAuth credentials to player requests.
func (r *Resolver) WithAccessToken(token string) *Resolver {
	r.accessToken = token
	return r
}

// WithLoopback enables manifest synthesis: baseURL is the loopback file
// server's base URL and dir the directory it serves. Both must be set for
// DASH candidates to appear.
func (r *Resolver) WithLoopback(baseURL, dir string) *Resolver {
	r.loopback = baseURL
	r.tempDir = dir
	return r
}

// WithLicenseURL adds a DRM ContentProtection block to synthesized
// manifests.
func (r *Resolver) WithLicenseURL(u string) *Resolver {
	r.licenseURL = u
	return r
}

// WithStore mirrors cipher programs and player scripts into a persistent
// key-value store so repeated resolutions across process runs skip the
// fetch.
func (r *Resolver) WithStore(s kvstore.Store) *Resolver {
	r.store = s
	return r
}

// WithAttestation configures the po token solver, mode and cache.
func (r *Resolver) WithAttestation(solver attest.Solver, mode attest.Mode, cache attest.Cache) *Resolver {
	r.po.solver = solver
	r.po.mode = mode
	r.po.cache = cache
	return r
}

// WithAttestationTTL sets the TTL applied when the solver leaves ExpiresAt
// zero.
func (r *Resolver) WithAttestationTTL(ttl time.Duration) *Resolver {
	r.po.ttl = ttl
	return r
}

// WithPersonaGroups overrides the default persona group order.
func (r *Resolver) WithPersonaGroups(groups []innertube.PersonaGroup) *Resolver {
	if len(groups) > 0 {
		r.groups = groups
	}
	return r
}

func (r *Resolver) components() {
	r.once.Do(func() {
		if r.httpClient == nil {
			r.httpClient = client.New().HTTPClient
		}
		r.clog = r.log.WithComponent(logger.ComponentResolver)
		r.it = innertube.New(r.httpClient).WithLogger(r.log)
		if r.po.solver != nil {
			r.it.WithAttestation(r.po.solver, r.po.mode, r.po.cache)
			if r.po.ttl > 0 {
				r.it.WithAttestationTTL(r.po.ttl)
			}
		}
		r.ciphers = cipher.NewResolver(r.httpClient).WithLogger(r.log)
		if r.store != nil {
			r.ciphers = r.ciphers.WithStore(r.store)
		}
		r.hlsFetcher = hls.NewFetcher(&client.Client{HTTPClient: r.httpClient, Retries: 3}).WithLogger(r.log)
	})
}

// groupResult is one group's successful player response.
type groupResult struct {
	group    string
	persona  innertube.ClientProfile
	response *innertube.PlayerResponse
}

// Resolve walks the persona groups and returns the ranked candidate list.
// Fatal playability verdicts surface as *errs.Unplayable; an empty list
// after filtering is errs.ErrNoStreams; caller cancellation is
// errs.ErrAborted.
func (r *Resolver) Resolve(ctx context.Context, videoID string) ([]types.StreamCandidate, error) {
	r.components()

	results, err := r.gather(ctx, videoID)
	if err != nil {
		return nil, err
	}

	canonical := results[0].response
	classifier := streams.New(r.constraints).WithLogger(r.log)
	merged := r.merge(ctx, videoID, results, classifier)

	var out []types.StreamCandidate
	out = append(out, merged.progressive...)
	out = append(out, merged.video...)
	out = append(out, merged.audio...)

	if canonical.IsLive() && canonical.StreamingData.HlsManifestURL != "" {
		out = append(out, r.liveCandidates(ctx, canonical.StreamingData.HlsManifestURL, classifier)...)
	} else if len(merged.video) > 0 && len(merged.audio) > 0 && r.loopback != "" && r.tempDir != "" {
		subs := r.subtitles(ctx, videoID, canonical.Captions)
		builder := dash.NewBuilder(r.tempDir, r.loopback).
			WithMode(r.constraints.StreamSelect).
			WithLogger(r.log)
		served, rep, derr := builder.Build(videoID, merged.video, merged.audio, subs, r.licenseURL)
		if derr != nil {
			r.clog.Warn("manifest synthesis failed, falling back to progressive", map[string]interface{}{
				"videoId": videoID, "error": derr.Error(),
			})
		} else {
			rep.URL = served
			out = append(out, rep)
		}
	}

	if len(out) == 0 {
		if merged.cipherErr != nil {
			return nil, fmt.Errorf("every stream dropped: %w", merged.cipherErr)
		}
		return nil, fmt.Errorf("%w: video %s", errs.ErrNoStreams, videoID)
	}
	streams.Sort(out)
	return out, nil
}

// gather runs the persona state machine: iteration stops at the first
// success inside a group, later groups still run to widen format coverage,
// fatal verdicts abort everything.
func (r *Resolver) gather(ctx context.Context, videoID string) ([]groupResult, error) {
	var results []groupResult
	var last *innertube.Classification

	opts := innertube.RequestOptions{Language: r.language, AccessToken: r.accessToken}

	for _, group := range r.groups {
		for _, persona := range group.Profiles {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %v", errs.ErrAborted, err)
			}

			resp, err := r.it.GetPlayerResponse(ctx, persona, videoID, opts)
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("%w: %v", errs.ErrAborted, ctx.Err())
				}
				r.clog.Warn("player request failed, trying next persona", map[string]interface{}{
					"client": persona.Name, "group": group.Name, "error": err.Error(),
				})
				continue
			}

			class := innertube.Classify(resp.PlayabilityStatus)
			switch class.Verdict {
			case innertube.VerdictOK:
				r.clog.Info("persona succeeded", map[string]interface{}{
					"client": persona.Name, "group": group.Name,
				})
				results = append(results, groupResult{group: group.Name, persona: persona, response: resp})
			case innertube.VerdictFatal:
				return nil, class.Err()
			default:
				r.clog.Debug("persona refused", map[string]interface{}{
					"client": persona.Name, "group": group.Name,
					"status": class.Status, "reason": class.Reason,
				})
				last = &class
				continue
			}
			break // next group
		}
	}

	if len(results) == 0 {
		if last != nil {
			return nil, last.Err()
		}
		return nil, errs.NewUnplayable(errs.ErrVideoUnavailable, "UNKNOWN", "no persona returned player data")
	}
	return results, nil
}

type mergedFormats struct {
	progressive []types.StreamCandidate
	video       []types.StreamCandidate
	audio       []types.StreamCandidate
	// cipherErr records the last de-scrambling failure so an all-dropped
	// result can be told apart from a genuinely empty format list.
	cipherErr error
}

// merge flattens every group's format lists in declaration order,
// de-duplicating by format code, resolving protected URLs and classifying
// each entry.
func (r *Resolver) merge(ctx context.Context, videoID string, results []groupResult, classifier *streams.Classifier) mergedFormats {
	var merged mergedFormats
	seen := map[int]bool{}
	program := r.lazyProgram(ctx, videoID)

	for _, res := range results {
		sd := res.response.StreamingData
		for _, f := range append(append([]innertube.Format{}, sd.Formats...), sd.AdaptiveFormats...) {
			if seen[f.Itag] {
				continue
			}

			resolved, err := r.resolveFormatURL(f, program)
			if err != nil {
				if errors.Is(err, errs.ErrCipherFailed) {
					merged.cipherErr = err
				}
				r.clog.Warn("url de-scrambling failed, format dropped", map[string]interface{}{
					"itag": f.Itag, "error": err.Error(),
				})
				continue
			}
			f.URL = resolved

			cand, err := classifier.Classify(f)
			if err != nil {
				// Skip-signals are logged by the classifier.
				continue
			}
			seen[f.Itag] = true
			switch {
			case cand.AudioOnly:
				merged.audio = append(merged.audio, cand)
			case cand.VideoOnly:
				merged.video = append(merged.video, cand)
			default:
				merged.progressive = append(merged.progressive, cand)
			}
		}
	}
	return merged
}

// lazyProgram defers the player script fetch until the first protected
// entry actually needs it, then reuses the compiled program.
func (r *Resolver) lazyProgram(ctx context.Context, videoID string) func() (*cipher.Program, error) {
	var once sync.Once
	var prog *cipher.Program
	var err error
	return func() (*cipher.Program, error) {
		once.Do(func() {
			watchURL := "https://www.youtube.com/watch?v=" + videoID
			var jsURL string
			jsURL, err = cipher.FindPlayerJSURL(ctx, r.httpClient, watchURL)
			if err != nil {
				return
			}
			prog, err = r.ciphers.Program(ctx, jsURL)
		})
		return prog, err
	}
}

// resolveFormatURL produces the final playable URL for one raw entry:
// protected entries get the signature de-scrambled and appended, and any n
// throttle token is transformed in place.
func (r *Resolver) resolveFormatURL(f innertube.Format, program func() (*cipher.Program, error)) (string, error) {
	raw := f.URL
	blob := f.SignatureCipher
	if blob == "" {
		blob = f.Cipher
	}

	if raw == "" && blob != "" {
		vals, err := url.ParseQuery(blob)
		if err != nil {
			return "", fmt.Errorf("parse signature cipher: %w", err)
		}
		raw = vals.Get("url")
		if raw == "" {
			return "", errors.New("signature cipher without url")
		}
		scrambled := vals.Get("s")
		if scrambled != "" {
			prog, err := program()
			if err != nil {
				return "", fmt.Errorf("%w: %v", errs.ErrCipherFailed, err)
			}
			sig, err := prog.DecryptSignature(scrambled)
			if err != nil {
				return "", fmt.Errorf("%w: %v", errs.ErrCipherFailed, err)
			}
			param := vals.Get("sp")
			if param == "" {
				param = "signature"
			}
			raw += "&" + param + "=" + url.QueryEscape(sig)
		}
	}
	if raw == "" {
		return "", errors.New("format entry without url")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse format url: %w", err)
	}
	q := u.Query()
	if token := q.Get("n"); token != "" {
		prog, err := program()
		if err != nil {
			return "", fmt.Errorf("%w: %v", errs.ErrCipherFailed, err)
		}
		transformed, err := prog.DecryptNParam(token)
		if err != nil {
			return "", fmt.Errorf("%w: %v", errs.ErrCipherFailed, err)
		}
		q.Set("n", transformed)
		u.RawQuery = q.Encode()
		raw = u.String()
	}
	return raw, nil
}

// subtitles mirrors each caption track as a served WebVTT file, one per
// language, so the manifest can reference them as text AdaptationSets.
func (r *Resolver) subtitles(ctx context.Context, videoID string, captions *innertube.Captions) []dash.Subtitle {
	if captions == nil {
		return nil
	}
	var out []dash.Subtitle
	seen := map[string]bool{}
	for _, track := range captions.PlayerCaptionsTracklistRenderer.CaptionTracks {
		lang := track.LanguageCode
		if lang == "" || track.BaseURL == "" || seen[lang] {
			continue
		}
		name := sanitize.SubtitleFilename(videoID, lang)
		if err := r.fetchSubtitle(ctx, track.BaseURL, filepath.Join(r.tempDir, name)); err != nil {
			r.clog.Warn("caption track fetch failed, track dropped", map[string]interface{}{
				"lang": lang, "error": err.Error(),
			})
			continue
		}
		seen[lang] = true
		out = append(out, dash.Subtitle{
			URL:          r.loopback + "/" + name,
			LanguageCode: lang,
			Label:        track.Name.SimpleText,
			MimeType:     mimeext.MimeVTT,
		})
	}
	return out
}

// fetchSubtitle downloads one caption track in WebVTT form and writes it to
// path.
func (r *Resolver) fetchSubtitle(ctx context.Context, baseURL, path string) error {
	u := baseURL
	if strings.Contains(u, "?") {
		u += "&fmt=vtt"
	} else {
		u += "?fmt=vtt"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("caption endpoint returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o644)
}

// liveCandidates parses the live master playlist into per-quality entries.
// The master playlist itself is surfaced as the container-level candidate.
func (r *Resolver) liveCandidates(ctx context.Context, masterURL string, classifier *streams.Classifier) []types.StreamCandidate {
	variants, err := r.hlsFetcher.Master(ctx, masterURL)
	if err != nil {
		r.clog.Warn("live playlist parse failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	var out []types.StreamCandidate
	if master, err := classifier.Classify(innertube.Format{Itag: itags.ItagHLSMaster, URL: masterURL}); err == nil {
		out = append(out, master)
	}
	for _, v := range variants {
		cand, err := classifier.Classify(innertube.Format{
			Itag:    v.Itag,
			URL:     v.URL,
			Width:   v.Width,
			Height:  v.Height,
			FPS:     v.FrameRate,
			Bitrate: v.Bandwidth,
		})
		if err != nil {
			continue
		}
		out = append(out, cand)
	}
	return out
}
