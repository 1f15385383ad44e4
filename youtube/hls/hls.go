// Package hls parses live master playlists into per-quality variant entries.
//
// Live broadcasts expose an HLS master playlist instead of discrete format
// entries; each EXT-X-STREAM-INF variant maps onto one of the numeric live
// format codes by its resolution.
package hls

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ytget/streamres/client"
	"github.com/ytget/streamres/internal/logger"
)

// Variant is one quality rung of a live master playlist.
type Variant struct {
	Itag      int
	URL       string
	Bandwidth int
	Width     int
	Height    int
	FrameRate int
	Codecs    string
}

// itagForHeight maps variant heights onto the live ladder codes. Heights
// missing from the table leave Itag zero; callers drop those entries.
var itagForHeight = map[int]int{
	72:   151,
	144:  91,
	240:  92,
	360:  93,
	480:  94,
	720:  95,
	1080: 96,
}

// ParseMaster parses a master playlist body. Variant URIs are returned as
// written; use Fetcher.Master to resolve them against the playlist URL.
func ParseMaster(body string) []Variant {
	var out []Variant
	var pending *Variant
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			v := parseStreamInf(strings.TrimPrefix(line, "#EXT-X-STREAM-INF:"))
			pending = &v
		case line == "" || strings.HasPrefix(line, "#"):
			// Other tags and blanks do not break the INF/URI pairing.
		default:
			if pending != nil {
				pending.URL = line
				out = append(out, *pending)
				pending = nil
			}
		}
	}
	return out
}

func parseStreamInf(attrs string) Variant {
	var v Variant
	for key, value := range splitAttributes(attrs) {
		switch key {
		case "BANDWIDTH":
			v.Bandwidth, _ = strconv.Atoi(value)
		case "RESOLUTION":
			w, h, found := strings.Cut(value, "x")
			if found {
				v.Width, _ = strconv.Atoi(w)
				v.Height, _ = strconv.Atoi(h)
			}
		case "FRAME-RATE":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				v.FrameRate = int(f + 0.5)
			}
		case "CODECS":
			v.Codecs = value
		}
	}
	v.Itag = itagForHeight[v.Height]
	return v
}

// splitAttributes parses the comma-separated attribute list of a playlist
// tag, honoring quoted values that themselves contain commas.
func splitAttributes(attrs string) map[string]string {
	out := map[string]string{}
	for len(attrs) > 0 {
		eq := strings.IndexByte(attrs, '=')
		if eq < 0 {
			break
		}
		key := strings.TrimSpace(attrs[:eq])
		rest := attrs[eq+1:]
		var value string
		if strings.HasPrefix(rest, `"`) {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				value = rest[1:]
				rest = ""
			} else {
				value = rest[1 : end+1]
				rest = rest[end+2:]
			}
			rest = strings.TrimPrefix(rest, ",")
		} else {
			comma := strings.IndexByte(rest, ',')
			if comma < 0 {
				value = rest
				rest = ""
			} else {
				value = rest[:comma]
				rest = rest[comma+1:]
			}
		}
		out[key] = strings.TrimSpace(value)
		attrs = rest
	}
	return out
}

// Fetcher downloads and parses master playlists.
type Fetcher struct {
	client *client.Client
	log    *logger.ComponentLogger
}

// NewFetcher creates a fetcher; a nil client gets the package default.
func NewFetcher(c *client.Client) *Fetcher {
	if c == nil {
		c = client.New()
	}
	return &Fetcher{client: c, log: logger.Nop().WithComponent(logger.ComponentHLS)}
}

// WithLogger routes diagnostics through the given logger.
func (f *Fetcher) WithLogger(log *logger.Logger) *Fetcher {
	if log != nil {
		f.log = log.WithComponent(logger.ComponentHLS)
	}
	return f
}

// Master fetches a master playlist and returns its variants with URIs
// resolved to absolute URLs. Variants whose resolution has no live format
// code are dropped.
func (f *Fetcher) Master(ctx context.Context, masterURL string) ([]Variant, error) {
	resp, err := f.client.GetContext(ctx, masterURL)
	if err != nil {
		return nil, fmt.Errorf("hls: fetch master playlist: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hls: master playlist returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hls: read master playlist: %w", err)
	}

	base, err := url.Parse(masterURL)
	if err != nil {
		return nil, fmt.Errorf("hls: parse master url: %w", err)
	}

	parsed := ParseMaster(string(body))
	out := make([]Variant, 0, len(parsed))
	for _, v := range parsed {
		if v.Itag == 0 {
			f.log.Debug("variant without live format code dropped", map[string]interface{}{
				"height": v.Height, "bandwidth": v.Bandwidth,
			})
			continue
		}
		if ref, err := url.Parse(v.URL); err == nil {
			v.URL = base.ResolveReference(ref).String()
		}
		out = append(out, v)
	}
	f.log.Debug("master playlist parsed", map[string]interface{}{
		"url": masterURL, "variants": len(out),
	})
	return out, nil
}
