package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/ytget/streamres"
	"github.com/ytget/streamres/client"
	"github.com/ytget/streamres/errs"
	"github.com/ytget/streamres/internal/logger"
	"github.com/ytget/streamres/types"
)

const (
	exitUsage      = 2
	exitUnplayable = 3
	exitNoStreams  = 4
)

func main() {
	var (
		flagQuality   int
		flagHDR       bool
		flagHFR       bool
		flagSurround  bool
		flagLang      string
		flagSelect    string
		flagServeRoot string
		flagServeAddr string
		flagLicense   string
		flagTimeout   time.Duration
		flagRetries   int
		flagUA        string
		flagProxy     string
		flagURLsOnly  bool
		flagLogLevel  string
	)

	flag.IntVar(&flagQuality, "quality", 0, "Max video height (e.g., 1080). 0 means unbounded")
	flag.BoolVar(&flagHDR, "hdr", true, "Allow HDR tracks")
	flag.BoolVar(&flagHFR, "hfr", true, "Allow tracks above 30 fps")
	flag.BoolVar(&flagSurround, "surround", true, "Allow audio with more than two channels")
	flag.StringVar(&flagLang, "lang", "", "Interface language (hl) for player requests")
	flag.StringVar(&flagSelect, "select", "auto", "Manifest composition: 'auto' (best rung per group) or 'list' (full ladder)")
	flag.StringVar(&flagServeRoot, "serve-root", "", "Directory to write and serve synthesized manifests from. Empty disables manifest synthesis")
	flag.StringVar(&flagServeAddr, "serve-addr", "127.0.0.1:0", "Loopback listen address for the manifest file server")
	flag.StringVar(&flagLicense, "license-url", "", "DRM license URL embedded into synthesized manifests")
	flag.DurationVar(&flagTimeout, "http-timeout", 30*time.Second, "HTTP timeout (e.g., 30s, 1m)")
	flag.IntVar(&flagRetries, "retries", 3, "HTTP retries for transient errors")
	flag.StringVar(&flagUA, "ua", "", "Override User-Agent header")
	flag.StringVar(&flagProxy, "proxy", "", "Proxy URL (http/https/socks)")
	flag.BoolVar(&flagURLsOnly, "urls", false, "Print candidate URLs only, one per line")
	flag.StringVar(&flagLogLevel, "log-level", "", "Log level (TRACE/DEBUG/INFO/WARN/ERROR). Overrides STREAMRES_LOG_LEVEL")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <video_url_or_id>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}

	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(exitUsage)
	}

	videoID, err := extractVideoID(strings.TrimSpace(args[0]))
	if err != nil || videoID == "" {
		fmt.Fprintf(os.Stderr, "Invalid video input: %v\n", err)
		os.Exit(exitUsage)
	}

	logCfg := logger.EnvironmentConfig()
	if flagLogLevel != "" {
		logCfg.Level = flagLogLevel
		for name := range logCfg.Components {
			logCfg.Components[name] = true
		}
	}
	log, err := logger.CreateLoggerFromConfig(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log configuration: %v\n", err)
		os.Exit(exitUsage)
	}

	c := client.NewWith(client.Config{
		Timeout: flagTimeout, Retries: flagRetries, UserAgent: flagUA, ProxyURL: flagProxy,
	})

	r := streamres.New().
		WithHTTPClient(c.HTTPClient).
		WithLogger(log).
		WithConstraints(types.Constraints{
			MaxHeight:     flagQuality,
			AllowHDR:      flagHDR,
			AllowHFR:      flagHFR,
			AllowSurround: flagSurround,
			StreamSelect:  flagSelect,
		}).
		WithLanguage(flagLang).
		WithLicenseURL(flagLicense)

	var serving bool
	if flagServeRoot != "" {
		baseURL, err := serveManifests(flagServeAddr, flagServeRoot)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start manifest server: %v\n", err)
			os.Exit(1)
		}
		r = r.WithLoopback(baseURL, flagServeRoot)
		serving = true
	}

	candidates, err := r.Resolve(context.Background(), videoID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		switch {
		case errors.Is(err, errs.ErrNoStreams):
			os.Exit(exitNoStreams)
		case isUnplayable(err):
			os.Exit(exitUnplayable)
		}
		os.Exit(1)
	}

	for i, cand := range candidates {
		if flagURLsOnly {
			fmt.Println(cand.URL)
			continue
		}
		fmt.Printf("%2d. itag=%-5d %s\n    %s\n", i+1, cand.Itag, cand.Title, cand.URL)
	}

	// Manifests point at the loopback server; keep it alive until the user
	// interrupts so a player can consume them.
	if serving && !flagURLsOnly {
		fmt.Fprintln(os.Stderr, "\nServing manifests; press Ctrl-C to stop.")
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
	}
}

func isUnplayable(err error) bool {
	var up *errs.Unplayable
	return errors.As(err, &up)
}

// serveManifests starts a loopback file server over dir and returns its base
// URL.
func serveManifests(addr, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	srv := &http.Server{Handler: http.FileServer(http.Dir(dir))}
	go func() { _ = srv.Serve(ln) }()
	return "http://" + ln.Addr().String(), nil
}

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

func extractVideoID(input string) (string, error) {
	if videoIDRe.MatchString(input) {
		return input, nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", err
	}
	if u.Host == "youtu.be" {
		return strings.TrimPrefix(u.Path, "/"), nil
	}
	if u.Host == "youtube.com" || u.Host == "www.youtube.com" || u.Host == "m.youtube.com" {
		if strings.HasPrefix(u.Path, "/watch") {
			return u.Query().Get("v"), nil
		}
		for _, prefix := range []string{"/shorts/", "/live/", "/embed/"} {
			if strings.HasPrefix(u.Path, prefix) {
				return strings.TrimPrefix(u.Path, prefix), nil
			}
		}
	}
	return "", fmt.Errorf("invalid youtube url")
}
