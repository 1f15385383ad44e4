package cipher

import (
	"strings"
	"sync"

	"github.com/ytget/streamres/internal/logger"
	"github.com/ytget/streamres/youtube/jsinterp"
)

// Program holds the compiled transforms of one player script version.
// Instances are shared across goroutines; memoized results are guarded.
type Program struct {
	URL string

	sig jsinterp.Func
	n   jsinterp.Func // nil when the script carries no throttle transform

	mu      sync.Mutex
	sigMemo map[string]string
	nMemo   map[string]string
}

func compileProgram(playerJSURL, source string, log *logger.ComponentLogger) (*Program, error) {
	sigName := findSigFnName(source)
	if sigName == "" {
		log.Error("signature function not located", map[string]interface{}{"url": playerJSURL})
		return nil, NewError(ErrCodeSignatureNotFound, "no signature function call site matched", playerJSURL)
	}
	sigFn, err := jsinterp.ExtractFunction(source, sigName)
	if err != nil {
		log.Error("signature function extraction failed", map[string]interface{}{
			"url": playerJSURL, "fn": sigName, "err": err.Error(),
		})
		return nil, NewError(ErrCodeExtractionFailed, "compile signature function "+sigName, err.Error())
	}

	p := &Program{
		URL:     playerJSURL,
		sig:     sigFn,
		sigMemo: make(map[string]string),
		nMemo:   make(map[string]string),
	}

	// Older player builds have no throttle transform; that is a valid
	// program, not a failure. A located-but-uncompilable one is a failure.
	if nName := findNFnName(source); nName != "" {
		nFn, err := jsinterp.ExtractFunction(source, nName)
		if err != nil {
			log.Error("throttle function extraction failed", map[string]interface{}{
				"url": playerJSURL, "fn": nName, "err": err.Error(),
			})
			return nil, NewError(ErrCodeExtractionFailed, "compile throttle function "+nName, err.Error())
		}
		p.n = nFn
	}
	return p, nil
}

// DecryptSignature descrambles one signature value. Results are memoized per
// program instance.
func (p *Program) DecryptSignature(scrambled string) (string, error) {
	if scrambled == "" {
		return "", NewError(ErrCodeSignatureInvalid, "empty signature")
	}
	p.mu.Lock()
	if out, ok := p.sigMemo[scrambled]; ok {
		p.mu.Unlock()
		return out, nil
	}
	p.mu.Unlock()

	out, err := p.sig(scrambled)
	if err != nil {
		return "", NewError(ErrCodeExtractionFailed, "run signature function", err.Error())
	}
	if out == "" {
		return "", NewError(ErrCodeSignatureInvalid, "signature function returned empty string")
	}

	p.mu.Lock()
	p.sigMemo[scrambled] = out
	p.mu.Unlock()
	return out, nil
}

// DecryptNParam de-throttles one n token. Scripts without a throttle
// transform pass the token through unchanged.
func (p *Program) DecryptNParam(token string) (string, error) {
	if p.n == nil || token == "" {
		return token, nil
	}
	p.mu.Lock()
	if out, ok := p.nMemo[token]; ok {
		p.mu.Unlock()
		return out, nil
	}
	p.mu.Unlock()

	out, err := p.n(token)
	if err != nil {
		return "", NewError(ErrCodeExtractionFailed, "run throttle function", err.Error())
	}
	// Some builds return an error marker prefixed with the input token
	// instead of failing; treat it as a failed transform.
	if strings.HasPrefix(out, "enhanced_except_") {
		return "", NewError(ErrCodeSignatureInvalid, "throttle function returned error marker", out)
	}

	p.mu.Lock()
	p.nMemo[token] = out
	p.mu.Unlock()
	return out, nil
}

// HasThrottle reports whether this player version carries an n transform.
func (p *Program) HasThrottle() bool { return p.n != nil }
