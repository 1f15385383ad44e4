/*
Package cipher derives and runs the URL de-obfuscation transforms embedded in
YouTube player scripts.

Stream URLs arrive either scrambled (a "signatureCipher" parameter whose "s"
value must be descrambled and re-attached) or throttled (an "n" query value
that must be transformed to avoid bandwidth capping). Both transforms are
defined by JavaScript functions inside the player script that the serving
player version references, and both change whenever a new player build ships.

# Architecture

1. Resolver
  - One Program per player script URL, derived once and reused
  - Player script bodies cached in memory for the build lifetime (~1 day)
  - Optional kvstore mirror persists bodies across process runs

2. Program
  - Transform function names located by structural call-site patterns
  - Bodies compiled by the jsinterp mini interpreter; no general-purpose
    JavaScript engine runs in this path
  - Decrypted values memoized per program instance

3. Error Handling
  - Structured errors with codes and details
  - JSON serialization support
  - Helper functions for error type checking

# Usage

	r := cipher.NewResolver(httpClient)
	p, err := r.Program(ctx, playerJSURL)
	if err != nil {
		return err
	}
	sig, err := p.DecryptSignature(scrambled)
	n, err := p.DecryptNParam(token)

Error handling:

	if err != nil {
		switch {
		case cipher.IsTimeout(err):
			// Handle timeout
		case cipher.IsNotFound(err):
			// Player build changed its call-site shape
		case cipher.IsExtraction(err):
			// Located function uses syntax the interpreter rejects
		default:
			// Handle other errors
		}
	}

# Error Codes

- PLAYER_JS_NOT_FOUND: player script URL not found in video page
- PLAYER_JS_DOWNLOAD_FAILED: failed to download the player script
- SIGNATURE_FN_NOT_FOUND: no signature call-site pattern matched
- THROTTLE_FN_NOT_FOUND: throttle marker present but name unresolvable
- EXTRACTION_FAILED: interpreter rejected or failed to run a transform
- SIGNATURE_INVALID: transform produced an unusable value
- SIGNATURE_TIMEOUT: player script fetch timed out

A failed derivation is always an explicit error. The transforms never fall
back to returning their input unchanged, since a pass-through cipher produces
an unplayable URL that is far harder to diagnose downstream.

# Thread Safety

Resolver and Program are safe for concurrent use. Program derivation is
idempotent per URL; concurrent first calls may derive twice and one result is
kept.
*/
package cipher
