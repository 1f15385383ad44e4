package innertube

// StreamingProtocol represents the protocol used for stream delivery.
type StreamingProtocol string

const (
	ProtocolHTTPS StreamingProtocol = "https"
	ProtocolDASH  StreamingProtocol = "dash"
	ProtocolHLS   StreamingProtocol = "hls"
)

// PoTokenPolicy defines a persona's policy for proof-of-origin tokens.
type PoTokenPolicy struct {
	Required                   bool
	Recommended                bool
	NotRequiredForPremium      bool
	NotRequiredWithPlayerToken bool
}

// ClientProfile describes one client persona: the name, version and headers
// the player endpoint uses to decide which formats and URLs to hand out.
type ClientProfile struct {
	Name            string
	Version         string
	APIKey          string
	UserAgent       string
	ContextNameID   int
	RequireJSPlayer bool
	SupportsCookies bool
	Host            string
	Screen          string // e.g. "EMBED"

	// PoTokenPolicy map keyed by protocol (https, dash, hls).
	PoTokenPolicy map[StreamingProtocol]PoTokenPolicy
}

// WantsPoToken reports whether this persona's policy asks for a po token on
// the given protocol.
func (p ClientProfile) WantsPoToken(proto StreamingProtocol) bool {
	policy, ok := p.PoTokenPolicy[proto]
	return ok && (policy.Required || policy.Recommended)
}

// PersonaGroup is an ordered set of personas tried as one unit. Iteration
// stops at the first success inside a group; later groups still run to widen
// format coverage.
type PersonaGroup struct {
	Name     string
	Profiles []ClientProfile
}

// DefaultGroups returns the persona groups in declared preference order:
// default players first, then DASH-capable surfaces, then progressive
// fallbacks.
func DefaultGroups() []PersonaGroup {
	return []PersonaGroup{
		{Name: "default", Profiles: []ClientProfile{AndroidClient, IOSClient, WebClient}},
		{Name: "dash", Profiles: []ClientProfile{TVClient, TVEmbeddedClient, WebEmbeddedClient}},
		{Name: "progressive", Profiles: []ClientProfile{MWebClient, WebSafariClient, AndroidVRClient}},
	}
}
