package innertube

import "strings"

// PlayerRequest is the JSON body of a /player call.
type PlayerRequest struct {
	Context                    Context                     `json:"context"`
	VideoID                    string                      `json:"videoId"`
	Params                     string                      `json:"params,omitempty"`
	ContentCheckOk             bool                        `json:"contentCheckOk,omitempty"`
	RacyCheckOk                bool                        `json:"racyCheckOk,omitempty"`
	PlaybackContext            PlaybackContext             `json:"playbackContext,omitempty"`
	ServiceIntegrityDimensions *ServiceIntegrityDimensions `json:"serviceIntegrityDimensions,omitempty"`
}

type Context struct {
	Client     ClientInfo     `json:"client"`
	User       UserContext    `json:"user,omitempty"`
	ThirdParty *ThirdParty    `json:"thirdParty,omitempty"`
	Request    RequestContext `json:"request,omitempty"`
}

type ClientInfo struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	DeviceMake        string `json:"deviceMake,omitempty"`
	DeviceModel       string `json:"deviceModel,omitempty"`
	UserAgent         string `json:"userAgent,omitempty"`
	OsName            string `json:"osName,omitempty"`
	OsVersion         string `json:"osVersion,omitempty"`
	AcceptLanguage    string `json:"hl"`
	VisitorData       string `json:"visitorData,omitempty"`
	TimeZone          string `json:"timeZone"`
	UtcOffsetMinutes  int    `json:"utcOffsetMinutes"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
}

type UserContext struct {
	LockedSafetyMode bool `json:"lockedSafetyMode,omitempty"`
}

type ThirdParty struct {
	EmbedUrl string `json:"embedUrl"`
}

type RequestContext struct {
	UseSsl bool `json:"useSsl"`
}

type PlaybackContext struct {
	ContentPlaybackContext ContentPlaybackContext `json:"contentPlaybackContext"`
}

type ContentPlaybackContext struct {
	Vis                int    `json:"vis"`
	Splay              bool   `json:"splay"`
	Html5Preference    string `json:"html5Preference"`
	Lact               int64  `json:"lact"`
	SignatureTimestamp int    `json:"signatureTimestamp,omitempty"`
}

type ServiceIntegrityDimensions struct {
	PoToken string `json:"poToken,omitempty"`
}

// RequestOptions tune one player request.
type RequestOptions struct {
	Language           string
	VisitorData        string
	AccessToken        string
	PoToken            string
	SignatureTimestamp int
	PlayerParams       string
}

// NewPlayerRequest builds the request body for one persona.
func NewPlayerRequest(profile ClientProfile, videoID string, opts RequestOptions) *PlayerRequest {
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	clientInfo := ClientInfo{
		ClientName:       profile.Name,
		ClientVersion:    profile.Version,
		UserAgent:        profile.UserAgent,
		AcceptLanguage:   lang,
		VisitorData:      opts.VisitorData,
		TimeZone:         "UTC",
		UtcOffsetMinutes: 0,
	}
	applyClientContextDefaults(&clientInfo, profile)

	req := &PlayerRequest{
		VideoID:        videoID,
		RacyCheckOk:    true,
		ContentCheckOk: true,
		Context: Context{
			Client:  clientInfo,
			Request: RequestContext{UseSsl: true},
		},
		PlaybackContext: PlaybackContext{
			ContentPlaybackContext: ContentPlaybackContext{
				Html5Preference: "HTML5_PREF_WANTS",
				Lact:            10000,
			},
		},
	}
	if opts.SignatureTimestamp > 0 {
		req.PlaybackContext.ContentPlaybackContext.SignatureTimestamp = opts.SignatureTimestamp
	}
	if opts.PlayerParams != "" {
		req.Params = opts.PlayerParams
	}
	if opts.PoToken != "" {
		req.ServiceIntegrityDimensions = &ServiceIntegrityDimensions{PoToken: opts.PoToken}
	}
	if profile.Screen == "EMBED" {
		req.Context.ThirdParty = &ThirdParty{EmbedUrl: "https://www.youtube.com/"}
	}
	return req
}

// applyClientContextDefaults fills the device fields the endpoint expects for
// each persona family.
func applyClientContextDefaults(client *ClientInfo, profile ClientProfile) {
	switch strings.ToUpper(strings.TrimSpace(profile.Name)) {
	case "ANDROID":
		client.OsName = "Android"
		client.OsVersion = "11"
		client.DeviceMake = "Google"
		client.DeviceModel = "Pixel 5"
		client.AndroidSdkVersion = 30
	case "ANDROID_VR":
		client.OsName = "Android"
		client.OsVersion = "12L"
		client.DeviceMake = "Oculus"
		client.DeviceModel = "Quest 3"
		client.AndroidSdkVersion = 32
	case "IOS":
		client.OsName = "iPhone"
		client.OsVersion = "18.3.2.22D82"
		client.DeviceMake = "Apple"
		client.DeviceModel = "iPhone16,2"
	case "MWEB":
		client.OsName = "iOS"
		client.OsVersion = "16.7.10"
		client.DeviceMake = "Apple"
		client.DeviceModel = "iPad"
	case "TVHTML5", "TVHTML5_SIMPLY_EMBEDDED_PLAYER":
		client.OsName = "Cobalt"
		client.OsVersion = "25"
		client.DeviceMake = "Unknown"
		client.DeviceModel = "TV"
	default:
		client.OsName = "Windows"
		client.OsVersion = "10.0"
		client.DeviceMake = "Microsoft"
		client.DeviceModel = "Desktop"
	}
}
