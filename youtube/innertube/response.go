package innertube

// PlayerResponse is the decoded body of a /player call. Only the fields the
// resolution pipeline consumes are mapped; the endpoint returns far more.
type PlayerResponse struct {
	PlayabilityStatus PlayabilityStatus `json:"playabilityStatus"`
	StreamingData     StreamingData     `json:"streamingData"`
	VideoDetails      VideoDetails      `json:"videoDetails"`
	Microformat       Microformat       `json:"microformat"`
	Captions          *Captions         `json:"captions,omitempty"`
}

// PlayabilityStatus carries the endpoint's verdict on whether this persona
// may play the video, and why not.
type PlayabilityStatus struct {
	Status               string             `json:"status"`
	Reason               string             `json:"reason"`
	PlayableInEmbed      bool               `json:"playableInEmbed"`
	LiveStreamability    *LiveStreamability `json:"liveStreamability,omitempty"`
	ErrorScreen          *ErrorScreen       `json:"errorScreen,omitempty"`
	DesktopLegacyAgeGate bool               `json:"desktopLegacyAgeGate,omitempty"`
}

type LiveStreamability struct {
	LiveStreamabilityRenderer struct {
		VideoID          string `json:"videoId"`
		BroadcastID      string `json:"broadcastId"`
		PollDelayMs      string `json:"pollDelayMs"`
		DisplayEndscreen bool   `json:"displayEndscreen"`
	} `json:"liveStreamabilityRenderer"`
}

type ErrorScreen struct {
	PlayerErrorMessageRenderer struct {
		Subreason struct {
			SimpleText string `json:"simpleText"`
		} `json:"subreason"`
	} `json:"playerErrorMessageRenderer"`
}

// ReasonText returns the most specific human-readable refusal text available.
func (p PlayabilityStatus) ReasonText() string {
	if p.ErrorScreen != nil {
		if sub := p.ErrorScreen.PlayerErrorMessageRenderer.Subreason.SimpleText; sub != "" {
			return p.Reason + ": " + sub
		}
	}
	return p.Reason
}

// StreamingData lists the format entries and manifest URLs the persona was
// handed.
type StreamingData struct {
	ExpiresInSeconds string   `json:"expiresInSeconds"`
	Formats          []Format `json:"formats"`
	AdaptiveFormats  []Format `json:"adaptiveFormats"`
	DashManifestURL  string   `json:"dashManifestUrl"`
	HlsManifestURL   string   `json:"hlsManifestUrl"`
}

// Format is one raw format entry. URL and SignatureCipher/Cipher are mutually
// exclusive: protected streams carry the cipher blob instead of a direct URL.
type Format struct {
	Itag             int         `json:"itag"`
	URL              string      `json:"url"`
	SignatureCipher  string      `json:"signatureCipher"`
	Cipher           string      `json:"cipher"`
	MimeType         string      `json:"mimeType"`
	Bitrate          int         `json:"bitrate"`
	AverageBitrate   int         `json:"averageBitrate"`
	Width            int         `json:"width"`
	Height           int         `json:"height"`
	FPS              int         `json:"fps"`
	QualityLabel     string      `json:"qualityLabel"`
	ContentLength    string      `json:"contentLength"`
	ApproxDurationMs string      `json:"approxDurationMs"`
	AudioSampleRate  string      `json:"audioSampleRate"`
	AudioChannels    int         `json:"audioChannels"`
	LastModified     string      `json:"lastModified"`
	Quality          string      `json:"quality"`
	ProjectionType   string      `json:"projectionType"`
	ColorInfo        *ColorInfo  `json:"colorInfo,omitempty"`
	InitRange        *RangeInfo  `json:"initRange,omitempty"`
	IndexRange       *RangeInfo  `json:"indexRange,omitempty"`
	AudioTrack       *AudioTrack `json:"audioTrack,omitempty"`
	IsDrc            bool        `json:"isDrc,omitempty"`
}

type ColorInfo struct {
	Primaries               string `json:"primaries"`
	TransferCharacteristics string `json:"transferCharacteristics"`
	MatrixCoefficients      string `json:"matrixCoefficients"`
}

type RangeInfo struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AudioTrack is the language/role annotation carried by multi-audio formats.
type AudioTrack struct {
	DisplayName    string `json:"displayName"`
	ID             string `json:"id"`
	AudioIsDefault bool   `json:"audioIsDefault"`
}

type VideoDetails struct {
	VideoID           string   `json:"videoId"`
	Title             string   `json:"title"`
	LengthSeconds     string   `json:"lengthSeconds"`
	ChannelID         string   `json:"channelId"`
	ShortDescription  string   `json:"shortDescription"`
	ViewCount         string   `json:"viewCount"`
	Author            string   `json:"author"`
	IsLiveContent     bool     `json:"isLiveContent"`
	IsLive            bool     `json:"isLive"`
	IsUpcoming        bool     `json:"isUpcoming"`
	IsPrivate         bool     `json:"isPrivate"`
	Keywords          []string `json:"keywords"`
}

type Microformat struct {
	PlayerMicroformatRenderer struct {
		LengthSeconds      string   `json:"lengthSeconds"`
		OwnerChannelName   string   `json:"ownerChannelName"`
		Category           string   `json:"category"`
		PublishDate        string   `json:"publishDate"`
		UploadDate         string   `json:"uploadDate"`
		AvailableCountries []string `json:"availableCountries"`
		IsUnlisted         bool     `json:"isUnlisted"`
	} `json:"playerMicroformatRenderer"`
}

type Captions struct {
	PlayerCaptionsTracklistRenderer struct {
		CaptionTracks []CaptionTrack `json:"captionTracks"`
	} `json:"playerCaptionsTracklistRenderer"`
}

type CaptionTrack struct {
	BaseURL        string `json:"baseUrl"`
	LanguageCode   string `json:"languageCode"`
	Kind           string `json:"kind"`
	IsTranslatable bool   `json:"isTranslatable"`
	Name           struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
}

// IsOK reports whether this persona was granted playback.
func (p *PlayerResponse) IsOK() bool {
	return p.PlayabilityStatus.Status == "OK"
}

// IsLive reports whether the response describes an active live broadcast.
func (p *PlayerResponse) IsLive() bool {
	return p.VideoDetails.IsLive || p.StreamingData.HlsManifestURL != ""
}
