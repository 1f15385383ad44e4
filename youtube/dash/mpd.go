package dash

import "encoding/xml"

// MPD is the root of the synthesized manifest document.
type MPD struct {
	XMLName                   xml.Name `xml:"MPD"`
	Xmlns                     string   `xml:"xmlns,attr"`
	Profiles                  string   `xml:"profiles,attr"`
	Type                      string   `xml:"type,attr"`
	MinBufferTime             string   `xml:"minBufferTime,attr"`
	MediaPresentationDuration string   `xml:"mediaPresentationDuration,attr,omitempty"`
	Periods                   []Period `xml:"Period"`
}

type Period struct {
	Duration       string          `xml:"duration,attr,omitempty"`
	AdaptationSets []AdaptationSet `xml:"AdaptationSet"`
}

type AdaptationSet struct {
	ID                  int                `xml:"id,attr"`
	MimeType            string             `xml:"mimeType,attr"`
	Lang                string             `xml:"lang,attr,omitempty"`
	SubsegmentAlignment bool               `xml:"subsegmentAlignment,attr"`
	ContentProtection   *ContentProtection `xml:"ContentProtection,omitempty"`
	Role                *Role              `xml:"Role,omitempty"`
	Representations     []Representation   `xml:"Representation"`
}

// ContentProtection is the synthetic DRM block emitted when a license URL is
// configured. The scheme id is Widevine's registered UUID.
type ContentProtection struct {
	SchemeIDURI string `xml:"schemeIdUri,attr"`
	LicenseURL  string `xml:"licenseUrl,attr,omitempty"`
}

type Role struct {
	SchemeIDURI string `xml:"schemeIdUri,attr"`
	Value       string `xml:"value,attr"`
}

type Representation struct {
	ID                        string                     `xml:"id,attr"`
	Codecs                    string                     `xml:"codecs,attr,omitempty"`
	Bandwidth                 int                        `xml:"bandwidth,attr"`
	Width                     int                        `xml:"width,attr,omitempty"`
	Height                    int                        `xml:"height,attr,omitempty"`
	FrameRate                 int                        `xml:"frameRate,attr,omitempty"`
	AudioSamplingRate         string                     `xml:"audioSamplingRate,attr,omitempty"`
	AudioChannelConfiguration *AudioChannelConfiguration `xml:"AudioChannelConfiguration,omitempty"`
	BaseURLs                  []string                   `xml:"BaseURL"`
	SegmentBase               *SegmentBase               `xml:"SegmentBase,omitempty"`
}

type AudioChannelConfiguration struct {
	SchemeIDURI string `xml:"schemeIdUri,attr"`
	Value       int    `xml:"value,attr"`
}

type SegmentBase struct {
	IndexRange     string          `xml:"indexRange,attr,omitempty"`
	Initialization *Initialization `xml:"Initialization,omitempty"`
}

type Initialization struct {
	Range string `xml:"range,attr"`
}

const (
	mpdNamespace      = "urn:mpeg:dash:schema:mpd:2011"
	mpdProfiles       = "urn:mpeg:dash:profile:isoff-main:2011"
	widevineSchemeURI = "urn:uuid:EDEF8BA9-79D6-4ACE-A3C8-27DCD51D21ED"
	roleSchemeURI     = "urn:mpeg:dash:role:2011"
)
