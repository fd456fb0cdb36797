package spk

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Fixed request fields sent with every catalog query.
const (
	RequestLanguage = "enu"
	RequestTimezone = "Brussels"
)

// Channel is a package release track.
type Channel string

const (
	ChannelStable Channel = "stable"
	ChannelBeta   Channel = "beta"
)

// ChannelFor returns ChannelBeta when isBeta is set, else ChannelStable.
func ChannelFor(isBeta bool) Channel {
	if isBeta {
		return ChannelBeta
	}
	return ChannelStable
}

// Version is a DSM firmware version. Name is the registry key (for example
// "6.2.4-25556"); the numeric parts are sent to sources.
type Version struct {
	Name  string `toml:"name" json:"name"`
	Major int    `toml:"major" json:"major"`
	Minor int    `toml:"minor" json:"minor"`
	Build int    `toml:"build" json:"build"`
}

// String returns "major.minor-build".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d-%d", v.Major, v.Minor, v.Build)
}

// Device describes the NAS a catalog is requested for.
type Device struct {
	Arch    string
	Model   string
	Version Version
	Channel Channel
}

// Request is a catalog request ready to be sent to a source.
type Request struct {
	Form      url.Values
	UserAgent string
}

// Unique returns the "unique" field identifying the device to a source.
func (d Device) Unique() string {
	return "synology_" + d.Arch + "_" + d.Model
}

// BuildRequest derives the form fields and User-Agent for a catalog query.
// A non-empty customUserAgent wins; otherwise the User-Agent is the
// device's unique string.
func BuildRequest(d Device, customUserAgent string) Request {
	unique := d.Unique()
	channel := d.Channel
	if channel == "" {
		channel = ChannelStable
	}

	form := url.Values{}
	form.Set("language", RequestLanguage)
	form.Set("unique", unique)
	form.Set("arch", d.Arch)
	form.Set("major", strconv.Itoa(d.Version.Major))
	form.Set("minor", strconv.Itoa(d.Version.Minor))
	form.Set("build", strconv.Itoa(d.Version.Build))
	form.Set("package_update_channel", string(channel))
	form.Set("timezone", RequestTimezone)

	ua := customUserAgent
	if ua == "" {
		ua = unique
	}
	return Request{Form: form, UserAgent: ua}
}

// LegacyURL returns baseURL with exactly one trailing slash followed by the
// URL-encoded form as query string.
func LegacyURL(baseURL string, form url.Values) string {
	return strings.TrimRight(baseURL, "/") + "/?" + form.Encode()
}
