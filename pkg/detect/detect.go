// Package detect recognizes media links from known content providers.
package detect

import (
	"regexp"
	"strings"
)

// Provider couples a platform name with its URL pattern.
type Provider struct {
	Name    string
	Pattern *regexp.Regexp
}

// Match is a detected media link.
type Match struct {
	Platform string
	URL      string
}

// Registry is an ordered list of providers. Detection walks the list in
// registration order and the first provider whose pattern matches wins,
// so order is part of the contract.
type Registry struct {
	providers []Provider
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a provider to the end of the scan order.
func (r *Registry) Register(name, pattern string) *Registry {
	r.providers = append(r.providers, Provider{
		Name:    name,
		Pattern: regexp.MustCompile(pattern),
	})
	return r
}

// Detect returns the first provider match found in text, or nil.
// The matched substring gets an https:// scheme when it lacks one.
func (r *Registry) Detect(text string) *Match {
	if text == "" {
		return nil
	}
	for _, p := range r.providers {
		loc := p.Pattern.FindString(text)
		if loc == "" {
			continue
		}
		url := loc
		if !strings.HasPrefix(url, "http") {
			url = "https://" + url
		}
		return &Match{Platform: p.Name, URL: url}
	}
	return nil
}

// Providers returns the platform names in scan order.
func (r *Registry) Providers() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name
	}
	return names
}

// DefaultRegistry returns the built-in provider set: short-form video and
// reel/story hosts first, then the generic media-hosting domains yt-dlp
// also supports.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("youtube", `(?:https?://)?(?:www\.)?(?:youtube\.com/(?:shorts/|watch\?v=|embed/|v/|e/|user/|c/|channel/|playlist\?list=)?([a-zA-Z0-9_-]{11})|youtu\.be/([a-zA-Z0-9_-]{11}))`)
	r.Register("instagram", `(?:https?://)?(?:www\.)?instagram\.com/(?:p|tv|reel|share/reel)/([A-Za-z0-9_-]+)`)
	r.Register("tiktok", `(?:https?://)?(?:(?:www\.)?tiktok\.com/@[^/]+/video/\d+|vt\.tiktok\.com/[A-Za-z0-9_-]+)`)
	r.Register("twitter", `(?:https?://)?(?:www\.)?(?:twitter|x)\.com/(?:i/web|\w+)/status/(\d+)`)
	r.Register("facebook", `(?:https?://)?(?:www\.)?facebook\.com/(?:watch/\?v=|\w+/videos/|reel/|story\.php\?story_fbid=)([0-9]+)`)
	r.Register("vimeo", `(?:https?://)?(?:www\.)?vimeo\.com/(\d+)`)
	r.Register("dailymotion", `(?:https?://)?(?:www\.)?dai(?:ly)?motion\.com/(?:video|shorts)/([a-zA-Z0-9]+)`)
	r.Register("pinterest", `(?:https?://)?(?:www\.)?pinterest\.com/pin/(\d+)`)
	r.Register("reddit", `(?:https?://)?(?:www\.)?reddit\.com/r/[^/]+/comments/([a-zA-Z0-9]+)`)
	r.Register("likee", `(?:https?://)?(?:www\.)?likee\.video/v/([a-zA-Z0-9]+)`)
	r.Register("kwai", `(?:https?://)?(?:www\.)?kwai\.com/video/([a-zA-Z0-9]+)`)
	r.Register("pornhub", `(?:https?://)?(?:www\.)?pornhub\.com/(?:view_video\.php\?viewkey=|video/)([a-zA-Z0-9_\-]+)`)
	r.Register("xvideos", `(?:https?://)?(?:www\.)?xvideos\.com/video(\d+)/?(?:[\w\-]*)`)
	r.Register("xnxx", `(?:https?://)?(?:www\.)?xnxx\.com/(?:video|player)/(?:[a-zA-Z0-9_\-/]+)`)
	r.Register("xhamster", `(?:https?://)?(?:www\.)?xhamster\.com/(?:videos)/(?:[a-zA-Z0-9_\-/]+)`)
	r.Register("redtube", `(?:https?://)?(?:www\.)?redtube\.com/(?:\w+)/(\d+)`)
	r.Register("youporn", `(?:https?://)?(?:www\.)?youporn\.com/(?:watch|video)/(\d+)`)
	return r
}
