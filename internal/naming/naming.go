// Package naming derives safe target filenames from media titles and
// disambiguates collisions with site-specific identifier suffixes.
package naming

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxNameLen bounds the sanitized base name so the final path stays well
// under common filesystem limits even with suffixes and extensions added.
const maxNameLen = 200

var illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SanitizeFilename converts an arbitrary title into a filename that is
// safe on common filesystems. Control and reserved characters become
// underscores, the result is Unicode-normalized, and trailing dots and
// spaces are stripped. An empty or fully-stripped title yields "untitled".
func SanitizeFilename(title string) string {
	name := norm.NFC.String(strings.TrimSpace(title))
	name = illegalChars.ReplaceAllString(name, "_")
	name = strings.TrimRight(name, ". ")
	if len(name) > maxNameLen {
		runes := []rune(name)
		if len(runes) > maxNameLen {
			runes = runes[:maxNameLen]
		}
		name = strings.TrimRight(string(runes), ". ")
	}
	if name == "" {
		return "untitled"
	}
	return name
}

// suffixStrategy extracts a short identifier from a media URL when the
// URL matches the strategy's site. It returns "" when it does not apply.
type suffixStrategy func(u *url.URL) string

var suffixStrategies = []suffixStrategy{
	bilibiliSuffix,
	youtubeSuffix,
}

var bilibiliID = regexp.MustCompile(`(BV[0-9A-Za-z]{10})`)

func bilibiliSuffix(u *url.URL) string {
	if !strings.HasSuffix(u.Hostname(), "bilibili.com") {
		return ""
	}
	if m := bilibiliID.FindString(u.Path); m != "" {
		return m
	}
	return ""
}

func youtubeSuffix(u *url.URL) string {
	host := u.Hostname()
	switch {
	case strings.HasSuffix(host, "youtube.com"):
		return u.Query().Get("v")
	case host == "youtu.be":
		return strings.Trim(u.Path, "/")
	}
	return ""
}

// SiteSuffix returns a short site-specific identifier derived from the
// media URL, or "" for unrecognized sites. The identifier keeps two
// uploads with the same title from colliding on one filename.
func SiteSuffix(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	for _, strategy := range suffixStrategies {
		if suffix := strategy(u); suffix != "" {
			return suffix
		}
	}
	return ""
}

// TargetName builds the base filename for a media descriptor: the
// sanitized title, plus the site suffix when one is available and the
// title does not already contain it.
func TargetName(title, rawURL string) string {
	name := SanitizeFilename(title)
	suffix := SiteSuffix(rawURL)
	if suffix != "" && !strings.Contains(name, suffix) {
		name = name + " [" + suffix + "]"
	}
	return name
}
