// Package pageclassifier maps a URL to a PageType by pattern-matching on
// the path structure of the source site. It is a pure function: same URL
// in, same PageType out, no I/O (C1 of the corpus pipeline).
package pageclassifier

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

// AllowedHost is the single source domain every extraction, URL
// normalization, and absolute-URL generation is anchored to (§6.5).
const AllowedHost = "bdlaws.minlaw.gov.bd"

var (
	actDetailsRe  = regexp.MustCompile(`/act-details-\d+\.html$`)
	actLegacyRe   = regexp.MustCompile(`/act-\d+\.html$`)
	actSummaryRe  = regexp.MustCompile(`/act-print-\d+\.html$`)
	volumeRe      = regexp.MustCompile(`/volume-\d+\.html$`)
	chronoRe      = regexp.MustCompile(`/laws-of-bangladesh-chronological-index\.html$`)
	alphaRe       = regexp.MustCompile(`/laws-of-bangladesh-alphabetical-index\.html$`)
	rangeIndexRe  = regexp.MustCompile(`/laws-of-bangladesh\.html$`)
	volumeDigitsRe = regexp.MustCompile(`/volume-(\d+)\.html$`)
)

// IsAllowedDomain reports whether url belongs to the single allowed host.
func IsAllowedDomain(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), AllowedHost)
}

// Classify maps a URL to its PageType. It never performs I/O and always
// returns the same variant for the same input (§4.1, §8 determinism).
func Classify(rawURL string) domain.PageType {
	if !IsAllowedDomain(rawURL) {
		return domain.PageInvalid
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return domain.PageInvalid
	}
	path := parsed.Path

	switch {
	case actDetailsRe.MatchString(path), actLegacyRe.MatchString(path):
		return domain.PageActDetails
	case actSummaryRe.MatchString(path):
		return domain.PageActSummary
	case volumeRe.MatchString(path):
		return domain.PageVolume
	case chronoRe.MatchString(path):
		return domain.PageChronologicalIndex
	case alphaRe.MatchString(path):
		return domain.PageAlphabeticalIndex
	case rangeIndexRe.MatchString(path):
		return domain.PageRangeIndex
	default:
		return domain.PageInvalid
	}
}

// ExtractVolumeNumber returns the digits in a "/volume-<digits>.html" URL,
// or "unknown" for any other URL. Total and deterministic (§8 property 4).
func ExtractVolumeNumber(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	m := volumeDigitsRe.FindStringSubmatch(parsed.Path)
	if m == nil {
		return "unknown"
	}
	return m[1]
}

// ExtractInternalID pulls the source database's numeric identifier out of
// an act URL matching "act(-details)?-<digits>.html". Returns "" if the URL
// does not carry an internal id.
func ExtractInternalID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	for _, re := range []*regexp.Regexp{actDetailsRe, actLegacyRe, actSummaryRe} {
		if loc := re.FindStringIndex(parsed.Path); loc != nil {
			digits := regexp.MustCompile(`\d+`).FindString(parsed.Path[loc[0]:loc[1]])
			return digits
		}
	}
	return ""
}

// NormalizeURL resolves a relative URL against the fixed allowed-host base
// and leaves already-absolute URLs untouched (§4.2, §8 property 5).
func NormalizeURL(raw string) string {
	base := &url.URL{Scheme: "http", Host: AllowedHost}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "http://" + AllowedHost + "/"
	}
	if parsed.Scheme == "" && parsed.Host != "" {
		// A scheme-less "//path" is a relative path with a doubled slash,
		// not a host name: collapse the slashes before resolving.
		if parsed, err = url.Parse(collapseSlashes(raw)); err != nil {
			return "http://" + AllowedHost + "/"
		}
	}
	resolved := base.ResolveReference(parsed)
	resolved.Path = collapseSlashes(resolved.Path)
	return resolved.String()
}

func collapseSlashes(path string) string {
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return path
}
