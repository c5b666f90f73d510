package pageclassifier

import (
	"testing"

	"github.com/codermillat/BDLawCorpus-sub002/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want domain.PageType
	}{
		{"volume", "http://bdlaws.minlaw.gov.bd/volume-56.html", domain.PageVolume},
		{"act details", "http://bdlaws.minlaw.gov.bd/act-details-367.html", domain.PageActDetails},
		{"act legacy", "http://bdlaws.minlaw.gov.bd/act-367.html", domain.PageActDetails},
		{"act summary", "http://bdlaws.minlaw.gov.bd/act-print-367.html", domain.PageActSummary},
		{"chrono index", "http://bdlaws.minlaw.gov.bd/laws-of-bangladesh-chronological-index.html", domain.PageChronologicalIndex},
		{"alpha index", "http://bdlaws.minlaw.gov.bd/laws-of-bangladesh-alphabetical-index.html", domain.PageAlphabeticalIndex},
		{"range index", "http://bdlaws.minlaw.gov.bd/laws-of-bangladesh.html", domain.PageRangeIndex},
		{"disallowed host", "http://evil.example.com/act-details-1.html", domain.PageInvalid},
		{"unknown path", "http://bdlaws.minlaw.gov.bd/about.html", domain.PageInvalid},
		{"malformed", "http://[::1]:badport/", domain.PageInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.url); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.url, got, tt.want)
			}
			// determinism: same input, same output
			if got2 := Classify(tt.url); got2 != Classify(tt.url) {
				t.Errorf("Classify(%q) not deterministic: %v vs %v", tt.url, got2, Classify(tt.url))
			}
		})
	}
}

func TestIsAllowedDomain(t *testing.T) {
	if !IsAllowedDomain("http://bdlaws.minlaw.gov.bd/volume-1.html") {
		t.Error("expected allowed host to be accepted")
	}
	if IsAllowedDomain("http://example.com/volume-1.html") {
		t.Error("expected disallowed host to be rejected")
	}
}

func TestExtractVolumeNumber(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://bdlaws.minlaw.gov.bd/volume-56.html", "56"},
		{"http://bdlaws.minlaw.gov.bd/volume-1.html", "1"},
		{"http://bdlaws.minlaw.gov.bd/act-details-1.html", "unknown"},
		{"not a url at all but still parses", "unknown"},
	}
	for _, tt := range tests {
		if got := ExtractVolumeNumber(tt.url); got != tt.want {
			t.Errorf("ExtractVolumeNumber(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestExtractInternalID(t *testing.T) {
	if got := ExtractInternalID("http://bdlaws.minlaw.gov.bd/act-details-367.html"); got != "367" {
		t.Errorf("got %q, want 367", got)
	}
	if got := ExtractInternalID("http://bdlaws.minlaw.gov.bd/volume-1.html"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/act-details-1.html", "http://bdlaws.minlaw.gov.bd/act-details-1.html"},
		{"http://bdlaws.minlaw.gov.bd/act-details-1.html", "http://bdlaws.minlaw.gov.bd/act-details-1.html"},
		{"//act-details-1.html", "http://bdlaws.minlaw.gov.bd/act-details-1.html"},
	}
	for _, tt := range tests {
		got := NormalizeURL(tt.in)
		if got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got[:7] != "http://" {
			t.Errorf("NormalizeURL(%q) does not start with scheme: %q", tt.in, got)
		}
	}
}
