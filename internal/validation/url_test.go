package validation

import (
	"strings"
	"testing"
)

func TestNewFeedURLValidator(t *testing.T) {
	v := NewFeedURLValidator()
	if v == nil {
		t.Fatal("NewFeedURLValidator returned nil")
	}

	if v.AllowLocalhost {
		t.Error("Expected AllowLocalhost to be false for security")
	}
	if v.AllowPrivateIPs {
		t.Error("Expected AllowPrivateIPs to be false for security")
	}
	if v.MaxLength != 2048 {
		t.Errorf("Expected MaxLength to be 2048, got %d", v.MaxLength)
	}
}

func TestNewPermissiveFeedURLValidator(t *testing.T) {
	v := NewPermissiveFeedURLValidator()
	if !v.AllowLocalhost {
		t.Error("Expected AllowLocalhost to be true for permissive mode")
	}
	if !v.AllowPrivateIPs {
		t.Error("Expected AllowPrivateIPs to be true for permissive mode")
	}
}

func TestValidateAndNormalize(t *testing.T) {
	v := NewFeedURLValidator()

	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
		errorMsg    string
	}{
		{
			name:        "empty URL",
			input:       "",
			shouldError: true,
			errorMsg:    "URL cannot be empty",
		},
		{
			name:        "whitespace-only URL",
			input:       "   ",
			shouldError: true,
			errorMsg:    "URL cannot be empty",
		},
		{
			name:     "URL without protocol gets HTTPS",
			input:    "feeds.bbci.co.uk/news/rss.xml",
			expected: "https://feeds.bbci.co.uk/news/rss.xml",
		},
		{
			name:     "HTTP URL preserved",
			input:    "http://rss.cnn.com/rss/cnn_topstories.rss",
			expected: "http://rss.cnn.com/rss/cnn_topstories.rss",
		},
		{
			name:        "URL too long",
			input:       "https://news.example.org/" + strings.Repeat("a", 2100),
			shouldError: true,
			errorMsg:    "URL too long",
		},
		{
			name:        "invalid characters",
			input:       "https://news.example.org/<script>",
			shouldError: true,
			errorMsg:    "invalid characters",
		},
		{
			name:        "localhost rejected",
			input:       "http://localhost:8080/feed",
			shouldError: true,
			errorMsg:    "localhost URLs are not permitted",
		},
		{
			name:        "private IP rejected",
			input:       "http://192.168.1.10/feed",
			shouldError: true,
			errorMsg:    "private IP addresses are not permitted",
		},
		{
			name:        "unroutable host rejected",
			input:       "http://0.0.0.0/feed",
			shouldError: true,
			errorMsg:    "unroutable hostname",
		},
		{
			name:        "directory traversal rejected",
			input:       "https://news.example.org/a/../b",
			shouldError: true,
			errorMsg:    "directory traversal",
		},
		{
			name:        "javascript query rejected",
			input:       "https://news.example.org/feed?x=javascript:alert(1)",
			shouldError: true,
			errorMsg:    "suspicious query parameters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateAndNormalize(tt.input)

			if tt.shouldError {
				if err == nil {
					t.Fatalf("expected error containing %q, got result %q", tt.errorMsg, result)
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestPermissiveValidatorAllowsLocalTargets(t *testing.T) {
	v := NewPermissiveFeedURLValidator()

	for _, input := range []string{
		"http://localhost:8080/feed.xml",
		"http://127.0.0.1:41234/rss",
		"http://10.0.0.5/rss",
	} {
		if _, err := v.ValidateAndNormalize(input); err != nil {
			t.Errorf("permissive validator rejected %q: %v", input, err)
		}
	}
}

func TestCanonicalLink(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "already canonical",
			input:    "https://www.bbc.co.uk/news/world-123",
			expected: "https://www.bbc.co.uk/news/world-123",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  https://www.bbc.co.uk/news/world-123\n",
			expected: "https://www.bbc.co.uk/news/world-123",
		},
		{
			name:     "scheme and host lower-cased",
			input:    "HTTPS://WWW.BBC.CO.UK/news/World-123",
			expected: "https://www.bbc.co.uk/news/World-123",
		},
		{
			name:     "fragment removed",
			input:    "https://edition.cnn.com/story#comments",
			expected: "https://edition.cnn.com/story",
		},
		{
			name:     "default port removed",
			input:    "https://www.aljazeera.com:443/news/1",
			expected: "https://www.aljazeera.com/news/1",
		},
		{
			name:     "non-default port kept",
			input:    "http://127.0.0.1:8181/a",
			expected: "http://127.0.0.1:8181/a",
		},
		{
			name:     "tracking parameters dropped",
			input:    "https://www.ndtv.com/world/x?utm_source=rss&utm_medium=feed&fbclid=abc",
			expected: "https://www.ndtv.com/world/x",
		},
		{
			name:     "remaining parameters sorted",
			input:    "https://news.example.org/a?page=2&id=7&utm_campaign=z",
			expected: "https://news.example.org/a?id=7&page=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalLink(tt.input)
			if err != nil {
				t.Fatalf("CanonicalLink(%q) failed: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("CanonicalLink(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCanonicalLinkSameStory(t *testing.T) {
	a, err := CanonicalLink("https://www.bbc.co.uk/news/uk-1?at_medium=RSS&at_campaign=KARANGA")
	if err != nil {
		t.Fatal(err)
	}
	b, err := CanonicalLink("https://WWW.bbc.co.uk/news/uk-1#top")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("expected identical canonical links, got %q and %q", a, b)
	}
}

func TestCanonicalLinkRejects(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"mailto:desk@news.example.org",
		"/relative/path",
		"ftp://files.example.org/a",
	} {
		if _, err := CanonicalLink(input); err == nil {
			t.Errorf("CanonicalLink(%q) should fail", input)
		}
	}
}
