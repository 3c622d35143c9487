package corpus

import (
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>  Great Shrine |  Visitor Guide </title>
<style>body { color: red; }</style>
<script>console.log("tracking");</script>
</head>
<body>
<nav>Home</nav>
<a rel="category tag" href="/tag/history/">History</a>
<a rel="category tag" href="/tag/festival/">Festival</a>
<a href="/other/">Unrelated link</a>
<p>The shrine   was founded
in 1604.</p>
<noscript>Please enable JavaScript.</noscript>
</body>
</html>`

func TestExtractPage(t *testing.T) {
	page, err := ExtractPage(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("ExtractPage failed: %v", err)
	}

	if page.Title != "Great Shrine | Visitor Guide" {
		t.Errorf("Unexpected title: %q", page.Title)
	}
	if len(page.Tags) != 2 || page.Tags[0] != "History" || page.Tags[1] != "Festival" {
		t.Errorf("Unexpected tags: %v", page.Tags)
	}
	if !strings.Contains(page.Body, "The shrine was founded in 1604.") {
		t.Errorf("Body text not normalized: %q", page.Body)
	}
	for _, leaked := range []string{"tracking", "color: red", "enable JavaScript"} {
		if strings.Contains(page.Body, leaked) {
			t.Errorf("Non-content text leaked into body: %q", leaked)
		}
	}
	if strings.Contains(page.Body, "Visitor Guide") {
		t.Errorf("Title text leaked into body: %q", page.Body)
	}
}

func TestExtractPageEmptyDocument(t *testing.T) {
	page, err := ExtractPage(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ExtractPage failed: %v", err)
	}
	if page.Title != "" || page.Body != "" || len(page.Tags) != 0 {
		t.Errorf("Expected empty page, got %+v", page)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  a  b  ", "a b"},
		{"a\n\tb\r\nc", "a b c"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeWhitespace(tt.in); got != tt.want {
			t.Errorf("NormalizeWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
