package feed

import (
	"strings"
	"testing"
	"time"

	"jsonblog-api/models"
)

var summaryTests = []struct {
	input    string
	expected string
}{
	{"plain text", "plain text"},
	{"<p>Hello <b>world</b></p>", "Hello world"},
	{"  spaced\n\tout  ", "spaced out"},
	{
		"one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen",
		"one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen…",
	},
}

func TestSummary(t *testing.T) {
	for _, test := range summaryTests {
		if got := Summary(test.input); got != test.expected {
			t.Errorf("Summary(%q) = %q, want %q", test.input, got, test.expected)
		}
	}
}

func TestFeedOrderAndLinks(t *testing.T) {
	b := NewBuilder("My Blog", "http://example.com/")
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := []models.Post{
		{ID: 1, Title: "first", Content: "a", Author: "ann", CreatedAt: t0},
		{ID: 2, Title: "second", Content: "b :smile:", Author: "bob", CreatedAt: t0.Add(time.Hour)},
	}

	f := b.Feed(posts)
	if len(f.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(f.Items))
	}
	if f.Items[0].Title != "second" || f.Items[1].Title != "first" {
		t.Errorf("items not newest first: %q, %q", f.Items[0].Title, f.Items[1].Title)
	}
	if f.Items[0].Link.Href != "http://example.com/posts/2" {
		t.Errorf("link = %q", f.Items[0].Link.Href)
	}
	if strings.Contains(f.Items[0].Content, ":smile:") {
		t.Errorf("emoji shortcode not expanded: %q", f.Items[0].Content)
	}
	if !f.Updated.Equal(t0.Add(time.Hour)) {
		t.Errorf("updated = %v", f.Updated)
	}
}

func TestRSSAndAtom(t *testing.T) {
	b := NewBuilder("My Blog", "http://example.com")
	posts := []models.Post{{ID: 1, Title: "hello", Content: "world", Author: "ann", CreatedAt: time.Now()}}

	rss, err := b.RSS(posts)
	if err != nil {
		t.Fatalf("RSS: %v", err)
	}
	if !strings.Contains(rss, "<rss") || !strings.Contains(rss, "hello") {
		t.Errorf("unexpected rss: %s", rss)
	}

	atom, err := b.Atom(posts)
	if err != nil {
		t.Fatalf("Atom: %v", err)
	}
	if !strings.Contains(atom, "<feed") || !strings.Contains(atom, "hello") {
		t.Errorf("unexpected atom: %s", atom)
	}
}
