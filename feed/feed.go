// Package feed renders the post list as an RSS or Atom feed.
package feed

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/feeds"
	"github.com/kyokomi/emoji"
	"github.com/pkg/errors"

	"jsonblog-api/models"
)

const summaryWords = 15

type Builder struct {
	Title   string
	SiteURL string
}

func NewBuilder(title, siteURL string) *Builder {
	return &Builder{Title: title, SiteURL: strings.TrimRight(siteURL, "/")}
}

// Feed lists posts newest first.
func (b *Builder) Feed(posts []models.Post) *feeds.Feed {
	feed := &feeds.Feed{
		Title:       b.Title,
		Link:        &feeds.Link{Href: b.SiteURL + "/"},
		Description: fmt.Sprintf("Latest posts from %s", b.Title),
		Id:          b.SiteURL + "/posts",
	}

	for i := len(posts) - 1; i >= 0; i-- {
		post := posts[i]
		link := b.SiteURL + "/posts/" + strconv.Itoa(post.ID)
		item := &feeds.Item{
			Title:       post.Title,
			Link:        &feeds.Link{Href: link},
			Id:          link,
			Author:      &feeds.Author{Name: post.Author},
			Created:     post.CreatedAt,
			Description: Summary(post.Content),
			Content:     emoji.Sprint(post.Content),
		}
		if post.CreatedAt.After(feed.Updated) {
			feed.Updated = post.CreatedAt
		}
		feed.Items = append(feed.Items, item)
	}
	return feed
}

func (b *Builder) RSS(posts []models.Post) (string, error) {
	s, err := b.Feed(posts).ToRss()
	return s, errors.Wrap(err, "can't render rss")
}

func (b *Builder) Atom(posts []models.Post) (string, error) {
	s, err := b.Feed(posts).ToAtom()
	return s, errors.Wrap(err, "can't render atom")
}

// Summary returns the visible text of content, shortened to its first words.
func Summary(content string) string {
	text := content
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(emoji.Sprint(text)), " ")
	if utf8.RuneCountInString(text) > 50 {
		words := strings.Fields(text)
		if len(words) > summaryWords {
			text = strings.Join(words[:summaryWords], " ") + "…"
		}
	}
	return text
}
