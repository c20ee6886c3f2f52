package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/texyhq/texy/internal/analysis"
	"github.com/texyhq/texy/internal/model"
)

// summaryRunes bounds the short description built from a feed item.
const summaryRunes = 300


func (f *Fetcher) fetchRSS(ctx context.Context, src Source) ([]model.Article, error) {
	body, err := f.get(ctx, src.URL, "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	parser := gofeed.NewParser()
	feed, err := parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	now := time.Now()
	articles := make([]model.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		articles = append(articles, convertFeedItem(item, feed, src, now))
	}
	return articles, nil
}

// convertFeedItem maps a feed item onto the article shape. Feeds carry no
// scores or trends; those stay at their defaults.
func convertFeedItem(item *gofeed.Item, feed *gofeed.Feed, src Source, fetchTime time.Time) model.Article {
	published := fetchTime
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	author := ""
	if item.Author != nil {
		author = item.Author.Name
	}

	description := PlainText(item.Description)
	body := PlainText(item.Content)
	if description == "" {
		description = body
	}
	if body == "" {
		body = description
	}

	tags := make([]string, 0, len(item.Categories))
	for _, c := range item.Categories {
		if c = strings.TrimSpace(c); c != "" {
			tags = append(tags, c)
		}
	}

	category := src.Category
	if category == "" {
		category = analysis.DetectCategory(item.Title, body)
	}

	return model.Article{
		ID:        generateID(item),
		Title:     strings.TrimSpace(item.Title),
		URL:       item.Link,
		Published: published.UTC().Format(time.RFC3339),
		Author:    author,
		ImageURL:  imageURL(item),
		Content: model.Content{
			ShortDescription: truncate(description, summaryRunes),
			LongDescription:  description,
			FullText:         body,
			ReadingTime:      model.ReadingMinutes(body),
		},
		Classification: model.Classification{
			Category: category,
			Tags:     tags,
		},
		Metadata: model.Metadata{
			Sources: []model.Source{feedSource(feed, src, item.Link)},
		},
	}
}

// generateID creates a deterministic ID for a feed item.
// Uses the GUID if available, otherwise hashes the URL.
func generateID(item *gofeed.Item) string {
	if item.GUID != "" {
		return hashString(item.GUID)
	}
	if item.Link != "" {
		return hashString(item.Link)
	}
	key := item.Title
	if item.PublishedParsed != nil {
		key += item.PublishedParsed.String()
	}
	return hashString(key)
}

func imageURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, e := range item.Enclosures {
		if strings.HasPrefix(e.Type, "image/") {
			return e.URL
		}
	}
	return FirstImage(item.Content)
}

func feedSource(feed *gofeed.Feed, src Source, link string) model.Source {
	s := model.Source{Name: src.Name}
	if feed != nil {
		s.URL = feed.Link
		if s.Name == "" {
			s.Name = feed.Title
		}
		if feed.Image != nil {
			s.Favicon = feed.Image.URL
		}
	}
	for _, raw := range []string{link, s.URL, src.URL} {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			s.Domain = strings.TrimPrefix(u.Hostname(), "www.")
			break
		}
	}
	return s
}

