package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"mime"
	"net/url"
	"path"
	"time"

	"github.com/lysyi3m/jsonfeed-comb/app/cfg"
	"github.com/lysyi3m/jsonfeed-comb/app/database"
)

// Generator re-publishes stored JSON Feed items as RSS 2.0
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Run(feed database.Feed, items []database.Item) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	title := cmp.Or(feed.Title, feed.Name)
	g.writeElement(&buf, "title", title, 4)
	g.writeElement(&buf, "link", cmp.Or(feed.Link, feed.FeedURL), 4)
	description := feed.Description
	if description == "" {
		description = fmt.Sprintf("Processed feed from %s", feed.FeedURL)
	}
	g.writeElement(&buf, "description", description, 4)

	fmt.Fprintf(&buf, "    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(SelfLink(feed.Name)))

	lastBuildDate := time.Now().In(time.Local)
	if len(items) > 0 {
		lastBuildDate = cmp.Or(items[0].PublishedAt, items[0].CreatedAt, lastBuildDate)
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("JSON-Feed-Comb/%s", cfg.Get().Version), 4)

	if feed.IconURL != "" {
		buf.WriteString("    <image>\n")
		g.writeElement(&buf, "url", feed.IconURL, 6)
		g.writeElement(&buf, "title", title, 6)
		g.writeElement(&buf, "link", cmp.Or(feed.Link, feed.FeedURL), 6)
		buf.WriteString("    </image>\n")
	}

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

// SelfLink is the public URL the service serves a feed at
func SelfLink(feedName string) string {
	if baseURL := cfg.Get().BaseUrl; baseURL != "" {
		return fmt.Sprintf("%s/feeds/%s", baseURL, feedName)
	}
	return fmt.Sprintf("http://localhost:%s/feeds/%s", cfg.Get().Port, feedName)
}

func (g *Generator) writeItem(buf *bytes.Buffer, item database.Item) {
	buf.WriteString("    <item>\n")

	if item.GUID != "" {
		fmt.Fprintf(buf, "      <guid isPermaLink=\"%t\">", g.isURL(item.GUID))
		xml.EscapeText(buf, []byte(item.GUID))
		buf.WriteString("</guid>\n")
	}

	if item.Title != "" {
		g.writeElement(buf, "title", item.Title, 6)
	}

	if item.Link != "" {
		g.writeElement(buf, "link", item.Link, 6)
	}

	// Items without a summary carry their body as the description
	description := item.Summary
	if description == "" && item.Content != "" {
		description = item.Content
	}
	g.writeElement(buf, "description", cmp.Or(description, "No description available"), 6)

	if item.Content != "" && item.Content != description {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(item.Content)
		buf.WriteString("]]></content:encoded>\n")
	}

	g.writeElement(buf, "pubDate", item.PublishedAt.Format(time.RFC1123Z), 6)

	if len(item.Authors) > 0 && item.Authors[0] != "" {
		g.writeElement(buf, "author", item.Authors[0], 6)
	}

	for _, category := range item.Categories {
		if category != "" {
			g.writeElement(buf, "category", category, 6)
		}
	}

	// RSS 2.0 requires url, length and type; a length of 0 means unknown
	if imageType := g.imageType(item.ImageURL); imageType != "" {
		fmt.Fprintf(buf, "      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(item.ImageURL),
			html.EscapeString(imageType))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return (len(s) > 7 && s[:7] == "http://") || (len(s) > 8 && s[:8] == "https://")
}

// imageType guesses the MIME type of an image URL from its extension
func (g *Generator) imageType(imageURL string) string {
	if imageURL == "" {
		return ""
	}

	u, err := url.Parse(imageURL)
	if err != nil {
		return ""
	}

	mimeType := mime.TypeByExtension(path.Ext(u.Path))
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil && len(mediaType) > 6 && mediaType[:6] == "image/" {
		return mediaType
	}

	return ""
}
