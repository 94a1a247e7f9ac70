// Package feed retrieves and parses YouTube channel syndication feeds.
package feed

import (
	"encoding/xml"
	"fmt"
	"time"
)

// AtomFeed represents a YouTube channel syndication feed.
// YouTube uses the Atom 1.0 format with custom YouTube namespaces.
type AtomFeed struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Title   string      `xml:"title"`
	Entries []AtomEntry `xml:"entry"`
}

// AtomEntry represents a video entry in the Atom feed.
type AtomEntry struct {
	VideoID   string    `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	ChannelID string    `xml:"http://www.youtube.com/xml/schemas/2015 channelId"`
	Title     string    `xml:"title"`
	Link      AtomLink  `xml:"link"`
	Published time.Time `xml:"published"`
	Updated   time.Time `xml:"updated"`
}

// AtomLink represents a link element in the Atom feed.
type AtomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

// ParseAtomFeed parses a channel syndication feed. It fails only when the
// document itself is not a parseable Atom feed; per-entry validation is
// the fetcher's concern.
func ParseAtomFeed(rawXML []byte) (*AtomFeed, error) {
	var f AtomFeed
	if err := xml.Unmarshal(rawXML, &f); err != nil {
		return nil, fmt.Errorf("unmarshal atom feed: %w", err)
	}
	return &f, nil
}

// VideoURL returns the entry's link, falling back to the canonical watch
// URL constructed from the video id.
func (e *AtomEntry) VideoURL() string {
	if e.Link.Href != "" {
		return e.Link.Href
	}
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", e.VideoID)
}
