// Package contents defines saved content records and their SQLite-backed store.
package contents

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKind   = errors.New("unknown content kind")
	ErrInvalidRecord = errors.New("invalid content record")
)

// Kind is the variant of a saved item. It never changes after creation.
type Kind string

const (
	KindVideo     Kind = "Video"
	KindMeme      Kind = "Meme"
	KindNews      Kind = "News"
	KindWebsite   Kind = "Website"
	KindImage     Kind = "Image"
	KindDirection Kind = "Direction"
)

// Kinds lists every variant in display order.
var Kinds = []Kind{KindVideo, KindMeme, KindNews, KindWebsite, KindImage, KindDirection}

// ParseKind resolves a variant name case-insensitively.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Record is one saved item as persisted in the contents table.
// ID is zero until the Store assigns it. Empty strings mean "not set".
type Record struct {
	ID          int64    `json:"id,omitempty"`
	Kind        Kind     `json:"type"`
	URL         string   `json:"url,omitempty"`
	Title       string   `json:"title,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Description string   `json:"description,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Comment     string   `json:"comment,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags"`
	Favorite    bool     `json:"isFavorite"`
	Directions  string   `json:"directions,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Created     string   `json:"created,omitempty"`
}

// Clone returns a deep copy so callers can't alias cached slices or pointers.
func (r Record) Clone() Record {
	c := r
	if r.Tags != nil {
		c.Tags = append([]string{}, r.Tags...)
	}
	if r.Latitude != nil {
		lat := *r.Latitude
		c.Latitude = &lat
	}
	if r.Longitude != nil {
		lng := *r.Longitude
		c.Longitude = &lng
	}
	return c
}

// Patch is a partial update. Nil fields keep their previous value.
type Patch struct {
	URL         *string   `json:"url,omitempty"`
	Title       *string   `json:"title,omitempty"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	Description *string   `json:"description,omitempty"`
	Summary     *string   `json:"summary,omitempty"`
	Comment     *string   `json:"comment,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Favorite    *bool     `json:"isFavorite,omitempty"`
	Directions  *string   `json:"directions,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// Apply merges the patch over prev and returns the effective record.
// ID, Kind and Created are never changed.
func (p Patch) Apply(prev Record) Record {
	r := prev.Clone()
	setString(&r.URL, p.URL)
	setString(&r.Title, p.Title)
	setString(&r.ImageURL, p.ImageURL)
	setString(&r.Description, p.Description)
	setString(&r.Summary, p.Summary)
	setString(&r.Comment, p.Comment)
	setString(&r.Category, p.Category)
	setString(&r.Directions, p.Directions)
	if p.Tags != nil {
		r.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.Favorite != nil {
		r.Favorite = *p.Favorite
	}
	if p.Latitude != nil {
		lat := *p.Latitude
		r.Latitude = &lat
	}
	if p.Longitude != nil {
		lng := *p.Longitude
		r.Longitude = &lng
	}
	return r
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
