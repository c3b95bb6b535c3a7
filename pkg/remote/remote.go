// Package remote talks to the hosted record backend ("remote mirror").
//
// The mirror is a separate record space: its records have opaque string ids and
// are never merged with the local store. Each content variant except Direction
// lives in its own collection, and rows carry the owning user's id.
package remote

import (
	"errors"
	"fmt"

	"github.com/savezy/savezy/pkg/contents"
)

var (
	ErrRemoteUnavailable = errors.New("remote mirror unavailable")
	ErrUnsupportedKind   = errors.New("kind has no remote collection")
	ErrNotAuthenticated  = errors.New("not signed in to the remote mirror")
)

var kindCollections = map[contents.Kind]string{
	contents.KindVideo:   "videos",
	contents.KindMeme:    "memes",
	contents.KindNews:    "news",
	contents.KindWebsite: "websites",
	contents.KindImage:   "images",
}

// Collection returns the collection that stores kind.
func Collection(kind contents.Kind) (string, error) {
	c, ok := kindCollections[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	return c, nil
}

// KindOf is the inverse of Collection.
func KindOf(collection string) (contents.Kind, bool) {
	for k, c := range kindCollections {
		if c == collection {
			return k, true
		}
	}
	return "", false
}

// RemoteKinds lists the kinds that have a collection, in display order.
func RemoteKinds() []contents.Kind {
	out := []contents.Kind{}
	for _, k := range contents.Kinds {
		if _, ok := kindCollections[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Record is a row of a remote collection.
type Record struct {
	ID          string        `json:"id,omitempty"`
	Collection  string        `json:"collectionName,omitempty"`
	User        string        `json:"user,omitempty"`
	URL         string        `json:"url,omitempty"`
	Title       string        `json:"title,omitempty"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	Description string        `json:"description,omitempty"`
	Summary     string        `json:"summary,omitempty"`
	Comment     string        `json:"comment,omitempty"`
	Category    string        `json:"category,omitempty"`
	Tags        []string      `json:"tags"`
	Created     string        `json:"created,omitempty"`
	Updated     string        `json:"updated,omitempty"`
	Kind        contents.Kind `json:"-"`
}

// FromContent copies the shareable fields of a local record. The local id is
// not carried over; the two id spaces are unrelated.
func FromContent(r contents.Record) Record {
	return Record{
		Kind:        r.Kind,
		URL:         r.URL,
		Title:       r.Title,
		ImageURL:    r.ImageURL,
		Description: r.Description,
		Summary:     r.Summary,
		Comment:     r.Comment,
		Category:    r.Category,
		Tags:        contents.NormalizeTags(r.Tags),
	}
}

// listResponse is one page of a collection listing.
type listResponse struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalItems int      `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
	Items      []Record `json:"items"`
}

type authRequest struct {
	Identity string `json:"identity"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	Record struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"record"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
