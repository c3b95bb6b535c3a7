package contents

import (
	"fmt"
	"strings"
)

// Field names a column of the contents table that a variant may use.
type Field string

const (
	FieldURL         Field = "url"
	FieldTitle       Field = "title"
	FieldImageURL    Field = "imageUrl"
	FieldDescription Field = "description"
	FieldSummary     Field = "summary"
	FieldComment     Field = "comment"
	FieldCategory    Field = "category"
	FieldTags        Field = "tags"
	FieldDirections  Field = "directions"
	FieldLatitude    Field = "latitude"
	FieldLongitude   Field = "longitude"
)

type fieldSpec struct {
	required []Field
	fields   []Field
}

// kindFields maps each variant to the fields it requires and the fields that are
// meaningful for it. Everything else in a Record is ignored for that kind.
var kindFields = map[Kind]fieldSpec{
	KindVideo: {
		required: []Field{FieldURL},
		fields:   []Field{FieldURL, FieldTitle, FieldComment, FieldTags},
	},
	KindMeme: {
		required: []Field{FieldImageURL},
		fields:   []Field{FieldImageURL, FieldTitle, FieldCategory, FieldTags},
	},
	KindNews: {
		required: []Field{FieldURL},
		fields:   []Field{FieldURL, FieldTitle, FieldSummary, FieldTags},
	},
	KindWebsite: {
		required: []Field{FieldURL},
		fields:   []Field{FieldURL, FieldTitle, FieldDescription, FieldCategory, FieldTags},
	},
	KindImage: {
		required: []Field{FieldImageURL},
		fields:   []Field{FieldImageURL, FieldTitle, FieldDescription, FieldTags},
	},
	KindDirection: {
		required: []Field{FieldDirections},
		fields:   []Field{FieldTitle, FieldDirections, FieldLatitude, FieldLongitude, FieldTags},
	},
}

// Fields returns the fields that are meaningful for kind.
func Fields(kind Kind) []Field {
	return append([]Field(nil), kindFields[kind].fields...)
}

// RequiredFields returns the fields a record of kind must carry.
func RequiredFields(kind Kind) []Field {
	return append([]Field(nil), kindFields[kind].required...)
}

// Present reports whether r has a value for f.
func (r Record) Present(f Field) bool {
	switch f {
	case FieldURL:
		return strings.TrimSpace(r.URL) != ""
	case FieldTitle:
		return strings.TrimSpace(r.Title) != ""
	case FieldImageURL:
		return strings.TrimSpace(r.ImageURL) != ""
	case FieldDescription:
		return strings.TrimSpace(r.Description) != ""
	case FieldSummary:
		return strings.TrimSpace(r.Summary) != ""
	case FieldComment:
		return strings.TrimSpace(r.Comment) != ""
	case FieldCategory:
		return strings.TrimSpace(r.Category) != ""
	case FieldTags:
		return len(r.Tags) > 0
	case FieldDirections:
		return strings.TrimSpace(r.Directions) != ""
	case FieldLatitude:
		return r.Latitude != nil
	case FieldLongitude:
		return r.Longitude != nil
	}
	return false
}

// Validate checks the kind and the kind's required fields.
func Validate(r Record) error {
	spec, ok := kindFields[r.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
	var missing []string
	for _, f := range spec.required {
		if !r.Present(f) {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s requires %s", ErrInvalidRecord, r.Kind, strings.Join(missing, ", "))
	}
	return nil
}

// Variant is a Record viewed as its concrete kind.
type Variant interface {
	Kind() Kind
	Record() Record
}

type Video struct {
	ID      int64
	URL     string
	Title   string
	Comment string
	Tags    []string
}

type Meme struct {
	ID       int64
	ImageURL string
	Title    string
	Category string
	Tags     []string
}

type News struct {
	ID      int64
	URL     string
	Title   string
	Summary string
	Tags    []string
}

type Website struct {
	ID          int64
	URL         string
	Title       string
	Description string
	Category    string
	Tags        []string
}

type Image struct {
	ID          int64
	ImageURL    string
	Title       string
	Description string
	Tags        []string
}

// Direction is a saved route or place; Latitude and Longitude are optional.
type Direction struct {
	ID         int64
	Title      string
	Directions string
	Latitude   *float64
	Longitude  *float64
	Tags       []string
}

func (Video) Kind() Kind     { return KindVideo }
func (Meme) Kind() Kind      { return KindMeme }
func (News) Kind() Kind      { return KindNews }
func (Website) Kind() Kind   { return KindWebsite }
func (Image) Kind() Kind     { return KindImage }
func (Direction) Kind() Kind { return KindDirection }

func (v Video) Record() Record {
	return Record{ID: v.ID, Kind: KindVideo, URL: v.URL, Title: v.Title, Comment: v.Comment, Tags: v.Tags}
}

func (v Meme) Record() Record {
	return Record{ID: v.ID, Kind: KindMeme, ImageURL: v.ImageURL, Title: v.Title, Category: v.Category, Tags: v.Tags}
}

func (v News) Record() Record {
	return Record{ID: v.ID, Kind: KindNews, URL: v.URL, Title: v.Title, Summary: v.Summary, Tags: v.Tags}
}

func (v Website) Record() Record {
	return Record{ID: v.ID, Kind: KindWebsite, URL: v.URL, Title: v.Title, Description: v.Description, Category: v.Category, Tags: v.Tags}
}

func (v Image) Record() Record {
	return Record{ID: v.ID, Kind: KindImage, ImageURL: v.ImageURL, Title: v.Title, Description: v.Description, Tags: v.Tags}
}

func (v Direction) Record() Record {
	return Record{ID: v.ID, Kind: KindDirection, Title: v.Title, Directions: v.Directions, Latitude: v.Latitude, Longitude: v.Longitude, Tags: v.Tags}
}

// AsVariant projects r onto its concrete variant, dropping fields that are not
// meaningful for its kind.
func AsVariant(r Record) (Variant, error) {
	switch r.Kind {
	case KindVideo:
		return Video{ID: r.ID, URL: r.URL, Title: r.Title, Comment: r.Comment, Tags: r.Tags}, nil
	case KindMeme:
		return Meme{ID: r.ID, ImageURL: r.ImageURL, Title: r.Title, Category: r.Category, Tags: r.Tags}, nil
	case KindNews:
		return News{ID: r.ID, URL: r.URL, Title: r.Title, Summary: r.Summary, Tags: r.Tags}, nil
	case KindWebsite:
		return Website{ID: r.ID, URL: r.URL, Title: r.Title, Description: r.Description, Category: r.Category, Tags: r.Tags}, nil
	case KindImage:
		return Image{ID: r.ID, ImageURL: r.ImageURL, Title: r.Title, Description: r.Description, Tags: r.Tags}, nil
	case KindDirection:
		return Direction{ID: r.ID, Title: r.Title, Directions: r.Directions, Latitude: r.Latitude, Longitude: r.Longitude, Tags: r.Tags}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
}
