package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/savezy/savezy/pkg/contents"
	"github.com/savezy/savezy/pkg/logging"
	"github.com/savezy/savezy/pkg/remote/remotetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRemote(t *testing.T) (*remotetest.Server, *Client) {
	t.Helper()

	collections := []string{}
	for _, k := range RemoteKinds() {
		c, err := Collection(k)
		require.NoError(t, err)
		collections = append(collections, c)
	}

	fake := remotetest.New(collections...)
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	return fake, NewClient(srv.URL, logging.Nop(), WithHTTPClient(srv.Client()))
}

func TestCollectionMapping(t *testing.T) {
	for kind, want := range map[contents.Kind]string{
		contents.KindVideo:   "videos",
		contents.KindMeme:    "memes",
		contents.KindNews:    "news",
		contents.KindWebsite: "websites",
		contents.KindImage:   "images",
	} {
		got, err := Collection(kind)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		back, ok := KindOf(got)
		require.True(t, ok)
		assert.Equal(t, kind, back)
	}

	_, err := Collection(contents.KindDirection)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	assert.NotContains(t, RemoteKinds(), contents.KindDirection)
}

func TestHealth(t *testing.T) {
	fake, client := setupTestRemote(t)
	ctx := context.Background()

	require.NoError(t, client.Health(ctx))

	fake.SetDown(true)
	err := client.Health(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestHealthTimesOut(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(block) })

	client := NewClient(srv.URL, logging.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := client.Health(ctx)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.Less(t, time.Since(start), HealthTimeout)
}

func TestHealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(url, logging.Nop()).Health(context.Background())
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestAuthWithPassword(t *testing.T) {
	fake, client := setupTestRemote(t)
	ctx := context.Background()
	userID := fake.AddUser("ada@example.com", "s3cret")

	_, err := client.AuthWithPassword(ctx, "ada@example.com", "wrong")
	require.Error(t, err)
	assert.Nil(t, client.Session())

	s, err := client.AuthWithPassword(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, userID, s.UserID)
	assert.Equal(t, "ada@example.com", s.Email)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, s, client.Session())
}

func TestCreateListDeleteScopedToUser(t *testing.T) {
	fake, client := setupTestRemote(t)
	ctx := context.Background()

	adaID := fake.AddUser("ada@example.com", "pw")
	bobID := fake.AddUser("bob@example.com", "pw")

	_, err := client.AuthWithPassword(ctx, "bob@example.com", "pw")
	require.NoError(t, err)
	_, err = client.Create(ctx, contents.KindVideo, Record{URL: "https://bob.example/v", Title: "bob's"})
	require.NoError(t, err)

	_, err = client.AuthWithPassword(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	video, err := client.Create(ctx, contents.KindVideo, Record{
		URL:   "https://youtu.be/x",
		Title: "talk",
		Tags:  []string{"go", " go ", "db"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, video.ID)
	assert.Equal(t, adaID, video.User)
	assert.Equal(t, "videos", video.Collection)
	assert.Equal(t, contents.KindVideo, video.Kind)
	assert.Equal(t, []string{"go", "db"}, video.Tags)

	meme, err := client.Create(ctx, contents.KindMeme, Record{ImageURL: "https://i.example/m.png"})
	require.NoError(t, err)

	videos, err := client.List(ctx, contents.KindVideo)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, video.ID, videos[0].ID)

	all, err := client.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	client.SetSession(nil)
	unscoped, err := client.List(ctx, contents.KindVideo)
	require.NoError(t, err)
	assert.Len(t, unscoped, 2)
	users := []string{unscoped[0].User, unscoped[1].User}
	assert.ElementsMatch(t, []string{adaID, bobID}, users)

	require.NoError(t, client.Delete(ctx, contents.KindMeme, meme.ID))
	assert.Empty(t, fake.Records("memes"))

	err = client.Delete(ctx, contents.KindMeme, meme.ID)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestCreateDirectionUnsupported(t *testing.T) {
	_, client := setupTestRemote(t)

	_, err := client.Create(context.Background(), contents.KindDirection, Record{})
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestSearch(t *testing.T) {
	fake, client := setupTestRemote(t)
	ctx := context.Background()
	fake.AddUser("ada@example.com", "pw")
	_, err := client.AuthWithPassword(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	_, err = client.Create(ctx, contents.KindVideo, Record{URL: "https://v", Title: "Go concurrency"})
	require.NoError(t, err)
	_, err = client.Create(ctx, contents.KindNews, Record{URL: "https://n", Description: "SQLite \"internals\""})
	require.NoError(t, err)
	_, err = client.Create(ctx, contents.KindWebsite, Record{URL: "https://w", Title: "cooking"})
	require.NoError(t, err)

	found, err := client.Search(ctx, "go")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, contents.KindVideo, found[0].Kind)

	found, err = client.Search(ctx, `"internals"`)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, contents.KindNews, found[0].Kind)
}

func TestListPagesThroughCollection(t *testing.T) {
	fake, client := setupTestRemote(t)
	ctx := context.Background()

	for i := 0; i < perPage+5; i++ {
		_, err := client.Create(ctx, contents.KindImage, Record{ImageURL: "https://i.example/p.png"})
		require.NoError(t, err)
	}
	require.Len(t, fake.Records("images"), perPage+5)

	images, err := client.List(ctx, contents.KindImage)
	require.NoError(t, err)
	assert.Len(t, images, perPage+5)
}

func TestInvalidTokenIsNotAuthenticated(t *testing.T) {
	_, client := setupTestRemote(t)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "someone"})
	token, err := forged.SignedString([]byte("not-the-server-key"))
	require.NoError(t, err)

	s, err := SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "someone", s.UserID)
	client.SetSession(s)

	_, err = client.List(context.Background(), contents.KindVideo)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestSessionFromToken(t *testing.T) {
	_, err := SessionFromToken("")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = SessionFromToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"type": "auth"})
	raw, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)
	s, err := SessionFromToken(raw)
	require.NoError(t, err)
	assert.Empty(t, s.UserID)
}

func TestSessionPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s, err := LoadSession(path)
	require.NoError(t, err)
	assert.Nil(t, s)

	want := &Session{Token: "tok", UserID: "u1", Email: "ada@example.com"}
	require.NoError(t, SaveSession(path, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := LoadSession(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, ClearSession(path))
	require.NoError(t, ClearSession(path))

	s, err = LoadSession(path)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestFromContent(t *testing.T) {
	rec := FromContent(contents.Record{
		ID:       7,
		Kind:     contents.KindWebsite,
		URL:      "https://example.com",
		Title:    "Example",
		Tags:     []string{"a", "a", ""},
		Favorite: true,
	})
	assert.Empty(t, rec.ID)
	assert.Equal(t, contents.KindWebsite, rec.Kind)
	assert.Equal(t, "https://example.com", rec.URL)
	assert.Equal(t, []string{"a"}, rec.Tags)
}

func TestSaveSessionTightensExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	require.NoError(t, SaveSession(path, &Session{Token: "tok", UserID: "u1"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
