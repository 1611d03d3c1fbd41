package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/feedcore/internal/blobstore"
	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/repository"
)

func newAuthService(t *testing.T) (*Service, docstore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := docstore.NewRedisStore(rdb)
	t.Cleanup(func() { _ = store.Close() })
	blobs, err := blobstore.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)
	profiles := repository.NewProfileRepository(store)
	svc := NewService(store, profiles, blobs, "test-secret", time.Hour, NewState())
	return svc, store
}

func TestRegisterDefaults(t *testing.T) {
	svc, store := newAuthService(t)
	ctx := context.Background()

	profile, token, err := svc.Register(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, profile.ID)
	require.Regexp(t, `^Player #\d{4}$`, profile.DisplayName)
	require.Equal(t, "/assets/users/user.png", profile.PhotoURL)
	require.Equal(t, "/assets/users/banner.webp", profile.BannerURL)

	// the password hash never leaves the store
	doc, err := store.Get(ctx, model.ProfilePath(profile.ID))
	require.NoError(t, err)
	hash := doc.String("passwordHash")
	require.NotEmpty(t, hash)
	require.NotEqual(t, "hunter22", hash)

	_, _, err = svc.Register(ctx, "alice@example.com", "other")
	require.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = svc.Register(ctx, "", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, "bob@example.com", "secret-pw")
	require.NoError(t, err)

	profile, token, err := svc.Login(ctx, "bob@example.com", "secret-pw")
	require.NoError(t, err)
	require.Equal(t, registered.ID, profile.ID)

	userID, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, registered.ID, userID)

	_, _, err = svc.Login(ctx, "bob@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "secret-pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyToken(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.VerifyToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	// token signed with a different secret fails
	other := NewService(nil, nil, nil, "other-secret", time.Hour, NewState())
	token, err := other.issueToken("u1")
	require.NoError(t, err)
	_, err = svc.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestUpdateProfileAndPhoto(t *testing.T) {
	svc, store := newAuthService(t)
	ctx := context.Background()

	profile, _, err := svc.Register(ctx, "carol@example.com", "pw123456")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateProfile(ctx, profile.ID, "Carol", "hi there"))
	doc, err := store.Get(ctx, model.ProfilePath(profile.ID))
	require.NoError(t, err)
	require.Equal(t, "Carol", doc.String("displayName"))
	require.Equal(t, "hi there", doc.String("bio"))

	url, err := svc.UpdatePhoto(ctx, profile.ID, strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	require.Equal(t, "/uploads/users/"+profile.ID+"/avatar.png", url)
	doc, err = store.Get(ctx, model.ProfilePath(profile.ID))
	require.NoError(t, err)
	require.Equal(t, url, doc.String("photoURL"))

	_, err = svc.UpdateBanner(ctx, profile.ID, strings.NewReader("x"), "text/plain")
	require.ErrorIs(t, err, blobstore.ErrUnsupportedType)
}
