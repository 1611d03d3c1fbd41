package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/feedcore/internal/blobstore"
	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/repository"
)

const (
	defaultPhotoURL  = "/assets/users/user.png"
	defaultBannerURL = "/assets/users/banner.webp"

	fieldPasswordHash = "passwordHash"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidToken       = errors.New("auth: invalid token")
)

// Service is the minimal local auth provider the core consumes: it
// hands out stable user ids and basic profile fields.
type Service struct {
	store    docstore.Store
	profiles repository.ProfileRepository
	blobs    blobstore.Store
	secret   []byte
	tokenTTL time.Duration
	state    *State
}

func NewService(store docstore.Store, profiles repository.ProfileRepository, blobs blobstore.Store, secret string, tokenTTL time.Duration, state *State) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{store: store, profiles: profiles, blobs: blobs, secret: []byte(secret), tokenTTL: tokenTTL, state: state}
}

// Register creates an account with a generated display name and the
// default avatar/banner, then signs the new user in.
func (s *Service) Register(ctx context.Context, email, password string) (model.Profile, string, error) {
	if email == "" || password == "" {
		return model.Profile{}, "", ErrInvalidCredentials
	}
	if _, err := s.findByEmail(ctx, email); err == nil {
		return model.Profile{}, "", ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.Profile{}, "", fmt.Errorf("auth: hash password: %w", err)
	}

	profile := model.Profile{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: fmt.Sprintf("Player #%04d", 1000+rand.Intn(9000)),
		PhotoURL:    defaultPhotoURL,
		BannerURL:   defaultBannerURL,
	}
	fields := profile.Fields()
	fields[fieldPasswordHash] = string(hash)
	if err := s.store.Create(ctx, model.ProfilePath(profile.ID), fields); err != nil {
		return model.Profile{}, "", err
	}

	token, err := s.issueToken(profile.ID)
	if err != nil {
		return model.Profile{}, "", err
	}
	s.state.SetSignedIn(profile)
	return profile, token, nil
}

// Login verifies the password and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (model.Profile, string, error) {
	doc, err := s.findByEmail(ctx, email)
	if err != nil {
		return model.Profile{}, "", ErrInvalidCredentials
	}
	hash := doc.String(fieldPasswordHash)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return model.Profile{}, "", ErrInvalidCredentials
	}
	profile := model.ProfileFromDoc(&doc)
	token, err := s.issueToken(profile.ID)
	if err != nil {
		return model.Profile{}, "", err
	}
	s.state.SetSignedIn(profile)
	return profile, token, nil
}

// Logout clears the shared auth state.
func (s *Service) Logout() { s.state.SetSignedOut() }

// UpdateProfile merges display name and bio onto the user document.
func (s *Service) UpdateProfile(ctx context.Context, userID, displayName, bio string) error {
	fields := map[string]any{}
	if displayName != "" {
		fields["displayName"] = displayName
	}
	if bio != "" {
		fields["bio"] = bio
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.profiles.Update(ctx, userID, fields); err != nil {
		return err
	}
	s.state.Merge(userID, fields)
	return nil
}

// UpdatePhoto uploads a new avatar and persists its URL.
func (s *Service) UpdatePhoto(ctx context.Context, userID string, r io.Reader, contentType string) (string, error) {
	return s.updateImage(ctx, userID, "avatar", "photoURL", r, contentType)
}

// UpdateBanner uploads a new banner and persists its URL.
func (s *Service) UpdateBanner(ctx context.Context, userID string, r io.Reader, contentType string) (string, error) {
	return s.updateImage(ctx, userID, "banner", "bannerURL", r, contentType)
}

func (s *Service) updateImage(ctx context.Context, userID, name, field string, r io.Reader, contentType string) (string, error) {
	ext, err := blobstore.ExtensionByType(contentType)
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("users/%s/%s.%s", userID, name, ext)
	url, err := s.blobs.Put(ctx, path, r)
	if err != nil {
		return "", err
	}
	if err := s.profiles.Update(ctx, userID, map[string]any{field: url}); err != nil {
		return "", err
	}
	s.state.Merge(userID, map[string]any{field: url})
	return url, nil
}

// Profile returns the stored profile for a user id, or the zero
// value when it cannot be resolved. Callers use it for author
// snapshots where a missing profile just means empty fields.
func (s *Service) Profile(ctx context.Context, userID string) model.Profile {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return model.Profile{}
	}
	return p
}

// VerifyToken returns the user id a token was issued for.
func (s *Service) VerifyToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *Service) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return token, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (docstore.Document, error) {
	docs, err := s.store.Query(ctx, docstore.Query{
		Collection: model.CollectionUsers,
		Filters:    []docstore.Filter{{Field: "email", Op: "==", Value: email}},
		Limit:      1,
	})
	if err != nil {
		return docstore.Document{}, err
	}
	if len(docs) == 0 {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docs[0], nil
}
