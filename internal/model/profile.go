package model

import (
	"time"

	"github.com/d60-Lab/feedcore/internal/docstore"
)

const (
	CollectionUsers = "users"

	FieldFollowers   = "followers"
	FieldFollowing   = "following"
	FieldCommunities = "communities"
)

// Profile users/{id} 文档。displayName/photoURL 是各 feed 记录上
// 作者快照的权威来源。
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Bio         string    `json:"bio"`
	PhotoURL    string    `json:"photoURL"`
	BannerURL   string    `json:"bannerURL"`
	SavedPosts  []string  `json:"savedPosts"`
	Communities []string  `json:"communities"`
	Followers   []string  `json:"followers"`
	Following   []string  `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p *Profile) Fields() map[string]any {
	return map[string]any{
		"email":          p.Email,
		"displayName":    p.DisplayName,
		"bio":            p.Bio,
		"photoURL":       p.PhotoURL,
		"bannerURL":      p.BannerURL,
		FieldSavedPosts:  p.SavedPosts,
		FieldCommunities: p.Communities,
		FieldFollowers:   p.Followers,
		FieldFollowing:   p.Following,
	}
}

func ProfileFromDoc(d *docstore.Document) Profile {
	return Profile{
		ID:          d.ID(),
		Email:       d.String("email"),
		DisplayName: d.String("displayName"),
		Bio:         d.String("bio"),
		PhotoURL:    d.String("photoURL"),
		BannerURL:   d.String("bannerURL"),
		SavedPosts:  d.Strings(FieldSavedPosts),
		Communities: d.Strings(FieldCommunities),
		Followers:   d.Strings(FieldFollowers),
		Following:   d.Strings(FieldFollowing),
		CreatedAt:   d.CreatedAt,
	}
}

// ProfilePath users/{id}
func ProfilePath(id string) string {
	return docstore.Join(CollectionUsers, id)
}
