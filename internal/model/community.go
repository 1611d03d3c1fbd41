package model

import (
	"time"

	"github.com/d60-Lab/feedcore/internal/docstore"
)

const CollectionCommunities = "communities"

// Community 社区文档
type Community struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PhotoURL    string    `json:"photoURL"`
	BannerURL   string    `json:"bannerURL"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *Community) Fields() map[string]any {
	return map[string]any{
		"name":        c.Name,
		"description": c.Description,
		"photoURL":    c.PhotoURL,
		"bannerURL":   c.BannerURL,
	}
}

func CommunityFromDoc(d *docstore.Document) Community {
	return Community{
		ID:          d.ID(),
		Name:        d.String("name"),
		Description: d.String("description"),
		PhotoURL:    d.String("photoURL"),
		BannerURL:   d.String("bannerURL"),
		CreatedAt:   d.CreatedAt,
	}
}

// CommunityPath communities/{id}
func CommunityPath(id string) string {
	return docstore.Join(CollectionCommunities, id)
}
