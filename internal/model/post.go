package model

import (
	"time"

	"github.com/d60-Lab/feedcore/internal/docstore"
)

// Categories 可用的帖子分类
var Categories = []string{"Encuesta", "Arte", "Pregunta", "Guia", "General", "Social"}

const (
	CollectionPosts = "posts"

	FieldLikes      = "likes"
	FieldDislikes   = "dislikes"
	FieldSavedPosts = "savedPosts"
)

// Post 帖子文档，作者快照字段在写入时捕获
type Post struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL"`
	CommunityID string    `json:"communityId"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Cover       string    `json:"cover"`
	Likes       []string  `json:"likes"`
	Dislikes    []string  `json:"dislikes"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p *Post) Fields() map[string]any {
	return map[string]any{
		"user_id":     p.UserID,
		"email":       p.Email,
		"displayName": p.DisplayName,
		"photoURL":    p.PhotoURL,
		"communityId": p.CommunityID,
		"category":    p.Category,
		"title":       p.Title,
		"content":     p.Content,
		"cover":       p.Cover,
		FieldLikes:    p.Likes,
		FieldDislikes: p.Dislikes,
	}
}

func PostFromDoc(d *docstore.Document) Post {
	return Post{
		ID:          d.ID(),
		UserID:      d.String("user_id"),
		Email:       d.String("email"),
		DisplayName: d.String("displayName"),
		PhotoURL:    d.String("photoURL"),
		CommunityID: d.String("communityId"),
		Category:    d.String("category"),
		Title:       d.String("title"),
		Content:     d.String("content"),
		Cover:       d.String("cover"),
		Likes:       d.Strings(FieldLikes),
		Dislikes:    d.Strings(FieldDislikes),
		CreatedAt:   d.CreatedAt,
	}
}

// Comment 挂在 posts/{id}/comments 下的评论文档
type Comment struct {
	ID          string    `json:"id"`
	PostID      string    `json:"post_id"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL"`
	Content     string    `json:"content"`
	Likes       []string  `json:"likes"`
	Dislikes    []string  `json:"dislikes"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *Comment) Fields() map[string]any {
	return map[string]any{
		"user_id":     c.UserID,
		"email":       c.Email,
		"displayName": c.DisplayName,
		"photoURL":    c.PhotoURL,
		"content":     c.Content,
		FieldLikes:    c.Likes,
		FieldDislikes: c.Dislikes,
	}
}

func CommentFromDoc(postID string, d *docstore.Document) Comment {
	return Comment{
		ID:          d.ID(),
		PostID:      postID,
		UserID:      d.String("user_id"),
		Email:       d.String("email"),
		DisplayName: d.String("displayName"),
		PhotoURL:    d.String("photoURL"),
		Content:     d.String("content"),
		Likes:       d.Strings(FieldLikes),
		Dislikes:    d.Strings(FieldDislikes),
		CreatedAt:   d.CreatedAt,
	}
}

// CommentsCollection posts/{postID}/comments
func CommentsCollection(postID string) string {
	return docstore.Join(CollectionPosts, postID, "comments")
}

func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}
