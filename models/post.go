package models

import "time"

// DefaultAuthor is stored when a post is created without an author.
const DefaultAuthor = "Anonymous"

type Post struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

type CreatePostReq struct {
	Title   string `json:"title" form:"title" binding:"required"`
	Content string `json:"content" form:"content" binding:"required"`
	Author  string `json:"author" form:"author"`
}

type UpdatePostReq struct {
	Title   *string `json:"title" form:"title"`
	Content *string `json:"content" form:"content"`
	Author  *string `json:"author" form:"author"`
}

// Empty reports whether the request changes nothing.
func (r UpdatePostReq) Empty() bool {
	return r.Title == nil && r.Content == nil && r.Author == nil
}

// Apply copies the non-nil fields onto p.
func (r UpdatePostReq) Apply(p *Post) {
	if r.Title != nil {
		p.Title = *r.Title
	}
	if r.Content != nil {
		p.Content = *r.Content
	}
	if r.Author != nil {
		p.Author = *r.Author
	}
}
