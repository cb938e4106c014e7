package posts

import (
	"time"

	"github.com/luminalab/lumina/backend/internal/users"
)

// Post is a single published image with caption.
type Post struct {
	ID        string    `gorm:"column:id;primaryKey;size:190" json:"id"`
	AuthorID  string    `gorm:"column:author_id;size:190;not null;index" json:"authorId"`
	Caption   string    `gorm:"column:caption;size:2200" json:"caption"`
	ImageURL  string    `gorm:"column:image_url;size:512;not null" json:"image"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName exposes the table backing posts.
func (Post) TableName() string {
	return "posts"
}

// Like is set membership of a user in a post's like list. The composite
// primary key is what makes double-likes collapse to one row.
type Like struct {
	PostID    string    `gorm:"column:post_id;primaryKey;size:190" json:"postId"`
	UserID    string    `gorm:"column:user_id;primaryKey;size:190" json:"userId"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName exposes the table backing post likes.
func (Like) TableName() string {
	return "post_likes"
}

// Comment is a single comment on a post.
type Comment struct {
	ID        string    `gorm:"column:id;primaryKey;size:190" json:"id"`
	PostID    string    `gorm:"column:post_id;size:190;not null;index" json:"postId"`
	AuthorID  string    `gorm:"column:author_id;size:190;not null" json:"authorId"`
	Text      string    `gorm:"column:text;size:2200;not null" json:"text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName exposes the table backing comments.
func (Comment) TableName() string {
	return "post_comments"
}

// Bookmark is set membership of a post in a user's saved list.
type Bookmark struct {
	UserID    string    `gorm:"column:user_id;primaryKey;size:190" json:"userId"`
	PostID    string    `gorm:"column:post_id;primaryKey;size:190" json:"postId"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName exposes the table backing bookmarks.
func (Bookmark) TableName() string {
	return "post_bookmarks"
}

// CommentView is a comment with its author populated.
type CommentView struct {
	Comment
	Author users.Summary `json:"author"`
}

// View is a post with author, like list and comments populated, the shape the
// feed endpoints return.
type View struct {
	Post
	Author   users.Summary `json:"author"`
	Likes    []string      `json:"likes"`
	Comments []CommentView `json:"comments"`
}
