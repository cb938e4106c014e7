package posts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luminalab/lumina/backend/internal/ident"
	"github.com/luminalab/lumina/backend/internal/users"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPostNotFound = errors.New("posts: post not found")
	ErrNotPostOwner = errors.New("posts: only the owner may delete a post")
)

// ServiceConfig describes the dependencies required by the post service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider ident.Provider
}

// Service manages posts, comments, likes and bookmarks.
type Service struct {
	db  *gorm.DB
	now func() time.Time
	ids ident.Provider
}

// NewService constructs the post service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("posts: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := cfg.IDProvider
	if ids == nil {
		ids = ident.NewUUIDProvider()
	}
	return &Service{db: cfg.Database, now: clock, ids: ids}, nil
}

// Create publishes a new post and returns it with the author populated.
func (s *Service) Create(ctx context.Context, authorID, caption, imageURL string) (View, error) {
	id, err := s.ids.NewID()
	if err != nil {
		return View{}, err
	}
	post := Post{
		ID:       id,
		AuthorID: authorID,
		Caption:  caption,
		ImageURL: imageURL,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return View{}, err
	}
	views, err := s.populate(ctx, []Post{post})
	if err != nil {
		return View{}, err
	}
	return views[0], nil
}

// ByID fetches a single post without population.
func (s *Service) ByID(ctx context.Context, postID string) (Post, error) {
	var post Post
	err := s.db.WithContext(ctx).Where("id = ?", postID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Post{}, ErrPostNotFound
	}
	if err != nil {
		return Post{}, err
	}
	return post, nil
}

// Feed returns every post, newest first, fully populated.
func (s *Service) Feed(ctx context.Context) ([]View, error) {
	var all []Post
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&all).Error; err != nil {
		return nil, err
	}
	return s.populate(ctx, all)
}

// ByAuthor returns the author's posts, newest first, fully populated.
func (s *Service) ByAuthor(ctx context.Context, authorID string) ([]View, error) {
	var authored []Post
	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&authored).
		Error
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, authored)
}

// Like adds userID to the post's like set. Liking twice keeps exactly one
// membership row. The post is returned so callers can notify its owner.
func (s *Service) Like(ctx context.Context, postID, userID string) (Post, error) {
	post, err := s.ByID(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	like := Like{PostID: postID, UserID: userID, CreatedAt: s.now().UTC()}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).
		Error
	if err != nil {
		return Post{}, err
	}
	return post, nil
}

// Dislike removes userID from the post's like set; removing an absent member
// is a no-op.
func (s *Service) Dislike(ctx context.Context, postID, userID string) (Post, error) {
	post, err := s.ByID(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	err = s.db.WithContext(ctx).
		Delete(&Like{}, "post_id = ? AND user_id = ?", postID, userID).
		Error
	if err != nil {
		return Post{}, err
	}
	return post, nil
}

// LikerIDs lists the identifiers of users who like the post.
func (s *Service) LikerIDs(ctx context.Context, postID string) ([]string, error) {
	ids := []string{}
	err := s.db.WithContext(ctx).
		Model(&Like{}).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Pluck("user_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// AddComment attaches a comment to the post and returns it with the author
// populated.
func (s *Service) AddComment(ctx context.Context, postID, authorID, text string) (CommentView, error) {
	if _, err := s.ByID(ctx, postID); err != nil {
		return CommentView{}, err
	}
	id, err := s.ids.NewID()
	if err != nil {
		return CommentView{}, err
	}
	comment := Comment{ID: id, PostID: postID, AuthorID: authorID, Text: text}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return CommentView{}, err
	}

	var author users.User
	if err := s.db.WithContext(ctx).Where("id = ?", authorID).First(&author).Error; err != nil {
		return CommentView{}, err
	}
	return CommentView{Comment: comment, Author: author.Summary()}, nil
}

// CommentsOf lists the post's comments, oldest first, authors populated.
func (s *Service) CommentsOf(ctx context.Context, postID string) ([]CommentView, error) {
	if _, err := s.ByID(ctx, postID); err != nil {
		return nil, err
	}
	var comments []Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).
		Error
	if err != nil {
		return nil, err
	}
	return s.populateComments(ctx, comments)
}

// Delete removes the post together with its comments, likes and bookmark
// references. Only the owning user may delete; the cascade runs in one
// transaction so a failure cannot strand orphaned rows.
func (s *Service) Delete(ctx context.Context, postID, ownerID string) error {
	post, err := s.ByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != ownerID {
		return ErrNotPostOwner
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Comment{}, "post_id = ?", postID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Like{}, "post_id = ?", postID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Bookmark{}, "post_id = ?", postID).Error; err != nil {
			return err
		}
		return tx.Delete(&Post{}, "id = ?", postID).Error
	})
}

// ToggleBookmark saves the post for the user, or removes it when already
// saved. Returns true when the post ends up saved.
func (s *Service) ToggleBookmark(ctx context.Context, postID, userID string) (bool, error) {
	if _, err := s.ByID(ctx, postID); err != nil {
		return false, err
	}

	var bookmark Bookmark
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&bookmark).
		Error
	switch {
	case err == nil:
		err = s.db.WithContext(ctx).
			Delete(&Bookmark{}, "user_id = ? AND post_id = ?", userID, postID).
			Error
		return false, err
	case errors.Is(err, gorm.ErrRecordNotFound):
		bookmark = Bookmark{UserID: userID, PostID: postID, CreatedAt: s.now().UTC()}
		err = s.db.WithContext(ctx).Create(&bookmark).Error
		return err == nil, err
	default:
		return false, err
	}
}

// Bookmarked returns the user's saved posts, newest first, fully populated.
func (s *Service) Bookmarked(ctx context.Context, userID string) ([]View, error) {
	postIDs := []string{}
	err := s.db.WithContext(ctx).
		Model(&Bookmark{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("post_id", &postIDs).
		Error
	if err != nil {
		return nil, err
	}
	if len(postIDs) == 0 {
		return []View{}, nil
	}
	var saved []Post
	err = s.db.WithContext(ctx).
		Where("id IN ?", postIDs).
		Order("created_at DESC").
		Find(&saved).
		Error
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, saved)
}

func (s *Service) populate(ctx context.Context, raw []Post) ([]View, error) {
	views := make([]View, 0, len(raw))
	if len(raw) == 0 {
		return views, nil
	}

	postIDs := make([]string, 0, len(raw))
	authorIDSet := map[string]struct{}{}
	for _, post := range raw {
		postIDs = append(postIDs, post.ID)
		authorIDSet[post.AuthorID] = struct{}{}
	}

	var likes []Like
	if err := s.db.WithContext(ctx).Where("post_id IN ?", postIDs).Order("created_at ASC").Find(&likes).Error; err != nil {
		return nil, err
	}
	likesByPost := map[string][]string{}
	for _, like := range likes {
		likesByPost[like.PostID] = append(likesByPost[like.PostID], like.UserID)
	}

	var comments []Comment
	if err := s.db.WithContext(ctx).Where("post_id IN ?", postIDs).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	for _, comment := range comments {
		authorIDSet[comment.AuthorID] = struct{}{}
	}

	summaries, err := s.summariesFor(ctx, authorIDSet)
	if err != nil {
		return nil, err
	}

	commentsByPost := map[string][]CommentView{}
	for _, comment := range comments {
		commentsByPost[comment.PostID] = append(commentsByPost[comment.PostID], CommentView{
			Comment: comment,
			Author:  summaries[comment.AuthorID],
		})
	}

	for _, post := range raw {
		likeList := likesByPost[post.ID]
		if likeList == nil {
			likeList = []string{}
		}
		commentList := commentsByPost[post.ID]
		if commentList == nil {
			commentList = []CommentView{}
		}
		views = append(views, View{
			Post:     post,
			Author:   summaries[post.AuthorID],
			Likes:    likeList,
			Comments: commentList,
		})
	}
	return views, nil
}

func (s *Service) populateComments(ctx context.Context, comments []Comment) ([]CommentView, error) {
	authorIDSet := map[string]struct{}{}
	for _, comment := range comments {
		authorIDSet[comment.AuthorID] = struct{}{}
	}
	summaries, err := s.summariesFor(ctx, authorIDSet)
	if err != nil {
		return nil, err
	}
	views := make([]CommentView, 0, len(comments))
	for _, comment := range comments {
		views = append(views, CommentView{Comment: comment, Author: summaries[comment.AuthorID]})
	}
	return views, nil
}

func (s *Service) summariesFor(ctx context.Context, idSet map[string]struct{}) (map[string]users.Summary, error) {
	summaries := make(map[string]users.Summary, len(idSet))
	if len(idSet) == 0 {
		return summaries, nil
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	var accounts []users.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, err
	}
	for _, account := range accounts {
		summaries[account.ID] = account.Summary()
	}
	return summaries, nil
}
