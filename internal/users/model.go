package users

import "time"

// User is a registered account. The password hash never leaves the service
// layer in API responses.
type User struct {
	ID             string    `gorm:"column:id;primaryKey;size:190" json:"id"`
	Username       string    `gorm:"column:username;size:64;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"column:email;size:320;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"column:password_hash;size:190;not null" json:"-"`
	Bio            string    `gorm:"column:bio;size:512" json:"bio"`
	Gender         string    `gorm:"column:gender;size:16" json:"gender"`
	ProfilePicture string    `gorm:"column:profile_picture;size:512" json:"profilePicture"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName exposes the table backing user accounts.
func (User) TableName() string {
	return "users"
}

// Summary is the minimal profile embedded in feeds and notifications.
type Summary struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

// Summary projects the public fields of the account.
func (u User) Summary() Summary {
	return Summary{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// FollowEdge records that follower follows followee. One row carries both
// sides of the relationship, so the follow toggle cannot half-apply.
type FollowEdge struct {
	FollowerID string    `gorm:"column:follower_id;primaryKey;size:190" json:"followerId"`
	FolloweeID string    `gorm:"column:followee_id;primaryKey;size:190" json:"followeeId"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName exposes the table backing follow relationships.
func (FollowEdge) TableName() string {
	return "user_follows"
}
