package models

import "time"

// Account represents a registered user; every account is also a channel.
// PasswordHash and RefreshToken never leave the process boundary.
type Account struct {
	ID           string
	UserName     string
	Email        string
	FullName     string
	Avatar       string
	CoverImage   string
	PasswordHash string `json:"-"`
	RefreshToken string `json:"-"`
	WatchHistory []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public returns the caller-safe subset of the account.
func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:         a.ID,
		UserName:   a.UserName,
		Email:      a.Email,
		FullName:   a.FullName,
		Avatar:     a.Avatar,
		CoverImage: a.CoverImage,
		CreatedAt:  a.CreatedAt,
	}
}

// PublicAccount is the profile shape returned to clients.
type PublicAccount struct {
	ID         string    `json:"_id"`
	UserName   string    `json:"userName"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Video is an uploaded video owned by an account.
type Video struct {
	ID          string
	OwnerID     string
	VideoFile   string
	Thumbnail   string
	Title       string
	Description string
	Duration    float64
	Views       int64
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Comment is a comment left on a video.
type Comment struct {
	ID        string    `json:"_id"`
	VideoID   string    `json:"video"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Tweet is a short text post owned by an account.
type Tweet struct {
	ID        string    `json:"_id"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeTarget identifies which kind of content a like points at.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
