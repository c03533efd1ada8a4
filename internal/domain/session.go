package domain

import "time"

// Session tracks one issued refresh token.
//
// Security notes:
// - We never store the raw refresh token, only SHA-256(raw+pepper) in TokenHash.
// - On refresh we rotate: the presented session is marked used+revoked and a
//   successor is created in the same family. Presenting a used or revoked
//   token again is treated as replay and revokes the whole family.
type Session struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	PrincipalID int64     `json:"principal_id" gorm:"index;not null"`
	Principal   Principal `json:"-" gorm:"foreignKey:PrincipalID;constraint:OnDelete:CASCADE"`

	TokenHash string `json:"-" gorm:"size:64;uniqueIndex;not null"`
	JTI       string `json:"-" gorm:"size:36;not null"`
	FamilyID  string `json:"-" gorm:"size:36;index;not null"`

	RotatedFromID *int64 `json:"-" gorm:"index"`

	UserAgent *string `json:"-" gorm:"size:255"`
	IP        *string `json:"-" gorm:"size:45"`

	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       time.Time  `json:"expires_at" gorm:"index;not null"`
	UsedAt          *time.Time `json:"-"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty" gorm:"index"`
	ReuseDetectedAt *time.Time `json:"-"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
