package models

import "time"

// Post is a single blog entry. The author reference is cleared, not
// cascaded, when the author account is removed.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Image     string    `gorm:"size:255" json:"image,omitempty"`
	AuthorID  *uint     `gorm:"index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
	GroupID   *uint     `gorm:"index" json:"group_id,omitempty"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAuthoredBy reports whether userID is the recorded author of the post.
func (p *Post) IsAuthoredBy(userID uint) bool {
	return p.AuthorID != nil && userID != 0 && *p.AuthorID == userID
}

// Excerpt returns at most n runes of the post text.
func (p *Post) Excerpt(n int) string {
	r := []rune(p.Text)
	if len(r) <= n {
		return p.Text
	}
	return string(r[:n])
}
