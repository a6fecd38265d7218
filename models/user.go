package models

import "time"

/************************************************
/**** MARK: USER STATUS ****/
/************************************************/
const USER_STATUS_AVAILABLE = 0
const USER_STATUS_PENDING = 1
const USER_STATUS_BLOCKED = 2

// User representa um usuario no sistema
type User struct {
	ID          int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Email       string     `gorm:"not null;unique" json:"email" form:"email"`
	Password    string     `gorm:"not null" json:"password,omitempty" form:"password"`
	DisplayName string     `gorm:"default:''" json:"display_name" form:"display_name"`
	Pseudonym   string     `gorm:"default:''" json:"pseudonym" form:"pseudonym"`
	IsMentor    bool       `gorm:"not null;default:false" json:"is_mentor" form:"is_mentor"`
	Status      int        `gorm:"default:0" json:"status" form:"status"`
	Admin       bool       `gorm:"not null;default:false" json:"admin" form:"admin"`
	CreatedAt   *time.Time `json:"created_at" form:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at" form:"updated_at"`
}

func (user User) MissingFields() string {
	if user.Email == "" {
		return "email"
	} else if user.Password == "" {
		return "password"
	}
	return ""
}
