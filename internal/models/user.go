package models

import (
	"strings"
	"time"
)

const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderOther  = "OTHER"
)

// Genders lists every value the gender column may hold.
var Genders = []string{GenderMale, GenderFemale, GenderOther}

// User is a directory record. ID comes from the users_id_seq identity generator.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName string    `gorm:"size:100;not null" json:"first_name"`
	LastName  string    `gorm:"size:100;not null" json:"last_name"`
	Email     string    `gorm:"size:255;not null;uniqueIndex:idx_users_email" json:"email"`
	Gender    string    `gorm:"size:10;not null;index;check:chk_users_gender,gender IN ('MALE','FEMALE','OTHER')" json:"gender"`
	Phone     string    `gorm:"size:32;not null" json:"phone"`
	CreatedAt time.Time `gorm:"<-:create;index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeGender upper-cases g and reports whether it is a known gender.
func NormalizeGender(g string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(g))
	for _, known := range Genders {
		if upper == known {
			return upper, true
		}
	}
	return upper, false
}
