package dto

import "github.com/ahmetcoskunkizilkaya/user-directory/internal/models"

// UserInput is the body of create and update requests. Nil fields were not
// supplied; on update they keep their stored value.
type UserInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Gender    *string `json:"gender"`
	Phone     *string `json:"phone"`
}

type UserListData struct {
	Users      []models.User `json:"users"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int64         `json:"total_pages"`
}
