package dto

type UpdateUserProfile struct {
	FullName *string `json:"fullname,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

type UserProfileResponse struct {
	AuthID    string  `json:"authId"`
	FullName  *string `json:"fullname,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	UpdatedAt string  `json:"updatedAt"`
}
