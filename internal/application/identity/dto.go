package identity

// UpdateProfileRequest holds the profile fields a user may change. Nil
// fields are left unchanged.
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// EnterpriseRequest holds the editable fields of an enterprise
type EnterpriseRequest struct {
	Name      string `json:"name" binding:"required,max=200"`
	Email     string `json:"email"`
	VATNumber string `json:"vat_number"`
	Industry  string `json:"industry"`
	Size      string `json:"size"`
	Address   string `json:"address"`
}
