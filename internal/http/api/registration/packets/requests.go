package packets

// form body for POST /register. Presence is checked by the registration
// service, so no binding rules here.
type RegisterRequest struct {
	Birthday        string `form:"birthday"`
	FirstName       string `form:"first_name"`
	LastName        string `form:"last_name"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}
