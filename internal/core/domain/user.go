package domain

import "time"

// Account constraints.
const (
	MinPasswordLength = 8
	// MaxPasswordLength is the bcrypt input limit in bytes.
	MaxPasswordLength = 72
)

// User is a registered account together with its profile.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`

	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
	Sector   string `json:"sector,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Location string `json:"location,omitempty"`
	Status   string `json:"status,omitempty"`

	// ResetTokenHash is the SHA-256 of the outstanding password reset token.
	ResetTokenHash    string     `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.ResetTokenExpires != nil {
		t := *u.ResetTokenExpires
		c.ResetTokenExpires = &t
	}
	return &c
}

// HasValidResetToken reports whether hash matches the stored reset token
// and the token has not expired at now.
func (u *User) HasValidResetToken(hash string, now time.Time) bool {
	if u.ResetTokenHash == "" || u.ResetTokenExpires == nil {
		return false
	}
	return u.ResetTokenHash == hash && now.Before(*u.ResetTokenExpires)
}

// RegisterInput is the payload of POST /api/auth/register.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Designation string `json:"designation"`
	Sector      string `json:"sector"`
}

// Validate reports every schema violation at once.
func (in *RegisterInput) Validate() error {
	var v Violations
	v.checkEmail("email", in.Email)
	checkPassword(&v, "password", in.Password)
	v.checkLength("full_name", in.FullName, 2, 0, "Full name must be at least 2 characters", "")
	v.checkLength("designation", in.Designation, 2, 0, "Designation is required", "")
	v.checkLength("sector", in.Sector, 2, 0, "Sector is required", "")
	return v.Err()
}

// LoginInput is the payload of POST /api/auth/login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate reports every schema violation at once.
func (in *LoginInput) Validate() error {
	var v Violations
	v.checkEmail("email", in.Email)
	if in.Password == "" {
		v.Add("password", "Password is required")
	}
	return v.Err()
}

// ForgotPasswordInput is the payload of POST /api/auth/forgot-password.
type ForgotPasswordInput struct {
	Email string `json:"email"`
}

// Validate reports every schema violation at once.
func (in *ForgotPasswordInput) Validate() error {
	var v Violations
	v.checkEmail("email", in.Email)
	return v.Err()
}

// ResetPasswordInput is the payload of POST /api/auth/reset-password.
type ResetPasswordInput struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Validate reports every schema violation at once.
func (in *ResetPasswordInput) Validate() error {
	var v Violations
	if in.Token == "" {
		v.Add("token", "Token is required")
	}
	checkPassword(&v, "password", in.Password)
	return v.Err()
}

func checkPassword(v *Violations, field, password string) {
	switch {
	case password == "":
		v.Add(field, "Password is required")
	case len(password) < MinPasswordLength:
		v.Add(field, "Password must be at least 8 characters long")
	case len(password) > MaxPasswordLength:
		v.Add(field, "Password cannot exceed 72 bytes")
	}
}

// UpdateProfileInput is the payload of PUT /api/users/profile.
// Nil fields are left unchanged; empty strings clear the field.
type UpdateProfileInput struct {
	FullName *string `json:"full_name,omitempty"`
	Role     *string `json:"role,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Location *string `json:"location,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// Validate reports every schema violation at once.
func (in *UpdateProfileInput) Validate() error {
	var v Violations
	v.checkOptionalLength("full_name", in.FullName, 2, 50,
		"Full Name must be at least 2 characters", "Full Name cannot exceed 50 characters")
	v.checkOptionalLength("role", in.Role, 0, 50, "", "Role cannot exceed 50 characters")
	v.checkOptionalLength("bio", in.Bio, 0, 500, "", "Bio cannot exceed 500 characters")
	v.checkOptionalLength("location", in.Location, 0, 100, "", "Location cannot exceed 100 characters")
	v.checkOptionalLength("status", in.Status, 0, 50, "", "Status cannot exceed 50 characters")
	return v.Err()
}

// IsEmpty reports whether the input changes nothing.
func (in *UpdateProfileInput) IsEmpty() bool {
	return in.FullName == nil && in.Role == nil && in.Bio == nil && in.Location == nil && in.Status == nil
}

// Apply copies the set fields onto u.
func (in *UpdateProfileInput) Apply(u *User) {
	if in.FullName != nil {
		u.FullName = *in.FullName
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.Location != nil {
		u.Location = *in.Location
	}
	if in.Status != nil {
		u.Status = *in.Status
	}
}
