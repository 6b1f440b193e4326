/**
 * @description
 * User payloads sent to, and user documents received from, the banking API.
 *
 * @notes
 * - Username is a pointer so the negative "null username" case can be expressed
 *   on the wire; every record built through NewUserRecord has it set.
 */
package domain

// UserRecord is the request body for POST /users and PUT /users/{id}.
type UserRecord struct {
	Username    *string `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password,omitempty"`
	FullName    string  `json:"fullName,omitempty"`
	PhoneNumber string  `json:"phoneNumber,omitempty"`
}

// UserParams are the named inputs of NewUserRecord.
type UserParams struct {
	Username    string `validate:"required,min=3,max=32"`
	Email       string `validate:"required,email"`
	Password    string `validate:"omitempty,min=8"`
	FullName    string
	PhoneNumber string
}

// NewUserRecord builds a validated user payload.
func NewUserRecord(p UserParams) (UserRecord, error) {
	if err := validateParams("user", p); err != nil {
		return UserRecord{}, err
	}
	return UserRecord{
		Username:    Ptr(p.Username),
		Email:       p.Email,
		Password:    p.Password,
		FullName:    p.FullName,
		PhoneNumber: p.PhoneNumber,
	}, nil
}

// UsernameValue returns the username or "" when it is null.
func (u UserRecord) UsernameValue() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}

// User is the user document returned by the API.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FullName    string `json:"fullName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}
