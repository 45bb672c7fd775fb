package model

import (
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the longest password bcrypt accepts, in bytes
const MaxPasswordLength = 72

// User is an account addressed by its email.
//
// Password only carries a plaintext password on its way in from a request;
// stores hash it into PasswordHash and clear it before persisting.
type User struct {
	PrimaryKey   int    `gorm:"column:primary_key;primaryKey;autoIncrement" json:"primaryKey"`
	Email        string `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Name         string `gorm:"column:name;not null" json:"name"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	Password     string `gorm:"-" json:"password,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) PrimaryKeyValue() int {
	return u.PrimaryKey
}

func (u *User) SetPrimaryKey(key int) {
	u.PrimaryKey = key
}

func (u *User) NaturalKeyValue() string {
	return u.Email
}

// Validate lower-cases the email and checks every required field is present.
// A user is valid with either a plaintext password or an existing hash.
func (u *User) Validate() error {
	u.Name = strings.TrimSpace(u.Name)

	email := strings.TrimSpace(u.Email)
	if email == "" {
		return invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return invalid("email %q is not a valid address", u.Email)
	}
	u.Email = strings.ToLower(addr.Address)

	if u.Name == "" {
		return invalid("name is required")
	}
	if u.Password == "" && u.PasswordHash == "" {
		return invalid("password is required")
	}
	if len(u.Password) > MaxPasswordLength {
		return invalid("password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

// SetPassword replaces PasswordHash with the bcrypt hash of password and
// clears the plaintext
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.Password = ""
	return nil
}

// CheckPassword reports whether password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
