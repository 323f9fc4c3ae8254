package model

import "time"

// User is a registrant. PasswordDigest holds the bcrypt digest, never the plaintext.
type User struct {
	ID             int       `db:"id"`
	Birthday       time.Time `db:"birthday"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	Email          string    `db:"email"`
	PasswordDigest string    `db:"password"`
	CreatedAt      time.Time `db:"created_at"`
}

// BirthdayLayout is the only accepted birthday format.
const BirthdayLayout = "2006-01-02"
