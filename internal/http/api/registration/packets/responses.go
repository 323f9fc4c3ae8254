package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/registrar/internal/model"
)

// row rendered on the users page. Carries no password field.
type UserRow struct {
	ID        int
	FirstName string
	LastName  string
	Email     string
	Birthday  string
	CreatedAt string
}

func NewUserRows(users []model.User) []UserRow {
	rows := make([]UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, UserRow{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Birthday:  u.Birthday.Format(model.BirthdayLayout),
			CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}
