package user

import "pulse/internal/database"

func convertDBUserToUser(dbUser *database.User) *User {
	if dbUser == nil {
		return nil
	}
	return &User{
		ID:           dbUser.ID,
		Username:     dbUser.Username,
		Email:        dbUser.Email,
		PasswordHash: dbUser.PasswordHash,
		CreatedAt:    dbUser.CreatedAt,
		UpdatedAt:    dbUser.UpdatedAt,
	}
}

func convertUserToDBUser(u *User) *database.User {
	if u == nil {
		return nil
	}
	return &database.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
