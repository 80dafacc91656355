package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pulse/infrastructure"
	"pulse/internal/database"
)

type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListExcluding(ctx context.Context, id uuid.UUID) ([]*User, error)
}

type repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) (*User, error) {
	dbUser := convertUserToDBUser(user)
	err := r.db.WithContext(ctx).Create(dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, infrastructure.ErrUserAlreadyExists
		}
		return nil, err
	}
	return convertDBUserToUser(dbUser), nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var dbUser database.User
	err := r.db.WithContext(ctx).First(&dbUser, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, infrastructure.ErrUserNotFound
		}
		return nil, err
	}
	return convertDBUserToUser(&dbUser), nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var dbUser database.User
	err := r.db.WithContext(ctx).First(&dbUser, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, infrastructure.ErrUserNotFound
		}
		return nil, err
	}
	return convertDBUserToUser(&dbUser), nil
}

func (r *repository) ListExcluding(ctx context.Context, id uuid.UUID) ([]*User, error) {
	var dbUsers []*database.User
	err := r.db.WithContext(ctx).
		Where("id <> ?", id).
		Order("username ASC").
		Find(&dbUsers).Error
	if err != nil {
		return nil, err
	}

	users := make([]*User, len(dbUsers))
	for i, dbUser := range dbUsers {
		users[i] = convertDBUserToUser(dbUser)
	}
	return users, nil
}
