package users

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kysclient/foodly-backend/internal/domain"
	"github.com/kysclient/foodly-backend/internal/pkg/dbctx"
	"github.com/kysclient/foodly-backend/internal/pkg/logger"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.User, error)
	GetByIDWithPreference(dbc dbctx.Context, id uuid.UUID) (*domain.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{
		db:  db,
		log: baseLog.With("repo", "UserRepo"),
	}
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var user domain.User
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByIDWithPreference(dbc dbctx.Context, id uuid.UUID) (*domain.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var user domain.User
	err := transaction.WithContext(dbc.Ctx).
		Preload("Preference").
		Where("id = ?", id).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
