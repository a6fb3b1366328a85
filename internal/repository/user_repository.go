package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"userhandler/internal/model"
)

// UserRepository defines persistence operations.
type UserRepository interface {
	FindAll(ctx context.Context) ([]model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByID(ctx context.Context, id uint) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Save(ctx context.Context, user *model.User) (*model.User, error)
	DeleteByID(ctx context.Context, id uint) (bool, error)
	AverageAge(ctx context.Context, currentYear int) (float64, error)
	FindByAgeRange(ctx context.Context, currentYear, low, high int) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindAll lists every user ordered by id.
func (r *userRepository) FindAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, "id = ?", id)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *userRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where(query, arg).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts the user when it has no id yet, otherwise overwrites the stored row.
// Unique index violations come back as gorm.ErrDuplicatedKey.
func (r *userRepository) Save(ctx context.Context, user *model.User) (*model.User, error) {
	tx := r.db.WithContext(ctx)
	if user.ID == 0 {
		if err := tx.Create(user).Error; err != nil {
			return nil, err
		}
		return user, nil
	}
	if err := tx.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteByID removes the user and reports whether a row existed.
func (r *userRepository) DeleteByID(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AverageAge averages currentYear minus birth year over all users. Month and
// day are ignored. An empty table averages to 0.
func (r *userRepository) AverageAge(ctx context.Context, currentYear int) (float64, error) {
	var avg sql.NullFloat64
	expr := fmt.Sprintf("AVG(? - %s)", r.birthYearExpr())
	row := r.db.WithContext(ctx).Model(&model.User{}).Select(expr, currentYear).Row()
	if err := row.Scan(&avg); err != nil {
		return 0, err
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// FindByAgeRange returns users whose calendar-year age (currentYear minus
// birth year) lies in [low, high].
func (r *userRepository) FindByAgeRange(ctx context.Context, currentYear, low, high int) ([]model.User, error) {
	from := time.Date(currentYear-high, time.January, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(currentYear-low+1, time.January, 1, 0, 0, 0, 0, time.UTC)

	var users []model.User
	if err := r.db.WithContext(ctx).
		Where("birthday >= ? AND birthday < ?", from, until).
		Order("id").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) birthYearExpr() string {
	switch r.db.Dialector.Name() {
	case "mysql":
		return "YEAR(birthday)"
	case "postgres":
		return "EXTRACT(YEAR FROM birthday)"
	default:
		return "CAST(SUBSTR(birthday, 1, 4) AS INTEGER)"
	}
}

// IsNotFound reports whether err is a missing-record error from the store.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique index violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
