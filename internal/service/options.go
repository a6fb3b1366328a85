package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "userhandler/internal/errors"
	"userhandler/internal/repository"
	"userhandler/internal/validation"
)

// Option configures a service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used for birthday checks and age arithmetic.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// parseBirthday enforces yyyy-MM-dd and a date strictly before today.
func parseBirthday(raw string, now time.Time) (time.Time, error) {
	birthday, err := validation.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.ErrInvalidDate
	}
	if !validation.IsPast(birthday, now) {
		return time.Time{}, apperrors.ErrInvalidDate
	}
	return birthday, nil
}

// checkUsername keeps usernames disjoint from emails so identifier lookups
// (username first, then email) resolve to a single user.
func checkUsername(username string) error {
	if strings.Contains(username, "@") {
		return apperrors.ErrInvalidUsername
	}
	return nil
}

// duplicateError translates a failed insert or update. Unique index
// violations become ErrDuplicateEmail, or ErrDuplicateUsername when the email
// is still free.
func duplicateError(ctx context.Context, repo repository.UserRepository, err error, email, op string) error {
	if !repository.IsDuplicate(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if taken, checkErr := repo.ExistsByEmail(ctx, email); checkErr == nil && !taken {
		return apperrors.ErrDuplicateUsername
	}
	return apperrors.ErrDuplicateEmail
}
