package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "userhandler/internal/errors"
	"userhandler/internal/model"
)

func storedJane() *model.User {
	return &model.User{
		ID:           7,
		Name:         "Jane Doe",
		Email:        "jane.doe@example.com",
		Username:     "jane_doe",
		PasswordHash: "$2a$04$stored",
		Role:         model.RoleAdmin,
		Birthday:     time.Date(1992, time.June, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestUserService_ListUsers(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindAll", mock.Anything).Return([]model.User{*storedJane()}, nil)

	service := NewUserService(mockRepo, testHasher(), nil)
	views, err := service.ListUsers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []model.UserView{{ID: 7, Name: "Jane Doe", Email: "jane.doe@example.com"}}, views)
	mockRepo.AssertExpectations(t)
}

func TestUserService_GetUser(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(*MockUserRepository)
		expectedView  *model.UserView
		expectedError error
	}{
		{
			name: "found",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(7)).Return(storedJane(), nil)
			},
			expectedView: &model.UserView{ID: 7, Name: "Jane Doe", Email: "jane.doe@example.com"},
		},
		{
			name: "not found",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(7)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			service := NewUserService(mockRepo, testHasher(), nil)
			view, err := service.GetUser(context.Background(), 7)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, view)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedView, view)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_CreateUser(t *testing.T) {
	base := CreateUserInput{
		Name:     "John Roe",
		Email:    "john@example.com",
		Username: "john_roe",
		Password: "password123",
		Birthday: "1985-01-20",
	}

	t.Run("defaults role to USER", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		var saved *model.User
		mockRepo.On("ExistsByEmail", mock.Anything, "john@example.com").Return(false, nil)
		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.User")).
			Run(func(args mock.Arguments) {
				saved = args.Get(1).(*model.User)
				saved.ID = 3
			}).
			Return(&model.User{}, nil)

		service := NewUserService(mockRepo, testHasher(), nil, WithClock(testClock))
		view, err := service.CreateUser(context.Background(), base)

		require.NoError(t, err)
		assert.Equal(t, &model.UserView{ID: 3, Name: "John Roe", Email: "john@example.com"}, view)
		assert.Equal(t, model.RoleUser, saved.Role)
		assert.NotEqual(t, "password123", saved.PasswordHash)
	})

	t.Run("keeps ADMIN role", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		var saved *model.User
		mockRepo.On("ExistsByEmail", mock.Anything, "john@example.com").Return(false, nil)
		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.User")).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*model.User) }).
			Return(&model.User{}, nil)

		in := base
		in.Role = model.RoleAdmin
		service := NewUserService(mockRepo, testHasher(), nil, WithClock(testClock))
		_, err := service.CreateUser(context.Background(), in)

		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, saved.Role)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		in := base
		in.Role = "ROOT"

		service := NewUserService(mockRepo, testHasher(), nil, WithClock(testClock))
		_, err := service.CreateUser(context.Background(), in)

		assert.ErrorIs(t, err, apperrors.ErrInvalidRole)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects overlong password", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("ExistsByEmail", mock.Anything, "john@example.com").Return(false, nil)
		in := base
		in.Password = strings.Repeat("p", 80)

		service := NewUserService(mockRepo, testHasher(), nil, WithClock(testClock))
		_, err := service.CreateUser(context.Background(), in)

		assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects username containing @", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		in := base
		in.Username = "john@roe"

		service := NewUserService(mockRepo, testHasher(), nil, WithClock(testClock))
		_, err := service.CreateUser(context.Background(), in)

		assert.ErrorIs(t, err, apperrors.ErrInvalidUsername)
		mockRepo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("ExistsByEmail", mock.Anything, "john@example.com").Return(true, nil)

		service := NewUserService(mockRepo, testHasher(), nil, WithClock(testClock))
		_, err := service.CreateUser(context.Background(), base)

		assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
	})

	t.Run("rejects future birthday", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("ExistsByEmail", mock.Anything, "john@example.com").Return(false, nil)
		in := base
		in.Birthday = "2030-01-01"

		service := NewUserService(mockRepo, testHasher(), nil, WithClock(testClock))
		_, err := service.CreateUser(context.Background(), in)

		assert.ErrorIs(t, err, apperrors.ErrInvalidDate)
	})
}

func TestUserService_UpdateUser_ChangesOnlyNameAndEmail(t *testing.T) {
	original := storedJane()
	mockRepo := new(MockUserRepository)
	var saved *model.User
	mockRepo.On("FindByID", mock.Anything, uint(7)).Return(storedJane(), nil)
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*model.User) }).
		Return(&model.User{}, nil)

	service := NewUserService(mockRepo, testHasher(), nil)
	view, err := service.UpdateUser(context.Background(), 7, UpdateUserInput{Name: "Jane Smith", Email: "jane.smith@example.com"})

	require.NoError(t, err)
	assert.Equal(t, &model.UserView{ID: 7, Name: "Jane Smith", Email: "jane.smith@example.com"}, view)
	assert.Equal(t, original.PasswordHash, saved.PasswordHash)
	assert.Equal(t, original.Role, saved.Role)
	assert.Equal(t, original.Birthday, saved.Birthday)
	assert.Equal(t, original.Username, saved.Username)
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

		service := NewUserService(mockRepo, testHasher(), nil)
		view, err := service.UpdateUser(context.Background(), 99, UpdateUserInput{Name: "x", Email: "x@example.com"})

		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		assert.Nil(t, view)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("email taken", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(7)).Return(storedJane(), nil)
		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil, gorm.ErrDuplicatedKey)

		service := NewUserService(mockRepo, testHasher(), nil)
		_, err := service.UpdateUser(context.Background(), 7, UpdateUserInput{Name: "Jane", Email: "taken@example.com"})

		assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("ExistsByID", mock.Anything, uint(7)).Return(true, nil).Once()
	mockRepo.On("DeleteByID", mock.Anything, uint(7)).Return(true, nil).Once()
	mockRepo.On("ExistsByID", mock.Anything, uint(7)).Return(false, nil).Once()

	service := NewUserService(mockRepo, testHasher(), nil)

	deleted, err := service.DeleteUser(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = service.DeleteUser(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, deleted)

	mockRepo.AssertExpectations(t)
}

func TestUserService_DeleteUser_StoreError(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("ExistsByID", mock.Anything, uint(7)).Return(false, errors.New("db down"))

	service := NewUserService(mockRepo, testHasher(), nil)
	_, err := service.DeleteUser(context.Background(), 7)

	assert.ErrorContains(t, err, "db down")
}

func TestUserService_AverageAge_UsesCurrentCalendarYear(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("AverageAge", mock.Anything, 2024).Return(29.0, nil)

	service := NewUserService(mockRepo, testHasher(), nil, WithClock(testClock))
	avg, err := service.AverageAge(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 29.0, avg)
	mockRepo.AssertExpectations(t)
}

func TestUserService_UsersInAgeRange(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByAgeRange", mock.Anything, 2024, 18, 40).Return([]model.User{*storedJane()}, nil)

	service := NewUserService(mockRepo, testHasher(), nil, WithClock(testClock))

	views, err := service.UsersInAgeRange(context.Background(), 18, 40)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	_, err = service.UsersInAgeRange(context.Background(), 40, 18)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAgeRange)

	_, err = service.UsersInAgeRange(context.Background(), -1, 18)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAgeRange)

	mockRepo.AssertExpectations(t)
}
