package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"cms-panel/internal/models"
)

type UserService struct {
	gw   *models.Gateway
	auth *AuthService
}

func NewUserService(gw *models.Gateway, auth *AuthService) *UserService {
	return &UserService{gw: gw, auth: auth}
}

type UserFilter struct {
	ListOptions
	Role string
}

type CreateUserInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,role"`
	Avatar   string `json:"avatar" validate:"max=500"`
}

// UpdateUserInput is a partial update: nil fields are left unchanged.
type UpdateUserInput struct {
	Name   *string `json:"name" validate:"omitnil,min=1,max=255"`
	Email  *string `json:"email" validate:"omitnil,email,max=255"`
	Role   *string `json:"role" validate:"omitnil,role"`
	Avatar *string `json:"avatar" validate:"omitnil,max=500"`
}

// GetUsers returns users matching filter, newest first, and the total match count
func (s *UserService) GetUsers(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := filter.searchColumns(db.Model(&models.User{}), "name", "email")
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.Classify(err)
	}

	users := []models.User{}
	if err := filter.paginate(query).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, 0, models.Classify(err)
	}
	return users, total, nil
}

// GetUser returns a specific user by ID
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, err
	}
	return findUser(db, id)
}

func findUser(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, models.Classify(err)
	}
	return &user, nil
}

// CreateUser creates a new user
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = models.RoleViewer
	}

	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.auth.createUser(db, input.Name, input.Email, input.Password, input.Role)
	if err != nil {
		return nil, err
	}

	if input.Avatar != "" {
		if err := db.Model(user).Update("avatar", input.Avatar).Error; err != nil {
			return nil, models.Classify(err)
		}
	}
	return user, nil
}

// UpdateUser applies the non-nil fields of input
func (s *UserService) UpdateUser(ctx context.Context, id uint, input UpdateUserInput) (*models.User, error) {
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		input.Email = &email
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		current, err := findUser(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if input.Name != nil {
			updates["name"] = *input.Name
		}
		if input.Avatar != nil {
			updates["avatar"] = *input.Avatar
		}
		if input.Email != nil && *input.Email != current.Email {
			var count int64
			if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", *input.Email, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrUserExists
			}
			updates["email"] = *input.Email
		}
		if input.Role != nil && *input.Role != current.Role {
			if current.Role == models.RoleAdmin {
				if err := ensureOtherAdmin(tx, id); err != nil {
					return err
				}
			}
			updates["role"] = *input.Role
		}

		if len(updates) > 0 {
			if err := tx.Model(current).Updates(updates).Error; err != nil {
				return err
			}
		}

		user, err = findUser(tx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrConflict) && !errors.Is(err, ErrLastAdmin) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user. Users cannot remove themselves, the last admin,
// or anyone who still owns posts or media.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return ErrSelfDelete
	}

	return s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		user, err := findUser(tx, id)
		if err != nil {
			return err
		}

		if user.Role == models.RoleAdmin {
			if err := ensureOtherAdmin(tx, id); err != nil {
				return err
			}
		}

		var owned int64
		if err := tx.Model(&models.BlogPost{}).Where("author_id = ?", id).Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			if err := tx.Model(&models.MediaAsset{}).Where("uploaded_by = ?", id).Count(&owned).Error; err != nil {
				return err
			}
		}
		if owned > 0 {
			return ErrUserHasContent
		}

		if err := tx.Delete(user).Error; err != nil {
			if errors.Is(models.Classify(err), ErrConflict) {
				return ErrUserHasContent
			}
			return err
		}
		return nil
	})
}

// ResetPassword sets a new password for a user without the current one
func (s *UserService) ResetPassword(ctx context.Context, id uint, password string) error {
	input := struct {
		Password string `json:"password" validate:"required,min=6,max=72"`
	}{password}
	if err := validateStruct(input); err != nil {
		return err
	}

	db, err := s.gw.DB(ctx)
	if err != nil {
		return err
	}
	if _, err := findUser(db, id); err != nil {
		return err
	}
	return s.auth.setPassword(db, id, password)
}

func ensureOtherAdmin(tx *gorm.DB, id uint) error {
	var admins int64
	if err := tx.Model(&models.User{}).Where("role = ? AND id <> ?", models.RoleAdmin, id).Count(&admins).Error; err != nil {
		return err
	}
	if admins == 0 {
		return ErrLastAdmin
	}
	return nil
}
