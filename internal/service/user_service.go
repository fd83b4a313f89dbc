package service

import (
	"context"

	"scribe/internal/forms"
	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash keeps Authenticate's cost uniform for unknown usernames.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("scribe-dummy-password"), bcrypt.DefaultCost)

type UserService struct {
	userRepo   repository.UserRepository
	bcryptCost int
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost, used by tests and seeding.
func (s *UserService) WithBcryptCost(cost int) *UserService {
	s.bcryptCost = cost
	return s
}

// Register validates a signup submission and creates the account.
// A taken username or email is reported as a field error.
func (s *UserService) Register(ctx context.Context, values forms.Values) (*models.User, error) {
	signup, errs := forms.BindSignup(ctx, values)
	if err := formError(errs); err != nil {
		return nil, err
	}
	return s.create(ctx, signup)
}

func (s *UserService) create(ctx context.Context, signup *forms.Signup) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(signup.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := forms.SignupUser(signup, string(hash))
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.HasCode(err, models.CodeValidation) {
			errs := forms.Errors{}
			errs.Add("username", appMessage(err))
			return nil, &FormError{Errors: errs}
		}
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks a username and password pair.
// Every failure is ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if !models.HasCode(err, models.CodeNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

// Remove deletes the account named username. Its posts stay with no author.
func (s *UserService) Remove(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "user removed", "user_id", user.ID)
	return user, nil
}
