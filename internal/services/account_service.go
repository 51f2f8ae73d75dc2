package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"qbay/internal/models"
	"qbay/internal/repositories"
	"qbay/internal/validation"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// AccountService handles registration, login and profile updates.
type AccountService struct {
	store      repositories.Store
	jwtSecret  []byte
	tokenTTL   time.Duration // Duration for which a JWT is valid
	bcryptCost int
}

// NewAccountService creates a new AccountService.
func NewAccountService(store repositories.Store, jwtSecret string, tokenTTL time.Duration) *AccountService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AccountService{
		store:      store,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// ProfileUpdate lists the profile fields to change. Nil fields are left as they are.
type ProfileUpdate struct {
	Username        *string
	ShippingAddress *string
	PostalCode      *string
}

// Register creates an account with the starting balance. The password is
// stored as a bcrypt hash.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	if err := s.ensureEmailAvailable(ctx, s.store, email); err != nil {
		return nil, err
	}

	switch {
	case strings.TrimSpace(email) == "":
		return nil, invalid("email", "must not be empty")
	case strings.TrimSpace(password) == "":
		return nil, invalid("password", "must not be empty")
	case !validation.ValidateUsername(name):
		return nil, invalid("username", "must be 2-20 letters or digits with no leading or trailing space")
	case !validation.ValidateEmail(email):
		return nil, invalid("email", "must be a valid address")
	case !validation.ValidatePassword(password):
		return nil, invalid("password", "must have 6+ characters with upper case, lower case and a special character")
	case len(password) > maxPasswordBytes:
		return nil, invalid("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user *models.User
	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		if err := s.ensureEmailAvailable(ctx, tx, email); err != nil {
			return err
		}
		u := &models.User{
			Email:        email,
			Username:     name,
			PasswordHash: string(hash),
			Balance:      models.InitialBalance,
		}
		if err := tx.InsertUser(ctx, u); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return fmt.Errorf("%w: email '%s' already registered", ErrConflict, email)
			}
			return fmt.Errorf("failed to register user: %w", err)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Registered user %s", email)
	return user, nil
}

func (s *AccountService) ensureEmailAvailable(ctx context.Context, store repositories.Store, email string) error {
	_, err := store.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return fmt.Errorf("%w: email '%s' already registered", ErrConflict, email)
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	default:
		return err
	}
}

// Login checks the password format, then the credentials, and returns the
// matching user.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	switch {
	case strings.TrimSpace(email) == "":
		return nil, invalid("email", "must not be empty")
	case strings.TrimSpace(password) == "":
		return nil, invalid("password", "must not be empty")
	case !validation.ValidatePassword(password):
		return nil, invalid("password", "must have 6+ characters with upper case, lower case and a special character")
	case len(password) > maxPasswordBytes:
		return nil, invalid("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// GetUser returns the account registered under email.
func (s *AccountService) GetUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err, "user "+email)
	}
	return user, nil
}

// UpdateUser applies every field of update or none of them.
func (s *AccountService) UpdateUser(ctx context.Context, email string, update ProfileUpdate) error {
	return s.store.WithTx(ctx, func(tx repositories.Store) error {
		user, err := tx.FindUserByEmail(ctx, email)
		if err != nil {
			return notFound(err, "user "+email)
		}

		draft := *user
		if update.Username != nil {
			if !validation.ValidateUsername(*update.Username) {
				return invalid("username", "must be 2-20 letters or digits with no leading or trailing space")
			}
			draft.Username = *update.Username
		}
		if update.ShippingAddress != nil {
			if !validation.ValidateShippingAddress(*update.ShippingAddress) {
				return invalid("shipping_address", "must be non-empty letters, digits and spaces")
			}
			addr := *update.ShippingAddress
			draft.ShippingAddress = &addr
		}
		if update.PostalCode != nil {
			if !validation.ValidatePostalCode(*update.PostalCode) {
				return invalid("postal_code", "must be a valid Canadian postal code")
			}
			code := *update.PostalCode
			draft.PostalCode = &code
		}

		if err := tx.UpdateUser(ctx, &draft); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
}

// IssueToken signs a JWT identifying user.
func (s *AccountService) IssueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email":    user.Email,
		"username": user.Username,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
		"iat":      time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AccountService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if _, ok := claims["email"].(string); !ok {
		return nil, fmt.Errorf("invalid token: missing email claim")
	}
	return claims, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
