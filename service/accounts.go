package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kevinaaaquil/bookshelf/models"
	"github.com/kevinaaaquil/bookshelf/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the credential store backing accounts. Lookups return nil, nil when
// the user does not exist. AddSavedBook and RemoveSavedBook must each be a single
// atomic update of the user document.
type UserStore interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	AddSavedBook(ctx context.Context, userID primitive.ObjectID, book models.SavedBook) (*models.User, error)
	RemoveSavedBook(ctx context.Context, userID primitive.ObjectID, bookID string) (*models.User, error)
}

// maxPasswordBytes is bcrypt's input limit. The validator's max tag counts runes.
const maxPasswordBytes = 72

// AuthPayload is returned by signup and login.
type AuthPayload struct {
	Token string
	User  *models.User
}

type SignupInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AccountService implements signup, login and the saved-books list on top of a
// UserStore and a TokenService.
type AccountService struct {
	users     UserStore
	tokens    *TokenService
	validate  *validator.Validate
	hashCost  int
	dummyHash []byte
	logger    *slog.Logger
}

// NewAccountService builds the service. hashCost is the bcrypt cost; zero means bcrypt.DefaultCost.
func NewAccountService(users UserStore, tokens *TokenService, hashCost int, logger *slog.Logger) (*AccountService, error) {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	// Compared against when the email is unknown, so both login failures cost one bcrypt run.
	dummy, err := bcrypt.GenerateFromPassword([]byte("no-such-user-password"), hashCost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &AccountService{
		users:     users,
		tokens:    tokens,
		validate:  newValidator(),
		hashCost:  hashCost,
		dummyHash: dummy,
		logger:    logger,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// Signup creates an account and returns a token for it.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*AuthPayload, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if err := s.validateStruct("invalid signup input", in); err != nil {
		return nil, err
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, &ValidationError{
			Message: "invalid signup input",
			Fields:  map[string]string{"password": "max"},
		}
	}

	existing, err := s.users.UserByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, duplicateEmail()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.CreateUser(ctx, &models.User{
		Username:   in.Username,
		Email:      in.Email,
		Password:   string(hash),
		SavedBooks: []models.SavedBook{},
		CreatedAt:  time.Now().UTC(),
	})
	if errors.Is(err, store.ErrDuplicateEmail) {
		return nil, duplicateEmail()
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID.Hex())
	return &AuthPayload{Token: token, User: user}, nil
}

// Login checks the credentials and returns a fresh token. Unknown email and wrong
// password fail with the same AuthenticationError.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	user, err := s.users.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, NewAuthenticationError(MsgInvalidCredentials)
	}
	if !VerifyPassword(user, password) {
		return nil, NewAuthenticationError(MsgInvalidCredentials)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthPayload{Token: token, User: user}, nil
}

// VerifyPassword reports whether candidate matches the user's stored hash.
func VerifyPassword(user *models.User, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(candidate)) == nil
}

// Me returns the profile of the given identity, or nil if the account no longer exists.
func (s *AccountService) Me(ctx context.Context, who *models.Identity) (*models.User, error) {
	user, err := s.users.UserByID(ctx, who.ID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// SaveBook adds book to the identity's list. A bookId already in the list is left as is.
func (s *AccountService) SaveBook(ctx context.Context, who *models.Identity, book models.SavedBook) (*models.User, error) {
	book.BookID = strings.TrimSpace(book.BookID)
	if err := s.validateStruct("invalid book input", book); err != nil {
		return nil, err
	}
	if book.Authors == nil {
		book.Authors = []string{}
	}
	user, err := s.users.AddSavedBook(ctx, who.ID, book)
	if err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}
	return user, nil
}

// RemoveBook drops bookID from the identity's list. Absent ids are not an error.
func (s *AccountService) RemoveBook(ctx context.Context, who *models.Identity, bookID string) (*models.User, error) {
	user, err := s.users.RemoveSavedBook(ctx, who.ID, bookID)
	if err != nil {
		return nil, fmt.Errorf("remove book: %w", err)
	}
	return user, nil
}

func (s *AccountService) validateStruct(msg string, v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Message: msg, Fields: fields}
}

func duplicateEmail() error {
	return &ValidationError{
		Message: "email already in use",
		Fields:  map[string]string{"email": "unique"},
	}
}

// newValidator reports field errors under their json names, which match the GraphQL argument names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
