package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/go-ecommerce-cli/internal/cache"
	"github.com/flicky/go-ecommerce-cli/internal/dto"
	"github.com/flicky/go-ecommerce-cli/internal/events"
	"github.com/flicky/go-ecommerce-cli/internal/model"
	"github.com/flicky/go-ecommerce-cli/internal/repository"
)

const (
	minUsernameLen = 3
	minPasswordLen = 4
)

// Session is the identity of a logged-in user. It is passed explicitly to
// every operation that acts on behalf of the user.
type Session struct {
	ID        string
	UserID    int64
	Username  string
	FullName  string
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	store     repository.Store
	cache     *cache.ProductCache
	publisher events.Publisher
	log       *zap.Logger
	jwtSecret []byte
	jwtExpiry time.Duration
	hashCost  int
}

type AuthOptions struct {
	Secret   string
	TTL      time.Duration
	HashCost int
}

func NewAuthService(store repository.Store, productCache *cache.ProductCache, publisher events.Publisher, log *zap.Logger, opts AuthOptions) *AuthService {
	cost := opts.HashCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:     store,
		cache:     productCache,
		publisher: publisher,
		log:       log,
		jwtSecret: []byte(opts.Secret),
		jwtExpiry: opts.TTL,
		hashCost:  cost,
	}
}

// Register creates the user and the user's empty cart in one transaction.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (string, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if utf8.RuneCountInString(username) < minUsernameLen {
		return "", validationf("username must be at least %d characters", minUsernameLen)
	}
	if !validName(req.FirstName) {
		return "", validationf("first name must contain letters only")
	}
	if !validName(req.LastName) {
		return "", validationf("last name must contain letters only")
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLen {
		return "", validationf("password must be at least %d characters", minPasswordLen)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return "", storageError(s.log, "hash password", err)
	}

	user := &model.User{
		Username:  username,
		Password:  string(hashed),
		FirstName: capitalize(req.FirstName),
		LastName:  capitalize(req.LastName),
	}
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		existing, err := tx.Users().GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflictf("user %q already exists", username)
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateUsername) {
				return conflictf("user %q already exists", username)
			}
			return err
		}
		_, err = tx.Carts().Create(ctx, user.ID)
		return err
	})
	if err != nil {
		return "", storageError(s.log, "register", err, zap.String("username", username))
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", username))
	publish(ctx, s.publisher, s.log, events.Event{Type: events.UserRegistered, UserID: user.ID})
	return "registration successful", nil
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*Session, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, storageError(s.log, "login", err)
	}
	if user == nil {
		return nil, notFoundf("user %q not found", username)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, newError(ErrUnauthenticated, "wrong password")
	}

	sess, err := s.issue(user)
	if err != nil {
		return nil, storageError(s.log, "issue session", err)
	}
	s.log.Debug("user logged in", zap.Int64("user_id", user.ID), zap.String("session_id", sess.ID))
	return sess, nil
}

// Logout reports whether sess was an active session.
func (s *AuthService) Logout(sess *Session) bool {
	if sess == nil {
		return false
	}
	s.log.Debug("user logged out", zap.Int64("user_id", sess.UserID), zap.String("session_id", sess.ID))
	return true
}

// Resolve verifies a session token and reloads its user.
func (s *AuthService) Resolve(ctx context.Context, token string) (*Session, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, newError(ErrUnauthenticated, "session expired, please log in again")
		}
		return nil, newError(ErrUnauthenticated, "invalid session")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, newError(ErrUnauthenticated, "invalid session")
	}
	sub, _ := claims.GetSubject()
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, newError(ErrUnauthenticated, "invalid session")
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, storageError(s.log, "resolve session", err)
	}
	if user == nil {
		return nil, notFoundf("user not found")
	}

	exp, _ := claims.GetExpirationTime()
	jti, _ := claims["jti"].(string)
	sess := &Session{
		ID: jti, UserID: user.ID, Username: user.Username,
		FullName: user.FullName(), Token: token,
	}
	if exp != nil {
		sess.ExpiresAt = exp.Time
	}
	return sess, nil
}

// DeleteAccount removes the user together with products, cart and orders.
func (s *AuthService) DeleteAccount(ctx context.Context, userID int64) (string, error) {
	var owned []int64
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		products, err := tx.Products().List(ctx, repository.ProductFilter{OwnerID: userID, IncludeInactive: true})
		if err != nil {
			return err
		}
		for _, p := range products {
			owned = append(owned, p.ID)
		}

		deleted, err := tx.Users().Delete(ctx, userID)
		if err != nil {
			return err
		}
		if !deleted {
			return notFoundf("user not found")
		}
		return nil
	})
	if err != nil {
		return "", storageError(s.log, "delete account", err, zap.Int64("user_id", userID))
	}

	s.cache.Invalidate(ctx, owned...)
	s.log.Info("user deleted", zap.Int64("user_id", userID))
	return "account deleted", nil
}

func (s *AuthService) issue(user *model.User) (*Session, error) {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		FullName:  user.FullName(),
		ExpiresAt: now.Add(s.jwtExpiry),
	}
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(user.ID, 10),
		"username": user.Username,
		"jti":      sess.ID,
		"exp":      sess.ExpiresAt.Unix(),
		"iat":      now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	sess.Token = token
	return sess, nil
}

// validName accepts letters and spaces, with at least one letter.
func validName(name string) bool {
	letters := 0
	for _, r := range name {
		switch {
		case r == ' ':
		case unicode.IsLetter(r):
			letters++
		default:
			return false
		}
	}
	return letters > 0
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func publish(ctx context.Context, p events.Publisher, log *zap.Logger, event events.Event) {
	if p == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, event); err != nil {
		log.Warn("publish event", zap.String("type", event.Type), zap.Error(err))
	}
}
