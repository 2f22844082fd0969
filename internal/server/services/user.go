// Package services contains the server-side business logic. Services own the
// transaction boundaries: every mutation runs inside dbx.WithTx with the tx
// handle passed to the repositories explicitly, and cache invalidation only
// follows a successful commit.
//
// This file implements UserService, which handles accounts, sign-in and the
// rotation of server-stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hatamake/kokoto-httpd/internal/common"
	"github.com/hatamake/kokoto-httpd/internal/cryptox"
	"github.com/hatamake/kokoto-httpd/internal/dbx"
	"github.com/hatamake/kokoto-httpd/internal/server/auth"
	"github.com/hatamake/kokoto-httpd/internal/server/config"
	"github.com/hatamake/kokoto-httpd/internal/server/models"
	"github.com/hatamake/kokoto-httpd/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]{4,20}$`)

// reservedUserIDs collide with path segments of the user routes.
var reservedUserIDs = map[string]bool{common.MeUserID: true, "search": true}

// dummyHash is verified against when the user does not exist so that a
// failed sign-in costs the same either way.
var dummyHash = sync.OnceValue(func() string { return cryptox.HashPassword("kokoto") })

type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	pageSize                     int
	now                          func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		pageSize:                     pageSizeOf(cfg),
		now:                          time.Now,
	}
}

// Register creates a user with a hashed password.
func (s *UserService) Register(ctx context.Context, id, name, password string) (*models.User, error) {
	if !userIDPattern.MatchString(id) || reservedUserIDs[id] {
		return nil, common.Validation(common.MsgUserIDInvalid)
	}
	if strings.TrimSpace(name) == "" {
		return nil, common.Validation(common.MsgUserNameInvalid)
	}
	if password == "" {
		return nil, common.Validation(common.MsgPasswordInvalid)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           id,
		Name:         name,
		PasswordHash: cryptox.HashPassword(password),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repomanager.Users(s.db).Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Conflict(common.MsgUserAlreadyExist, err)
		}
		return nil, common.Internal(err)
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound(common.MsgUserNotExist, err)
		}
		return nil, common.Internal(err)
	}
	return user, nil
}

// Update changes the display name and/or password; nil leaves a field as is.
func (s *UserService) Update(ctx context.Context, id string, name, password *string) (*models.User, error) {
	if name != nil && strings.TrimSpace(*name) == "" {
		return nil, common.Validation(common.MsgUserNameInvalid)
	}
	if password != nil && *password == "" {
		return nil, common.Validation(common.MsgPasswordInvalid)
	}

	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if name != nil {
			u.Name = *name
		}
		if password != nil {
			u.PasswordHash = cryptox.HashPassword(*password)
		}
		u.UpdatedAt = s.now().UTC()

		if err := repo.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound(common.MsgUserNotExist, err)
		}
		return nil, common.Internal(err)
	}
	return user, nil
}

// Remove deletes the account and every session of it. Authored revisions and
// comments stay and lose their author.
func (s *UserService) Remove(ctx context.Context, id string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Sessions(tx).DeleteByUser(ctx, id); err != nil {
			return err
		}
		return s.repomanager.Users(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NotFound(common.MsgUserNotExist, err)
		}
		return common.Internal(err)
	}
	return nil
}

// Search pages through users whose id or name starts with query.
func (s *UserService) Search(ctx context.Context, query, cursor string) (*models.Page[*models.User], error) {
	users, err := s.repomanager.Users(s.db).Search(ctx, query, cursor, s.pageSize+1)
	if err != nil {
		return nil, common.Internal(err)
	}

	page := &models.Page[*models.User]{Items: users}
	if len(users) > s.pageSize {
		page.Items = users[:s.pageSize]
		page.NextCursor = page.Items[s.pageSize-1].ID
	}
	if page.Items == nil {
		page.Items = []*models.User{}
	}
	return page, nil
}

// Login verifies the password and, on success, returns a new TokenPair.
// Unknown ids and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, id, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = cryptox.VerifyPassword(dummyHash(), password)
			return nil, common.AuthRequired(common.MsgLoginFailed)
		}
		return nil, common.Internal(err)
	}

	ok, err := cryptox.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, common.Internal(err)
	}
	if !ok {
		return nil, common.AuthRequired(common.MsgLoginFailed)
	}

	pair, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		return nil, common.Internal(err)
	}
	return pair, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.Sessions(s.db)

	session, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.AuthRequired(common.MsgSessionExpired)
		}
		return nil, common.Internal(err)
	}
	if session.Expires.Before(s.now()) {
		return nil, common.AuthRequired(common.MsgSessionExpired)
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Sessions(tx).Delete(ctx, refreshToken); err != nil {
			return err
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, session.UserID, tx)
		return genErr
	})
	if err != nil {
		// a concurrent refresh consumed the token first
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.AuthRequired(common.MsgSessionExpired)
		}
		return nil, common.Internal(err)
	}
	return pair, nil
}

// SignOut ends every session of the user.
func (s *UserService) SignOut(ctx context.Context, userID string) error {
	if err := s.repomanager.Sessions(s.db).DeleteByUser(ctx, userID); err != nil {
		return common.Internal(err)
	}
	return nil
}

// Authenticate resolves an access token to a user id.
func (s *UserService) Authenticate(token string) (string, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return "", common.AuthRequired(common.MsgSessionExpired)
		}
		return "", common.AuthRequired(common.MsgSigninRequired)
	}
	return userID, nil
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.Sessions(tx).Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func pageSizeOf(cfg *config.Config) int {
	if cfg.PageSize <= 0 {
		return 20
	}
	return cfg.PageSize
}
