package zeen

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultActionTokenExpiration is used when the config does not set one
const DefaultActionTokenExpiration = 3600 * time.Second

// TokenService signs and verifies the tokens handed out to users
type TokenService interface {
	GenerateActionToken(user *User, action TokenAction, opts ...ActionTokenOptions) (string, error)
	ParseActionToken(token string, action TokenAction) (*ActionClaims, error)
	GenerateSessionToken(user *User, rememberMe bool) (string, time.Time, error)
	ParseSessionToken(token string) (*SessionClaims, error)
}

// ActionTokenOptions controls how a single action token is minted.
type ActionTokenOptions struct {
	// TTL overrides the default expiration
	TTL time.Duration
	// NewEmail is required for change_email tokens
	NewEmail string
	// IssuedAt overrides the issuance time. Zero uses time.Now().
	IssuedAt time.Time
}

type tokenService struct {
	signingKey    []byte
	issuer        string
	actionTTL     time.Duration
	sessionTTL    time.Duration
	rememberMeTTL time.Duration
	logger        Logger
}

// NewTokenService creates a TokenService from cfg
func NewTokenService(cfg Config, logger Logger) TokenService {
	actionTTL := time.Duration(cfg.GetActionTokenExpiration()) * time.Second
	if actionTTL <= 0 {
		actionTTL = DefaultActionTokenExpiration
	}
	sessionTTL := time.Duration(cfg.GetTokenExpiration()) * time.Hour
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	rememberMeTTL := time.Duration(cfg.GetExtendedTokenDuration()) * time.Hour
	if rememberMeTTL < sessionTTL {
		rememberMeTTL = sessionTTL
	}

	return &tokenService{
		signingKey:    []byte(cfg.GetSigningKey()),
		issuer:        cfg.GetIssuer(),
		actionTTL:     actionTTL,
		sessionTTL:    sessionTTL,
		rememberMeTTL: rememberMeTTL,
		logger:        normalizeLogger(logger),
	}
}

// GenerateActionToken creates a signed token bound to user and action
func (ts *tokenService) GenerateActionToken(user *User, action TokenAction, opts ...ActionTokenOptions) (string, error) {
	if user == nil || user.ID == uuid.Nil {
		return "", errors.New("user is required", errors.CategoryBadInput)
	}
	if !action.Valid() {
		return "", errors.New("unknown token action", errors.CategoryBadInput).
			WithMetadata(map[string]any{"action": action})
	}

	var opt ActionTokenOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	if action == ActionChangeEmail && opt.NewEmail == "" {
		return "", errors.New("change email token requires new email", errors.CategoryBadInput)
	}

	ttl := opt.TTL
	if ttl == 0 {
		ttl = ts.actionTTL
	}
	if ttl < 0 {
		return "", errors.New("token TTL must be non-negative", errors.CategoryBadInput)
	}

	issuedAt := opt.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}

	claims := &ActionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		Action:   action,
		NewEmail: NormalizeEmail(opt.NewEmail),
	}

	return ts.sign(claims)
}

// ParseActionToken verifies signature, expiration and action
func (ts *tokenService) ParseActionToken(tokenString string, action TokenAction) (*ActionClaims, error) {
	claims := &ActionClaims{}
	if err := ts.parse(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.Action != action {
		return nil, ErrTokenActionMismatch
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// GenerateSessionToken creates the token used to authenticate requests
func (ts *tokenService) GenerateSessionToken(user *User, rememberMe bool) (string, time.Time, error) {
	if user == nil || user.ID == uuid.Nil {
		return "", time.Time{}, errors.New("user is required", errors.CategoryBadInput)
	}

	ttl := ts.sessionTTL
	if rememberMe {
		ttl = ts.rememberMeTTL
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username:   user.Username,
		RememberMe: rememberMe,
	}

	if user.Role != nil {
		claims.Role = user.Role.Name
		claims.Permissions = user.Role.Permissions
	}

	token, err := ts.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseSessionToken verifies a session token
func (ts *tokenService) ParseSessionToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := ts.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (ts *tokenService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

func (ts *tokenService) parse(tokenString string, claims jwt.Claims) error {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	parserOptions = append(parserOptions, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token service encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if !token.Valid {
		ts.logger.Error("token service could not validate claims")
		return ErrUnableToDecodeSession
	}

	return nil
}
