package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carqr-app/carqr-backend/internal/cache"
	"github.com/carqr-app/carqr-backend/internal/models"
	"github.com/carqr-app/carqr-backend/internal/storage"
	"github.com/carqr-app/carqr-backend/internal/utils"
)

// Auth flow errors, mapped to envelope codes by the handlers
var (
	ErrInvalidPhone   = errors.New("invalid phone number format")
	ErrInvalidSession = errors.New("invalid session")
	ErrInvalidOTP     = errors.New("invalid or expired OTP")
	ErrInvalidEmail   = errors.New("invalid email format")
)

// OTPTTL is how long a code and its session stay valid
const OTPTTL = 300 * time.Second

// TokenPair is an access/refresh token set issued on any login path
type TokenPair struct {
	Token        string
	RefreshToken string
}

// AuthService owns the OTP flow, email login and token refresh
type AuthService struct {
	store  storage.Store
	cache  cache.Cache
	tokens *TokenService
	sms    SMSSender
}

// NewAuthService wires the auth flow's collaborators
func NewAuthService(store storage.Store, c cache.Cache, tokens *TokenService, sms SMSSender) *AuthService {
	return &AuthService{store: store, cache: c, tokens: tokens, sms: sms}
}

// RequestOTP generates a code and session for the phone and hands the code
// to the SMS sender. The code itself never leaves the server response path.
// A repeat request for the same phone overwrites the prior code.
func (a *AuthService) RequestOTP(ctx context.Context, phone string) (sessionID string, expiresIn int, err error) {
	if !utils.ValidatePhone(phone) {
		return "", 0, ErrInvalidPhone
	}

	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate OTP: %w", err)
	}
	sessionID = utils.GenerateSessionID()

	if err := a.cache.Set(ctx, cache.OTPKey(phone), code, OTPTTL); err != nil {
		return "", 0, err
	}
	if err := a.cache.Set(ctx, cache.SessionKey(sessionID), phone, OTPTTL); err != nil {
		return "", 0, err
	}

	if err := a.sms.SendOTP(phone, code); err != nil {
		// Delivery failure is not fatal to the flow; the code stays valid
		// and the client can retry via resend.
		return sessionID, int(OTPTTL.Seconds()), nil
	}

	return sessionID, int(OTPTTL.Seconds()), nil
}

// VerifyOTP checks the session/code pair, finds or creates the user, burns
// both cache entries and issues a token pair. A wrong code leaves the
// session intact; only a fully matching verification clears state, so a
// replay after success fails on the missing session.
func (a *AuthService) VerifyOTP(ctx context.Context, phone, otp, sessionID, email string) (*models.User, *TokenPair, error) {
	sessionPhone, err := a.cache.Get(ctx, cache.SessionKey(sessionID))
	if err != nil {
		// A cache outage is an internal failure, not a bad credential
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil, ErrInvalidSession
		}
		return nil, nil, err
	}
	if sessionPhone != phone {
		return nil, nil, ErrInvalidSession
	}

	storedOTP, err := a.cache.Get(ctx, cache.OTPKey(phone))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil, ErrInvalidOTP
		}
		return nil, nil, err
	}
	if storedOTP != otp {
		return nil, nil, ErrInvalidOTP
	}

	// Synthesize a placeholder address when none (or an invalid one) is given
	userEmail := fmt.Sprintf("user_%s@carqr.app", phone)
	emailValid := email != "" && utils.ValidateEmail(email)
	if emailValid {
		userEmail = email
	}

	user, err := a.store.GetUserByPhone(phone)
	switch {
	case err == nil:
		if emailValid {
			if err := a.store.UpdateUserEmail(user.ID, userEmail); err != nil {
				return nil, nil, err
			}
			user.Email = userEmail
		}
	case errors.Is(err, storage.ErrUserNotFound):
		user, err = a.store.CreateUser(&models.User{
			Email: userEmail,
			Phone: phone,
		})
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, err
	}

	// Single use: both entries go away together
	if err := a.cache.Del(ctx, cache.OTPKey(phone), cache.SessionKey(sessionID)); err != nil {
		return nil, nil, err
	}

	pair, err := a.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// EmailLogin issues a fresh token pair for an existing user. This is a
// secondary identity path, not a credential check; there is no password.
func (a *AuthService) EmailLogin(email string) (*models.User, *TokenPair, error) {
	if !utils.ValidateEmail(email) {
		return nil, nil, ErrInvalidEmail
	}

	user, err := a.store.GetUserByEmail(email)
	if err != nil {
		return nil, nil, err
	}

	pair, err := a.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates the token pair. The old refresh token stays structurally
// valid until its own expiry; there is no blacklist.
func (a *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := a.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := a.store.GetUser(claims.UserID)
	if err != nil {
		return nil, err
	}

	return a.issueTokens(user)
}

func (a *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	token, err := a.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := a.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Token: token, RefreshToken: refresh}, nil
}
