package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	apperrors "presusimple/internal/errors"
	"presusimple/internal/logger"
)

const (
	mobileCodeLength  = 32
	defaultMobileTTL  = 60 * time.Second
	mobileSweepPeriod = 30 * time.Second
)

// MobileAuthService keeps one-time mobile exchange codes in memory.
type MobileAuthService struct {
	mu    sync.Mutex
	codes map[string]MobileCode
	ttl   time.Duration
	now   func() time.Time
}

// NewMobileAuthService creates an in-memory code store. A non-positive ttl
// falls back to 60 seconds.
func NewMobileAuthService(ttl time.Duration) *MobileAuthService {
	if ttl <= 0 {
		ttl = defaultMobileTTL
	}
	return &MobileAuthService{
		codes: make(map[string]MobileCode),
		ttl:   ttl,
		now:   time.Now,
	}
}

// IssueCode creates a code bound to the user.
func (s *MobileAuthService) IssueCode(userID, email string) (*MobileCode, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	code, err := generateRandomCode(mobileCodeLength)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	issued := MobileCode{
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl),
		UserID:    userID,
		Email:     email,
	}

	s.mu.Lock()
	s.codes[code] = issued
	s.mu.Unlock()

	return &issued, nil
}

// ExchangeCode consumes a code. A code can be exchanged once, expired or not.
func (s *MobileAuthService) ExchangeCode(code string) (*MobileCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.ErrInvalidExchangeCode
	}

	s.mu.Lock()
	issued, ok := s.codes[code]
	delete(s.codes, code)
	s.mu.Unlock()

	if !ok {
		return nil, apperrors.ErrInvalidExchangeCode
	}
	if !s.now().Before(issued.ExpiresAt) {
		return nil, apperrors.ErrExchangeCodeExpired
	}
	return &issued, nil
}

// Run sweeps expired codes until ctx is cancelled.
func (s *MobileAuthService) Run(ctx context.Context) {
	ticker := time.NewTicker(mobileSweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				logger.Get().Debugw("swept expired mobile codes", "count", n)
			}
		}
	}
}

func (s *MobileAuthService) sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for code, issued := range s.codes {
		if !now.Before(issued.ExpiresAt) {
			delete(s.codes, code)
			removed++
		}
	}
	return removed
}

// generateRandomCode returns length hex characters from crypto/rand.
func generateRandomCode(length int) (string, error) {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}
