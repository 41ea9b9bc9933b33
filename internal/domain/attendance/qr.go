package attendance

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const qrPayloadPrefix = "CHANCEHR"

type QRToken struct {
	WorkplaceID string    `json:"workplaceId"`
	Direction   string    `json:"direction"`
	Token       string    `json:"token"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Payload is what the workplace displays as a QR code.
func (t QRToken) Payload() string {
	return strings.Join([]string{qrPayloadPrefix, t.WorkplaceID, t.Token}, "|")
}

// TokenStore keeps the single active token per workplace and direction. Put replaces atomically.
type TokenStore interface {
	Put(ctx context.Context, token QRToken) error
	Get(ctx context.Context, workplaceID, direction string) (QRToken, bool, error)
}

// ParseQRPayload extracts the token, and the workplace when the payload names one, from the
// accepted forms: "CHANCEHR|<workplace>|<token>", a URL with token=, a URL whose fragment carries
// its own query (".../#/check?token="), or the bare token.
func ParseQRPayload(payload string) (workplaceID, token string, err error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", "", ErrInvalidQRToken
	}

	if strings.HasPrefix(payload, qrPayloadPrefix+"|") {
		parts := strings.Split(payload, "|")
		if len(parts) != 3 || parts[2] == "" {
			return "", "", ErrInvalidQRToken
		}
		return parts[1], parts[2], nil
	}

	if strings.Contains(payload, "token=") {
		parsed, err := url.Parse(payload)
		if err != nil {
			return "", "", ErrInvalidQRToken
		}
		query := parsed.Query()
		if query.Get("token") == "" && parsed.Fragment != "" {
			if idx := strings.Index(parsed.Fragment, "?"); idx >= 0 {
				query, err = url.ParseQuery(parsed.Fragment[idx+1:])
				if err != nil {
					return "", "", ErrInvalidQRToken
				}
			}
		}
		if query.Get("token") == "" {
			return "", "", ErrInvalidQRToken
		}
		return query.Get("workplace"), query.Get("token"), nil
	}

	if strings.ContainsAny(payload, "|/?# ") {
		return "", "", ErrInvalidQRToken
	}
	return "", payload, nil
}

type QRService struct {
	store TokenStore
	ttl   time.Duration
	now   func() time.Time
}

func NewQRService(store TokenStore, ttl time.Duration) *QRService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QRService{store: store, ttl: ttl, now: time.Now}
}

// Issue regenerates the token. The previous token stops validating as soon as Put returns.
func (s *QRService) Issue(ctx context.Context, workplaceID, direction string) (QRToken, error) {
	if err := validDirection(direction); err != nil {
		return QRToken{}, err
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return QRToken{}, fmt.Errorf("generate qr token: %w", err)
	}
	now := s.now().UTC()
	token := QRToken{
		WorkplaceID: workplaceID,
		Direction:   direction,
		Token:       base64.RawURLEncoding.EncodeToString(raw),
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := s.store.Put(ctx, token); err != nil {
		return QRToken{}, err
	}
	return token, nil
}

func (s *QRService) Current(ctx context.Context, workplaceID, direction string) (QRToken, bool, error) {
	if err := validDirection(direction); err != nil {
		return QRToken{}, false, err
	}
	token, ok, err := s.store.Get(ctx, workplaceID, direction)
	if err != nil || !ok {
		return QRToken{}, false, err
	}
	if !s.now().Before(token.ExpiresAt) {
		return QRToken{}, false, nil
	}
	return token, true, nil
}

// Validate re-reads the active token on every call.
func (s *QRService) Validate(ctx context.Context, workplaceID, direction, token string, now time.Time) error {
	active, ok, err := s.store.Get(ctx, workplaceID, direction)
	if err != nil {
		return err
	}
	if !ok || subtle.ConstantTimeCompare([]byte(active.Token), []byte(token)) != 1 {
		return ErrInvalidQRToken
	}
	if !now.Before(active.ExpiresAt) {
		return ErrQRTokenExpired
	}
	return nil
}

func validDirection(direction string) error {
	if direction != DirectionIn && direction != DirectionOut {
		return ErrInvalidDirection
	}
	return nil
}
