package smartping

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/smartping-sync/internal/platform/id"
)

const (
	serialLength    = 15
	timestampLayout = "20060102150405.000"
)

var ErrCredentialsMissing = crerr.New("smartping credentials are not configured")

// SignedRequest carries the authentication parameters appended to one call.
type SignedRequest struct {
	Serial    string
	Timestamp string
	Token     string
}

// Signer derives per-call tokens from the application id and password.
// Timestamps it hands out are strictly increasing, so a token is never reused.
type Signer struct {
	appID   string
	key     []byte
	serials id.Generator
	now     func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewSigner(appID, password string, serials id.Generator) *Signer {
	appID = strings.TrimSpace(appID)
	password = strings.TrimSpace(password)
	if serials == nil {
		serials = id.NewAlphanumericGenerator(serialLength)
	}

	s := &Signer{
		appID:   appID,
		serials: serials,
		now:     time.Now,
	}
	if appID != "" && password != "" {
		sum := md5.Sum([]byte(password))
		s.key = []byte(hex.EncodeToString(sum[:]))
	}
	return s
}

func (s *Signer) Available() bool {
	return s != nil && s.appID != "" && len(s.key) > 0
}

func (s *Signer) AppID() string {
	if s == nil {
		return ""
	}
	return s.appID
}

func (s *Signer) NewSerial() (string, error) {
	if !s.Available() {
		return "", ErrCredentialsMissing
	}
	serial, err := s.serials.NewID()
	if err != nil {
		return "", fmt.Errorf("generate serial: %w", err)
	}
	return serial, nil
}

func (s *Signer) Sign(serial string) (SignedRequest, error) {
	if !s.Available() {
		return SignedRequest{}, ErrCredentialsMissing
	}
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return SignedRequest{}, crerr.New("serial is required")
	}

	tm := s.nextTimestamp()
	return SignedRequest{
		Serial:    serial,
		Timestamp: tm,
		Token:     s.token(tm),
	}, nil
}

func (s *Signer) token(timestamp string) string {
	mac := hmac.New(sha1.New, s.key)
	_, _ = mac.Write([]byte(timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) nextTimestamp() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.now().Truncate(time.Millisecond)
	if !current.After(s.last) {
		current = s.last.Add(time.Millisecond)
	}
	s.last = current
	return formatTimestamp(current)
}

func formatTimestamp(t time.Time) string {
	return strings.Replace(t.Format(timestampLayout), ".", "", 1)
}
