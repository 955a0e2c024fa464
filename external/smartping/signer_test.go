package smartping

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"testing"
	"time"
)

type fixedSerials struct{ value string }

func (f fixedSerials) NewID() (string, error) { return f.value, nil }

func expectedToken(password, timestamp string) string {
	sum := md5.Sum([]byte(password))
	mac := hmac.New(sha1.New, []byte(hex.EncodeToString(sum[:])))
	mac.Write([]byte(timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSigner_TimestampsStrictlyIncreaseAndTokensMatch(t *testing.T) {
	t.Parallel()

	signer := NewSigner("SX042", "s3cret", fixedSerials{value: "ABCDEFGHIJ12345"})
	frozen := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.Local)
	signer.now = func() time.Time { return frozen }

	const n = 50
	prev := ""
	seenTokens := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		req, err := signer.Sign("ABCDEFGHIJ12345")
		if err != nil {
			t.Fatalf("sign #%d: %v", i, err)
		}
		if len(req.Timestamp) != 17 {
			t.Fatalf("unexpected timestamp format %q", req.Timestamp)
		}
		if prev != "" && req.Timestamp <= prev {
			t.Fatalf("timestamps not strictly increasing: prev=%s got=%s", prev, req.Timestamp)
		}
		if want := expectedToken("s3cret", req.Timestamp); req.Token != want {
			t.Fatalf("token mismatch for %s: got=%s want=%s", req.Timestamp, req.Token, want)
		}
		if _, dup := seenTokens[req.Token]; dup {
			t.Fatalf("token reused: %s", req.Token)
		}
		seenTokens[req.Token] = struct{}{}
		prev = req.Timestamp
	}

	if prev != "20250314092653638" {
		t.Fatalf("expected 49 ms of bumps after frozen clock, got %s", prev)
	}
}

func TestSigner_FormatsMillisecondTimestamp(t *testing.T) {
	t.Parallel()

	signer := NewSigner("SX042", "s3cret", nil)
	signer.now = func() time.Time { return time.Date(2024, 12, 1, 7, 5, 3, 7_000_000, time.Local) }

	req, err := signer.Sign("SERIAL")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if req.Timestamp != "20241201070503007" {
		t.Fatalf("unexpected timestamp: %s", req.Timestamp)
	}
}

func TestSigner_RefusesWithoutCredentials(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ appID, password string }{
		{"", "secret"},
		{"SX042", ""},
		{"  ", "  "},
	} {
		signer := NewSigner(tc.appID, tc.password, nil)
		if signer.Available() {
			t.Fatalf("expected unavailable signer for %+v", tc)
		}
		if _, err := signer.Sign("SERIAL"); !errors.Is(err, ErrCredentialsMissing) {
			t.Fatalf("expected ErrCredentialsMissing, got %v", err)
		}
		if _, err := signer.NewSerial(); !errors.Is(err, ErrCredentialsMissing) {
			t.Fatalf("expected ErrCredentialsMissing from NewSerial, got %v", err)
		}
	}
}

func TestSigner_NewSerialUsesAlphanumericGenerator(t *testing.T) {
	t.Parallel()

	serial, err := NewSigner("SX042", "s3cret", nil).NewSerial()
	if err != nil {
		t.Fatalf("new serial: %v", err)
	}
	if len(serial) != 15 {
		t.Fatalf("unexpected serial length: %q", serial)
	}
}
