package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-signing"

var allKinds = []Kind{KindAccess, KindRefresh, KindPasswordReset, KindEmailVerification}

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret)
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	return c
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec(""); err != ErrMissingSecret {
		t.Fatalf("NewCodec(\"\") error = %v, want %v", err, ErrMissingSecret)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	for _, kind := range allKinds {
		token, err := c.Encode(map[string]any{
			ClaimSubject: "usr-001",
			ClaimEmail:   "a@x.com",
			ClaimRoles:   []string{"USER", "DONOR"},
		}, kind, time.Minute)
		if err != nil {
			t.Fatalf("Encode(%s) error = %v", kind, err)
		}

		claims, ok := c.Decode(token, kind)
		if !ok {
			t.Fatalf("Decode(%s) failed for a fresh token", kind)
		}
		if claims.Subject() != "usr-001" {
			t.Errorf("Subject = %q, want %q", claims.Subject(), "usr-001")
		}
		if claims.String(ClaimEmail) != "a@x.com" {
			t.Errorf("email = %q, want %q", claims.String(ClaimEmail), "a@x.com")
		}
		if claims.Kind() != kind {
			t.Errorf("Kind = %q, want %q", claims.Kind(), kind)
		}
		roles := claims.Roles()
		if len(roles) != 2 || roles[0] != "USER" || roles[1] != "DONOR" {
			t.Errorf("Roles = %v, want [USER DONOR]", roles)
		}
		if _, ok := claims[ClaimExpiry]; !ok {
			t.Error("exp claim missing")
		}
	}
}

func TestDecodeRejectsKindConfusion(t *testing.T) {
	c := newTestCodec(t)

	for _, issued := range allKinds {
		token, err := c.Encode(map[string]any{ClaimSubject: "usr-001"}, issued, time.Hour)
		if err != nil {
			t.Fatalf("Encode(%s) error = %v", issued, err)
		}
		for _, expected := range allKinds {
			if expected == issued {
				continue
			}
			if _, ok := c.Decode(token, expected); ok {
				t.Errorf("%s token accepted as %s", issued, expected)
			}
		}
	}
}

func TestEncodeOverridesCallerKind(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Encode(map[string]any{ClaimSubject: "usr-001", ClaimKind: "access"}, KindRefresh, time.Hour)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if _, ok := c.Decode(token, KindAccess); ok {
		t.Error("caller-supplied kind should not survive encoding")
	}
	if _, ok := c.Decode(token, KindRefresh); !ok {
		t.Error("token should decode as refresh")
	}
}

func TestDecodeRejectsExpired(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Encode(map[string]any{ClaimSubject: "usr-001"}, KindAccess, -time.Second)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if _, ok := c.Decode(token, KindAccess); ok {
		t.Error("expired token was accepted")
	}
}

func TestDecodeHonoursClock(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Encode(map[string]any{ClaimSubject: "usr-001"}, KindPasswordReset, time.Hour)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, ok := c.Decode(token, KindPasswordReset); ok {
		t.Error("token accepted after its ttl elapsed")
	}
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	other, err := NewCodec("another-secret")
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	token, err := other.Encode(map[string]any{ClaimSubject: "usr-001"}, KindAccess, time.Hour)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if _, ok := newTestCodec(t).Decode(token, KindAccess); ok {
		t.Error("token signed with another secret was accepted")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	c := newTestCodec(t)
	for _, token := range []string{"", "not-a-valid-jwt", "a.b.c"} {
		if _, ok := c.Decode(token, KindAccess); ok {
			t.Errorf("Decode(%q) succeeded", token)
		}
	}
}

func TestDecodeRejectsOtherAlgorithms(t *testing.T) {
	c := newTestCodec(t)

	mc := jwt.MapClaims{
		ClaimSubject: "usr-001",
		ClaimKind:    string(KindAccess),
		ClaimExpiry:  time.Now().Add(time.Hour).Unix(),
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, mc).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	if _, ok := c.Decode(hs512, KindAccess); ok {
		t.Error("HS512 token was accepted")
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, mc).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString(none) error = %v", err)
	}
	if _, ok := c.Decode(none, KindAccess); ok {
		t.Error("unsigned token was accepted")
	}
}

func TestDecodeRequiresExpiry(t *testing.T) {
	c := newTestCodec(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		ClaimSubject: "usr-001",
		ClaimKind:    string(KindAccess),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	if _, ok := c.Decode(token, KindAccess); ok {
		t.Error("token without exp was accepted")
	}
}

func TestEncodeRejectsUnknownKind(t *testing.T) {
	if _, err := newTestCodec(t).Encode(nil, Kind("session"), time.Minute); err == nil {
		t.Error("Encode() with an unknown kind should fail")
	}
}
