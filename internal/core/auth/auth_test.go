package auth

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type storedKey struct {
	id        string
	clientID  string
	hash      []byte
	revokedAt sql.NullTime
	lastUsed  sql.NullTime
}

// fakeQueries serves the api_keys named queries from memory.
type fakeQueries struct {
	keys    []*storedKey
	fail    error
	updates int
}

type fakeResult struct{ n int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.n, nil }

func (f *fakeQueries) Get(_ context.Context, name string, dest interface{}, args ...interface{}) error {
	if f.fail != nil {
		return f.fail
	}
	if name != "get-api-key-by-hash" {
		return errors.New("unexpected query " + name)
	}
	hash := args[0].([]byte)
	for _, k := range f.keys {
		if bytes.Equal(k.hash, hash) {
			v := reflect.ValueOf(dest).Elem()
			v.FieldByName("APIKeyID").SetString(k.id)
			v.FieldByName("ClientID").SetString(k.clientID)
			v.FieldByName("RevokedAt").Set(reflect.ValueOf(k.revokedAt))
			v.FieldByName("LastUsedAt").Set(reflect.ValueOf(k.lastUsed))
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeQueries) Exec(_ context.Context, name string, args ...interface{}) (sql.Result, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	switch name {
	case "update-last-used":
		f.updates++
		return fakeResult{1}, nil
	case "insert-api-key":
		f.keys = append(f.keys, &storedKey{id: args[0].(string), clientID: args[1].(string), hash: args[4].([]byte)})
		return fakeResult{1}, nil
	case "revoke-api-key":
		for _, k := range f.keys {
			if k.id == args[1].(string) && !k.revokedAt.Valid {
				k.revokedAt = sql.NullTime{Time: args[0].(time.Time), Valid: true}
				return fakeResult{1}, nil
			}
		}
		return fakeResult{0}, nil
	}
	return nil, errors.New("unexpected query " + name)
}

const testSecretID = "0123456789abcdef0123456789abcdef"

var testSecret = []byte("testsecret1234567890abcdefghijklmnop")

func newTestAuth(t *testing.T) (*Authenticator, *fakeQueries, *IssuedKey) {
	t.Helper()
	q := &fakeQueries{}
	issued, err := IssueKey(context.Background(), q, testSecretID, testSecret, "ingest-etl", "nightly")
	if err != nil {
		t.Fatalf("IssueKey failed: %v", err)
	}
	return NewAuthenticator(map[string][]byte{testSecretID: testSecret}, q), q, issued
}

func TestAuthenticate(t *testing.T) {
	a, q, issued := newTestAuth(t)
	ctx := context.Background()

	clientID, err := a.Authenticate(ctx, issued.Key)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if clientID != "ingest-etl" {
		t.Errorf("expected client ingest-etl, got %s", clientID)
	}
	if q.updates != 1 {
		t.Errorf("expected last_used update, got %d", q.updates)
	}

	// Second call within a minute is throttled
	q.keys[0].lastUsed = sql.NullTime{Time: time.Now(), Valid: true}
	if _, err := a.Authenticate(ctx, issued.Key); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if q.updates != 1 {
		t.Errorf("expected throttled update, got %d updates", q.updates)
	}

	otherSecret := strings.Repeat("f", 32)
	tests := []struct {
		name string
		key  string
		want error
	}{
		{"malformed", "not-a-key", ErrInvalidKeyFormat},
		{"wrong prefix", "tk-v1-" + testSecretID + "-" + strings.Repeat("a", 64), ErrInvalidKeyFormat},
		{"unknown secret", FormatAPIKey(otherSecret, strings.Repeat("a", 64)), ErrUnknownKey},
		{"unknown key", FormatAPIKey(testSecretID, strings.Repeat("a", 64)), ErrInvalidKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Authenticate(ctx, tt.key); !errors.Is(err, tt.want) {
				t.Errorf("Authenticate() error = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("revoked", func(t *testing.T) {
		if err := RevokeKey(ctx, q, issued.APIKeyID); err != nil {
			t.Fatalf("RevokeKey failed: %v", err)
		}
		if _, err := a.Authenticate(ctx, issued.Key); !errors.Is(err, ErrKeyRevoked) {
			t.Errorf("Authenticate() error = %v, want ErrKeyRevoked", err)
		}
	})

	t.Run("database down", func(t *testing.T) {
		q.fail = errors.New("connection refused")
		defer func() { q.fail = nil }()
		if _, err := a.Authenticate(ctx, issued.Key); !errors.Is(err, ErrUnavailable) {
			t.Errorf("Authenticate() error = %v, want ErrUnavailable", err)
		}
	})
}

func TestUnaryInterceptor(t *testing.T) {
	a, q, issued := newTestAuth(t)
	interceptor := a.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/schemamend.repair.v1.RepairAPI/ListPlans"}

	var seen string
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = ClientIDFromContext(ctx)
		return "ok", nil
	}

	call := func(md metadata.MD) error {
		ctx := context.Background()
		if md != nil {
			ctx = metadata.NewIncomingContext(ctx, md)
		}
		_, err := interceptor(ctx, nil, info, handler)
		return err
	}

	if err := call(metadata.Pairs(MetadataKey, issued.Key)); err != nil {
		t.Fatalf("interceptor rejected valid key: %v", err)
	}
	if seen != "ingest-etl" {
		t.Errorf("handler saw client %q", seen)
	}

	tests := []struct {
		name string
		md   metadata.MD
		prep func()
		want codes.Code
	}{
		{"no metadata", nil, nil, codes.Unauthenticated},
		{"no key", metadata.Pairs("other", "x"), nil, codes.Unauthenticated},
		{"bad key", metadata.Pairs(MetadataKey, "garbage"), nil, codes.Unauthenticated},
		{"database down", metadata.Pairs(MetadataKey, issued.Key), func() { q.fail = errors.New("down") }, codes.Unavailable},
		{"revoked", metadata.Pairs(MetadataKey, issued.Key), func() {
			q.fail = nil
			_ = RevokeKey(context.Background(), q, issued.APIKeyID)
		}, codes.PermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prep != nil {
				tt.prep()
			}
			err := call(tt.md)
			if got := status.Code(err); got != tt.want {
				t.Errorf("code = %v, want %v (err %v)", got, tt.want, err)
			}
		})
	}

	t.Run("health check bypasses auth", func(t *testing.T) {
		_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: healthCheckMethod}, handler)
		if err != nil {
			t.Errorf("health check rejected: %v", err)
		}
	})
}

func TestClientIDFromContext(t *testing.T) {
	if got := ClientIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty client ID, got %q", got)
	}
	if got := ClientIDFromContext(WithClientID(context.Background(), "c1")); got != "c1" {
		t.Errorf("expected c1, got %q", got)
	}
}

func TestPickSecret(t *testing.T) {
	if _, _, ok := PickSecret(nil); ok {
		t.Error("expected no secret from empty map")
	}
	id, secret, ok := PickSecret(map[string][]byte{
		"0190000000000000000000000000000a": []byte("old"),
		"0191000000000000000000000000000a": []byte("new"),
	})
	if !ok || id != "0191000000000000000000000000000a" || string(secret) != "new" {
		t.Errorf("PickSecret() = %s, %s, %v", id, secret, ok)
	}
}
