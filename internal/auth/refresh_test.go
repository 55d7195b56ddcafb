package auth

import "testing"

func TestGenerateRefreshToken(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if raw == "" || hash == "" {
		t.Fatal("expected a raw token and its hash")
	}
	if raw == hash {
		t.Fatal("the stored hash must differ from the raw token")
	}
	if HashRefreshToken(raw) != hash {
		t.Fatal("hashing the raw token must reproduce the stored hash")
	}

	_, hash2, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if hash == hash2 {
		t.Fatal("two generated tokens must not collide")
	}
}

func TestRedisKeys(t *testing.T) {
	if RefreshRedisKey("abc") != "refresh:abc" {
		t.Fatalf("unexpected refresh key %q", RefreshRedisKey("abc"))
	}
	if ResetRedisKey("abc") != "pwreset:abc" {
		t.Fatalf("unexpected reset key %q", ResetRedisKey("abc"))
	}
}
