package encryption

import (
	"strings"
	"testing"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestEncryptDecrypt(t *testing.T) {
	enc, err := NewWithKey(testKey())
	if err != nil {
		t.Fatalf("NewWithKey failed: %v", err)
	}

	testCases := []struct {
		name      string
		plaintext string
	}{
		{"simple", "hello world"},
		{"api key", "sk-or-v1-abcdefghijklmnopqrstuvwxyz"},
		{"empty", ""},
		{"special chars", "!@#$%^&*()_+-=[]{}|;':\",./<>?"},
		{"unicode", "Hello 世界 🌍"},
		{"long", strings.Repeat("x", 10000)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encrypted, err := enc.Encrypt(tc.plaintext)
			if err != nil {
				t.Fatalf("Encrypt failed: %v", err)
			}

			if tc.plaintext != "" && encrypted == tc.plaintext {
				t.Error("encrypted text should differ from plaintext")
			}

			decrypted, err := enc.Decrypt(encrypted)
			if err != nil {
				t.Fatalf("Decrypt failed: %v", err)
			}
			if decrypted != tc.plaintext {
				t.Errorf("expected %q, got %q", tc.plaintext, decrypted)
			}
		})
	}
}

func TestEncryptNonDeterministic(t *testing.T) {
	enc, err := NewWithKey(testKey())
	if err != nil {
		t.Fatalf("NewWithKey failed: %v", err)
	}

	a, err := enc.Encrypt("same input")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	b, err := enc.Encrypt("same input")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// GCM nonce must make identical plaintexts encrypt differently
	if a == b {
		t.Error("two encryptions of the same plaintext should differ")
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	enc, _ := NewWithKey(testKey())
	encrypted, err := enc.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	otherKey := testKey()
	otherKey[0] ^= 0xFF
	other, _ := NewWithKey(otherKey)

	if _, err := other.Decrypt(encrypted); err == nil {
		t.Error("decrypting with the wrong key should fail")
	}
}

func TestNewWithKeyRejectsBadLength(t *testing.T) {
	if _, err := NewWithKey(make([]byte, 16)); err == nil {
		t.Error("expected error for 16-byte key")
	}
}

func TestDecryptGarbage(t *testing.T) {
	enc, _ := NewWithKey(testKey())
	if _, err := enc.Decrypt("not-base64!!!"); err == nil {
		t.Error("expected error for invalid ciphertext")
	}
}
