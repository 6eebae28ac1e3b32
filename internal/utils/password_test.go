package utils

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_StoresBcrypt(t *testing.T) {
	hash, err := HashPassword("reporter01-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("hash %q is not a bcrypt hash", hash)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, %v; expected %d", cost, err, bcrypt.DefaultCost)
	}

	again, _ := HashPassword("reporter01-pass")
	if again == hash {
		t.Error("hashing twice should salt differently")
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73))
	if !errors.Is(err, bcrypt.ErrPasswordTooLong) {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("Trưởng-nhóm 2025")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		expected bool
	}{
		{"matching", "Trưởng-nhóm 2025", hash, true},
		{"without diacritics", "Truong-nhom 2025", hash, false},
		{"trailing space", "Trưởng-nhóm 2025 ", hash, false},
		{"empty password", "", hash, false},
		{"ldap user without local hash", "Trưởng-nhóm 2025", "", false},
		{"corrupt hash", "Trưởng-nhóm 2025", "not-a-bcrypt-hash", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.expected {
				t.Errorf("CheckPassword(%q) = %v, expected %v", tt.password, got, tt.expected)
			}
		})
	}
}
