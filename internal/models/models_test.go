package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAccountNeverSerializesSecrets(t *testing.T) {
	account := Account{
		ID:           "acc-1",
		UserName:     "alice",
		PasswordHash: "$2a$10$verifier",
		RefreshToken: "refresh.jwt.value",
	}

	body, err := json.Marshal(account)
	if err != nil {
		t.Fatalf("marshal account: %v", err)
	}
	for _, secret := range []string{account.PasswordHash, account.RefreshToken} {
		if strings.Contains(string(body), secret) {
			t.Fatalf("serialized account leaked %q: %s", secret, body)
		}
	}
	if !strings.Contains(string(body), "alice") {
		t.Fatalf("expected public fields to remain, got %s", body)
	}
}
