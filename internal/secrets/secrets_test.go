package secrets

import (
	"context"
	"testing"
)

func TestInMemorySecretStore(t *testing.T) {
	store := NewInMemorySecretStore()
	store.SetSecret("openrouter-api-key", "sk-test")

	value, err := store.GetSecret(context.Background(), "openrouter-api-key")
	if err != nil {
		t.Fatalf("GetSecret: %v", err)
	}
	if value != "sk-test" {
		t.Errorf("value = %q, want sk-test", value)
	}
}

func TestInMemorySecretStore_NotFound(t *testing.T) {
	store := NewInMemorySecretStore()

	if _, err := store.GetSecret(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing secret")
	}
}
