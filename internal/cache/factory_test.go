package cache

import (
	"strings"
	"testing"
	"time"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New("etcd", ProviderConfig{Size: 10, TTL: time.Hour})
	if err == nil {
		t.Fatal("Expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "etcd") {
		t.Fatalf("Expected error to name the provider, got %v", err)
	}
	if !strings.Contains(err.Error(), "memory") {
		t.Fatalf("Expected error to list registered providers, got %v", err)
	}
}

func TestRegisteredProviders(t *testing.T) {
	names := RegisteredProviders()

	found := map[string]bool{}
	for _, name := range names {
		found[name] = true
	}
	if !found["memory"] || !found["redis"] {
		t.Fatalf("Expected memory and redis providers, got %v", names)
	}

	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("Expected sorted provider names, got %v", names)
		}
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Expected panic on duplicate registration")
		}
	}()
	Register("memory", newMemoryCache)
}

func TestRegister_NilProviderPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Expected panic on nil provider")
		}
	}()
	Register("broken", nil)
}

func TestNew_WithoutGroupNotInstrumented(t *testing.T) {
	c, err := New("memory", ProviderConfig{Size: 10, TTL: time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, ok := c.(*instrumentedCache); ok {
		t.Fatal("Expected bare cache when Group is empty")
	}
}

func TestNew_WithGroupInstrumented(t *testing.T) {
	c, err := New("memory", ProviderConfig{Size: 10, TTL: time.Hour, Group: "factory-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, ok := c.(*instrumentedCache); !ok {
		t.Fatal("Expected instrumented cache when Group is set")
	}
}
