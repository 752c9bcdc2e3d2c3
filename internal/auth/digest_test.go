package auth

import "testing"

func TestServerHashWikiVGVectors(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Notch", "4ed1f46bbe04bc756bcb17c0c7ce3e4632f06a48"},
		{"jeb_", "-7c9d5b0044c130109a5d7b5fb5c317c02b4e28c1"},
		{"simon", "88e16a1019277b15d58faf0541e11910eb756f6"},
	}
	for _, tt := range tests {
		got := ServerHash(tt.name, nil, nil)
		if got != tt.want {
			t.Errorf("ServerHash(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestOfflineUUIDIsDeterministic(t *testing.T) {
	a := OfflineUUID("Notch")
	b := OfflineUUID("Notch")
	if a != b {
		t.Fatal("OfflineUUID must be deterministic for the same username")
	}
	if a == OfflineUUID("jeb_") {
		t.Fatal("different usernames must not collide")
	}
	if a.Version() != 3 {
		t.Fatalf("version nibble = %d, want 3", a.Version())
	}
}
