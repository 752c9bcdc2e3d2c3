package proto

import (
	"bytes"
	"io"
	"testing"
)

func TestIDOrXRoundTripRegistryID(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteIDOrX(&buf, 7, "", false, WriteString0); err != nil {
		t.Fatalf("write: %v", err)
	}
	id, _, inline, err := ReadIDOrX(&buf, ReadString0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if inline {
		t.Fatal("expected a registry-id tag, got inline")
	}
	if id != 7 {
		t.Fatalf("got registry id %d, want 7", id)
	}
}

func TestIDOrXRoundTripInlineValue(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteIDOrX(&buf, 0, "custom", true, WriteString0); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, val, inline, err := ReadIDOrX(&buf, ReadString0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !inline {
		t.Fatal("expected an inline tag")
	}
	if val != "custom" {
		t.Fatalf("got %q, want %q", val, "custom")
	}
}

func TestPrefixedArrayRoundTripEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePrefixedArray(&buf, []int32(nil), WriteI32); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadPrefixedArray(&buf, ReadI32)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func WriteString0(w io.Writer, s string) error {
	_, err := WriteString(w, s)
	return err
}

func ReadString0(r io.Reader) (string, error) {
	return ReadString(r, MaxStringLength16)
}
