package vulkan

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBytesToBytecode(t *testing.T) {
	// SPIR-V magic number, little endian, followed by a version word.
	b := []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}

	code := bytesToBytecode(b)
	if len(code) != 2 {
		t.Fatalf("got %d words, want 2", len(code))
	}
	if code[0] != 0x07230203 {
		t.Errorf("magic: got %#x", code[0])
	}
	if code[1] != 0x00010000 {
		t.Errorf("version: got %#x", code[1])
	}
}

func TestCreateShaderModuleRejectsBadInput(t *testing.T) {
	d := &Device{}

	_, err := d.createShaderModule(filepath.Join(t.TempDir(), "missing.spv"))
	if err == nil {
		t.Error("expected an error for a missing shader")
	}

	path := filepath.Join(t.TempDir(), "odd.spv")
	err = os.WriteFile(path, []byte{1, 2, 3}, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	_, err = d.createShaderModule(path)
	if err == nil {
		t.Error("expected an error for a truncated shader")
	}
}
