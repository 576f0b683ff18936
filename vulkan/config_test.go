package vulkan

import "testing"

func TestValidationFromEnv(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"", true},
		{"1", true},
		{"true", true},
		{"yes", true},
		{"0", false},
		{"false", false},
		{"FALSE", false},
		{"off", false},
	}

	for _, tt := range tests {
		if got := validationFromEnv(tt.val); got != tt.want {
			t.Errorf("validationFromEnv(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func TestDefaultConfigHonorsEnv(t *testing.T) {
	t.Setenv(validationEnv, "0")
	if DefaultConfig().EnableValidation {
		t.Error("VK_VALIDATION=0 left validation on")
	}

	t.Setenv(validationEnv, "")
	config := DefaultConfig()
	if !config.EnableValidation {
		t.Error("validation is off by default")
	}
	if len(config.DeviceExtensions) != 1 {
		t.Errorf("device extensions: %v", config.DeviceExtensions)
	}
}
