package vulkan

import (
	"os"

	"github.com/vkngwrapper/extensions/khr_swapchain"
)

const validationEnv = "VK_VALIDATION"

// Config controls instance and device creation.
type Config struct {
	ApplicationName string

	// EnableValidation turns on the Khronos validation layer and routes its
	// messages to the standard logger.
	EnableValidation bool
	ValidationLayers []string

	DeviceExtensions []string
}

// DefaultConfig enables validation unless VK_VALIDATION is set to a false
// value.
func DefaultConfig() Config {
	return Config{
		ApplicationName:  "Vermicelli",
		EnableValidation: validationFromEnv(os.Getenv(validationEnv)),
		ValidationLayers: []string{"VK_LAYER_KHRONOS_validation"},
		DeviceExtensions: []string{khr_swapchain.ExtensionName},
	}
}

func validationFromEnv(val string) bool {
	switch val {
	case "0", "false", "False", "FALSE", "off":
		return false
	default:
		return true
	}
}
