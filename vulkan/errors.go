package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

// check wraps a failed native call and marks it with the matching render
// error kind so callers can classify it with errors.Is.
func check(res common.VkResult, err error, msg string) error {
	if err == nil {
		return nil
	}

	err = errors.Wrap(err, msg)
	switch res {
	case core1_0.VKErrorDeviceLost:
		return errors.Mark(err, render.ErrDeviceLost)
	case core1_0.VKErrorOutOfHostMemory, core1_0.VKErrorOutOfDeviceMemory:
		return errors.Mark(err, render.ErrOutOfMemory)
	case khr_surface.VKErrorSurfaceLost:
		return errors.Mark(err, render.ErrSurfaceLost)
	}
	return err
}
