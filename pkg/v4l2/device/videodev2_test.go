//go:build 386 || arm || amd64 || arm64

package device

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/AlexxIT/camview/pkg/ioctl"
	"github.com/stretchr/testify/require"
)

func TestSize(t *testing.T) {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		require.Equal(t, 104, int(unsafe.Sizeof(v4l2_capability{})))
		require.Equal(t, 208, int(unsafe.Sizeof(v4l2_format{})))
		require.Equal(t, 204, int(unsafe.Sizeof(v4l2_streamparm{})))
		require.Equal(t, 20, int(unsafe.Sizeof(v4l2_requestbuffers{})))
		require.Equal(t, 88, int(unsafe.Sizeof(v4l2_buffer{})))
		require.Equal(t, 16, int(unsafe.Sizeof(v4l2_timecode{})))
		require.Equal(t, 64, int(unsafe.Sizeof(v4l2_fmtdesc{})))
		require.Equal(t, 44, int(unsafe.Sizeof(v4l2_frmsizeenum{})))
		require.Equal(t, 52, int(unsafe.Sizeof(v4l2_frmivalenum{})))
	case "386", "arm":
		require.Equal(t, 104, int(unsafe.Sizeof(v4l2_capability{})))
		require.Equal(t, 204, int(unsafe.Sizeof(v4l2_format{})))
		require.Equal(t, 204, int(unsafe.Sizeof(v4l2_streamparm{})))
		require.Equal(t, 20, int(unsafe.Sizeof(v4l2_requestbuffers{})))
		require.Equal(t, 68, int(unsafe.Sizeof(v4l2_buffer{})))
		require.Equal(t, 16, int(unsafe.Sizeof(v4l2_timecode{})))
		require.Equal(t, 64, int(unsafe.Sizeof(v4l2_fmtdesc{})))
		require.Equal(t, 44, int(unsafe.Sizeof(v4l2_frmsizeenum{})))
		require.Equal(t, 52, int(unsafe.Sizeof(v4l2_frmivalenum{})))
	}
}

func TestIoctlCodes(t *testing.T) {
	sizeof := func(v any) uint16 {
		switch v := v.(type) {
		case v4l2_format:
			return uint16(unsafe.Sizeof(v))
		case v4l2_buffer:
			return uint16(unsafe.Sizeof(v))
		case v4l2_streamparm:
			return uint16(unsafe.Sizeof(v))
		}
		return 0
	}

	require.Equal(t, uintptr(VIDIOC_G_FMT), ioctl.IORW('V', 4, sizeof(v4l2_format{})))
	require.Equal(t, uintptr(VIDIOC_S_FMT), ioctl.IORW('V', 5, sizeof(v4l2_format{})))
	require.Equal(t, uintptr(VIDIOC_QUERYBUF), ioctl.IORW('V', 9, sizeof(v4l2_buffer{})))
	require.Equal(t, uintptr(VIDIOC_QBUF), ioctl.IORW('V', 15, sizeof(v4l2_buffer{})))
	require.Equal(t, uintptr(VIDIOC_DQBUF), ioctl.IORW('V', 17, sizeof(v4l2_buffer{})))
	require.Equal(t, uintptr(VIDIOC_S_PARM), ioctl.IORW('V', 22, sizeof(v4l2_streamparm{})))
}

func TestFourCC(t *testing.T) {
	require.Equal(t, uint32(0x56595559), uint32(V4L2_PIX_FMT_YUYV))
	require.Equal(t, uint32(0x47504a4d), uint32(V4L2_PIX_FMT_MJPEG))
}
