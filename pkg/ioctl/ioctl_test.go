package ioctl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestCodes(t *testing.T) {
	// VIDIOC_QUERYCAP _IOR('V', 0, struct v4l2_capability)
	require.Equal(t, uintptr(0x80685600), IOR('V', 0, 104))
	// VIDIOC_STREAMON _IOW('V', 18, int)
	require.Equal(t, uintptr(0x40045612), IOW('V', 18, 4))
	// VIDIOC_S_FMT _IOWR('V', 5, struct v4l2_format) on 64-bit
	require.Equal(t, uintptr(0xc0d05605), IORW('V', 5, 208))
	// VIDIOC_G_PARM _IOWR('V', 21, struct v4l2_streamparm)
	require.Equal(t, uintptr(0xc0cc5615), IORW('V', 21, 204))
}

func TestStr(t *testing.T) {
	require.Equal(t, "uvcvideo", Str([]byte("uvcvideo\x00\x00\x00")))
	require.Equal(t, "abcd", Str([]byte("abcd")))
	require.Equal(t, "", Str([]byte{0, 'a'}))
}
