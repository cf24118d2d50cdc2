package device

// https://github.com/torvalds/linux/blob/master/include/uapi/linux/videodev2.h

const (
	V4L2_BUF_TYPE_VIDEO_CAPTURE = 1
	V4L2_COLORSPACE_DEFAULT     = 0
	V4L2_FIELD_ANY              = 0
	V4L2_FIELD_NONE             = 1
	V4L2_FRMIVAL_TYPE_DISCRETE  = 1
	V4L2_FRMSIZE_TYPE_DISCRETE  = 1
	V4L2_MEMORY_MMAP            = 1
)

const (
	V4L2_CAP_VIDEO_CAPTURE = 0x00000001
	V4L2_CAP_STREAMING     = 0x04000000
	V4L2_CAP_DEVICE_CAPS   = 0x80000000
	V4L2_CAP_TIMEPERFRAME  = 0x1000
)

const (
	V4L2_BUF_FLAG_MAPPED = 0x00000001
	V4L2_BUF_FLAG_QUEUED = 0x00000002
	V4L2_BUF_FLAG_DONE   = 0x00000004
	V4L2_BUF_FLAG_ERROR  = 0x00000040
)
