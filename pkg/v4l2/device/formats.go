package device

const (
	V4L2_PIX_FMT_YUYV  = 'Y' | 'U'<<8 | 'Y'<<16 | 'V'<<24
	V4L2_PIX_FMT_UYVY  = 'U' | 'Y'<<8 | 'V'<<16 | 'Y'<<24
	V4L2_PIX_FMT_GREY  = 'G' | 'R'<<8 | 'E'<<16 | 'Y'<<24
	V4L2_PIX_FMT_RGB24 = 'R' | 'G'<<8 | 'B'<<16 | '3'<<24
	V4L2_PIX_FMT_BGR24 = 'B' | 'G'<<8 | 'R'<<16 | '3'<<24
	V4L2_PIX_FMT_MJPEG = 'M' | 'J'<<8 | 'P'<<16 | 'G'<<24
	V4L2_PIX_FMT_JPEG  = 'J' | 'P'<<8 | 'E'<<16 | 'G'<<24
)
