//go:build 386 || arm

package device

const (
	VIDIOC_QUERYCAP = 0x80685600
	VIDIOC_ENUM_FMT = 0xc0405602
	VIDIOC_G_FMT    = 0xc0cc5604
	VIDIOC_S_FMT    = 0xc0cc5605
	VIDIOC_REQBUFS  = 0xc0145608
	VIDIOC_QUERYBUF = 0xc0445609

	VIDIOC_QBUF      = 0xc044560f
	VIDIOC_DQBUF     = 0xc0445611
	VIDIOC_STREAMON  = 0x40045612
	VIDIOC_STREAMOFF = 0x40045613
	VIDIOC_G_PARM    = 0xc0cc5615
	VIDIOC_S_PARM    = 0xc0cc5616

	VIDIOC_ENUM_FRAMESIZES     = 0xc02c564a
	VIDIOC_ENUM_FRAMEINTERVALS = 0xc034564b
)

type v4l2_capability struct { // size 104
	driver       [16]byte
	card         [32]byte
	bus_info     [32]byte
	version      uint32
	capabilities uint32
	device_caps  uint32
	reserved     [3]uint32
}

type v4l2_format struct { // size 204
	typ uint32
	pix v4l2_pix_format
	_   [152]byte
}

type v4l2_pix_format struct { // size 48
	width        uint32 // 0
	height       uint32 // 4
	pixelformat  uint32 // 8
	field        uint32 // 12
	bytesperline uint32 // 16
	sizeimage    uint32 // 20
	colorspace   uint32 // 24
	priv         uint32 // 28
	flags        uint32 // 32
	ycbcr_enc    uint32 // 36
	quantization uint32 // 40
	xfer_func    uint32 // 44
}

type v4l2_streamparm struct { // size 204
	typ     uint32
	capture v4l2_captureparm
	_       [160]byte
}

type v4l2_captureparm struct { // size 40
	capability   uint32     // 0
	capturemode  uint32     // 4
	timeperframe v4l2_fract // 8
	extendedmode uint32     // 16
	readbuffers  uint32     // 20
	reserved     [4]uint32  // 24
}

type v4l2_fract struct {
	numerator   uint32
	denominator uint32
}

type v4l2_requestbuffers struct { // size 20
	count        uint32
	typ          uint32
	memory       uint32
	capabilities uint32
	flags        uint8
	reserved     [3]uint8
}

type v4l2_buffer struct { // size 68
	index     uint32        // 0
	typ       uint32        // 4
	bytesused uint32        // 8
	flags     uint32        // 12
	field     uint32        // 16
	sec       int32         // 20
	usec      int32         // 24
	timecode  v4l2_timecode // 28
	sequence  uint32        // 44
	memory    uint32        // 48
	offset    uint32        // 52
	length    uint32        // 56
	_         [8]byte       // 60
}

type v4l2_timecode struct { // size 16
	typ      uint32
	flags    uint32
	frames   uint8
	seconds  uint8
	minutes  uint8
	hours    uint8
	userbits [4]uint8
}

type v4l2_fmtdesc struct { // size 64
	index       uint32
	typ         uint32
	flags       uint32
	description [32]byte
	pixelformat uint32
	mbus_code   uint32
	reserved    [3]uint32
}

type v4l2_frmsizeenum struct { // size 44
	index        uint32                // 0
	pixel_format uint32                // 4
	typ          uint32                // 8
	discrete     v4l2_frmsize_discrete // 12
	_            [24]byte
}

type v4l2_frmsize_discrete struct {
	width  uint32
	height uint32
}

type v4l2_frmivalenum struct { // size 52
	index        uint32
	pixel_format uint32
	width        uint32
	height       uint32
	typ          uint32
	discrete     v4l2_fract
	_            [24]byte
}
