package capture

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeRaw(t *testing.T) {
	for _, fourcc := range []FourCC{FourCCYUYV, FourCCUYVY, FourCCGREY, FourCCRGB3, FourCCBGR3} {
		t.Run(fourcc.String(), func(t *testing.T) {
			raw := testFrame(Format{FourCC: fourcc, Width: 64, Height: 48})

			payload, err := Decode(fourcc, raw, 64, 48)
			require.NoError(t, err)
			require.Equal(t, raw, payload)
			require.Len(t, payload, PayloadSize(fourcc, 64, 48))

			// payload is a copy, buffer may be reused by the device
			raw[0]++
			require.NotEqual(t, raw[0], payload[0])

			codec := GetCodec(fourcc)
			require.Equal(t, fourcc, codec.Layout())
		})
	}
}

func TestDecodeRawShort(t *testing.T) {
	_, err := Decode(FourCCYUYV, make([]byte, 100), 64, 48)
	require.ErrorIs(t, err, ErrDecode)
	require.False(t, IsFatal(err))
}

func TestDecodeRawStride(t *testing.T) {
	const w, h, stride = 4, 3, 12

	raw := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w*2; x++ {
			raw[y*stride+x] = byte(y*10 + x)
		}
	}

	format := Format{FourCC: FourCCYUYV, Width: w, Height: h, Stride: stride}
	payload, err := GetCodec(FourCCYUYV).Decode(raw, format)
	require.NoError(t, err)
	require.Len(t, payload, w*h*2)
	require.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7}, payload[:8])
	require.Equal(t, []byte{10, 11, 12, 13, 14, 15, 16, 17}, payload[8:16])
	require.Equal(t, []byte{20, 21, 22, 23, 24, 25, 26, 27}, payload[16:])

	// last line without padding is enough
	payload, err = GetCodec(FourCCYUYV).Decode(raw[:stride*(h-1)+w*2], format)
	require.NoError(t, err)
	require.Len(t, payload, w*h*2)

	_, err = GetCodec(FourCCYUYV).Decode(raw[:stride*(h-1)], format)
	require.ErrorIs(t, err, ErrDecode)
}

func TestDecodeRawTailPadding(t *testing.T) {
	// 4x2 YUYV with bytesused twice the image, stride not reported
	raw := make([]byte, 32)
	for i := 0; i < 16; i++ {
		raw[i] = byte(i + 1)
	}

	payload, err := Decode(FourCCYUYV, raw, 4, 2)
	require.NoError(t, err)
	require.Equal(t, raw[:16], payload)

	// stride equal to line width
	format := Format{FourCC: FourCCYUYV, Width: 4, Height: 2, Stride: 8}
	payload, err = GetCodec(FourCCYUYV).Decode(raw, format)
	require.NoError(t, err)
	require.Equal(t, raw[:16], payload)
}

func TestDecodeJPEG(t *testing.T) {
	raw := testJPEG(32, 16)

	payload, err := Decode(FourCCMJPG, raw, 32, 16)
	require.NoError(t, err)
	require.Len(t, payload, 32*16*3)
	require.Equal(t, FourCCRGB3, GetCodec(FourCCMJPG).Layout())

	// gray image, all channels equal
	require.Equal(t, payload[0], payload[1])
	require.Equal(t, payload[1], payload[2])
}

func TestDecodeJPEGErrors(t *testing.T) {
	tests := map[string][]byte{
		"empty":     nil,
		"no marker": {0x00, 0x01, 0x02, 0x03, 0x04},
		"truncated": {0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x01, 0x02},
		"size":      testJPEG(16, 16),
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(FourCCMJPG, raw, 32, 16)
			require.ErrorIs(t, err, ErrDecode)
		})
	}
}

// stripDHT - remove Huffman tables like UVC cameras do
func stripDHT(raw []byte) []byte {
	b := append([]byte{}, raw[:2]...)
	for i := 2; i+4 <= len(raw); {
		if raw[i+1] == markerSOS {
			return append(b, raw[i:]...)
		}
		size := 2 + int(binary.BigEndian.Uint16(raw[i+2:]))
		if raw[i+1] != markerDHT {
			b = append(b, raw[i:i+size]...)
		}
		i += size
	}
	return b
}

func TestDecodeJPEGWithoutDHT(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: byte(x * 8), G: byte(y * 16), B: 200, A: 255})
		}
	}

	buf := bytes.NewBuffer(nil)
	require.NoError(t, jpeg.Encode(buf, img, &jpeg.Options{Quality: 90}))
	raw := buf.Bytes()

	stripped := stripDHT(raw)
	require.Less(t, len(stripped), len(raw))

	_, err := jpeg.Decode(bytes.NewReader(stripped))
	require.Error(t, err)

	expect, err := Decode(FourCCMJPG, raw, 32, 16)
	require.NoError(t, err)

	payload, err := Decode(FourCCMJPG, stripped, 32, 16)
	require.NoError(t, err)
	require.Len(t, payload, 32*16*3)
	require.Equal(t, expect, payload)

	// gray image has only luminance tables
	payload, err = Decode(FourCCMJPG, stripDHT(testJPEG(32, 16)), 32, 16)
	require.NoError(t, err)
	require.Len(t, payload, 32*16*3)
}

func TestFixJPEG(t *testing.T) {
	raw := testJPEG(8, 8)
	require.Equal(t, raw, FixJPEG(raw))

	stripped := stripDHT(raw)
	fixed := FixJPEG(stripped)
	require.Len(t, fixed, len(stripped)+len(defaultDHT))
	require.Equal(t, 2+4*17+2*12+2*162, int(binary.BigEndian.Uint16(defaultDHT[2:])))

	// broken markers are left for the decoder
	broken := []byte{0xFF, 0xD8, 0x00, 0x01, 0x02, 0x03}
	require.Equal(t, broken, FixJPEG(broken))
}

func TestDecodeUnknown(t *testing.T) {
	_, err := Decode(FourCC(0x34363248), []byte{1, 2, 3}, 1, 1)
	require.ErrorIs(t, err, ErrDecode)
}

func TestImageToRGB(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{B: 255, A: 255})

	require.Equal(t, []byte{255, 0, 0, 0, 0, 255}, ImageToRGB(img))

	ycc := image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio420)
	for i := range ycc.Y {
		ycc.Y[i] = 128
	}
	for i := range ycc.Cb {
		ycc.Cb[i] = 128
		ycc.Cr[i] = 128
	}
	rgb := ImageToRGB(ycc)
	require.Len(t, rgb, 2*2*3)
	require.Equal(t, byte(128), rgb[0])
}

type testCodec struct{}

func (testCodec) Layout() FourCC {
	return FourCCGREY
}

func (testCodec) Decode(raw []byte, format Format) ([]byte, error) {
	return make([]byte, format.Width*format.Height), nil
}

func TestRegisterCodec(t *testing.T) {
	fourcc := FourCC('Y' | '8'<<8 | '0'<<16 | '0'<<24)
	require.Nil(t, GetCodec(fourcc))

	RegisterCodec(fourcc, testCodec{})
	payload, err := Decode(fourcc, nil, 4, 2)
	require.NoError(t, err)
	require.Len(t, payload, 8)
}
