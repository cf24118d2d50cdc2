package capture

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func testCoordinator() *Coordinator {
	coord := NewCoordinator(Config{
		Format: Format{FourCC: FourCCYUYV, Width: 640, Height: 480},
		Rate:   Rate{1, 30},
	})
	coord.SetCapabilities(testCaps())
	return coord
}

func TestCoordinatorSet(t *testing.T) {
	coord := testCoordinator()

	require.NoError(t, coord.SetResolution(800, 600))
	require.Equal(t, Format{FourCC: FourCCYUYV, Width: 800, Height: 600}, coord.Config().Format)
	require.Equal(t, uint64(1), coord.Version())

	require.NoError(t, coord.SetFrameRate(1, 15))
	require.Equal(t, Rate{1, 15}, coord.Config().Rate)
	require.Equal(t, uint64(2), coord.Version())

	require.NoError(t, coord.SetResolution(640, 480))
	require.NoError(t, coord.SetPixelFormat(FourCCMJPG))
	require.Equal(t, Format{FourCC: FourCCMJPG, Width: 640, Height: 480}, coord.Config().Format)
	require.Equal(t, Rate{1, 15}, coord.Config().Rate)
}

func TestCoordinatorIdempotent(t *testing.T) {
	coord := testCoordinator()

	require.NoError(t, coord.SetResolution(640, 480))
	require.NoError(t, coord.SetPixelFormat(FourCCYUYV))
	require.NoError(t, coord.SetFrameRate(1, 30))
	require.NoError(t, coord.SetFrameRate(2, 60))
	require.NoError(t, coord.Set(Format{}, Rate{}))
	require.Equal(t, uint64(0), coord.Version())
}

func TestCoordinatorReject(t *testing.T) {
	coord := testCoordinator()
	before := coord.Config()

	require.ErrorIs(t, coord.SetResolution(1920, 1080), ErrUnsupported)
	require.ErrorIs(t, coord.SetResolution(0, 480), ErrUnsupported)
	require.ErrorIs(t, coord.SetPixelFormat(FourCCGREY), ErrUnsupported)
	require.ErrorIs(t, coord.SetPixelFormat(FourCC(0x34363248)), ErrUnsupported)
	require.ErrorIs(t, coord.SetFrameRate(1, 60), ErrUnsupported)
	require.ErrorIs(t, coord.SetFrameRate(0, 30), ErrUnsupported)

	// rejected writes leave config untouched
	require.Equal(t, before, coord.Config())
	require.Equal(t, uint64(0), coord.Version())
}

func TestCoordinatorRateFallback(t *testing.T) {
	coord := testCoordinator()
	caps := testCaps()
	caps.Formats[0].Sizes[1].Rates = []Rate{{1, 5}}
	coord.SetCapabilities(caps)

	// 1/30 is not valid for 800x600, falls back to device default
	require.NoError(t, coord.SetResolution(800, 600))
	require.True(t, coord.Config().Rate.IsZero())
}

func TestCoordinatorSetBoth(t *testing.T) {
	coord := testCoordinator()

	require.NoError(t, coord.Set(Format{FourCC: FourCCYUYV, Width: 800, Height: 600}, Rate{1, 15}))
	require.Equal(t, uint64(1), coord.Version())

	// MJPG has no 800x600
	require.ErrorIs(t, coord.Set(Format{FourCC: FourCCMJPG}, Rate{}), ErrUnsupported)
	require.ErrorIs(t, coord.Set(Format{Width: 32, Height: 16}, Rate{}), ErrUnsupported)

	require.NoError(t, coord.Set(Format{FourCC: FourCCMJPG, Width: 32, Height: 16}, Rate{}))
	require.Equal(t, Rate{1, 15}, coord.Config().Rate)
	require.Equal(t, uint64(2), coord.Version())
}

func TestCoordinatorNoCapabilities(t *testing.T) {
	coord := NewCoordinator(Config{Format: Format{FourCC: FourCCYUYV, Width: 640, Height: 480}})

	require.NoError(t, coord.SetResolution(1234, 567))
	require.NoError(t, coord.SetFrameRate(1, 1000))
	require.ErrorIs(t, coord.SetPixelFormat(FourCC(0x34363248)), ErrUnsupported)
}

func TestCoordinatorConcurrent(t *testing.T) {
	coord := testCoordinator()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if (i+j)%2 == 0 {
					_ = coord.SetResolution(800, 600)
				} else {
					_ = coord.SetResolution(640, 480)
				}
				config := coord.Config()
				_ = config.Format.Width
			}
		}(i)
	}
	wg.Wait()

	// snapshot is always one of the accepted tuples
	format := coord.Config().Format
	require.Contains(t, []int{640, 800}, format.Width)
	require.Equal(t, map[int]int{640: 480, 800: 600}[format.Width], format.Height)
}
