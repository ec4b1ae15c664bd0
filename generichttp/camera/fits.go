package camera

import (
	"io"

	"github.com/astrogo/fitsio"
)

// WriteFits streams frames to w as a 16-bit FITS file.  One frame produces
// a 2D image; more than one produces a cube with the frame index on the
// slowest axis.  Frames must share the given width and height.
func WriteFits(w io.Writer, metadata []fitsio.Card, frames [][]uint16, width, height int) error {
	metadata = append(metadata,
		fitsio.Card{Name: "BZERO", Value: 32768},
		fitsio.Card{Name: "BSCALE", Value: 1.0})
	f, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer f.Close()

	dims := []int{width, height}
	if len(frames) > 1 {
		dims = append(dims, len(frames))
	}
	im := fitsio.NewImage(16, dims)
	defer im.Close()
	err = im.Header().Append(metadata...)
	if err != nil {
		return err
	}

	ints := make([]int16, 0, width*height*len(frames))
	for _, frame := range frames {
		for _, v := range frame {
			ints = append(ints, int16(int32(v)-32768))
		}
	}
	err = im.Write(ints)
	if err != nil {
		return err
	}
	return f.Write(im)
}
