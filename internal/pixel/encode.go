package pixel

import (
	"io"
	"os"

	"github.com/disintegration/imaging"

	"github.com/videotools/vcap/internal/capture"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 95

// EncodeJPEG converts a captured frame to RGB and streams the JPEG
// encoding to w.
func EncodeJPEG(w io.Writer, frame *capture.Frame, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	img, err := ToRGBA(frame.Data, frame.Width, frame.Height)
	if err != nil {
		return capture.NewError(capture.ErrCodeEncodeFailed, "converting frame", err)
	}

	if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return capture.NewError(capture.ErrCodeEncodeFailed, "encoding jpeg", err)
	}
	return nil
}

// SaveJPEG writes the encoded frame to path. On encoding failure the
// partial file is removed: either the full pipeline completes and one
// file is written, or no file is left behind.
func SaveJPEG(path string, frame *capture.Frame, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return capture.NewError(capture.ErrCodeWriteFailed, "creating output file", err)
	}

	if err := EncodeJPEG(f, frame, quality); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return capture.NewError(capture.ErrCodeWriteFailed, "writing output file", err)
	}
	return nil
}
