package gallery

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// takenAt returns the EXIF capture time of a JPEG, or nil when the bytes carry
// no usable DateTime tag.
func takenAt(data []byte) *time.Time {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	tm, err := x.DateTime()
	if err != nil || tm.IsZero() {
		return nil
	}
	tm = tm.UTC()
	return &tm
}
