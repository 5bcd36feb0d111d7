package gallery

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const photoExt = ".jpeg"

// fileName derives a photo file name from the capture time. A short random
// suffix keeps names unique across captures within the same millisecond.
func fileName(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return strconv.FormatInt(t.UnixMilli(), 10) + "-" + suffix + photoExt
}
