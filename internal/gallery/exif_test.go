package gallery

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/starford/shutter/internal/camera"
	"github.com/starford/shutter/internal/models"
	"github.com/starford/shutter/internal/platform"
	"github.com/starford/shutter/internal/storage"
)

const exifDateTime = "2023:05:17 10:20:30"

// exifJPEG returns a JPEG whose APP1 segment carries an Exif IFD with
// DateTimeOriginal set to dt ("2006:01:02 15:04:05").
func exifJPEG(dt string) []byte {
	le := binary.LittleEndian
	var tiff bytes.Buffer

	// Header: byte order, magic, offset of IFD0.
	tiff.WriteString("II")
	_ = binary.Write(&tiff, le, uint16(42))
	_ = binary.Write(&tiff, le, uint32(8))

	// IFD0 at 8: one entry pointing at the Exif IFD (26).
	_ = binary.Write(&tiff, le, uint16(1))
	_ = binary.Write(&tiff, le, uint16(0x8769)) // ExifIFDPointer
	_ = binary.Write(&tiff, le, uint16(4))      // LONG
	_ = binary.Write(&tiff, le, uint32(1))
	_ = binary.Write(&tiff, le, uint32(26))
	_ = binary.Write(&tiff, le, uint32(0))

	// Exif IFD at 26: DateTimeOriginal, ASCII stored at 44.
	value := append([]byte(dt), 0)
	_ = binary.Write(&tiff, le, uint16(1))
	_ = binary.Write(&tiff, le, uint16(0x9003)) // DateTimeOriginal
	_ = binary.Write(&tiff, le, uint16(2))      // ASCII
	_ = binary.Write(&tiff, le, uint32(len(value)))
	_ = binary.Write(&tiff, le, uint32(44))
	_ = binary.Write(&tiff, le, uint32(0))
	tiff.Write(value)

	app1 := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var out bytes.Buffer
	out.Write([]byte{0xff, 0xd8, 0xff, 0xe1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(app1)+2))
	out.Write(app1)
	out.Write([]byte{0xff, 0xd9})
	return out.Bytes()
}

func wantTakenAt(t *testing.T) time.Time {
	t.Helper()
	tm, err := time.ParseInLocation("2006:01:02 15:04:05", exifDateTime, time.Local)
	if err != nil {
		t.Fatal(err)
	}
	return tm.UTC()
}

func checkTakenAt(t *testing.T, p models.Photo) {
	t.Helper()
	if p.TakenAt == nil {
		t.Fatalf("%s: TakenAt is nil", p.StoragePath)
	}
	if want := wantTakenAt(t); !p.TakenAt.Equal(want) {
		t.Errorf("%s: TakenAt = %v, want %v", p.StoragePath, p.TakenAt, want)
	}
}

func TestTakenAt(t *testing.T) {
	if got := takenAt(jpegBytes); got != nil {
		t.Errorf("takenAt(no exif) = %v, want nil", got)
	}
	got := takenAt(exifJPEG(exifDateTime))
	if got == nil {
		t.Fatal("takenAt(exif) = nil")
	}
	if want := wantTakenAt(t); !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("takenAt = %v, want %v in UTC", got, want)
	}
}

func TestCapture_TakenAtFromExif(t *testing.T) {
	data := exifJPEG(exifDateTime)
	for _, mode := range []platform.Mode{platform.ModeNative, platform.ModeWeb} {
		t.Run(mode.String(), func(t *testing.T) {
			e := newEnv(t, mode)
			s := e.open(t)
			if err := s.Initialize(context.Background()); err != nil {
				t.Fatal(err)
			}

			ctx := camera.WithShot(context.Background(), camera.Shot{Data: data, ContentType: "image/jpeg"})
			p, err := s.Capture(ctx)
			if err != nil {
				t.Fatalf("Capture: %v", err)
			}
			checkTakenAt(t, p)

			s.Close()
			restarted := e.open(t)
			if err := restarted.Initialize(context.Background()); err != nil {
				t.Fatal(err)
			}
			got := restarted.Snapshot()
			if len(got) != 1 {
				t.Fatalf("len = %d after restart", len(got))
			}
			checkTakenAt(t, got[0])
		})
	}
}

func TestInitialize_WebRehydrationFillsTakenAt(t *testing.T) {
	e := newEnv(t, platform.ModeWeb)
	ctx := context.Background()
	if _, err := e.files.Provider.Write(ctx, "legacy.jpeg", exifJPEG(exifDateTime), storage.DirectoryData); err != nil {
		t.Fatal(err)
	}
	e.seed(t, []models.Photo{{StoragePath: "legacy.jpeg"}})

	s := e.open(t)
	if err := s.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	got := s.Snapshot()
	if len(got) != 1 {
		t.Fatalf("len = %d", len(got))
	}
	checkTakenAt(t, got[0])
	if !got[0].HasDisplay() {
		t.Error("rehydrated photo should have a display path")
	}
}
