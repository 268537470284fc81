package imagemeta

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeTag builds a single little-endian IFD entry with its value area.
func encodeTag(t *testing.T, id, typ uint16, count uint32, value []byte) *tiff.Tag {
	t.Helper()
	var buf bytes.Buffer
	order := binary.LittleEndian
	require.NoError(t, binary.Write(&buf, order, id))
	require.NoError(t, binary.Write(&buf, order, typ))
	require.NoError(t, binary.Write(&buf, order, count))
	if len(value) > 4 {
		require.NoError(t, binary.Write(&buf, order, uint32(12)))
	}
	buf.Write(value)
	for i := len(value); i < 4; i++ {
		buf.WriteByte(0)
	}

	tag, err := tiff.DecodeTag(bytes.NewReader(buf.Bytes()), order)
	require.NoError(t, err)
	return tag
}

func ratTag(t *testing.T, vals ...uint32) *tiff.Tag {
	var value bytes.Buffer
	for _, v := range vals {
		require.NoError(t, binary.Write(&value, binary.LittleEndian, v))
	}
	return encodeTag(t, 0x0002, uint16(tiff.DTRational), uint32(len(vals)/2), value.Bytes())
}

func asciiTag(t *testing.T, s string) *tiff.Tag {
	return encodeTag(t, 0x0001, uint16(tiff.DTAscii), uint32(len(s)+1), append([]byte(s), 0))
}

func TestRawGPS(t *testing.T) {
	tags := map[string]*tiff.Tag{
		string(exif.GPSLatitude):     ratTag(t, 48, 1, 51, 1, 30, 1),
		string(exif.GPSLatitudeRef):  asciiTag(t, "N"),
		string(exif.GPSLongitude):    ratTag(t, 2, 1, 21, 1, 8, 1),
		string(exif.GPSLongitudeRef): asciiTag(t, "E"),
	}

	raw := rawGPS(tags)

	require.NotNil(t, raw)
	assert.Equal(t, "N", raw.LatRef)
	assert.Equal(t, "E", raw.LonRef)
	require.Len(t, raw.LatDMS, 3)
	assert.Equal(t, int64(51), raw.LatDMS[1].Num)
	assert.Equal(t, int64(1), raw.LatDMS[1].Den)
}

func TestRawGPS_MissingOrWrongType(t *testing.T) {
	assert.Nil(t, rawGPS(map[string]*tiff.Tag{}))

	tags := map[string]*tiff.Tag{
		string(exif.GPSLatitude):  asciiTag(t, "48 51 30"),
		string(exif.GPSLongitude): ratTag(t, 2, 1, 21, 1, 8, 1),
	}
	assert.Nil(t, rawGPS(tags))
}

func TestRawGPS_KeepsZeroDenominator(t *testing.T) {
	tags := map[string]*tiff.Tag{
		string(exif.GPSLatitude):  ratTag(t, 48, 1, 51, 0, 30, 1),
		string(exif.GPSLongitude): ratTag(t, 2, 1, 21, 1, 8, 1),
	}

	raw := rawGPS(tags)

	require.NotNil(t, raw)
	assert.Equal(t, int64(0), raw.LatDMS[1].Den)
	assert.Empty(t, raw.LatRef)
}

func TestExtract_PNGWithoutExif(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	path := filepath.Join(t.TempDir(), "plain.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	result, err := NewExtractor(zerolog.Nop()).Extract(path)

	require.NoError(t, err)
	assert.Equal(t, "PNG", result.Metadata.Format)
	assert.Equal(t, [2]int{4, 3}, result.Metadata.Size)
	assert.Nil(t, result.GPS)
	assert.Nil(t, result.TakenAt)
}

func TestExtract_Errors(t *testing.T) {
	e := NewExtractor(zerolog.Nop())

	_, err := e.Extract(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	_, err = e.Extract(path)
	assert.Error(t, err)
}

func TestColorMode(t *testing.T) {
	assert.Equal(t, "RGB", colorMode(color.YCbCrModel))
	assert.Equal(t, "RGBA", colorMode(color.NRGBAModel))
	assert.Equal(t, "L", colorMode(color.GrayModel))
	assert.Equal(t, "CMYK", colorMode(color.CMYKModel))
	assert.Equal(t, "P", colorMode(color.Palette{color.Black, color.White}))
}
