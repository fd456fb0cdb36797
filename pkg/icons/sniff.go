package icons

import "bytes"

// Format is the image format recognized from leading magic bytes.
type Format int

const (
	Unknown Format = iota
	PNG
	GIF
	JPEG
)

// String returns the lower-case format name.
func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case GIF:
		return "gif"
	case JPEG:
		return "jpeg"
	default:
		return "unknown"
	}
}

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	gifMagic  = []byte("GIF")
	jfifMagic = []byte("JFIF")
)

// Sniff recognizes an icon by its first bytes: the 8-byte PNG signature,
// the ASCII prefix "GIF", or the ASCII prefix "JFIF". Anything else,
// including an empty slice, is Unknown.
func Sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return PNG
	case bytes.HasPrefix(data, gifMagic):
		return GIF
	case bytes.HasPrefix(data, jfifMagic):
		return JPEG
	default:
		return Unknown
	}
}
