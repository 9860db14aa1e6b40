package sampleencoder

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Compression int

const (
	CompressionUndefined = Compression(iota)
	CompressionJpeg
	CompressionPng
	CompressionGif
	CompressionBmp
	CompressionTiff
	CompressionWebP
	endOfCompression
)

func (c Compression) String() string {
	switch c {
	case CompressionUndefined:
		return "<undefined>"
	case CompressionJpeg:
		return "jpeg"
	case CompressionPng:
		return "png"
	case CompressionGif:
		return "gif"
	case CompressionBmp:
		return "bmp"
	case CompressionTiff:
		return "tiff"
	case CompressionWebP:
		return "webp"
	}
	return fmt.Sprintf("unknown_compression_%d", int(c))
}

func ParseCompression(s string) (Compression, error) {
	s = strings.ToLower(strings.TrimPrefix(s, "."))
	switch s {
	case "jpg":
		return CompressionJpeg, nil
	case "tif":
		return CompressionTiff, nil
	}
	for c := CompressionUndefined + 1; c < endOfCompression; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return CompressionUndefined, fmt.Errorf("unknown compression '%s'", s)
}

// CompressionFromPath guesses the compression by the file extension.
func CompressionFromPath(path string) (Compression, error) {
	return ParseCompression(filepath.Ext(path))
}
