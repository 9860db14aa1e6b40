// Package sampleencoder writes decoded video samples as still images.
package sampleencoder

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/bamiaux/rez"
	"github.com/chai2010/webp"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
	"github.com/xaionaro-go/mediareader/pkg/ximage"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type Config struct {
	// Quality is used by Jpeg and lossy WebP, in range [1, 100].
	Quality  int
	Lossless bool

	// MaxSize downscales larger images keeping the aspect ratio; zero
	// coordinates mean no limit.
	MaxSize image.Point
}

var DefaultConfig = Config{
	Quality: 90,
}

type Encoder struct {
	Config Config
}

func New(cfg Config) *Encoder {
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = DefaultConfig.Quality
	}
	return &Encoder{Config: cfg}
}

func (e *Encoder) SaveToFile(
	ctx context.Context,
	sample types.Sample,
	path string,
	compression Compression,
) (_err error) {
	logger.Debugf(ctx, "SaveToFile(ctx, %v, '%s', %s)", sample, path, compression)
	defer func() { logger.Debugf(ctx, "/SaveToFile(ctx, %v, '%s', %s): %v", sample, path, compression, _err) }()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create file '%s': %w", path, err)
	}

	w := bufio.NewWriter(f)
	var mErr *multierror.Error
	if err := e.Encode(ctx, w, sample, compression); err != nil {
		mErr = multierror.Append(mErr, err)
	} else if err := w.Flush(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to write file '%s': %w", path, err))
	}
	if err := f.Close(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to close file '%s': %w", path, err))
	}
	if mErr.ErrorOrNil() != nil {
		_ = os.Remove(path)
	}
	return mErr.ErrorOrNil()
}

func (e *Encoder) Encode(
	ctx context.Context,
	w io.Writer,
	sample types.Sample,
	compression Compression,
) error {
	sample2D, ok := sample.(*types.Sample2D)
	if !ok {
		return fmt.Errorf("only video samples can be encoded, got %s", sample.Kind())
	}
	sample2D.Retain()
	defer sample2D.Release()

	img, err := ximage.FromSample2D(sample2D)
	if err != nil {
		return fmt.Errorf("unable to access the sample as an image: %w", err)
	}

	img, err = e.downscale(ctx, img)
	if err != nil {
		return err
	}

	switch compression {
	case CompressionJpeg:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: e.Config.Quality})
	case CompressionPng:
		err = png.Encode(w, img)
	case CompressionGif:
		err = gif.Encode(w, img, nil)
	case CompressionBmp:
		err = bmp.Encode(w, img)
	case CompressionTiff:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case CompressionWebP:
		err = webp.Encode(w, img, &webp.Options{
			Lossless: e.Config.Lossless,
			Quality:  float32(e.Config.Quality),
			Exact:    false,
		})
	default:
		return fmt.Errorf("unsupported compression %s", compression)
	}
	if err != nil {
		return fmt.Errorf("unable to encode the image with %s: %w", compression, err)
	}
	return nil
}

func (e *Encoder) downscale(ctx context.Context, src image.Image) (image.Image, error) {
	size := src.Bounds().Size()
	maxSize := e.Config.MaxSize
	if (maxSize.X <= 0 || size.X <= maxSize.X) && (maxSize.Y <= 0 || size.Y <= maxSize.Y) {
		return src, nil
	}
	if maxSize.X <= 0 {
		maxSize.X = size.X
	}
	if maxSize.Y <= 0 {
		maxSize.Y = size.Y
	}

	src = rezCompatible(src)
	dst, err := imgLike(src, maxSize)
	if err != nil {
		return nil, fmt.Errorf("unable to create the resized image: %w", err)
	}
	if err := rez.Convert(dst, src, rez.NewLanczosFilter(3)); err != nil {
		return nil, fmt.Errorf("unable to resize: %w", err)
	}
	logger.Debugf(ctx, "downscaled %v -> %v", size, dst.Bounds().Size())
	return dst, nil
}

// rezCompatible converts images rez cannot scale into RGBA.
func rezCompatible(src image.Image) image.Image {
	switch src.(type) {
	case *image.RGBA, *image.Gray, *image.YCbCr:
		return src
	}
	rgba := image.NewRGBA(image.Rectangle{Max: src.Bounds().Size()})
	draw.Draw(rgba, rgba.Bounds(), src, src.Bounds().Min, draw.Src)
	return rgba
}

func imgLike(src image.Image, size image.Point) (image.Image, error) {
	sizeCur := src.Bounds().Size()
	factor := math.MaxFloat64
	factor = math.Min(factor, float64(size.X)/float64(sizeCur.X))
	factor = math.Min(factor, float64(size.Y)/float64(sizeCur.Y))
	newSize := image.Rectangle{Max: image.Point{
		X: max(1, int(float64(sizeCur.X)*factor)),
		Y: max(1, int(float64(sizeCur.Y)*factor)),
	}}

	switch src := src.(type) {
	case *image.RGBA:
		return image.NewRGBA(newSize), nil
	case *image.Gray:
		return image.NewGray(newSize), nil
	case *image.YCbCr:
		// 4:2:0 needs even dimensions
		newSize.Max.X += newSize.Max.X % 2
		newSize.Max.Y += newSize.Max.Y % 2
		return image.NewYCbCr(newSize, src.SubsampleRatio), nil
	default:
		return nil, fmt.Errorf("image format %T is not supported, yet", src)
	}
}
