package clip

import (
	"image"
	"image/draw"
)

// FromImage converts any decoded image into a clipboard Image.
func FromImage(src image.Image) Image {
	b := src.Bounds()
	dst, ok := src.(*image.NRGBA)
	if !ok || dst.Rect.Min != (image.Point{}) || dst.Stride != 4*b.Dx() {
		dst = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	}
	pix := make([]byte, len(dst.Pix))
	copy(pix, dst.Pix)
	return Image{Width: b.Dx(), Height: b.Dy(), Pix: pix}
}

// NRGBA returns a view of img as an *image.NRGBA sharing its pixels.
func (img Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    img.Pix,
		Stride: 4 * img.Width,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}
