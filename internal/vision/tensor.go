package vision

import (
	"image"

	"github.com/anthonynsimon/bild/transform"
)

// ImageNet normalisation used by the CNN and Hugging Face exports
var (
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

// Normalization maps a [0,1] channel value to model input
type Normalization struct {
	Mean [3]float32
	Std  [3]float32
}

// ImageNet is the standard normalisation
var ImageNet = Normalization{Mean: ImageNetMean, Std: ImageNetStd}

// Unit leaves values in [0,1], as YOLO expects
var Unit = Normalization{Std: [3]float32{1, 1, 1}}

// Tensor resizes img to size x size and returns a CHW float32 tensor of shape [1,3,size,size]
func Tensor(img image.Image, size int, norm Normalization) []float32 {
	resized := transform.Resize(img, size, size, transform.Linear)

	plane := size * size
	out := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			pos := y*resized.Stride + x*4
			idx := y*size + x
			for c := 0; c < 3; c++ {
				v := float32(resized.Pix[pos+c]) / 255
				out[c*plane+idx] = (v - norm.Mean[c]) / norm.Std[c]
			}
		}
	}
	return out
}
