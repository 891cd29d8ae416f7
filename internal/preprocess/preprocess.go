package preprocess

import (
	"image"

	"github.com/nfnt/resize"

	"github.com/Brownie44l1/classify-api/internal/model"
)

// ImageToTensor converts a decoded image into the flat float tensor the
// classifier expects: resized to 224x224 (aspect ratio not preserved),
// pixels in row-major order, channels interleaved R,G,B, each 8-bit value
// scaled to [0.0, 1.0].
func ImageToTensor(img image.Image) []float32 {
	resized := resize.Resize(model.InputWidth, model.InputHeight, img, resize.Lanczos3)

	bounds := resized.Bounds()
	tensor := make([]float32, 0, model.InputSize)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			tensor = append(tensor,
				float32(r>>8)/255.0,
				float32(g>>8)/255.0,
				float32(b>>8)/255.0)
		}
	}

	return tensor
}
