package core

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
)

/*
SpectrogramImage renders the analysed frames as a grayscale heat map:

	Horizontal axis = frequency (low to high, up to maxBins)
	Vertical axis = time (top to bottom, one row per frame)
	Brightness = magnitude relative to the loudest bin
*/
func SpectrogramImage(a *Analyzer, maxBins int) (*image.Gray, error) {
	frames := a.Frames()
	if frames == 0 {
		return nil, fmt.Errorf("spectrogram: no whole frames to render")
	}

	rows := make([][]float64, frames)
	maxMagnitude := 0.0
	for i := range frames {
		mags := a.Magnitudes(i)
		if maxBins > 0 && maxBins < len(mags) {
			mags = mags[:maxBins]
		}
		rows[i] = mags
		for _, m := range mags {
			maxMagnitude = math.Max(maxMagnitude, m)
		}
	}

	img := image.NewGray(image.Rect(0, 0, len(rows[0]), frames))
	if maxMagnitude == 0 {
		return img, nil
	}

	//0 = black/quiet, 255 = white/loud
	for i, mags := range rows {
		for j, m := range mags {
			img.SetGray(j, i, color.Gray{Y: uint8(math.Floor(255 * m / maxMagnitude))})
		}
	}
	return img, nil
}

func WriteSpectrogramPNG(w io.Writer, a *Analyzer, maxBins int) error {
	img, err := SpectrogramImage(a, maxBins)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
