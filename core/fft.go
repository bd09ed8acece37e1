/*
Package core turns decoded PCM into a note timeline.

The Fourier Transform decomposes a signal into the sine and cosine waves it is
made of. A direct Discrete Fourier Transform costs O(N²); the Fast Fourier
Transform (Cooley and Tukey) splits the input into even and odd samples,
transforms each half and recombines them with twiddle factors e^(-2πik/N),
bringing the cost down to O(N log N):

	X[k]       = E[k] + W^k · O[k]
	X[k + N/2] = E[k] - W^k · O[k]

For a real input of length N the output is conjugate symmetric, so only the
first N/2 bins carry information. Bin k sits at k · sampleRate / N Hz.

The analyzer frames the signal, transforms every frame, and keeps the loudest
bin. The quantizer snaps that frequency onto an equal-tempered note table and
the timeline builder collapses sustained notes into single onsets.
*/
package core

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT returns the complex spectrum of a real signal. The length of input
// should be a power of two.
func FFT(input []float64) []complex128 {
	return fft.FFTReal(input)
}

// HalfMagnitudes returns |X[k]| for k in [0, N/2).
func HalfMagnitudes(spectrum []complex128) []float64 {
	half := len(spectrum) / 2
	mags := make([]float64, half)
	for i := range half {
		mags[i] = cmplx.Abs(spectrum[i])
	}
	return mags
}

// dominantBin picks the strictly largest magnitude in [1, len(mags)).
// Equal magnitudes keep the lower bin.
func dominantBin(mags []float64) (int, float64) {
	bin, peak := 0, 0.0
	for i := 1; i < len(mags); i++ {
		if mags[i] > peak {
			bin, peak = i, mags[i]
		}
	}
	return bin, peak
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
