package analysis

import (
	"math/cmplx"

	"github.com/san-kum/odestep/internal/dynamo"
	"gonum.org/v1/gonum/dsp/fourier"
)

// PowerSpectrum returns the magnitude of the real FFT of data, from the
// DC term up to the Nyquist term.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	fft := fourier.NewFFT(len(data))
	coeffs := fft.Coefficients(nil, data)

	ps := make([]float64, len(coeffs))
	for i, c := range coeffs {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency returns the strongest non-DC frequency of solution
// row k, in cycles per unit of the independent variable. The mesh is
// treated as evenly spaced.
func DominantFrequency(result *dynamo.Result, k int) float64 {
	row := result.Row(k)
	n := len(row)
	if n < 3 {
		return 0
	}
	spacing := (result.Mesh[n-1] - result.Mesh[0]) / float64(n-1)
	if spacing <= 0 {
		return 0
	}

	ps := PowerSpectrum(row)
	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	return fourier.NewFFT(n).Freq(best) / spacing
}
