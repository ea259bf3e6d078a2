package shazam

import "math"

// FFT computes the discrete Fourier transform of a real input using the
// radix-2 Cooley-Tukey algorithm. len(input) must be a power of two;
// callers guarantee this by zero-padding frames to WindowSize.
func FFT(input []float64) []complex128 {
	complexInput := make([]complex128, len(input))
	for i, v := range input {
		complexInput[i] = complex(v, 0)
	}
	return recursiveFFT(complexInput)
}

func recursiveFFT(x []complex128) []complex128 {
	n := len(x)
	if n <= 1 {
		return x
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}

	even = recursiveFFT(even)
	odd = recursiveFFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		angle := -2 * math.Pi * float64(k) / float64(n)
		twiddle := complex(math.Cos(angle), math.Sin(angle)) * odd[k]
		result[k] = even[k] + twiddle
		result[k+n/2] = even[k] - twiddle
	}

	return result
}
