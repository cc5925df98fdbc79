package reverb

import "math"

// fftConvolve convolves x with h in the frequency domain. Multi-second
// impulse responses against full renders make direct convolution
// quadratic, so both signals go through one padded FFT.
func fftConvolve(x, h []float64) []float64 {
	n := len(x) + len(h) - 1
	size := 1
	for size < n {
		size <<= 1
	}
	fx := make([]complex128, size)
	fh := make([]complex128, size)
	for i, v := range x {
		fx[i] = complex(v, 0)
	}
	for i, v := range h {
		fh[i] = complex(v, 0)
	}
	fft(fx, false)
	fft(fh, false)
	for i := range fx {
		fx[i] *= fh[i]
	}
	fft(fx, true)
	out := make([]float64, n)
	for i := range out {
		out[i] = real(fx[i])
	}
	return out
}

// fft is an in-place iterative radix-2 Cooley-Tukey transform.
// len(a) must be a power of two.
func fft(a []complex128, inverse bool) {
	n := len(a)
	// bit-reversal permutation
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j |= bit
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}
	for length := 2; length <= n; length <<= 1 {
		ang := 2 * math.Pi / float64(length)
		if !inverse {
			ang = -ang
		}
		wl := complex(math.Cos(ang), math.Sin(ang))
		for i := 0; i < n; i += length {
			w := complex(1, 0)
			for j := 0; j < length/2; j++ {
				u := a[i+j]
				v := a[i+j+length/2] * w
				a[i+j] = u + v
				a[i+j+length/2] = u - v
				w *= wl
			}
		}
	}
	if inverse {
		inv := complex(1/float64(n), 0)
		for i := range a {
			a[i] *= inv
		}
	}
}
