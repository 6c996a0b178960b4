/*
NeuQuant Neural-Net Quantization Algorithm
------------------------------------------

Copyright (c) 1994 Anthony Dekker

NEUQUANT Neural-Net quantization algorithm by Anthony Dekker, 1994.
See "Kohonen neural networks for optimal colour quantization"
in "Network: Computation in Neural Systems" Vol. 5 (1994) pp 351-367.
for a discussion of the algorithm.
See also http://members.ozemail.com.au/~dekker/NEUQUANT.HTML

Any party obtaining a copy of these files from the author, directly or
indirectly, is granted, free of charge, a full and unrestricted irrevocable,
world-wide, paid up, royalty-free, nonexclusive right and license to deal
in this software and documentation files (the "Software"), including without
limitation the rights to use, copy, modify, merge, publish, distribute, sublicense,
and/or sell copies of the Software, and to permit persons who receive
copies from any such party to do so, with the only requirement being
that this copyright notice remain intact.

(Go port 2024)
*/

// Package neuquant implements the NeuQuant Kohonen self-organizing-map
// color quantizer: it learns a 256-color palette from a 24-bit RGB image
// and builds an indexed nearest-color lookup structure over it.
package neuquant

import "github.com/pkg/errors"

const (
	ncycles         = 100 // number of learning cycles
	netsize         = 256 // number of colors used
	maxnetpos       = netsize - 1
	netbiasshift    = 4  // bias for colour values
	intbiasshift    = 16 // bias for fractions
	intbias         = 1 << intbiasshift
	gammashift      = 10
	betashift       = 10
	beta            = intbias >> betashift // beta = 1/1024
	betagamma       = intbias << (gammashift - betashift)
	initrad         = netsize >> 3 // for 256 cols, radius starts
	radiusbiasshift = 6            // at 32.0 biased by 6 bits
	radiusbias      = 1 << radiusbiasshift
	initradius      = initrad * radiusbias // and decreases by a
	radiusdec       = 30                   // factor of 1/30 each cycle
	alphabiasshift  = 10                   // alpha starts at 1.0
	initalpha       = 1 << alphabiasshift
	radbiasshift    = 8
	radbias         = 1 << radbiasshift
	alpharadbshift  = alphabiasshift + radbiasshift
	alpharadbias    = 1 << alpharadbshift
	prime1          = 499
	prime2          = 491
	prime3          = 487
	prime4          = 503
	minpicturebytes = 3 * prime4

	// channel offsets into a neuron's 4-int32 slot: red, green, blue and
	// the neuron's original (pre-sort) index, used to recover colormap
	// order after inxbuild sorts the network by green value.
	chanR   = 0
	chanG   = 1
	chanB   = 2
	chanIdx = 3
)

// Quantizer is a Kohonen neural network color quantizer. It owns a fixed
// 256-neuron network plus the companion bias/freq/radpower arrays spec'd
// by the reference algorithm; none of it is reallocated across Reset calls,
// only re-initialized, so a single Quantizer is reused once per frame.
type Quantizer struct {
	// network is a flat [netsize*4]int32 array, one neuron every four
	// slots (r, g, b, original index). Avoid slicing a neuron out as its
	// own []int32 view — index as network[i*4+chan] throughout so the
	// backing array never needs per-neuron allocation.
	network  [netsize * 4]int32
	netindex [256]int32
	bias     [netsize]int32
	freq     [netsize]int32
	radpower [initrad]int32

	pixels []byte
	sample int
}

// New returns a Quantizer with its arrays allocated but uninitialized;
// call Reset before Process.
func New() *Quantizer {
	return &Quantizer{}
}

// Reset stores the frame's RGB24 pixels and sample factor, and reinitializes
// the network to its biased starting state. pixels must have a length that
// is a positive multiple of 3.
func (q *Quantizer) Reset(pixels []byte, sample int) error {
	if len(pixels) == 0 || len(pixels)%3 != 0 {
		return errors.Errorf("neuquant: invalid frame length %d (must be a positive multiple of 3)", len(pixels))
	}
	q.pixels = pixels
	q.sample = sample

	for i := 0; i < netsize; i++ {
		v := int32((i << (netbiasshift + 8)) / netsize)
		q.network[i*4+chanR] = v
		q.network[i*4+chanG] = v
		q.network[i*4+chanB] = v
		q.network[i*4+chanIdx] = 0
		q.freq[i] = intbias / netsize
		q.bias[i] = 0
	}
	return nil
}

// Process runs the learning pass, removes the bias, sorts the network for
// lookup, and returns the 768-byte RGB palette. Reset must be called first.
func (q *Quantizer) Process() ([768]byte, error) {
	var palette [768]byte
	if q.pixels == nil {
		return palette, errors.New("neuquant: Process called before Reset")
	}

	q.learn()
	q.pixels = nil // release the frame now that learning is done

	q.unbiasnet()
	q.inxbuild()

	return q.colormap(), nil
}

// colormap writes the network back into RGB order by original index.
func (q *Quantizer) colormap() [768]byte {
	var palette [768]byte
	index := make([]int, netsize)

	for i := 0; i < netsize; i++ {
		index[q.network[i*4+chanIdx]] = i
	}

	k := 0
	for i := 0; i < netsize; i++ {
		j := index[i]
		palette[k] = byte(q.network[j*4+chanR])
		k++
		palette[k] = byte(q.network[j*4+chanG])
		k++
		palette[k] = byte(q.network[j*4+chanB])
		k++
	}
	return palette
}

// Map returns the index of the palette entry nearest r, g, b. Call after
// Process.
func (q *Quantizer) Map(r, g, b byte) int {
	return q.inxsearch(int32(r), int32(g), int32(b))
}

// unbiasnet unbiases network to give byte values 0..255 and records the
// neuron's pre-sort position so colormap can restore the order afterward.
func (q *Quantizer) unbiasnet() {
	for i := 0; i < netsize; i++ {
		q.network[i*4+chanR] >>= netbiasshift
		q.network[i*4+chanG] >>= netbiasshift
		q.network[i*4+chanB] >>= netbiasshift
		q.network[i*4+chanIdx] = int32(i)
	}
}

// altersingle moves neuron i towards biased (r,g,b) by factor alpha.
func (q *Quantizer) altersingle(alpha, i int32, r, g, b int32) {
	base := i * 4
	q.network[base+chanR] -= (alpha * (q.network[base+chanR] - r)) / initalpha
	q.network[base+chanG] -= (alpha * (q.network[base+chanG] - g)) / initalpha
	q.network[base+chanB] -= (alpha * (q.network[base+chanB] - b)) / initalpha
}

// alterneigh moves neurons within radius of i towards biased (r,g,b),
// weighted by the precomputed radpower falloff.
func (q *Quantizer) alterneigh(radius int, i int, r, g, b int32) {
	lo := maxInt(i-radius, -1)
	hi := minInt(i+radius, netsize)

	j := i + 1
	k := i - 1
	m := 1

	for j < hi || k > lo {
		a := q.radpower[m]
		m++

		if j < hi {
			base := j * 4
			q.network[base+chanR] -= (a * (q.network[base+chanR] - r)) / alpharadbias
			q.network[base+chanG] -= (a * (q.network[base+chanG] - g)) / alpharadbias
			q.network[base+chanB] -= (a * (q.network[base+chanB] - b)) / alpharadbias
			j++
		}

		if k > lo {
			base := k * 4
			q.network[base+chanR] -= (a * (q.network[base+chanR] - r)) / alpharadbias
			q.network[base+chanG] -= (a * (q.network[base+chanG] - g)) / alpharadbias
			q.network[base+chanB] -= (a * (q.network[base+chanB] - b)) / alpharadbias
			k--
		}
	}
}

// contest searches for the neuron closest to biased (r,g,b) (min L1 dist),
// updates every neuron's freq/bias for the frequency-bias contest, and
// returns the position minimizing dist-bias (the neuron that actually
// learns this sample).
func (q *Quantizer) contest(r, g, b int32) int {
	bestd := int32(0x7FFFFFFF) // INT_MAX; must stay 32-bit regardless of platform int width
	bestbiasd := bestd
	bestpos := -1
	bestbiaspos := bestpos

	for i := 0; i < netsize; i++ {
		base := i * 4
		dist := abs32i32(q.network[base+chanR]-r) + abs32i32(q.network[base+chanG]-g) + abs32i32(q.network[base+chanB]-b)

		if dist < bestd {
			bestd = dist
			bestpos = i
		}

		biasdist := dist - (q.bias[i] >> (intbiasshift - netbiasshift))
		if biasdist < bestbiasd {
			bestbiasd = biasdist
			bestbiaspos = i
		}

		betafreq := q.freq[i] >> betashift
		q.freq[i] -= betafreq
		q.bias[i] += betafreq << gammashift
	}

	q.freq[bestpos] += beta
	q.bias[bestpos] -= betagamma

	return bestbiaspos
}

// learn is the main training loop: sample pixels at a prime stride,
// run the contest, alter the winner (and its neighborhood while the
// radius is still nonzero), and shrink alpha/radius every delta samples.
func (q *Quantizer) learn() {
	lengthcount := len(q.pixels)
	samplefac := q.sample
	if lengthcount < minpicturebytes {
		samplefac = 1
	}

	alphadec := int32(30 + ((samplefac - 1) / 3))
	samplepixels := lengthcount / (3 * samplefac)
	delta := samplepixels / ncycles
	if delta == 0 {
		delta = 1
	}

	alpha := int32(initalpha)
	radius := int32(initradius)

	rad := int(radius >> radiusbiasshift)
	if rad <= 1 {
		rad = 0
	}

	for i := 0; i < rad; i++ {
		q.radpower[i] = alpha * ((int32(rad*rad-i*i) * radbias) / int32(rad*rad))
	}

	var step int
	switch {
	case lengthcount < minpicturebytes:
		step = 3
	case lengthcount%prime1 != 0:
		step = 3 * prime1
	case lengthcount%prime2 != 0:
		step = 3 * prime2
	case lengthcount%prime3 != 0:
		step = 3 * prime3
	default:
		step = 3 * prime4
	}

	pix := 0
	i := 0

	for i < samplepixels {
		r := (int32(q.pixels[pix]) & 0xff) << netbiasshift
		g := (int32(q.pixels[pix+1]) & 0xff) << netbiasshift
		b := (int32(q.pixels[pix+2]) & 0xff) << netbiasshift

		j := q.contest(r, g, b)

		q.altersingle(alpha, int32(j), r, g, b)
		if rad != 0 {
			q.alterneigh(rad, j, r, g, b)
		}

		pix += step
		if pix >= lengthcount {
			pix -= lengthcount
		}

		i++

		if i%delta == 0 {
			alpha -= alpha / alphadec
			radius -= radius / radiusdec
			rad = int(radius >> radiusbiasshift)

			if rad <= 1 {
				rad = 0
			}
			for j := 0; j < rad; j++ {
				q.radpower[j] = alpha * ((int32(rad*rad-j*j) * radbias) / int32(rad*rad))
			}
		}
	}
}

// inxbuild selection-sorts the network by green value and builds
// netindex[0..255] so inxsearch can start its scan near the right green
// bucket instead of scanning the whole network.
func (q *Quantizer) inxbuild() {
	previouscol := int32(0)
	startpos := 0

	for i := 0; i < netsize; i++ {
		smallpos := i
		smallval := q.network[i*4+chanG]

		for j := i + 1; j < netsize; j++ {
			v := q.network[j*4+chanG]
			if v < smallval {
				smallpos = j
				smallval = v
			}
		}

		if i != smallpos {
			ib, sb := i*4, smallpos*4
			for c := 0; c < 4; c++ {
				q.network[ib+c], q.network[sb+c] = q.network[sb+c], q.network[ib+c]
			}
		}

		if smallval != previouscol {
			q.netindex[previouscol] = int32((startpos + i) >> 1)
			for j := previouscol + 1; j < smallval; j++ {
				q.netindex[j] = int32(i)
			}
			previouscol = smallval
			startpos = i
		}
	}

	q.netindex[previouscol] = int32((startpos + maxnetpos) >> 1)
	for j := previouscol + 1; j < 256; j++ {
		q.netindex[j] = maxnetpos
	}
}

// inxsearch returns the palette index nearest (r,g,b), searching outward
// from netindex[g] in both directions and pruning on the green-channel
// distance alone before paying for the full L1 distance.
func (q *Quantizer) inxsearch(r, g, b int32) int {
	bestd := int32(1000) // biggest possible dist is 256*3
	best := -1

	i := int(q.netindex[g])
	j := i - 1

	for i < netsize || j >= 0 {
		if i < netsize {
			base := i * 4
			dist := q.network[base+chanG] - g

			if dist >= bestd {
				i = netsize
			} else {
				i++
				if dist < 0 {
					dist = -dist
				}
				a := q.network[base+chanR] - r
				if a < 0 {
					a = -a
				}
				dist += a

				if dist < bestd {
					a = q.network[base+chanB] - b
					if a < 0 {
						a = -a
					}
					dist += a

					if dist < bestd {
						bestd = dist
						best = int(q.network[base+chanIdx])
					}
				}
			}
		}

		if j >= 0 {
			base := j * 4
			dist := g - q.network[base+chanG]

			if dist >= bestd {
				j = -1
			} else {
				j--
				if dist < 0 {
					dist = -dist
				}
				a := q.network[base+chanR] - r
				if a < 0 {
					a = -a
				}
				dist += a

				if dist < bestd {
					a = q.network[base+chanB] - b
					if a < 0 {
						a = -a
					}
					dist += a

					if dist < bestd {
						bestd = dist
						best = int(q.network[base+chanIdx])
					}
				}
			}
		}
	}

	return best
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func abs32i32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
