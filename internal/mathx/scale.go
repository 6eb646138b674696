// Copyright 2016 Tom Thorogood. All rights reserved.
// Use of this source code is governed by a
// Modified BSD License license that can be found in
// the LICENSE file.

package mathx

import "golang.org/x/exp/constraints"

// Lerp returns a + (b-a)*t. t is not clamped.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}

// Scale maps a unit value v in [0, 1] onto [0, n], clamping v first. NaN
// maps to 0.
func Scale[F constraints.Float, I constraints.Integer](v F, n I) I {
	if v != v {
		return 0
	}
	return I(Clamp(v, 0, 1)*F(n) + 0.5)
}
