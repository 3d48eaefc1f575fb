package tensor

// ForEach calls fn for every index of v whose outermost coordinate lies in
// [from, to), in outer-to-inner lexicographic order, together with the
// element's storage offset.
//
// idx is reused between calls; fn must copy it to keep it.
func ForEach(v View, from, to int, fn func(idx []int, off int)) {
	r := v.dims.n
	if r == 0 || from >= to {
		return
	}

	var idx [MaxDims]int
	for outer := from; outer < to; outer++ {
		for d := 1; d < r; d++ {
			idx[d] = 0
		}
		idx[0] = outer
		off := v.offset + outer*v.dims.stride[0]
		for {
			fn(idx[:r], off)

			// Odometer step over the inner dimensions.
			d := r - 1
			for ; d >= 1; d-- {
				idx[d]++
				off += v.dims.stride[d]
				if idx[d] < v.dims.size[d] {
					break
				}
				off -= idx[d] * v.dims.stride[d]
				idx[d] = 0
			}
			if d < 1 {
				break
			}
		}
	}
}

// ForEachIndex visits every index of v in lexicographic order.
func ForEachIndex(v View, fn func(idx []int, off int)) {
	if v.dims.n == 0 {
		return
	}
	ForEach(v, 0, v.dims.size[0], fn)
}

// Offsets returns the storage offset of every element of v in lexicographic
// index order. Two views address the same memory in the same order exactly
// when their Offsets are equal.
func Offsets(v View) []int {
	offs := make([]int, 0, v.NumElements())
	ForEachIndex(v, func(_ []int, off int) {
		offs = append(offs, off)
	})
	return offs
}
