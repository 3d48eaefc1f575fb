package tensor

// IsContiguousRun reports whether dimensions [i, j) nest without gaps:
// strides[d] == strides[d+1]*sizes[d+1] for every d in [i, j-1).
//
// Ranges of length 0 or 1 are trivially contiguous. A longer range that
// does not fit inside sizes and strides is not.
func IsContiguousRun(sizes, strides []int, i, j int) bool {
	if j-i <= 1 {
		return true
	}
	if i < 0 || j > len(sizes) || j > len(strides) {
		return false
	}
	for d := i; d < j-1; d++ {
		if strides[d] != strides[d+1]*sizes[d+1] {
			return false
		}
	}
	return true
}

// CanCollapseTo reports whether the leading len(sizes)-targetRank+1 dimensions
// form one contiguous run, so they can be merged into a single outer dimension
// while the trailing targetRank-1 dimensions pass through untouched.
func CanCollapseTo(sizes, strides []int, targetRank int) bool {
	r := len(sizes)
	if targetRank < 1 || targetRank > r {
		return false
	}
	return IsContiguousRun(sizes, strides, 0, r-targetRank+1)
}

// IsFullyContiguous reports whether the whole layout is one gap-free run
// with unit innermost stride.
func IsFullyContiguous(sizes, strides []int) bool {
	r := len(sizes)
	if r == 0 || len(strides) != r {
		return false
	}
	return strides[r-1] == 1 && IsContiguousRun(sizes, strides, 0, r)
}
