package tensor

// Cast reinterprets v as a view of the given rank without copying.
// Lower ranks merge outer dimensions (Downcast), higher ranks prepend unit
// dimensions (Upcast), and the same rank returns v unchanged.
func Cast(v View, rank int) (View, error) {
	switch {
	case rank < v.Rank():
		return Downcast(v, rank)
	case rank > v.Rank():
		return Upcast(v, rank)
	default:
		return v, nil
	}
}

// Downcast merges the leading Rank()-rank+1 dimensions of v into one.
//
// The merged dimension has the product of the merged sizes and the stride of
// the innermost merged dimension; the trailing rank-1 dimensions are kept as is.
// It fails with ErrDimensionMismatch if rank is outside [1, v.Rank()] and with
// ErrIllegalPadding if the merged dimensions are not one contiguous run.
func Downcast(v View, rank int) (View, error) {
	r := v.dims.n
	if rank < 1 || rank > r {
		return View{}, castError("downcast", ErrDimensionMismatch, v, rank)
	}
	if rank == r {
		return v, nil
	}

	sizes, strides := v.dims.size[:r], v.dims.stride[:r]
	if !CanCollapseTo(sizes, strides, rank) {
		return View{}, castError("downcast", ErrIllegalPadding, v, rank)
	}

	merge := r - rank + 1
	out := View{storage: v.storage, offset: v.offset}
	out.dims.n = rank

	merged := 1
	for d := 0; d < merge; d++ {
		merged *= sizes[d]
	}
	out.dims.size[0] = merged
	out.dims.stride[0] = strides[merge-1]

	for d := merge; d < r; d++ {
		out.dims.size[d-merge+1] = sizes[d]
		out.dims.stride[d-merge+1] = strides[d]
	}
	return out, nil
}

// Upcast prepends rank-Rank() dimensions of size 1 to v.
//
// The stride of an injected dimension is never used to address memory; it is
// set to the outermost extent sizes[0]*strides[0] so the layout prints as a
// contiguous wrap. It fails with ErrDimensionMismatch unless
// v.Rank() < rank <= MaxDims.
func Upcast(v View, rank int) (View, error) {
	r := v.dims.n
	if rank <= r || rank > MaxDims || r == 0 {
		return View{}, castError("upcast", ErrDimensionMismatch, v, rank)
	}

	pad := rank - r
	unit := v.dims.size[0] * v.dims.stride[0]

	out := View{storage: v.storage, offset: v.offset}
	out.dims.n = rank
	for d := 0; d < pad; d++ {
		out.dims.size[d] = 1
		out.dims.stride[d] = unit
	}
	copy(out.dims.size[pad:rank], v.dims.size[:r])
	copy(out.dims.stride[pad:rank], v.dims.stride[:r])
	return out, nil
}

func castError(op string, kind error, v View, rank int) *CastError {
	return &CastError{
		Op:      op,
		Kind:    kind,
		From:    v.dims.n,
		To:      rank,
		Sizes:   v.Sizes(),
		Strides: v.Strides(),
	}
}
