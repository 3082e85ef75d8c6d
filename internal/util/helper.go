package util

// CloneSlice clones slice with cloneSize.
// This function will use src length as the clone size if cloneSize is 0.
func CloneSlice[T any](src []T, cloneSize int) []T {
	if cloneSize == 0 {
		cloneSize = len(src)
	}
	clone := make([]T, cloneSize)
	copy(clone, src)

	return clone
}

// Window returns the part of src starting at offset and at most size
// elements long. An offset past the end yields an empty slice; a negative
// size means "to the end".
func Window[T any](src []T, offset int, size int) []T {
	if offset < 0 || offset >= len(src) {
		return src[:0]
	}
	end := len(src)
	if size >= 0 && offset+size < end {
		end = offset + size
	}

	return src[offset:end]
}
