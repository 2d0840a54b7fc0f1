package diag

// probe runs a single side-effect-free metric read and absorbs any failure.
// A process exiting mid-read, a permission error, or a platform gap all
// yield nil, never an error; one failing metric must not prevent the rest
// of a snapshot from being collected.
func probe[T any](read func() (T, error)) *T {
	v, err := read()
	if err != nil {
		return nil
	}
	return &v
}

// probeAs is probe with a conversion applied to a successful read.
func probeAs[T, U any](read func() (T, error), conv func(T) U) *U {
	v, err := read()
	if err != nil {
		return nil
	}
	u := conv(v)
	return &u
}
