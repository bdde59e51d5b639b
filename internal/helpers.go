package internal

// PanicOnError panics if given a non-nil error. Use it only where an error
// means a programming mistake, such as a broken embedded template or a
// metadata table read out of range.
func PanicOnError(err error) {
	if err != nil {
		panic(err)
	}
}
