package main

// termaiError wraps an error with the reason shown to the user.
type termaiError struct {
	err     error
	reason  string
	details string
}

func (e termaiError) Error() string {
	return e.err.Error()
}

func (e termaiError) Unwrap() error {
	return e.err
}

// Reason is the headline printed next to the ERROR badge.
func (e termaiError) Reason() string {
	return e.reason
}

// Details is printed below the reason. It defaults to the wrapped error.
func (e termaiError) Details() string {
	if e.details != "" {
		return e.details
	}
	return e.err.Error()
}
