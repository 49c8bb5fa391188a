package errors

func ValidationFailedErr(err error) error {
	return E(Invalid, "validation failed", err)
}

func EmptyParamErr(field string) error {
	ve := ValidationErrs()
	ve.Add(field, "cannot be empty")
	return E(Invalid, "validation failed", ve.Err())
}

// RunInProgressErr is returned when a run is requested while another one
// has not reached a terminal state.
func RunInProgressErr(owner string) error {
	return E(RunInProgress, "another run is active: "+owner, nil)
}
