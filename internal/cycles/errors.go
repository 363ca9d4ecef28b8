package cycles

import "errors"

// Configuration errors. They are raised while generating cycles or validating
// overrides and are meant to be shown where the obligation is edited.
var (
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrInvalidStartDate  = errors.New("invalid start date")
	ErrInvalidEndDate    = errors.New("invalid end date")
	ErrInvalidOverride   = errors.New("invalid override")
)
