package recommend

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrDistrictNotFound    = errors.New("district not found")
	ErrSeasonNotFound      = errors.New("season not found")
	ErrNoData              = errors.New("no data available")
	ErrInsufficientHistory = errors.New("not enough historical data")
	ErrForecastPending     = errors.New("forecast not ready")
)

// RequestError is a failure caused by the caller's input. Message is safe
// to return to the client; Err is the sentinel used to pick a status code.
type RequestError struct {
	Err     error
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func requestError(err error, message string) *RequestError {
	return &RequestError{Err: err, Message: message}
}
