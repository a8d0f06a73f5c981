package alert

import "errors"

var (
	ErrDeliveryFailed   = errors.New("alert delivery failed")
	ErrPermanentFailure = errors.New("permanent alert failure")
	ErrInvalidURL       = errors.New("invalid alert webhook URL")
	ErrInvalidSignature = errors.New("invalid alert signature")
)
