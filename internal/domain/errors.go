package domain

import "errors"

var (
	ErrUnknownConnector   = errors.New("unknown connector id")
	ErrConnectorBusy      = errors.New("connector not available")
	ErrUnknownTransaction = errors.New("unknown transaction id")
	ErrUnknownDevice      = errors.New("unknown device id")
	ErrNotACharger        = errors.New("device is not a charger")
)
