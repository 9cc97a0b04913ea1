package config

import "errors"

var (
	ErrProviderNotFound  = errors.New("no configuration found for provider")
	ErrProviderAmbiguous = errors.New("multiple configurations found for provider")
	ErrIndexOutOfRange   = errors.New("config index out of range")
	ErrLastProfile       = errors.New("cannot remove the only configuration")
)
