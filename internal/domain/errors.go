package domain

import "errors"

var (
	ErrRateLimited        = errors.New("upstream rate limit hit")
	ErrDataPolicyRequired = errors.New("provider data policy opt-in required")
	ErrUpstream           = errors.New("upstream error")
	ErrTransport          = errors.New("transport error")
	ErrModelNotFound      = errors.New("model not found")
	ErrJokeNotFound       = errors.New("joke not found")
	ErrNoModelsSelected   = errors.New("no models selected")
)
