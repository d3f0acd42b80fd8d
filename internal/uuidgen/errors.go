package uuidgen

import "errors"

var errShutdown = errors.New("uuidgen: generate called after shutdown")
