package service

import "errors"

var errMissingToken = errors.New("response carries no token")
