package domain

import "errors"

// ErrNotFound is returned by stores when a record id is no longer present,
// for example a card deleted mid-session.
var ErrNotFound = errors.New("not found")
