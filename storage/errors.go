package storage

import "errors"

var (
	ErrGet    = errors.New("unable to retrieve data from cache storage")
	ErrSet    = errors.New("unable to store data in cache storage")
	ErrDelete = errors.New("unable to delete data from cache storage")
	ErrClear  = errors.New("unable to clear cache storage")
)
