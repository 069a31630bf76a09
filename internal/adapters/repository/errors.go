package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrOpenStore = errors.New("open store failed")
	ErrInsert    = errors.New("insert signal failed")
	ErrQueryKeys = errors.New("query dedup keys failed")
)
