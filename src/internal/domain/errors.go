package domain

import "errors"

var ErrAccountNotFound = errors.New("account not found")
var ErrSameAccount = errors.New("source and destination accounts cannot be the same")
var ErrInvalidAmount = errors.New("amount must be greater than zero")
var ErrInsufficientFunds = errors.New("insufficient funds")
