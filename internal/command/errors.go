package command

import "errors"

var (
	ErrUnknownUnit     = errors.New("unknown unit")
	ErrNotActive       = errors.New("unit is not active")
	ErrNotChild        = errors.New("unit is not an active child of the parent")
	ErrNameTaken       = errors.New("unit name already in use")
	ErrNoTroops        = errors.New("deployment must be positive")
	ErrDeployCap       = errors.New("deployment exceeds cap")
	ErrInvalidPosition = errors.New("invalid position")
	ErrRootLimit       = errors.New("faction already has a root")
)
