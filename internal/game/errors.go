package game

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidInput is returned when a guess and the answer differ in length
	// or a Config cannot be built.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIllegalWord is returned for guesses outside the dictionary.
	ErrIllegalWord = errors.New("word not found in dictionary")
	// ErrGameOver is returned by Room and Session once the game is terminal.
	ErrGameOver = errors.New("game already over")
	// ErrInternalConsistency means adversarial narrowing had no viable bucket.
	ErrInternalConsistency = errors.New("no candidate consistent with guess")
)
