package spatial

import (
	"github.com/FocuswithJustin/musictext/core/errors"
	"github.com/FocuswithJustin/musictext/core/score"
)

// Validate checks that every annotation token of stave has been consumed.
// A token still holding its value means the assigner skipped it.
func Validate(stave *score.Stave) error {
	for _, line := range stave.Annotations() {
		for _, tok := range line.Tokens {
			if tok.Source.Consumed() {
				continue
			}
			return &errors.AssignmentInternalError{
				Line:   tok.Source.Position.Line,
				Column: tok.Source.Position.Column,
				Value:  tok.Source.Peek(),
			}
		}
	}
	return nil
}
