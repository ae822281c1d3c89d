package store

import (
	"fmt"

	"github.com/kmazur/inkroom/models"
)

// ValidateStroke checks a submitted stroke before it is admitted to a room's
// history. It has no side effects; a failing stroke must not reach the log.
func ValidateStroke(stroke models.Stroke) error {
	if stroke.Id == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidStroke)
	}
	if stroke.UserId == "" {
		return fmt.Errorf("%w: missing userId", ErrInvalidStroke)
	}
	if stroke.Color == "" {
		return fmt.Errorf("%w: missing color", ErrInvalidStroke)
	}
	if stroke.Width <= 0 {
		return fmt.Errorf("%w: width must be positive", ErrInvalidStroke)
	}
	if len(stroke.Points) < 2 {
		return fmt.Errorf("%w: at least 2 points required", ErrInvalidStroke)
	}
	if stroke.IsSegment {
		// Preview fragments are relay-only and never enter the log.
		return fmt.Errorf("%w: segments are not persisted", ErrInvalidStroke)
	}
	return nil
}
