package store_test

import (
	"testing"

	"github.com/kmazur/inkroom/models"
	"github.com/kmazur/inkroom/store"
	"github.com/stretchr/testify/assert"
)

func validStroke() models.Stroke {
	return models.Stroke{
		Id:     "stroke-1",
		UserId: "user-1",
		Color:  "#ff0000",
		Width:  2.5,
		Points: []models.Point{{X: 1, Y: 1}, {X: 2, Y: 2}},
	}
}

func TestValidateStroke(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Stroke)
		wantErr string
	}{
		{
			"Valid",
			func(s *models.Stroke) {},
			"",
		},
		{
			"Missing Id",
			func(s *models.Stroke) { s.Id = "" },
			"missing id",
		},
		{
			"Missing UserId",
			func(s *models.Stroke) { s.UserId = "" },
			"missing userId",
		},
		{
			"Missing Color",
			func(s *models.Stroke) { s.Color = "" },
			"missing color",
		},
		{
			"Zero Width",
			func(s *models.Stroke) { s.Width = 0 },
			"width must be positive",
		},
		{
			"Negative Width",
			func(s *models.Stroke) { s.Width = -1 },
			"width must be positive",
		},
		{
			"Missing Points",
			func(s *models.Stroke) { s.Points = nil },
			"at least 2 points required",
		},
		{
			"Single Point",
			func(s *models.Stroke) { s.Points = []models.Point{{X: 1, Y: 1}} },
			"at least 2 points required",
		},
		{
			"Segment Flagged",
			func(s *models.Stroke) { s.IsSegment = true },
			"segments are not persisted",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stroke := validStroke()
			tc.mutate(&stroke)

			err := store.ValidateStroke(stroke)
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, store.ErrInvalidStroke)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}
