package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tracklab/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.TrackRecord] to implement [list.Item].
type trackItem struct {
	record *models.TrackRecord
}

func (i trackItem) FilterValue() string { return i.record.Name }

func (i trackItem) Title() string {
	marker := "✓"
	if i.record.ValidationStatus == models.ValidationInvalid {
		marker = "✗"
	}
	return fmt.Sprintf("%s %s", marker, i.record.Name)
}

func (i trackItem) Description() string {
	desc := strings.Join(i.record.ArtistNames(), ", ")
	if len(i.record.Genres) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(i.record.Genres, ", "))
	}
	if len(i.record.ValidationErrors) > 0 {
		desc = fmt.Sprintf("%s • %d issues", desc, len(i.record.ValidationErrors))
	}
	return desc
}
