package service

import "media-tracker/internal/models"

// Events receives domain events for instrumentation.
type Events interface {
	ItemCreated(t models.MediaType)
	ProgressRecorded(t models.MediaType)
	GoalLocked()
	GoalCleared()
}

type noEvents struct{}

func (noEvents) ItemCreated(models.MediaType)      {}
func (noEvents) ProgressRecorded(models.MediaType) {}
func (noEvents) GoalLocked()                       {}
func (noEvents) GoalCleared()                      {}
