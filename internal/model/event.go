package model

import "time"

// DateFormat is the canonical layout for HorseEvent.Date and for the
// selected-date filter. Time values use zero-padded 24h "HH:mm", which
// makes lexicographic comparison sufficient for ordering.
const DateFormat = "2006-01-02"

// Today returns the current local date in the canonical format.
func Today() string {
	return time.Now().Format(DateFormat)
}

// HorseEvent assigns one or more tasks to a horse at a specific time on
// a specific date. Relationships are by id only: a HorseID or task id
// that no longer resolves is a dangling reference, skipped at render
// time, never an error.
type HorseEvent struct {
	ID        ID     `json:"id"`
	HorseID   ID     `json:"horseId"`
	TasksIDs  []ID   `json:"tasksIds"`
	Time      string `json:"time"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
	Name      string `json:"name,omitempty"`
}

// TimeSlot is a derived view: all events of the selected date sharing
// one exact time string, in their original relative order.
type TimeSlot struct {
	Time   string       `json:"time"`
	Events []HorseEvent `json:"events"`
}
