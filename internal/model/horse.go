package model

// Horse is a tracked animal. Colors holds the marker colors used when
// rendering the horse's schedule entries.
type Horse struct {
	ID     ID       `json:"id"`
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
}
