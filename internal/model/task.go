package model

// Task is a reusable labeled category of stable work ("Собрать",
// "Разобрать", "Выгулить", or user-defined). Color is a hex value used
// for rendering.
type Task struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"`
}

// Default task ids seeded at first run.
const (
	TaskCollect     ID = "default-collect"
	TaskDisassemble ID = "default-disassemble"
	TaskWalk        ID = "default-walk"
)
