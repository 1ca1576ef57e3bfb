package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akotova/stablemate/internal/model"
)

// buildPrompt constructs the single user-role instruction sent to the
// model: the current horse/task snapshots, the existing events for
// today, the raw shift notes, the domain shorthand rules, and the exact
// reply shape. Today's date is computed by the caller and injected so
// the model never has to infer it.
func buildPrompt(
	text string,
	horses []model.Horse,
	tasks []model.Task,
	todayEvents []model.HorseEvent,
	today string,
) string {
	horsesJSON, _ := json.MarshalIndent(horses, "", "  ")
	tasksJSON, _ := json.MarshalIndent(tasks, "", "  ")
	eventsJSON, _ := json.MarshalIndent(todayEvents, "", "  ")

	var sb strings.Builder

	sb.WriteString("Проанализируй текст расписания коневода и преобразуй его ")
	sb.WriteString("в структурированный JSON формат.\n\n")

	sb.WriteString("Вот текущий список лошадей:\n")
	sb.Write(horsesJSON)
	sb.WriteString("\n\nВот текущий список задач:\n")
	sb.Write(tasksJSON)
	sb.WriteString("\n\nВот существующие события на сегодня:\n")
	sb.Write(eventsJSON)

	sb.WriteString("\n\nВот текст расписания:\n\"\"\"\n")
	sb.WriteString(text)
	sb.WriteString("\n\"\"\"\n\n")

	sb.WriteString("Правила парсинга:\n")
	sb.WriteString("1. Если упоминается лошадь, которой нет в списке, создай новую запись о лошади.\n")
	sb.WriteString("2. Для каждого события определи время (в формате \"HH:mm\").\n")
	sb.WriteString("3. Определи тип действия: \"Собрать\" (id: default-collect), ")
	sb.WriteString("\"Разобрать\" (id: default-disassemble) или \"Выгулить\" (id: default-walk).\n")
	sb.WriteString("4. Если указано \"с+р\", это означает \"Собрать и Разобрать\" - создай два отдельных события.\n")
	sb.WriteString("5. Если указано \"11/12\", это значит в 11:00 собрать, в 12:00 разобрать - ")
	sb.WriteString("создай два отдельных события.\n")
	sb.WriteString("6. Если в тексте упоминается \"помощь\" или \"помочь\" для лошади, ")
	sb.WriteString("но не указана конкретная задача, используй задачу \"Собрать\".\n")
	sb.WriteString("7. Если в тексте есть формулировка вида \"11 Николь\", это обычно означает ")
	sb.WriteString("\"Собрать Николь в 11:00\".\n")
	sb.WriteString(fmt.Sprintf("8. Установи дату события на сегодня (%s).\n", today))
	sb.WriteString("9. Установи флаг completed как false для всех новых событий.\n\n")

	sb.WriteString("Верни только JSON ответ в следующем формате:\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"horseEvents\": [\n")
	sb.WriteString("    {\n")
	sb.WriteString("      \"id\": \"event-[уникальный ID, например timestamp]\",\n")
	sb.WriteString("      \"horseId\": \"[ID лошади]\",\n")
	sb.WriteString("      \"tasksIds\": [\"[ID задачи]\"],\n")
	sb.WriteString("      \"time\": \"[время в формате HH:mm]\",\n")
	sb.WriteString(fmt.Sprintf("      \"date\": %q,\n", today))
	sb.WriteString("      \"completed\": false\n")
	sb.WriteString("    }\n")
	sb.WriteString("  ],\n")
	sb.WriteString("  \"newHorses\": [\n")
	sb.WriteString("    {\n")
	sb.WriteString("      \"id\": \"horse-[уникальный ID]\",\n")
	sb.WriteString("      \"name\": \"[имя лошади]\",\n")
	sb.WriteString("      \"colors\": [\"brown\"]\n")
	sb.WriteString("    }\n")
	sb.WriteString("  ]\n")
	sb.WriteString("}\n\n")

	sb.WriteString("Верни только JSON без дополнительного текста или пояснений.")

	return sb.String()
}
