package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/akotova/stablemate/internal/app"
	"github.com/akotova/stablemate/internal/credential"
	"github.com/akotova/stablemate/internal/model"
)

var (
	timeStyle  = lipgloss.NewStyle().Bold(true)
	doneStyle  = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	horseStyle = lipgloss.NewStyle().Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func main() {
	log.SetFlags(0)

	// Load .env file (optional - won't error if missing)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	if cmd == "set-key" {
		runSetKey(args)
		return
	}

	cfgPath := model.DefaultConfigPath()
	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if _, statErr := os.Stat(cfgPath); os.IsNotExist(statErr) {
		if err := model.SaveConfig(cfgPath, cfg); err != nil {
			log.Printf("writing default config: %v", err)
		}
	}

	a, err := app.New(cfg, resolveAPIKey())
	if err != nil {
		log.Fatalf("starting: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	if err := a.Seed(ctx); err != nil {
		log.Fatalf("seeding default tasks: %v", err)
	}

	// Opportunistic maintenance on every start except explicit cleanup.
	if cmd != "cleanup" {
		if ran, err := a.Sweeper.CheckAndCleanup(); err != nil {
			log.Fatalf("maintenance cleanup: %v", err)
		} else if ran {
			log.Printf("archived old events")
		}
	}

	switch cmd {
	case "horses":
		runHorses(ctx, a)
	case "tasks":
		runTasks(ctx, a)
	case "events":
		runEvents(ctx, a, args)
	case "add-horse":
		runAddHorse(ctx, a, args)
	case "add-event":
		runAddEvent(ctx, a, args)
	case "toggle":
		runToggle(ctx, a, args)
	case "remove-event":
		runRemoveEvent(ctx, a, args)
	case "parse":
		runParse(ctx, a, args)
	case "cleanup":
		runCleanup(a, args)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: stablemate <command> [flags]

commands:
  horses                      list horses
  tasks                       list tasks
  events [-date YYYY-MM-DD]   show the schedule for a date (default today)
  add-horse -name N [-colors a,b]
  add-event -horse ID -tasks ID[,ID...] -time HH:mm [-date YYYY-MM-DD] [-name N]
  toggle -id ID               flip an event's completed flag
  remove-event -id ID
  parse [text]                parse shift notes (reads stdin when no text given)
  cleanup [-force]            run maintenance now
  set-key [key]               store the Anthropic API key in the keyring`)
}

// resolveAPIKey prefers the environment, then the system keyring.
func resolveAPIKey() string {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key
	}
	key, err := credential.Get(credential.KeyAnthropicAPIKey)
	if err != nil {
		return ""
	}
	return key
}

func runSetKey(args []string) {
	var key string
	if len(args) > 0 {
		key = args[0]
	} else {
		fmt.Print("API key: ")
		sc := bufio.NewScanner(os.Stdin)
		if sc.Scan() {
			key = strings.TrimSpace(sc.Text())
		}
	}
	if key == "" {
		log.Fatal("no key given")
	}
	if err := credential.Set(credential.KeyAnthropicAPIKey, key); err != nil {
		log.Fatalf("storing key: %v", err)
	}
	fmt.Println("stored")
}

func runHorses(ctx context.Context, a *app.App) {
	horses, err := a.Horses.List(ctx)
	if err != nil {
		log.Fatalf("listing horses: %v", err)
	}
	if len(horses) == 0 {
		fmt.Println("no horses yet")
		return
	}
	for _, h := range horses {
		fmt.Printf("%s  %s", h.ID, horseStyle.Render(h.Name))
		if len(h.Colors) > 0 {
			fmt.Printf("  (%s)", strings.Join(h.Colors, ", "))
		}
		fmt.Println()
	}
}

func runTasks(ctx context.Context, a *app.App) {
	tasks, err := a.Tasks.List(ctx)
	if err != nil {
		log.Fatalf("listing tasks: %v", err)
	}
	for _, t := range tasks {
		chip := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render("●")
		fmt.Printf("%s %s  %s\n", chip, t.ID, t.Title)
	}
}

func runEvents(ctx context.Context, a *app.App, args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	date := fs.String("date", model.Today(), "date to show")
	fs.Parse(args)

	slots, err := a.Events.GroupedByTime(ctx, *date)
	if err != nil {
		log.Fatalf("listing events: %v", err)
	}
	if len(slots) == 0 {
		fmt.Printf("no events on %s\n", *date)
		return
	}

	for _, slot := range slots {
		fmt.Println(timeStyle.Render(slot.Time))
		for _, e := range slot.Events {
			fmt.Printf("  %s\n", renderEvent(ctx, a, e))
		}
	}
}

// renderEvent formats one schedule line, resolving horse and task
// references against the cached collections. Dangling references are
// rendered as their raw ids rather than treated as errors.
func renderEvent(ctx context.Context, a *app.App, e model.HorseEvent) string {
	check := "[ ]"
	if e.Completed {
		check = "[x]"
	}

	name := string(e.HorseID)
	if h, err := a.Horses.FindByID(ctx, e.HorseID); err == nil && h != nil {
		name = h.Name
	}

	var chips []string
	for _, tid := range e.TasksIDs {
		label := string(tid)
		style := lipgloss.NewStyle()
		if t, err := a.Tasks.FindByID(ctx, tid); err == nil && t != nil {
			label = t.Title
			style = style.Foreground(lipgloss.Color(t.Color))
		}
		chips = append(chips, style.Render(label))
	}

	line := fmt.Sprintf("%s %s — %s  (id %s)", check, horseStyle.Render(name), strings.Join(chips, ", "), e.ID)
	if e.Completed {
		return doneStyle.Render(line)
	}
	return line
}

func runAddHorse(ctx context.Context, a *app.App, args []string) {
	fs := flag.NewFlagSet("add-horse", flag.ExitOnError)
	name := fs.String("name", "", "horse name")
	colors := fs.String("colors", "", "comma-separated marker colors")
	fs.Parse(args)

	horse := model.Horse{Name: *name}
	if *colors != "" {
		horse.Colors = strings.Split(*colors, ",")
	}
	if err := a.Horses.Add(ctx, horse); err != nil {
		log.Fatal(errStyle.Render(fmt.Sprintf("adding horse: %v", err)))
	}
	fmt.Println("added")
}

func runAddEvent(ctx context.Context, a *app.App, args []string) {
	fs := flag.NewFlagSet("add-event", flag.ExitOnError)
	horse := fs.String("horse", "", "horse id")
	tasks := fs.String("tasks", "", "comma-separated task ids")
	timeArg := fs.String("time", "", "time, HH:mm")
	date := fs.String("date", model.Today(), "date")
	name := fs.String("name", "", "optional label")
	fs.Parse(args)

	event := model.HorseEvent{
		HorseID: model.ID(*horse),
		Time:    *timeArg,
		Date:    *date,
		Name:    *name,
	}
	for _, t := range strings.Split(*tasks, ",") {
		if t = strings.TrimSpace(t); t != "" {
			event.TasksIDs = append(event.TasksIDs, model.ID(t))
		}
	}

	if err := a.Events.Add(ctx, event); err != nil {
		log.Fatal(errStyle.Render(fmt.Sprintf("adding event: %v", err)))
	}
	fmt.Println("added")
}

func runToggle(ctx context.Context, a *app.App, args []string) {
	fs := flag.NewFlagSet("toggle", flag.ExitOnError)
	id := fs.String("id", "", "event id")
	fs.Parse(args)

	if err := a.Events.ToggleCompleted(ctx, model.ID(*id)); err != nil {
		log.Fatal(errStyle.Render(fmt.Sprintf("toggling event: %v", err)))
	}
	fmt.Println("toggled")
}

func runRemoveEvent(ctx context.Context, a *app.App, args []string) {
	fs := flag.NewFlagSet("remove-event", flag.ExitOnError)
	id := fs.String("id", "", "event id")
	fs.Parse(args)

	if err := a.Events.Remove(ctx, model.ID(*id)); err != nil {
		log.Fatal(errStyle.Render(fmt.Sprintf("removing event: %v", err)))
	}
	fmt.Println("removed")
}

func runParse(ctx context.Context, a *app.App, args []string) {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil || len(strings.TrimSpace(string(data))) == 0 {
			log.Fatal("no schedule text given")
		}
		text = string(data)
	}

	result := a.Parser.Parse(ctx, text)
	if !result.Success {
		log.Fatal(errStyle.Render(fmt.Sprintf("parse failed: %v", result.Err)))
	}
	fmt.Printf("added %d events, %d horses\n", result.AddedEvents, result.AddedHorses)
}

func runCleanup(a *app.App, args []string) {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	force := fs.Bool("force", false, "bypass the weekly gate")
	fs.Parse(args)

	if *force {
		if err := a.Sweeper.ForceCleanup(); err != nil {
			log.Fatalf("cleanup: %v", err)
		}
		fmt.Println("cleanup done")
		return
	}

	ran, err := a.Sweeper.CheckAndCleanup()
	if err != nil {
		log.Fatalf("cleanup: %v", err)
	}
	if ran {
		fmt.Println("cleanup done")
	} else {
		fmt.Println("cleanup not due")
	}
}
