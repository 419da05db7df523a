package display

// Terminal color codes
const (
	Reset   = "\033[0m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

// Prompt returns a colored prompt string
func Prompt(text string) string {
	return Yellow + text + Yellow + " > " + Reset
}

// ColorForState colors a game state by whether play can continue
func ColorForState(state string) string {
	switch state {
	case "active":
		return Green + state + Reset
	case "checkmate":
		return Red + state + Reset
	default:
		return Magenta + state + Reset
	}
}
