package alerts

import (
	"fmt"

	"github.com/agentstation/staymap/internal/cmd/emoji"
)

// Level is an alert's severity. Lower values are more severe.
type Level int

// Alert levels.
const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
	LevelSuccess
)

const resetColor = "\033[0m"

// levelStyle is how one level renders.
type levelStyle struct {
	name  string
	icon  string
	color string
}

var levelStyles = [...]levelStyle{
	LevelError:   {"error", emoji.Error, "\033[31m"},
	LevelWarning: {"warning", emoji.Warning, "\033[33m"},
	LevelInfo:    {"info", emoji.Info, "\033[36m"},
	LevelSuccess: {"success", emoji.Success, "\033[32m"},
}

func (l Level) style() (levelStyle, bool) {
	if l < 0 || int(l) >= len(levelStyles) {
		return levelStyle{}, false
	}
	return levelStyles[l], true
}

func (l Level) String() string {
	if s, ok := l.style(); ok {
		return s.name
	}
	return fmt.Sprintf("unknown(%d)", int(l))
}

// Icon is the symbol printed before the message.
func (l Level) Icon() string {
	if s, ok := l.style(); ok {
		return s.icon
	}
	return emoji.Unknown
}

// Color is the ANSI sequence that starts the level's color.
func (l Level) Color() string {
	if s, ok := l.style(); ok {
		return s.color
	}
	return resetColor
}
