package table

import (
	"github.com/agentstation/staymap/internal/auth"
	"github.com/agentstation/staymap/internal/cmd/emoji"
)

// Credentials converts credential checks to table format.
func Credentials(statuses []auth.Status) Data {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, []string{
			s.Target,
			stateSymbol(s.State) + " " + string(s.State),
			dash(s.Method),
			dash(s.KeyVariable),
			s.Summary,
		})
	}
	return Data{
		Headers: []string{"Target", "Status", "Method", "Key Variable", "Detail"},
		Rows:    rows,
	}
}

func stateSymbol(s auth.State) string {
	switch s {
	case auth.StateConfigured:
		return emoji.Success
	case auth.StateMissing:
		return emoji.Error
	case auth.StateInvalid:
		return emoji.Warning
	case auth.StateOptional:
		return emoji.Optional
	}
	return emoji.Unknown
}
