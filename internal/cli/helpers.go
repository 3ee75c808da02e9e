package cli

import (
	"bufio"
	"strconv"
	"strings"

	"coursehub/internal/api"
)

// parseID parses a numeric identifier argument.
func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, api.Invalid(what + " must be a positive number")
	}
	return id, nil
}

// readLine reads one line from stdin, for secrets not passed as flags.
func (rt *runtime) readLine() string {
	if rt.streams.In == nil {
		return ""
	}
	line, _ := bufio.NewReader(rt.streams.In).ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}
