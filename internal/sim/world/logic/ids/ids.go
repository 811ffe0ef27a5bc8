package ids

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FixtureID names the stateful fixture at a block position, e.g. "FURNACE@3,40,-2".
func FixtureID(kind string, x, y, z int) string {
	return fmt.Sprintf("%s@%d,%d,%d", kind, x, y, z)
}

func ParseFixtureID(id string) (kind string, x, y, z int, ok bool) {
	parts := strings.SplitN(id, "@", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", 0, 0, 0, false
	}
	kind = parts[0]
	coord := strings.Split(parts[1], ",")
	if len(coord) != 3 {
		return "", 0, 0, 0, false
	}
	x, err1 := strconv.Atoi(coord[0])
	y, err2 := strconv.Atoi(coord[1])
	z, err3 := strconv.Atoi(coord[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", 0, 0, 0, false
	}
	return kind, x, y, z, true
}

// ParticipantID returns a fresh participant id "P" + 12 hex digits of a v4 uuid.
func ParticipantID() string {
	u := uuid.New()
	return "P" + strings.ReplaceAll(u.String(), "-", "")[:12]
}

const resumePrefix = "resume_"

// ResumeToken binds a random token to the world that issued it.
func ResumeToken(worldID string) string {
	return resumePrefix + worldID + "_" + uuid.NewString()
}

// ResumeTokenWorld returns the world id encoded in a resume token.
func ResumeTokenWorld(token string) (string, bool) {
	if !strings.HasPrefix(token, resumePrefix) {
		return "", false
	}
	rest := token[len(resumePrefix):]
	i := strings.LastIndex(rest, "_")
	if i <= 0 {
		return "", false
	}
	if _, err := uuid.Parse(rest[i+1:]); err != nil {
		return "", false
	}
	return rest[:i], true
}
