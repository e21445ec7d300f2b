package team

import (
	"fmt"
	"strings"
)

// Team is a club as served by the football API.
type Team struct {
	ID        int64
	Tricode   string
	Name      string
	ShortName string
}

// BadgeURL returns the badge image location for a team inside the asset bucket.
func BadgeURL(bucketURL string, teamID int64) string {
	bucketURL = strings.TrimRight(strings.TrimSpace(bucketURL), "/")
	return fmt.Sprintf("%s/badges/%d.png", bucketURL, teamID)
}

// DisplayName prefers the short name used across dashboard tables.
func (t Team) DisplayName() string {
	if t.ShortName != "" {
		return t.ShortName
	}
	return t.Name
}
