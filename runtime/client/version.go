package client

import (
	"context"
	"regexp"
	"strconv"

	"github.com/cjauvin/little-pger/internal/debug"
)

var serverVersionPattern = regexp.MustCompile(`(\d+)\.(\d+)`)

// detectCapabilities reads the server version and switches the upsert
// strategy to the two-statement emulation when the native atomic form is
// unavailable (PostgreSQL before 9.5).
func (c *Client) detectCapabilities(ctx context.Context) error {
	if c.provider != "postgres" && c.provider != "postgresql" {
		return nil
	}

	var version string
	if err := c.db.QueryRowContext(ctx, "SHOW server_version").Scan(&version); err != nil {
		// Not fatal; the native strategy stays on.
		debug.Debug("server version detection failed", "error", err)
		return nil
	}

	major, minor, ok := parseServerVersion(version)
	if !ok {
		debug.Debug("unparseable server version", "version", version)
		return nil
	}
	if major < 9 || (major == 9 && minor < 5) {
		debug.Info("native upsert unavailable, using emulation",
			"version", version)
		c.exec.SetEmulatedUpsert(true)
	}
	return nil
}

func parseServerVersion(version string) (major, minor int, ok bool) {
	m := serverVersionPattern.FindStringSubmatch(version)
	if m == nil {
		// Versions from 10 on may drop the minor part.
		single := regexp.MustCompile(`\d+`).FindString(version)
		if single == "" {
			return 0, 0, false
		}
		major, _ = strconv.Atoi(single)
		return major, 0, true
	}
	major, _ = strconv.Atoi(m[1])
	minor, _ = strconv.Atoi(m[2])
	return major, minor, true
}
