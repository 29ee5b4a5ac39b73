package wiki

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to control persistence timestamps.
var timeNow = time.Now

// nowUTC formats the injected clock the way SQLite's datetime('now')
// does, so column values stay comparable regardless of origin.
func nowUTC() string {
	return timeNow().UTC().Format("2006-01-02 15:04:05")
}
