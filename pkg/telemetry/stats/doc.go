// Package stats logs periodic snapshots of the connection counters on a
// cron schedule.
package stats
