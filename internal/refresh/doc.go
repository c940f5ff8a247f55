// Package refresh sends refresh commands to the backend and runs the local
// selection re-read timer.
//
// The backend owns the radio and its own battery polling loop. This package
// only asks it for an immediate full scan or a new polling cadence. The local
// timer (robfig/cron) re-reads the persisted selection and is cosmetic.
package refresh
