// Package backup wires the github-backup command into the CLI.
package backup
