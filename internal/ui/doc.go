// Package ui renders command lifecycle events for human-readable console
// output. ConsoleCommandEventLogger implements execshell.CommandEventObserver
// and is attached when the console log format is active.
package ui
