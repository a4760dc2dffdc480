package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/krzysbaranski/shell-scripts/internal/execshell"
	"github.com/krzysbaranski/shell-scripts/internal/ui"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	return zap.New(observerCore), observedLogs
}

func TestConsoleCommandEventLoggerLevels(testInstance *testing.T) {
	command := execshell.ShellCommand{
		Name:    execshell.CommandGit,
		Details: execshell.CommandDetails{Arguments: []string{"fetch", "--all", "--prune"}, WorkingDirectory: "/backups/project"},
	}

	testInstance.Run("started_logs_info", func(testInstance *testing.T) {
		logger, observedLogs := newObservedLogger()
		eventLogger := ui.NewConsoleCommandEventLogger(logger)
		eventLogger.CommandStarted(command)
		entries := observedLogs.All()
		require.Len(testInstance, entries, 1)
		require.Equal(testInstance, zap.InfoLevel.String(), entries[0].Level.String())
		require.Equal(testInstance, "Fetching updates in /backups/project", entries[0].Message)
	})

	testInstance.Run("completed_success_logs_info", func(testInstance *testing.T) {
		logger, observedLogs := newObservedLogger()
		eventLogger := ui.NewConsoleCommandEventLogger(logger)
		eventLogger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 0})
		entries := observedLogs.All()
		require.Len(testInstance, entries, 1)
		require.Equal(testInstance, zap.InfoLevel.String(), entries[0].Level.String())
		require.Equal(testInstance, "Fetched updates in /backups/project", entries[0].Message)
	})

	testInstance.Run("completed_failure_logs_warn", func(testInstance *testing.T) {
		logger, observedLogs := newObservedLogger()
		eventLogger := ui.NewConsoleCommandEventLogger(logger)
		eventLogger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 1, StandardError: "network unreachable"})
		entries := observedLogs.All()
		require.Len(testInstance, entries, 1)
		require.Equal(testInstance, zap.WarnLevel.String(), entries[0].Level.String())
		require.Contains(testInstance, entries[0].Message, "Failed to fetch updates in /backups/project")
	})

	testInstance.Run("execution_failure_logs_error", func(testInstance *testing.T) {
		logger, observedLogs := newObservedLogger()
		eventLogger := ui.NewConsoleCommandEventLogger(logger)
		eventLogger.CommandExecutionFailed(command, errors.New("git not installed"))
		entries := observedLogs.All()
		require.Len(testInstance, entries, 1)
		require.Equal(testInstance, zap.ErrorLevel.String(), entries[0].Level.String())
		require.Contains(testInstance, entries[0].Message, "git not installed")
	})
}
