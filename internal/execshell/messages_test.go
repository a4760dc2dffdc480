package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testCloneRemoteURLConstant      = "https://github.com/example/project.git"
	testCloneDestinationConstant    = "/backups/project"
	testRepositoryDirectoryConstant = "/backups/project"
	testBranchNameConstant          = "feature/login"
	testRemoteNameConstant          = "origin"
)

func TestCommandMessageFormatterDescribesGitSubcommands(testInstance *testing.T) {
	formatter := CommandMessageFormatter{}

	testCases := []struct {
		name            string
		command         ShellCommand
		expectedStart   string
		expectedSuccess string
	}{
		{
			name: "clone",
			command: ShellCommand{
				Name:    CommandGit,
				Details: CommandDetails{Arguments: []string{"clone", testCloneRemoteURLConstant, testCloneDestinationConstant}},
			},
			expectedStart:   "Cloning https://github.com/example/project.git into /backups/project",
			expectedSuccess: "Cloned https://github.com/example/project.git into /backups/project",
		},
		{
			name: "mirror_clone",
			command: ShellCommand{
				Name:    CommandGit,
				Details: CommandDetails{Arguments: []string{"clone", "--mirror", testCloneRemoteURLConstant, testCloneDestinationConstant + ".git"}},
			},
			expectedStart:   "Mirroring https://github.com/example/project.git into /backups/project.git",
			expectedSuccess: "Mirrored https://github.com/example/project.git into /backups/project.git",
		},
		{
			name: "fetch",
			command: ShellCommand{
				Name:    CommandGit,
				Details: CommandDetails{Arguments: []string{"fetch", "--all", "--prune"}, WorkingDirectory: testRepositoryDirectoryConstant},
			},
			expectedStart:   "Fetching updates in /backups/project",
			expectedSuccess: "Fetched updates in /backups/project",
		},
		{
			name: "checkout",
			command: ShellCommand{
				Name:    CommandGit,
				Details: CommandDetails{Arguments: []string{"checkout", testBranchNameConstant}, WorkingDirectory: testRepositoryDirectoryConstant},
			},
			expectedStart:   "Switching /backups/project to branch feature/login",
			expectedSuccess: "/backups/project now on branch feature/login",
		},
		{
			name: "pull",
			command: ShellCommand{
				Name:    CommandGit,
				Details: CommandDetails{Arguments: []string{"pull", "--ff-only"}, WorkingDirectory: testRepositoryDirectoryConstant},
			},
			expectedStart:   "Pulling latest changes in /backups/project",
			expectedSuccess: "Pulled latest changes in /backups/project",
		},
		{
			name: "tracking_branch",
			command: ShellCommand{
				Name:    CommandGit,
				Details: CommandDetails{Arguments: []string{"branch", "--track", testBranchNameConstant, "origin/" + testBranchNameConstant}, WorkingDirectory: testRepositoryDirectoryConstant},
			},
			expectedStart:   "Creating branch feature/login in /backups/project",
			expectedSuccess: "Created branch feature/login in /backups/project",
		},
		{
			name: "ls_remote_symref",
			command: ShellCommand{
				Name:    CommandGit,
				Details: CommandDetails{Arguments: []string{"ls-remote", "--symref", testRemoteNameConstant, "HEAD"}, WorkingDirectory: testRepositoryDirectoryConstant},
			},
			expectedStart:   "Checking default branch on origin from /backups/project",
			expectedSuccess: "Retrieved default branch information for origin from /backups/project",
		},
		{
			name: "ls_remote_heads",
			command: ShellCommand{
				Name:    CommandGit,
				Details: CommandDetails{Arguments: []string{"ls-remote", "--heads", testRemoteNameConstant}, WorkingDirectory: testRepositoryDirectoryConstant},
			},
			expectedStart:   "Listing branches on origin from /backups/project",
			expectedSuccess: "Listed branches on origin from /backups/project",
		},
		{
			name: "remote_update",
			command: ShellCommand{
				Name:    CommandGit,
				Details: CommandDetails{Arguments: []string{"remote", "update", "--prune"}, WorkingDirectory: testRepositoryDirectoryConstant},
			},
			expectedStart:   "Updating remote refs in /backups/project",
			expectedSuccess: "Updated remote refs in /backups/project",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedStart, formatter.BuildStartedMessage(testCase.command))
			require.Equal(testInstance, testCase.expectedSuccess, formatter.BuildSuccessMessage(testCase.command))
		})
	}
}

func TestCommandMessageFormatterFailureMessages(testInstance *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name:    CommandGit,
		Details: CommandDetails{Arguments: []string{"pull", "--ff-only"}, WorkingDirectory: testRepositoryDirectoryConstant},
	}

	failureMessage := formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 128, StandardError: "fatal: not possible to fast-forward"})
	require.Equal(testInstance, "Failed to pull latest changes in /backups/project (exit code 128: fatal: not possible to fast-forward)", failureMessage)

	executionFailureMessage := formatter.BuildExecutionFailureMessage(command, errors.New("executable not found"))
	require.Equal(testInstance, "Unable to pull latest changes in /backups/project: executable not found", executionFailureMessage)
}

func TestCommandMessageFormatterGenericFallback(testInstance *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name:    CommandGit,
		Details: CommandDetails{Arguments: []string{"gc"}, WorkingDirectory: testRepositoryDirectoryConstant},
	}

	require.Equal(testInstance, "Running git gc (in /backups/project)", formatter.BuildStartedMessage(command))
	require.Equal(testInstance, "Completed git gc (in /backups/project)", formatter.BuildSuccessMessage(command))
}
