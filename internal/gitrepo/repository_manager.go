package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/krzysbaranski/shell-scripts/internal/execshell"
)

const (
	gitExecutorMissingMessageConstant           = "git executor not configured"
	gitCloneSubcommandConstant                  = "clone"
	gitMirrorFlagConstant                       = "--mirror"
	gitFetchSubcommandConstant                  = "fetch"
	gitFetchAllFlagConstant                     = "--all"
	gitPruneFlagConstant                        = "--prune"
	gitCheckoutSubcommandConstant               = "checkout"
	gitPullSubcommandConstant                   = "pull"
	gitPullFastForwardFlagConstant              = "--ff-only"
	gitBranchSubcommandConstant                 = "branch"
	gitBranchListFlagConstant                   = "--list"
	gitBranchTrackFlagConstant                  = "--track"
	gitLSRemoteSubcommandConstant               = "ls-remote"
	gitLSRemoteSymrefFlagConstant               = "--symref"
	gitLSRemoteHeadsFlagConstant                = "--heads"
	gitRemoteSubcommandConstant                 = "remote"
	gitRemoteUpdateSubcommandConstant           = "update"
	gitRevParseSubcommandConstant               = "rev-parse"
	gitAbbreviatedReferenceFlagConstant         = "--abbrev-ref"
	gitHeadReferenceConstant                    = "HEAD"
	gitSymbolicReferencePrefixConstant          = "ref:"
	gitBranchReferencePrefixConstant            = "refs/heads/"
	remoteBranchSeparatorConstant               = "/"
	lineFieldSeparatorConstant                  = "\t"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
)

// ErrGitExecutorNotConfigured indicates the repository manager was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// GitExecutor exposes the subset of shell execution used by the repository manager.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager coordinates git invocations for clone and synchronization workflows.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager around the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CloneRepository clones the remote into the destination path, optionally as a bare mirror.
func (manager *RepositoryManager) CloneRepository(executionContext context.Context, remoteURL string, destinationPath string, mirror bool) error {
	arguments := []string{gitCloneSubcommandConstant}
	if mirror {
		arguments = append(arguments, gitMirrorFlagConstant)
	}
	arguments = append(arguments, remoteURL, destinationPath)

	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{Arguments: arguments})
	return executionError
}

// FetchAllWithPrune fetches every remote and prunes refs deleted upstream.
func (manager *RepositoryManager) FetchAllWithPrune(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitFetchSubcommandConstant, gitFetchAllFlagConstant, gitPruneFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// UpdateRemotesWithPrune refreshes every mirrored ref in a bare repository.
func (manager *RepositoryManager) UpdateRemotesWithPrune(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitRemoteUpdateSubcommandConstant, gitPruneFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// CheckoutBranch switches the working copy to the named branch.
func (manager *RepositoryManager) CheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCheckoutSubcommandConstant, branchName},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// PullFastForward pulls the checked-out branch, accepting fast-forward updates only.
func (manager *RepositoryManager) PullFastForward(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitPullSubcommandConstant, gitPullFastForwardFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// CreateTrackingBranch creates a local branch tracking the same-named branch on the remote.
func (manager *RepositoryManager) CreateTrackingBranch(executionContext context.Context, repositoryPath string, branchName string, remoteName string) error {
	remoteReference := remoteName + remoteBranchSeparatorConstant + branchName
	_, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitBranchSubcommandConstant, gitBranchTrackFlagConstant, branchName, remoteReference},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// LocalBranchExists reports whether a local branch with the provided name exists.
func (manager *RepositoryManager) LocalBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error) {
	executionResult, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitBranchSubcommandConstant, gitBranchListFlagConstant, branchName},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0, nil
}

// CurrentBranch resolves the branch the working copy currently has checked out.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitAbbreviatedReferenceFlagConstant, gitHeadReferenceConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// ListRemoteBranches enumerates branch names advertised by the remote.
func (manager *RepositoryManager) ListRemoteBranches(executionContext context.Context, repositoryPath string, remoteName string) ([]string, error) {
	executionResult, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitLSRemoteSubcommandConstant, gitLSRemoteHeadsFlagConstant, remoteName},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return nil, executionError
	}

	branchNames := []string{}
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) == 0 {
			continue
		}
		lineFields := strings.Split(trimmedLine, lineFieldSeparatorConstant)
		referenceName := lineFields[len(lineFields)-1]
		if !strings.HasPrefix(referenceName, gitBranchReferencePrefixConstant) {
			continue
		}
		branchNames = append(branchNames, strings.TrimPrefix(referenceName, gitBranchReferencePrefixConstant))
	}

	return branchNames, nil
}

// RemoteHeadBranch resolves the branch the remote advertises as its HEAD.
func (manager *RepositoryManager) RemoteHeadBranch(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	executionResult, executionError := manager.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitLSRemoteSubcommandConstant, gitLSRemoteSymrefFlagConstant, remoteName, gitHeadReferenceConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}

	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if !strings.HasPrefix(trimmedLine, gitSymbolicReferencePrefixConstant) {
			continue
		}
		lineFields := strings.Fields(trimmedLine)
		if len(lineFields) < 2 {
			continue
		}
		referenceName := lineFields[1]
		if !strings.HasPrefix(referenceName, gitBranchReferencePrefixConstant) {
			continue
		}
		return strings.TrimPrefix(referenceName, gitBranchReferencePrefixConstant), nil
	}

	return "", nil
}

func (manager *RepositoryManager) executeGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	if details.EnvironmentVariables == nil {
		details.EnvironmentVariables = map[string]string{}
	}
	details.EnvironmentVariables[gitTerminalPromptEnvironmentNameConstant] = gitTerminalPromptEnvironmentDisableConstant
	return manager.executor.ExecuteGit(executionContext, details)
}
