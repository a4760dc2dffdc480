package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/krzysbaranski/shell-scripts/internal/githubapi"
	"github.com/krzysbaranski/shell-scripts/internal/gitrepo"
)

const (
	defaultRemoteNameConstant               = "origin"
	gitMetadataDirectoryNameConstant        = ".git"
	bareHeadFileNameConstant                = "HEAD"
	mirrorDirectorySuffixConstant           = ".git"
	fallbackPrimaryBranchNameConstant       = "main"
	fallbackSecondaryBranchNameConstant     = "master"
	backupDirectoryPermissionsConstant      = fs.FileMode(0o755)
	serviceLoggerMissingMessageConstant     = "logger not configured"
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	backupDirectoryMissingMessageConstant   = "backup directory must be provided"
	backupDirectoryResolveTemplateConstant  = "resolve backup directory %s: %w"
	backupDirectoryCreateTemplateConstant   = "create backup directory %s: %w"
	cloneProducedNothingTemplateConstant    = "clone of %s produced no directory at %s"
	invalidWorkingCopyTemplateConstant      = "directory %s exists but is not a git working copy"
	invalidMirrorTemplateConstant           = "directory %s exists but is not a bare mirror"
	repositoryNameMissingMessageConstant    = "repository entry without a name"
	synchronizingRepositoryMessageConstant  = "Synchronizing repository"
	repositorySyncFailedMessageConstant     = "Repository synchronization failed"
	branchUpdateFailedMessageConstant       = "Branch update failed"
	defaultBranchCheckoutFailedMessageConst = "Default branch checkout failed"
	synchronizationSummaryMessageConstant   = "Synchronization complete"
	repositoryLogFieldNameConstant          = "repository"
	branchLogFieldNameConstant              = "branch"
	modeLogFieldNameConstant                = "mode"
	clonedCountLogFieldNameConstant         = "cloned"
	updatedCountLogFieldNameConstant        = "updated"
	failedCountLogFieldNameConstant         = "failed"
	failedRepositoriesLogFieldNameConstant  = "failed_repositories"
)

// Service construction errors.
var (
	ErrLoggerNotConfigured            = errors.New(serviceLoggerMissingMessageConstant)
	ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)
	ErrBackupDirectoryRequired        = errors.New(backupDirectoryMissingMessageConstant)
)

// RepositoryManager exposes the git operations used during synchronization.
type RepositoryManager interface {
	CloneRepository(executionContext context.Context, remoteURL string, destinationPath string, mirror bool) error
	FetchAllWithPrune(executionContext context.Context, repositoryPath string) error
	UpdateRemotesWithPrune(executionContext context.Context, repositoryPath string) error
	CheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error
	PullFastForward(executionContext context.Context, repositoryPath string) error
	CreateTrackingBranch(executionContext context.Context, repositoryPath string, branchName string, remoteName string) error
	LocalBranchExists(executionContext context.Context, repositoryPath string, branchName string) (bool, error)
	CurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	ListRemoteBranches(executionContext context.Context, repositoryPath string, remoteName string) ([]string, error)
	RemoteHeadBranch(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
}

// Dependencies carries the collaborators required by the service.
type Dependencies struct {
	Logger            *zap.Logger
	RepositoryManager RepositoryManager
	FileSystem        FileSystem
}

// Options carries the per-run configuration of the service.
type Options struct {
	BackupDirectory string
	Mode            SyncMode
	RemoteName      string
}

// RunSummary aggregates the results of one synchronization run.
type RunSummary struct {
	Cloned             int
	Updated            int
	Failed             int
	FailedRepositories []string
}

// Service synchronizes a set of repositories into the backup directory.
type Service struct {
	logger            *zap.Logger
	repositoryManager RepositoryManager
	fileSystem        FileSystem
	backupDirectory   string
	mode              SyncMode
	remoteName        string
}

// NewService validates dependencies and options and constructs a Service.
func NewService(dependencies Dependencies, options Options) (*Service, error) {
	if dependencies.Logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = OSFileSystem{}
	}

	if len(strings.TrimSpace(options.BackupDirectory)) == 0 {
		return nil, ErrBackupDirectoryRequired
	}

	mode, modeError := ParseSyncMode(string(options.Mode))
	if modeError != nil {
		return nil, modeError
	}

	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		remoteName = defaultRemoteNameConstant
	}

	return &Service{
		logger:            dependencies.Logger,
		repositoryManager: dependencies.RepositoryManager,
		fileSystem:        fileSystem,
		backupDirectory:   options.BackupDirectory,
		mode:              mode,
		remoteName:        remoteName,
	}, nil
}

// Sync synchronizes every repository reference into the backup directory.
// Individual repository failures are recorded in the summary and do not stop
// the run.
func (service *Service) Sync(executionContext context.Context, repositories []githubapi.RepositoryRef) (RunSummary, error) {
	resolvedDirectory, resolveError := service.fileSystem.Abs(service.backupDirectory)
	if resolveError != nil {
		return RunSummary{}, fmt.Errorf(backupDirectoryResolveTemplateConstant, service.backupDirectory, resolveError)
	}
	if directoryError := service.fileSystem.MkdirAll(resolvedDirectory, backupDirectoryPermissionsConstant); directoryError != nil {
		return RunSummary{}, fmt.Errorf(backupDirectoryCreateTemplateConstant, resolvedDirectory, directoryError)
	}

	summary := RunSummary{}
	for _, repository := range repositories {
		service.logger.Info(synchronizingRepositoryMessageConstant,
			zap.String(repositoryLogFieldNameConstant, repository.Name),
			zap.String(modeLogFieldNameConstant, service.mode.String()),
		)

		cloned, syncError := service.syncRepository(executionContext, resolvedDirectory, repository)
		if syncError != nil {
			summary.Failed++
			summary.FailedRepositories = append(summary.FailedRepositories, repository.Name)
			service.logger.Error(repositorySyncFailedMessageConstant,
				zap.String(repositoryLogFieldNameConstant, repository.Name),
				zap.Error(syncError),
			)
			continue
		}
		if cloned {
			summary.Cloned++
		} else {
			summary.Updated++
		}
	}

	service.logger.Info(synchronizationSummaryMessageConstant,
		zap.Int(clonedCountLogFieldNameConstant, summary.Cloned),
		zap.Int(updatedCountLogFieldNameConstant, summary.Updated),
		zap.Int(failedCountLogFieldNameConstant, summary.Failed),
		zap.Strings(failedRepositoriesLogFieldNameConstant, summary.FailedRepositories),
	)

	return summary, nil
}

func (service *Service) syncRepository(executionContext context.Context, backupDirectory string, repository githubapi.RepositoryRef) (bool, error) {
	if len(strings.TrimSpace(repository.Name)) == 0 {
		return false, errors.New(repositoryNameMissingMessageConstant)
	}
	if _, parseError := gitrepo.ParseRemoteURL(repository.CloneURL); parseError != nil {
		return false, parseError
	}

	if service.mode == SyncModeMirror {
		return service.syncMirror(executionContext, backupDirectory, repository)
	}
	return service.syncWorkingCopy(executionContext, backupDirectory, repository)
}

func (service *Service) syncWorkingCopy(executionContext context.Context, backupDirectory string, repository githubapi.RepositoryRef) (bool, error) {
	destinationPath := filepath.Join(backupDirectory, repository.Name)

	_, statError := service.fileSystem.Stat(destinationPath)
	switch {
	case errors.Is(statError, fs.ErrNotExist):
		if cloneError := service.cloneRepository(executionContext, repository, destinationPath, false); cloneError != nil {
			return false, cloneError
		}
		service.trackRemoteBranches(executionContext, destinationPath, repository.Name)
		service.checkoutDefaultBranch(executionContext, destinationPath, repository.Name)
		return true, nil
	case statError != nil:
		return false, statError
	}

	if _, metadataError := service.fileSystem.Stat(filepath.Join(destinationPath, gitMetadataDirectoryNameConstant)); metadataError != nil {
		return false, fmt.Errorf(invalidWorkingCopyTemplateConstant, destinationPath)
	}

	if fetchError := service.repositoryManager.FetchAllWithPrune(executionContext, destinationPath); fetchError != nil {
		return false, fetchError
	}

	service.updateLocalBranches(executionContext, destinationPath, repository.Name)
	service.checkoutDefaultBranch(executionContext, destinationPath, repository.Name)
	return false, nil
}

func (service *Service) syncMirror(executionContext context.Context, backupDirectory string, repository githubapi.RepositoryRef) (bool, error) {
	destinationPath := filepath.Join(backupDirectory, repository.Name+mirrorDirectorySuffixConstant)

	_, statError := service.fileSystem.Stat(destinationPath)
	switch {
	case errors.Is(statError, fs.ErrNotExist):
		if cloneError := service.cloneRepository(executionContext, repository, destinationPath, true); cloneError != nil {
			return false, cloneError
		}
		return true, nil
	case statError != nil:
		return false, statError
	}

	if _, headError := service.fileSystem.Stat(filepath.Join(destinationPath, bareHeadFileNameConstant)); headError != nil {
		return false, fmt.Errorf(invalidMirrorTemplateConstant, destinationPath)
	}

	if updateError := service.repositoryManager.UpdateRemotesWithPrune(executionContext, destinationPath); updateError != nil {
		return false, updateError
	}
	return false, nil
}

func (service *Service) cloneRepository(executionContext context.Context, repository githubapi.RepositoryRef, destinationPath string, mirror bool) error {
	if cloneError := service.repositoryManager.CloneRepository(executionContext, repository.CloneURL, destinationPath, mirror); cloneError != nil {
		return cloneError
	}
	if _, statError := service.fileSystem.Stat(destinationPath); statError != nil {
		return fmt.Errorf(cloneProducedNothingTemplateConstant, repository.Name, destinationPath)
	}
	return nil
}

// trackRemoteBranches creates local tracking branches for every remote branch
// missing locally. Failures affect the branch only, never the repository.
func (service *Service) trackRemoteBranches(executionContext context.Context, repositoryPath string, repositoryName string) {
	remoteBranches, listError := service.repositoryManager.ListRemoteBranches(executionContext, repositoryPath, service.remoteName)
	if listError != nil {
		service.logger.Warn(branchUpdateFailedMessageConstant,
			zap.String(repositoryLogFieldNameConstant, repositoryName),
			zap.Error(listError),
		)
		return
	}

	for _, branchName := range remoteBranches {
		branchExists, existenceError := service.repositoryManager.LocalBranchExists(executionContext, repositoryPath, branchName)
		if existenceError != nil {
			service.logBranchFailure(repositoryName, branchName, existenceError)
			continue
		}
		if branchExists {
			continue
		}
		if trackError := service.repositoryManager.CreateTrackingBranch(executionContext, repositoryPath, branchName, service.remoteName); trackError != nil {
			service.logBranchFailure(repositoryName, branchName, trackError)
		}
	}
}

// updateLocalBranches pulls every remote branch into its local counterpart,
// creating tracking branches for branches new on the remote.
func (service *Service) updateLocalBranches(executionContext context.Context, repositoryPath string, repositoryName string) {
	remoteBranches, listError := service.repositoryManager.ListRemoteBranches(executionContext, repositoryPath, service.remoteName)
	if listError != nil {
		service.logger.Warn(branchUpdateFailedMessageConstant,
			zap.String(repositoryLogFieldNameConstant, repositoryName),
			zap.Error(listError),
		)
		return
	}

	for _, branchName := range remoteBranches {
		branchExists, existenceError := service.repositoryManager.LocalBranchExists(executionContext, repositoryPath, branchName)
		if existenceError != nil {
			service.logBranchFailure(repositoryName, branchName, existenceError)
			continue
		}

		if !branchExists {
			if trackError := service.repositoryManager.CreateTrackingBranch(executionContext, repositoryPath, branchName, service.remoteName); trackError != nil {
				service.logBranchFailure(repositoryName, branchName, trackError)
			}
			continue
		}

		if checkoutError := service.repositoryManager.CheckoutBranch(executionContext, repositoryPath, branchName); checkoutError != nil {
			service.logBranchFailure(repositoryName, branchName, checkoutError)
			continue
		}
		if pullError := service.repositoryManager.PullFastForward(executionContext, repositoryPath); pullError != nil {
			service.logBranchFailure(repositoryName, branchName, pullError)
		}
	}
}

// checkoutDefaultBranch leaves the working copy on the remote HEAD branch,
// falling back to main, then master, then the currently checked-out branch.
func (service *Service) checkoutDefaultBranch(executionContext context.Context, repositoryPath string, repositoryName string) {
	defaultBranch := service.resolveDefaultBranch(executionContext, repositoryPath)
	if len(defaultBranch) == 0 {
		return
	}

	currentBranch, currentError := service.repositoryManager.CurrentBranch(executionContext, repositoryPath)
	if currentError == nil && currentBranch == defaultBranch {
		return
	}

	if checkoutError := service.repositoryManager.CheckoutBranch(executionContext, repositoryPath, defaultBranch); checkoutError != nil {
		service.logger.Warn(defaultBranchCheckoutFailedMessageConst,
			zap.String(repositoryLogFieldNameConstant, repositoryName),
			zap.String(branchLogFieldNameConstant, defaultBranch),
			zap.Error(checkoutError),
		)
	}
}

func (service *Service) resolveDefaultBranch(executionContext context.Context, repositoryPath string) string {
	remoteHeadBranch, remoteHeadError := service.repositoryManager.RemoteHeadBranch(executionContext, repositoryPath, service.remoteName)
	if remoteHeadError == nil && len(remoteHeadBranch) > 0 {
		return remoteHeadBranch
	}

	for _, fallbackBranch := range []string{fallbackPrimaryBranchNameConstant, fallbackSecondaryBranchNameConstant} {
		branchExists, existenceError := service.repositoryManager.LocalBranchExists(executionContext, repositoryPath, fallbackBranch)
		if existenceError == nil && branchExists {
			return fallbackBranch
		}
	}

	return ""
}

func (service *Service) logBranchFailure(repositoryName string, branchName string, failure error) {
	service.logger.Warn(branchUpdateFailedMessageConstant,
		zap.String(repositoryLogFieldNameConstant, repositoryName),
		zap.String(branchLogFieldNameConstant, branchName),
		zap.Error(failure),
	)
}
