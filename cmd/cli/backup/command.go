package backup

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	backupservice "github.com/krzysbaranski/shell-scripts/internal/backup"
	"github.com/krzysbaranski/shell-scripts/internal/execshell"
	"github.com/krzysbaranski/shell-scripts/internal/githubapi"
	"github.com/krzysbaranski/shell-scripts/internal/gitrepo"
	"github.com/krzysbaranski/shell-scripts/internal/ui"
	"github.com/krzysbaranski/shell-scripts/internal/utils"
)

const (
	backupCommandUseConstant              = "github-backup [backup_directory] [github_username]"
	backupCommandShortDescription         = "Back up a GitHub account's repositories"
	backupCommandLongDescription          = "github-backup enumerates every repository of a GitHub account and clones or updates each one inside the backup directory."
	tooManyArgumentsErrorMessageConstant  = "github-backup accepts at most two positional arguments"
	backupDirectoryMissingMessageConstant = "backup directory must be provided via argument or configuration"
	ownerMissingMessageConstant           = "github username must be provided via argument or configuration"
	commandExecutionErrorTemplateConstant = "github-backup failed: %w"
	repositoryListingErrorTemplate        = "repository enumeration failed: %w"
	syncModeParseErrorTemplateConstant    = "invalid sync mode: %w"
	mirrorFlagNameConstant                = "mirror"
	mirrorFlagDescriptionConstant         = "Create bare mirror clones instead of working copies"
	remoteNameFlagNameConstant            = "remote-name"
	remoteNameFlagDescriptionConstant     = "Remote whose branches are tracked and pulled"
	tokenSourceFlagNameConstant           = "token-source"
	tokenSourceFlagDescriptionConstant    = "Token source (env:NAME or file:/path)"
	tokenResolutionWarningMessageConstant = "Proceeding without API credentials"
	tokenSourceLogFieldNameConstant       = "token_source"
	repositoriesFoundMessageConstant      = "Repository enumeration complete"
	backupStartingMessageConstant         = "Starting repository backup"
	ownerLogFieldNameConstant             = "owner"
	repositoryCountLogFieldNameConstant   = "repositories"
	backupDirectoryLogFieldNameConstant   = "backup_directory"
	configurationFileLogFieldNameConstant = "config_file"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current backup configuration.
type ConfigurationProvider func() Configuration

// HumanReadableLoggingProvider reports whether console-formatted logging is active.
type HumanReadableLoggingProvider func() bool

// CommandBuilder assembles the github-backup command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	HTTPClient                   githubapi.HTTPClient
	RepositoryManager            backupservice.RepositoryManager
	FileSystem                   backupservice.FileSystem
	EnvironmentLookup            backupservice.EnvironmentLookup
	FileReader                   backupservice.FileReader
}

// Build constructs the github-backup command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	backupCommand := &cobra.Command{
		Use:   backupCommandUseConstant,
		Short: backupCommandShortDescription,
		Long:  backupCommandLongDescription,
		RunE:  builder.runBackup,
	}

	backupCommand.Flags().Bool(mirrorFlagNameConstant, false, mirrorFlagDescriptionConstant)
	backupCommand.Flags().String(remoteNameFlagNameConstant, "", remoteNameFlagDescriptionConstant)
	backupCommand.Flags().String(tokenSourceFlagNameConstant, "", tokenSourceFlagDescriptionConstant)

	return backupCommand, nil
}

func (builder *CommandBuilder) runBackup(command *cobra.Command, arguments []string) error {
	if len(arguments) > 2 {
		return errors.New(tooManyArgumentsErrorMessageConstant)
	}

	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	backupDirectory := configuration.Directory
	if len(arguments) > 0 {
		backupDirectory = strings.TrimSpace(arguments[0])
	}
	if len(strings.TrimSpace(backupDirectory)) == 0 {
		return errors.New(backupDirectoryMissingMessageConstant)
	}

	owner := configuration.Owner
	if len(arguments) > 1 {
		owner = strings.TrimSpace(arguments[1])
	}
	if len(strings.TrimSpace(owner)) == 0 {
		return errors.New(ownerMissingMessageConstant)
	}

	configurationFilePath, _ := utils.NewCommandContextAccessor().ConfigurationFilePath(command.Context())
	logger.Info(backupStartingMessageConstant,
		zap.String(backupDirectoryLogFieldNameConstant, backupDirectory),
		zap.String(ownerLogFieldNameConstant, owner),
		zap.String(configurationFileLogFieldNameConstant, configurationFilePath),
	)

	syncMode, modeError := builder.resolveSyncMode(command, configuration)
	if modeError != nil {
		return modeError
	}

	remoteName := configuration.RemoteName
	if command.Flags().Changed(remoteNameFlagNameConstant) {
		remoteNameFlagValue, remoteNameFlagError := command.Flags().GetString(remoteNameFlagNameConstant)
		if remoteNameFlagError != nil {
			return remoteNameFlagError
		}
		remoteName = remoteNameFlagValue
	}

	authorizationToken := builder.resolveAuthorizationToken(command, configuration, logger)

	repositoryService, repositoryServiceError := githubapi.NewRepositoryService(
		logger,
		builder.resolveHTTPClient(),
		githubapi.ServiceConfiguration{
			BaseURL:            configuration.APIBaseURL,
			PageSize:           configuration.PageSize,
			AuthorizationToken: authorizationToken,
		},
	)
	if repositoryServiceError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, repositoryServiceError)
	}

	repositories, listError := repositoryService.ListRepositories(command.Context(), owner)
	if listError != nil {
		return fmt.Errorf(repositoryListingErrorTemplate, listError)
	}

	logger.Info(repositoriesFoundMessageConstant,
		zap.String(ownerLogFieldNameConstant, owner),
		zap.Int(repositoryCountLogFieldNameConstant, len(repositories)),
	)

	repositoryManager, managerError := builder.resolveRepositoryManager(logger)
	if managerError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, managerError)
	}

	syncService, serviceError := backupservice.NewService(
		backupservice.Dependencies{
			Logger:            logger,
			RepositoryManager: repositoryManager,
			FileSystem:        builder.FileSystem,
		},
		backupservice.Options{
			BackupDirectory: backupDirectory,
			Mode:            syncMode,
			RemoteName:      remoteName,
		},
	)
	if serviceError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, serviceError)
	}

	if _, syncError := syncService.Sync(command.Context(), repositories); syncError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, syncError)
	}

	return nil
}

func (builder *CommandBuilder) resolveSyncMode(command *cobra.Command, configuration Configuration) (backupservice.SyncMode, error) {
	if command.Flags().Changed(mirrorFlagNameConstant) {
		mirrorFlagValue, mirrorFlagError := command.Flags().GetBool(mirrorFlagNameConstant)
		if mirrorFlagError != nil {
			return backupservice.SyncMode(""), mirrorFlagError
		}
		if mirrorFlagValue {
			return backupservice.SyncModeMirror, nil
		}
		return backupservice.SyncModeRegular, nil
	}

	parsedMode, parseError := backupservice.ParseSyncMode(configuration.Mode)
	if parseError != nil {
		return backupservice.SyncMode(""), fmt.Errorf(syncModeParseErrorTemplateConstant, parseError)
	}
	return parsedMode, nil
}

// resolveAuthorizationToken treats credentials as optional: a token source
// that cannot be resolved downgrades the run to unauthenticated API access.
func (builder *CommandBuilder) resolveAuthorizationToken(command *cobra.Command, configuration Configuration, logger *zap.Logger) string {
	tokenSourceValue := configuration.TokenSource
	if command.Flags().Changed(tokenSourceFlagNameConstant) {
		tokenSourceFlagValue, tokenSourceFlagError := command.Flags().GetString(tokenSourceFlagNameConstant)
		if tokenSourceFlagError == nil {
			tokenSourceValue = tokenSourceFlagValue
		}
	}

	if len(strings.TrimSpace(tokenSourceValue)) == 0 {
		return ""
	}

	parsedSource, parseError := backupservice.ParseTokenSource(tokenSourceValue)
	if parseError != nil {
		logger.Warn(tokenResolutionWarningMessageConstant,
			zap.String(tokenSourceLogFieldNameConstant, tokenSourceValue),
			zap.Error(parseError),
		)
		return ""
	}

	tokenResolver := backupservice.NewTokenResolver(builder.EnvironmentLookup, builder.FileReader)
	resolvedToken, resolveError := tokenResolver.ResolveToken(parsedSource)
	if resolveError != nil {
		logger.Warn(tokenResolutionWarningMessageConstant,
			zap.String(tokenSourceLogFieldNameConstant, tokenSourceValue),
			zap.Error(resolveError),
		)
		return ""
	}

	return resolvedToken
}

func (builder *CommandBuilder) resolveHTTPClient() githubapi.HTTPClient {
	if builder.HTTPClient != nil {
		return builder.HTTPClient
	}
	return &http.Client{}
}

func (builder *CommandBuilder) resolveRepositoryManager(logger *zap.Logger) (backupservice.RepositoryManager, error) {
	if builder.RepositoryManager != nil {
		return builder.RepositoryManager, nil
	}

	eventObservers := []execshell.CommandEventObserver{}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		eventObservers = append(eventObservers, ui.NewConsoleCommandEventLogger(logger))
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), eventObservers...)
	if executorError != nil {
		return nil, executorError
	}

	return gitrepo.NewRepositoryManager(shellExecutor)
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	if configuration.PageSize < 0 {
		configuration.PageSize = 0
	}
	configuration.APIBaseURL = strings.TrimSpace(configuration.APIBaseURL)
	configuration.RemoteName = strings.TrimSpace(configuration.RemoteName)

	return configuration
}
