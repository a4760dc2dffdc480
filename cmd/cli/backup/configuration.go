package backup

const (
	ownerConfigurationKeySuffixConstant       = ".owner"
	directoryConfigurationKeySuffixConstant   = ".directory"
	modeConfigurationKeySuffixConstant        = ".mode"
	remoteNameConfigurationKeySuffixConstant  = ".remote_name"
	pageSizeConfigurationKeySuffixConstant    = ".page_size"
	apiBaseURLConfigurationKeySuffixConstant  = ".api_base_url"
	tokenSourceConfigurationKeySuffixConstant = ".token_source"
	defaultModeValueConstant                  = "regular"
	defaultRemoteNameValueConstant            = "origin"
	defaultPageSizeValueConstant              = 100
	defaultTokenSourceValueConstant           = "env:GITHUB_TOKEN"
)

// Configuration aggregates settings for the github-backup command.
type Configuration struct {
	Owner       string `mapstructure:"owner"`
	Directory   string `mapstructure:"directory"`
	Mode        string `mapstructure:"mode"`
	RemoteName  string `mapstructure:"remote_name"`
	PageSize    int    `mapstructure:"page_size"`
	APIBaseURL  string `mapstructure:"api_base_url"`
	TokenSource string `mapstructure:"token_source"`
}

// DefaultConfiguration supplies baseline values for the backup configuration.
func DefaultConfiguration() Configuration {
	return Configuration{
		Mode:        defaultModeValueConstant,
		RemoteName:  defaultRemoteNameValueConstant,
		PageSize:    defaultPageSizeValueConstant,
		TokenSource: defaultTokenSourceValueConstant,
	}
}

// DefaultConfigurationValues exposes viper defaults keyed under the provided prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + modeConfigurationKeySuffixConstant:        defaultModeValueConstant,
		configurationKeyPrefix + remoteNameConfigurationKeySuffixConstant:  defaultRemoteNameValueConstant,
		configurationKeyPrefix + pageSizeConfigurationKeySuffixConstant:    defaultPageSizeValueConstant,
		configurationKeyPrefix + tokenSourceConfigurationKeySuffixConstant: defaultTokenSourceValueConstant,
	}
}
