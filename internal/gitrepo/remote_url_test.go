package gitrepo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/krzysbaranski/shell-scripts/internal/gitrepo"
)

func TestParseRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name        string
		remote      string
		expected    gitrepo.RemoteURL
		expectError bool
	}{
		{
			name:   "scp_style_ssh",
			remote: "git@github.com:octocat/project.git",
			expected: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolSSH,
				Host:       "github.com",
				Owner:      "octocat",
				Repository: "project",
			},
		},
		{
			name:   "ssh_scheme",
			remote: "ssh://git@github.com/octocat/project.git",
			expected: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolSSH,
				Host:       "github.com",
				Owner:      "octocat",
				Repository: "project",
			},
		},
		{
			name:   "https_scheme",
			remote: "https://github.com/octocat/project.git",
			expected: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolHTTPS,
				Host:       "github.com",
				Owner:      "octocat",
				Repository: "project",
			},
		},
		{
			name:   "https_without_suffix",
			remote: "https://github.com/octocat/project",
			expected: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolHTTPS,
				Host:       "github.com",
				Owner:      "octocat",
				Repository: "project",
			},
		},
		{name: "empty_remote", remote: "   ", expectError: true},
		{name: "unsupported_scheme", remote: "ftp://github.com/octocat/project.git", expectError: true},
		{name: "https_missing_owner", remote: "https://github.com/project", expectError: true},
		{name: "ssh_missing_host", remote: "git@", expectError: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsedRemote, parseError := gitrepo.ParseRemoteURL(testCase.remote)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expected, parsedRemote)
		})
	}
}
