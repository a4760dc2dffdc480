package githubapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/krzysbaranski/shell-scripts/internal/githubapi"
)

const (
	testOwnerConstant              = "octocat"
	testAuthorizationTokenConstant = "ghp_testtoken"
	testPageSizeConstant           = 2
	testRateLimitMessageConstant   = "API rate limit exceeded"
	testCloneURLTemplateConstant   = "https://github.com/octocat/%s.git"
	testRepositoriesPathConstant   = "/users/octocat/repos"
	expectedAuthorizationConstant  = "Bearer ghp_testtoken"
	expectedAcceptConstant         = "application/vnd.github+json"
	queryPageParameterConstant     = "page"
	queryPageSizeParameterConstant = "per_page"
	expectedPageSizeStringConstant = "2"
	emptyArrayResponseBodyConstant = "[]"
	errorResponseTemplateConstant  = `{"message": %q}`
	repositoryNameTemplateConstant = "repository-%d"
)

type stubHTTPClient struct {
	recordedRequests []*http.Request
	responseBodies   []string
	statusCodes      []int
}

func (client *stubHTTPClient) Do(request *http.Request) (*http.Response, error) {
	requestIndex := len(client.recordedRequests)
	client.recordedRequests = append(client.recordedRequests, request)

	responseBody := emptyArrayResponseBodyConstant
	if requestIndex < len(client.responseBodies) {
		responseBody = client.responseBodies[requestIndex]
	}
	statusCode := http.StatusOK
	if requestIndex < len(client.statusCodes) {
		statusCode = client.statusCodes[requestIndex]
	}

	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
		Header:     http.Header{},
	}, nil
}

func marshalRepositoryPage(testInstance *testing.T, repositoryNames ...string) string {
	pageEntries := make([]githubapi.RepositoryRef, 0, len(repositoryNames))
	for _, repositoryName := range repositoryNames {
		pageEntries = append(pageEntries, githubapi.RepositoryRef{
			Name:     repositoryName,
			CloneURL: fmt.Sprintf(testCloneURLTemplateConstant, repositoryName),
		})
	}
	encodedPage, marshalError := json.Marshal(pageEntries)
	require.NoError(testInstance, marshalError)
	return string(encodedPage)
}

func newTestRepositoryService(testInstance *testing.T, client *stubHTTPClient) *githubapi.RepositoryService {
	repositoryService, creationError := githubapi.NewRepositoryService(
		zaptest.NewLogger(testInstance),
		client,
		githubapi.ServiceConfiguration{PageSize: testPageSizeConstant, AuthorizationToken: testAuthorizationTokenConstant},
	)
	require.NoError(testInstance, creationError)
	return repositoryService
}

func TestNewRepositoryServiceValidatesDependencies(testInstance *testing.T) {
	testCases := []struct {
		name          string
		useLogger     bool
		useClient     bool
		expectedError error
	}{
		{name: "missing_logger", useLogger: false, useClient: true, expectedError: githubapi.ErrLoggerNotConfigured},
		{name: "missing_http_client", useLogger: true, useClient: false, expectedError: githubapi.ErrHTTPClientNotConfigured},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var client githubapi.HTTPClient
			if testCase.useClient {
				client = &stubHTTPClient{}
			}
			logger := zaptest.NewLogger(testInstance)
			if !testCase.useLogger {
				logger = nil
			}

			repositoryService, creationError := githubapi.NewRepositoryService(logger, client, githubapi.ServiceConfiguration{})
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
			require.Nil(testInstance, repositoryService)
		})
	}
}

func TestListRepositoriesWalksPagesUntilEmpty(testInstance *testing.T) {
	client := &stubHTTPClient{
		responseBodies: []string{
			marshalRepositoryPage(testInstance, fmt.Sprintf(repositoryNameTemplateConstant, 1), fmt.Sprintf(repositoryNameTemplateConstant, 2)),
			marshalRepositoryPage(testInstance, fmt.Sprintf(repositoryNameTemplateConstant, 3)),
			emptyArrayResponseBodyConstant,
		},
	}
	repositoryService := newTestRepositoryService(testInstance, client)

	repositories, listError := repositoryService.ListRepositories(context.Background(), testOwnerConstant)
	require.NoError(testInstance, listError)
	require.Len(testInstance, repositories, 3)
	require.Equal(testInstance, fmt.Sprintf(repositoryNameTemplateConstant, 3), repositories[2].Name)
	require.Equal(testInstance, fmt.Sprintf(testCloneURLTemplateConstant, fmt.Sprintf(repositoryNameTemplateConstant, 3)), repositories[2].CloneURL)

	require.Len(testInstance, client.recordedRequests, 3)
	for requestIndex, recordedRequest := range client.recordedRequests {
		require.Equal(testInstance, testRepositoriesPathConstant, recordedRequest.URL.Path)
		require.Equal(testInstance, expectedPageSizeStringConstant, recordedRequest.URL.Query().Get(queryPageSizeParameterConstant))
		require.Equal(testInstance, fmt.Sprintf("%d", requestIndex+1), recordedRequest.URL.Query().Get(queryPageParameterConstant))
		require.Equal(testInstance, "all", recordedRequest.URL.Query().Get("type"))
		require.Equal(testInstance, expectedAuthorizationConstant, recordedRequest.Header.Get("Authorization"))
		require.Equal(testInstance, expectedAcceptConstant, recordedRequest.Header.Get("Accept"))
	}
}

func TestListRepositoriesShortEnumerationStopsOnEmptyPage(testInstance *testing.T) {
	client := &stubHTTPClient{responseBodies: []string{emptyArrayResponseBodyConstant}}
	repositoryService := newTestRepositoryService(testInstance, client)

	repositories, listError := repositoryService.ListRepositories(context.Background(), testOwnerConstant)
	require.NoError(testInstance, listError)
	require.Empty(testInstance, repositories)
	require.Len(testInstance, client.recordedRequests, 1)
}

func TestListRepositoriesAbortsOnErrorPayload(testInstance *testing.T) {
	client := &stubHTTPClient{
		responseBodies: []string{
			marshalRepositoryPage(testInstance, fmt.Sprintf(repositoryNameTemplateConstant, 1)),
			fmt.Sprintf(errorResponseTemplateConstant, testRateLimitMessageConstant),
			marshalRepositoryPage(testInstance, fmt.Sprintf(repositoryNameTemplateConstant, 2)),
		},
		statusCodes: []int{http.StatusOK, http.StatusForbidden, http.StatusOK},
	}
	repositoryService := newTestRepositoryService(testInstance, client)

	repositories, listError := repositoryService.ListRepositories(context.Background(), testOwnerConstant)
	require.Error(testInstance, listError)
	require.Nil(testInstance, repositories)

	apiError := githubapi.APIError{}
	require.ErrorAs(testInstance, listError, &apiError)
	require.Equal(testInstance, testRateLimitMessageConstant, apiError.Message)
	require.Equal(testInstance, 2, apiError.Page)
	require.Equal(testInstance, http.StatusForbidden, apiError.StatusCode)

	require.Len(testInstance, client.recordedRequests, 2)
}

func TestListRepositoriesRequiresOwner(testInstance *testing.T) {
	repositoryService := newTestRepositoryService(testInstance, &stubHTTPClient{})

	repositories, listError := repositoryService.ListRepositories(context.Background(), "   ")
	require.ErrorIs(testInstance, listError, githubapi.ErrOwnerRequired)
	require.Nil(testInstance, repositories)
}

func TestListRepositoriesOmitsAuthorizationWithoutToken(testInstance *testing.T) {
	client := &stubHTTPClient{responseBodies: []string{emptyArrayResponseBodyConstant}}
	repositoryService, creationError := githubapi.NewRepositoryService(
		zaptest.NewLogger(testInstance),
		client,
		githubapi.ServiceConfiguration{},
	)
	require.NoError(testInstance, creationError)

	_, listError := repositoryService.ListRepositories(context.Background(), testOwnerConstant)
	require.NoError(testInstance, listError)
	require.Empty(testInstance, client.recordedRequests[0].Header.Get("Authorization"))
	require.Equal(testInstance, "100", client.recordedRequests[0].URL.Query().Get(queryPageSizeParameterConstant))
}
