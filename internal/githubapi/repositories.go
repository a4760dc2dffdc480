package githubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultAPIBaseURLConstant               = "https://api.github.com"
	defaultPageSizeConstant                 = 100
	userRepositoriesPathTemplateConstant    = "%s/users/%s/repos"
	pageQueryParameterNameConstant          = "page"
	pageSizeQueryParameterNameConstant      = "per_page"
	typeQueryParameterNameConstant          = "type"
	typeQueryParameterValueConstant         = "all"
	acceptHeaderNameConstant                = "Accept"
	acceptHeaderValueConstant               = "application/vnd.github+json"
	authorizationHeaderNameConstant         = "Authorization"
	authorizationHeaderTemplateConstant     = "Bearer %s"
	loggerRequiredMessageConstant           = "logger not configured"
	httpClientRequiredMessageConstant       = "http client not configured"
	ownerRequiredMessageConstant            = "repository owner required"
	listRequestFailedTemplateConstant       = "list repositories for %s: %w"
	responseDecodingFailedTemplateConstant  = "decode repository listing page %d: %w"
	apiErrorMessageTemplateConstant         = "github api error on page %d: %s"
	requestCreationFailedTemplateConstant   = "create repository listing request: %w"
	repositoryPageLogMessageConstant        = "Fetched repository page"
	ownerLogFieldNameConstant               = "owner"
	pageLogFieldNameConstant                = "page"
	repositoryCountLogFieldNameConstant     = "repositories"
	errorPayloadDetectionMessageFieldKey    = "message"
	unexpectedStatusMessageTemplateConstant = "unexpected status %d"
)

// Sentinel construction errors.
var (
	ErrLoggerNotConfigured     = errors.New(loggerRequiredMessageConstant)
	ErrHTTPClientNotConfigured = errors.New(httpClientRequiredMessageConstant)
	ErrOwnerRequired           = errors.New(ownerRequiredMessageConstant)
)

// RepositoryRef identifies one repository returned by the listing API.
type RepositoryRef struct {
	Name     string `json:"name"`
	CloneURL string `json:"clone_url"`
}

// APIError represents an error payload returned by the GitHub API.
type APIError struct {
	Page       int
	StatusCode int
	Message    string
}

// Error describes the API failure.
func (apiError APIError) Error() string {
	return fmt.Sprintf(apiErrorMessageTemplateConstant, apiError.Page, apiError.Message)
}

// HTTPClient abstracts the HTTP transport used for API requests.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// ServiceConfiguration carries the tunable parameters of the repository service.
type ServiceConfiguration struct {
	BaseURL            string
	PageSize           int
	AuthorizationToken string
}

// RepositoryService lists the repositories owned by a GitHub account.
type RepositoryService struct {
	logger        *zap.Logger
	httpClient    HTTPClient
	configuration ServiceConfiguration
}

// NewRepositoryService constructs a RepositoryService with the provided transport and configuration.
func NewRepositoryService(logger *zap.Logger, httpClient HTTPClient, configuration ServiceConfiguration) (*RepositoryService, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if httpClient == nil {
		return nil, ErrHTTPClientNotConfigured
	}
	if len(strings.TrimSpace(configuration.BaseURL)) == 0 {
		configuration.BaseURL = defaultAPIBaseURLConstant
	}
	if configuration.PageSize <= 0 {
		configuration.PageSize = defaultPageSizeConstant
	}
	return &RepositoryService{logger: logger, httpClient: httpClient, configuration: configuration}, nil
}

// ListRepositories walks the paginated listing endpoint until an empty page is returned.
func (service *RepositoryService) ListRepositories(executionContext context.Context, owner string) ([]RepositoryRef, error) {
	trimmedOwner := strings.TrimSpace(owner)
	if len(trimmedOwner) == 0 {
		return nil, ErrOwnerRequired
	}

	collectedRepositories := []RepositoryRef{}
	for pageNumber := 1; ; pageNumber++ {
		pageRepositories, pageError := service.fetchRepositoryPage(executionContext, trimmedOwner, pageNumber)
		if pageError != nil {
			return nil, fmt.Errorf(listRequestFailedTemplateConstant, trimmedOwner, pageError)
		}
		if len(pageRepositories) == 0 {
			break
		}

		service.logger.Debug(repositoryPageLogMessageConstant,
			zap.String(ownerLogFieldNameConstant, trimmedOwner),
			zap.Int(pageLogFieldNameConstant, pageNumber),
			zap.Int(repositoryCountLogFieldNameConstant, len(pageRepositories)),
		)

		collectedRepositories = append(collectedRepositories, pageRepositories...)
	}

	return collectedRepositories, nil
}

func (service *RepositoryService) fetchRepositoryPage(executionContext context.Context, owner string, pageNumber int) ([]RepositoryRef, error) {
	requestURL := fmt.Sprintf(userRepositoriesPathTemplateConstant, strings.TrimSuffix(service.configuration.BaseURL, "/"), url.PathEscape(owner))

	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, requestURL, nil)
	if requestError != nil {
		return nil, fmt.Errorf(requestCreationFailedTemplateConstant, requestError)
	}

	queryValues := request.URL.Query()
	queryValues.Set(pageSizeQueryParameterNameConstant, strconv.Itoa(service.configuration.PageSize))
	queryValues.Set(pageQueryParameterNameConstant, strconv.Itoa(pageNumber))
	queryValues.Set(typeQueryParameterNameConstant, typeQueryParameterValueConstant)
	request.URL.RawQuery = queryValues.Encode()

	request.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)
	if len(service.configuration.AuthorizationToken) > 0 {
		request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(authorizationHeaderTemplateConstant, service.configuration.AuthorizationToken))
	}

	response, responseError := service.httpClient.Do(request)
	if responseError != nil {
		return nil, responseError
	}
	defer func() {
		_ = response.Body.Close()
	}()

	responseBody, readError := io.ReadAll(response.Body)
	if readError != nil {
		return nil, fmt.Errorf(responseDecodingFailedTemplateConstant, pageNumber, readError)
	}

	if apiError := detectAPIError(responseBody, response.StatusCode, pageNumber); apiError != nil {
		return nil, apiError
	}

	pageRepositories := []RepositoryRef{}
	if decodeError := json.Unmarshal(responseBody, &pageRepositories); decodeError != nil {
		return nil, fmt.Errorf(responseDecodingFailedTemplateConstant, pageNumber, decodeError)
	}

	return pageRepositories, nil
}

// detectAPIError recognizes the object-shaped error payload the API returns in
// place of a repository array.
func detectAPIError(responseBody []byte, statusCode int, pageNumber int) error {
	errorPayload := map[string]json.RawMessage{}
	if unmarshalError := json.Unmarshal(responseBody, &errorPayload); unmarshalError != nil {
		return nil
	}

	rawMessage, messagePresent := errorPayload[errorPayloadDetectionMessageFieldKey]
	if !messagePresent {
		if statusCode >= http.StatusBadRequest {
			return APIError{Page: pageNumber, StatusCode: statusCode, Message: fmt.Sprintf(unexpectedStatusMessageTemplateConstant, statusCode)}
		}
		return nil
	}

	messageText := ""
	if unmarshalError := json.Unmarshal(rawMessage, &messageText); unmarshalError != nil {
		messageText = string(rawMessage)
	}

	return APIError{Page: pageNumber, StatusCode: statusCode, Message: messageText}
}
