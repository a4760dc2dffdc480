// Package githubapi enumerates the repositories of a GitHub account through
// the paginated REST API.
package githubapi
