// Package gitrepo implements repository-level git operations on top of
// execshell, along with structured parsing of git remote URLs.
package gitrepo
