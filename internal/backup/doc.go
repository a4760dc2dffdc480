// Package backup synchronizes a GitHub account's repositories into a local
// backup directory, either as full working copies or as bare mirrors.
package backup
