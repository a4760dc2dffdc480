// Package cli assembles the shell-scripts command hierarchy, configuration
// loading, and logging.
package cli
