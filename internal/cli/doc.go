// Package cli implements the apicall command line tool.
package cli
