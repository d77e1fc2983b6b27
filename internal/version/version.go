// Package version holds the application version shown in page footers.
package version

// Version is the noodlz release version.
const Version = "3.0.0"
