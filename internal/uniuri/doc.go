// Package uniuri generates cryptographically secure random strings suitable
// for use as unique identifiers, such as the random component of ticket
// numbers and session identifiers.
package uniuri
