// Package component defines the lifecycle interface shared by whisperd's
// long-lived parts and a registry that starts them in order and stops them
// in reverse.
package component
