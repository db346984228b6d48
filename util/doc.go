// Package util holds small helpers shared by whisperd packages.
package util
