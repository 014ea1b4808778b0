// Package main is the entry point for fmms, the faculty module
// management service.
package main

func main() {
	Execute()
}
