// Package app contains the core application logic of the resolution
// harness. It defines the main App struct, its configuration, and the
// primary lifecycle, decoupled from any specific entrypoint like a CLI.
package app
