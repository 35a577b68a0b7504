// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage with .env and environment secrets
//   - PromptStore: user-editable prompt templates with change watching
package file
