// Package registry persists the panel inventory. Panels, shared tuning
// settings and the web server binding live in one TOML file, panels.toml,
// editable by hand and rewritten by the CLI management commands.
//
// Precedence for effective settings is flags over environment variables
// (PANELHOP_*) over the file over built-in defaults. The setter helpers
// here implement that layering; command wiring decides which layers run.
// In serve mode a filesystem watcher reloads the file on change so edits
// land without a restart.
package registry
