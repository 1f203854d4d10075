// Package hook delivers raw key press and release events from the operating
// system: evdev input devices on Linux, a Quartz event tap on macOS (with
// Accessibility approval), or a replayed text script for tests and dry runs.
package hook
