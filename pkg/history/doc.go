// Package history maintains the history directory of a managed
// configuration file.
//
// Next to the main file <name>.<ext> the manager keeps <name>_<ext>_history/
// with three fixed slots (boot, last, initial), a current/ directory of
// numbered versions <name>.v<N>.<ext>, and a snapshot/ directory of named
// snapshots. Layout holds the naming rules; Manager performs the I/O.
//
// Versions are appended at the highest existing number plus one. When the
// retention cap is exceeded the lowest-numbered versions are deleted; the
// remaining versions are never renumbered.
package history
