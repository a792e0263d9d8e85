// Package configfile manages a server's main configuration file together
// with its history.
//
// A ConfigurationFile is created once per boot. It resolves the boot file
// from a raw name, primes the history slots, records the initial slot on
// SuccessfulBoot, and on every Store appends the previous content as a
// numbered version, updates the last slot and atomically replaces the main
// file.
//
// # Raw names
//
//	""                    the main file
//	last, boot, initial   a history slot
//	v3                    version 3 from <history>/current
//	standard-ha.xml       a file in the config dir, the history dir or current/
//	nested/dir/file.xml   a path relative to the config dir (must stay inside)
//	/abs/path/file.xml    an absolute path; outside the config dir it is an
//	                      external file, allowed only in read-only mode
//	                      and never written
//	20240309-1405         a unique snapshot name prefix
//
// An unresolvable name fails with domain.ErrIllegalState and must abort the
// boot.
//
// # Usage
//
//	cfg := configfile.DefaultConfig()
//	cfg.ConfigDir = "/srv/config"
//	cfg.RawName = "last"
//	cf, err := configfile.New(cfg, configfile.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	content := cf.BootContent()
//	// ... boot from content ...
//	if err := cf.SuccessfulBoot(); err != nil {
//	    return err
//	}
//	if err := cf.Store(newContent); err != nil {
//	    return err
//	}
//
// # Read-only mode
//
// With Config.ReadOnly set the main file is never rewritten; the last
// slot and the version history are still updated on every Store. Booting
// from a file outside the config directory requires read-only mode.
package configfile
