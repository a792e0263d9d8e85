// Package persist provides crash-safe replacement of single files.
//
// A Resource stages new content in a temp file in the target's directory,
// fsyncs it, and on Commit renames it over the target and fsyncs the
// directory. Rollback removes the temp file and never touches the target.
//
// # Usage
//
//	res, err := persist.Create("/srv/config/standard.xml", data)
//	if err != nil {
//	    return err
//	}
//	defer res.Rollback()
//
//	// ... other steps that may fail ...
//
//	return res.Commit()
//
// WriteFile is the one-shot form used for history slots and versions.
package persist
