// Package storage keeps downloaded emoji images on disk.
//
// Images are named after the emoji, with the extension taken from the
// image URL:
//
//	manager, err := storage.NewManager("emoji-images", false)
//	if err != nil {
//		return err
//	}
//	if !manager.IsDownloaded("party_parrot") {
//		err = manager.SaveImage(r, "party_parrot", storage.ExtFromURL(url))
//	}
//
// Writes go through a temporary file and a rename, and the manager scans
// the directory on creation so a second run skips what is already there.
package storage
