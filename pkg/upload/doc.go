// Package upload stores picked attachments and hands back a locator the
// client can resolve to the file's bytes.
//
// Three backends are provided:
//
//   - MemoryStore keeps bytes in process and issues blob: locators, the
//     equivalent of a browser object URL. Revoke releases the bytes.
//   - DiskStore writes each file plus a JSON metadata sidecar to a
//     directory and issues file:// locators.
//   - S3Store puts objects under a bucket prefix and issues presigned GET
//     URLs.
//
// Every backend enforces a maximum size while streaming, so a reader that
// produces more bytes than declared is still rejected:
//
//	store := upload.NewMemoryStore(25 << 20)
//	f, err := store.Put(ctx, "receipt.pdf", "application/pdf", r)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(f.Locator) // blob:spendsync/2f1c...
//
// Cleanup removes entries older than a cutoff and is meant to be called
// periodically.
package upload
