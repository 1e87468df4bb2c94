// Package attachment implements the attachment picker: a hidden file input
// plus a render prop that lets any child open it.
//
// OpenPicker arms a one-shot callback and "clicks" the hidden input. When a
// selection arrives (Select, or a multipart POST to Handler), the first file
// is stored, given a resolvable locator, and passed to the armed callback
// exactly once. The callback and the input value are then reset, so a later
// selection that was not preceded by OpenPicker reaches nobody.
//
//	picker := attachment.NewPicker(upload.NewMemoryStore(25 << 20))
//	node := picker.Render(func(open attachment.OpenFunc) *view.Node {
//	    return view.El("button", view.OnClick(func() {
//	        open(func(f attachment.File) { fmt.Println(f.URI) })
//	    }), "Add attachment")
//	})
package attachment
