package attachment

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"mime"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/vango-dev/spendsync/internal/errors"
	"github.com/vango-dev/spendsync/pkg/upload"
	"github.com/vango-dev/spendsync/pkg/view"
)

// DefaultAccept is the accept filter of the hidden input.
const DefaultAccept = "audio/*;video/*;image/*;application/pdf"

// sniffLen is how many leading bytes are inspected to detect content type.
const sniffLen = 3072

// File is a picked file as handed to the callback.
type File struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"type"`
	Size        int64  `json:"size"`

	// URI resolves to the file's bytes.
	URI string `json:"uri"`
}

// Selection is one file from the input's change event.
type Selection struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// OnPicked receives the picked file.
type OnPicked func(File)

// OpenFunc arms a callback and opens the picker.
type OpenFunc func(OnPicked)

// Option configures a Picker.
type Option func(*Picker)

// WithAccept replaces the accept filter. Patterns are separated by ';' or
// ',' and may end in "/*".
func WithAccept(accept string) Option {
	return func(p *Picker) {
		p.accept = accept
	}
}

// WithOpener sets what "clicking" the hidden input does, for example
// pushing an open-dialog instruction to a client.
func WithOpener(fn func()) Option {
	return func(p *Picker) {
		p.opener = fn
	}
}

// WithLogger sets the picker logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Picker) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Picker is the attachment picker.
type Picker struct {
	store  upload.Store
	accept string
	opener func()
	logger *slog.Logger

	mu       sync.Mutex
	onPicked OnPicked
	value    string
}

// NewPicker creates a picker that stores files in store.
func NewPicker(store upload.Store, opts ...Option) *Picker {
	p := &Picker{
		store:  store,
		accept: DefaultAccept,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Accept returns the accept filter.
func (p *Picker) Accept() string {
	return p.accept
}

// OpenPicker arms onPicked and clicks the hidden input. Arming again before
// a selection replaces the previous callback.
func (p *Picker) OpenPicker(onPicked OnPicked) {
	p.mu.Lock()
	p.onPicked = onPicked
	p.mu.Unlock()

	if p.opener != nil {
		p.opener()
	}
}

// Armed reports whether a callback is waiting for a selection.
func (p *Picker) Armed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onPicked != nil
}

// Value returns the hidden input's current value. It is empty except while
// a selection is being handled.
func (p *Picker) Value() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Select handles the input's change event.
//
// An empty selection does nothing and leaves the callback armed. Otherwise
// the callback armed at the moment of the selection is taken, the first file
// is checked against the accept filter, stored, and passed to that callback.
// The callback and input value are reset whatever the outcome; a callback
// armed while the file is being stored waits for the next selection. The
// stored file is returned, or nil when nothing was picked.
func (p *Picker) Select(ctx context.Context, files []Selection) (*File, error) {
	if len(files) == 0 {
		return nil, nil
	}
	sel := files[0]

	p.mu.Lock()
	p.value = sel.Name
	cb := p.onPicked
	p.onPicked = nil
	p.mu.Unlock()

	file, err := p.storeSelection(ctx, sel)

	p.mu.Lock()
	p.value = ""
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if cb == nil {
		p.logger.Debug("selection without armed callback", "name", sel.Name)
		return file, nil
	}
	cb(*file)
	return file, nil
}

func (p *Picker) storeSelection(ctx context.Context, sel Selection) (*File, error) {
	if sel.Content == nil {
		return nil, errors.New("S400").WithDetailf("%s has no content", sel.Name)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(sel.Content, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, errors.New("S400").Wrap(err)
	}
	head = head[:n]

	contentType := normalizeType(sel.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = normalizeType(mimetype.Detect(head).String())
	}
	if !Accepts(p.accept, contentType) {
		p.logger.Info("attachment type not accepted", "name", sel.Name, "type", contentType)
		return nil, errors.New("S401").WithDetailf("%s is %s; accepted: %s", sel.Name, contentType, p.accept)
	}

	stored, err := p.store.Put(ctx, sel.Name, contentType, io.MultiReader(bytes.NewReader(head), sel.Content))
	if err != nil {
		p.logger.Error("attachment storage failed", "name", sel.Name, "error", err)
		e := errors.New("S400").Wrap(err)
		if stderrors.Is(err, upload.ErrTooLarge) {
			e = e.WithDetail("file is too large")
		}
		return nil, e
	}

	return &File{
		ID:          stored.ID,
		Name:        stored.Filename,
		ContentType: stored.ContentType,
		Size:        stored.Size,
		URI:         stored.Locator,
	}, nil
}

// Accepts reports whether contentType matches the accept filter.
func Accepts(accept, contentType string) bool {
	contentType = normalizeType(contentType)
	if contentType == "" {
		return false
	}
	for _, pattern := range strings.FieldsFunc(accept, func(r rune) bool { return r == ';' || r == ',' }) {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		switch {
		case pattern == "":
			continue
		case pattern == "*/*":
			return true
		case strings.HasSuffix(pattern, "/*"):
			if strings.HasPrefix(contentType, strings.TrimSuffix(pattern, "*")) {
				return true
			}
		case pattern == contentType:
			return true
		}
	}
	return false
}

// normalizeType strips parameters and lowercases a media type.
func normalizeType(t string) string {
	if t == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(t)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(t))
	}
	return mt
}

// Render returns the hidden input followed by whatever children renders
// with the picker's OpenFunc.
func (p *Picker) Render(children func(open OpenFunc) *view.Node) *view.Node {
	input := view.El("input",
		view.Hidden(),
		view.Type("file"),
		view.Accept(p.accept),
		view.Value(p.Value()),
		view.OnChange(p.Select),
	)
	var child *view.Node
	if children != nil {
		child = children(p.OpenPicker)
	}
	return view.Fragment(input, child)
}
