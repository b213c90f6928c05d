// Package views renders HTML pages from a template directory that can be
// reloaded while the process runs.
package views

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/echo/v4"

	"github.com/memohai/contactbook/internal/config"
)

// Pattern selects the template files inside the template directory.
const Pattern = "*.html"

// RenderError covers every way a page can fail to render: unknown template,
// template that does not parse, or execution failure.
type RenderError struct {
	Name string
	Op   string
	Err  error
}

func (e *RenderError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("views %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("views %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Options configures a Registry.
type Options struct {
	// Dir is the template directory. Empty uses Fallback.
	Dir string
	// Fallback is used when Dir is empty, usually the embedded templates.
	Fallback fs.FS
	// Reload is config.ReloadWatch or config.ReloadOnce. Embedded templates never reload.
	Reload string
	Logger *slog.Logger
}

// Registry holds the parsed template set. It is safe for concurrent use;
// renders take a read lock, a pending reload takes the write lock once.
type Registry struct {
	mu     sync.RWMutex
	set    *template.Template
	source fs.FS
	dirty  atomic.Bool
	logger *slog.Logger

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	stop    sync.Once
}

// New parses the templates and, for a watched directory, starts the watcher.
// Close must be called to stop it.
func New(opts Options) (*Registry, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{
		logger: log.With(slog.String("component", "views")),
	}

	switch {
	case opts.Dir != "":
		info, err := os.Stat(opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("template dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("template dir %s is not a directory", opts.Dir)
		}
		r.source = os.DirFS(opts.Dir)
	case opts.Fallback != nil:
		r.source = opts.Fallback
	default:
		return nil, fmt.Errorf("no template source configured")
	}

	set, err := parse(r.source)
	if err != nil {
		return nil, &RenderError{Op: "parse", Err: err}
	}
	r.set = set

	if opts.Dir != "" && opts.Reload == config.ReloadWatch {
		if err := r.watch(opts.Dir); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func parse(source fs.FS) (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(source, Pattern)
}

var funcs = template.FuncMap{
	"value": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02 15:04")
	},
}

func (r *Registry) watch(dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("template watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	r.watcher = watcher
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	go r.run()
	r.logger.Info("watching templates", slog.String("dir", dir))
	return nil
}

func (r *Registry) run() {
	defer close(r.doneCh)
	for {
		select {
		case <-r.stopCh:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			r.logger.Debug("template change", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			r.dirty.Store(true)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("template watcher error", slog.Any("error", err))
		}
	}
}

// Watching reports whether templates are reloaded on change.
func (r *Registry) Watching() bool {
	return r.watcher != nil
}

// Invalidate forces a reparse on the next render.
func (r *Registry) Invalidate() {
	r.dirty.Store(true)
}

// Close stops the watcher. It is safe to call more than once.
func (r *Registry) Close() error {
	if r.watcher == nil {
		return nil
	}
	var err error
	r.stop.Do(func() {
		close(r.stopCh)
		<-r.doneCh
		err = r.watcher.Close()
	})
	return err
}

func (r *Registry) current() (*template.Template, error) {
	if r.dirty.Load() {
		r.mu.Lock()
		// clear before parsing so changes made during the parse trigger another one
		if r.dirty.CompareAndSwap(true, false) {
			set, err := parse(r.source)
			if err != nil {
				r.dirty.Store(true)
				r.mu.Unlock()
				return nil, &RenderError{Op: "parse", Err: err}
			}
			r.set = set
			r.logger.Info("templates reloaded")
		}
		r.mu.Unlock()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set, nil
}

// Execute renders the named template into w. Nothing is written when rendering fails.
func (r *Registry) Execute(w io.Writer, name string, data any) (err error) {
	set, err := r.current()
	if err != nil {
		if re, ok := err.(*RenderError); ok {
			re.Name = name
		}
		return err
	}
	tmpl := set.Lookup(name)
	if tmpl == nil {
		return &RenderError{Name: name, Op: "lookup", Err: fmt.Errorf("template not found")}
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = &RenderError{Name: name, Op: "execute", Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return &RenderError{Name: name, Op: "execute", Err: err}
	}
	_, err = buf.WriteTo(w)
	return err
}

// Render implements echo.Renderer.
func (r *Registry) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.Execute(w, name, data)
}
