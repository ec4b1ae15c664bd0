// Package imgrec contains an image recorder used to automatically save acquired stacks to disk.
package imgrec

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lightsheet-lab/zsweep/generichttp"
	"github.com/lightsheet-lab/zsweep/server"

	"goji.io/pat"
)

// Recorder writes FITS files with incrementing filenames in yyyy-mm-dd
// subfolders.  It is not thread safe.
type Recorder struct {
	// counter is the internally incrementing part of the filename
	counter int

	// Root is the root path
	Root string

	// Prefix is the prefix for the filenames
	Prefix string
}

// New returns a recorder rooted at root with the given filename prefix
func New(root, prefix string) *Recorder {
	return &Recorder{Root: root, Prefix: prefix}
}

// dayFolder computes today's subfolder name
func dayFolder() string {
	now := time.Now()
	return fmt.Sprintf("%04d-%02d-%02d", now.Year(), now.Month(), now.Day())
}

// mkDir makes the day folder and returns it
func (r *Recorder) mkDir() (string, error) {
	fldr := filepath.Join(r.Root, dayFolder())
	err := os.MkdirAll(fldr, 0777)
	return fldr, err
}

// Path returns the path the next Write will land at
func (r *Recorder) Path() string {
	fn := fmt.Sprintf("%s%06d.fits", r.Prefix, r.counter)
	return filepath.Join(r.Root, dayFolder(), fn)
}

// Write implements io.Writer and appends the contents of a fits file to
// the current file on disk
func (r *Recorder) Write(p []byte) (n int, err error) {
	_, err = r.mkDir()
	if err != nil {
		return 0, err
	}
	fid, err := os.OpenFile(r.Path(), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0666)
	if err != nil {
		return 0, err
	}
	defer fid.Close()
	return fid.Write(p)
}

// Incr advances the filename counter past the highest index already on
// disk for this prefix.  If the folder cannot be scanned, the counter is
// not advanced.
func (r *Recorder) Incr() {
	dn, _ := r.mkDir()
	entries, err := os.ReadDir(dn)
	if err != nil {
		return
	}
	count := -1
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fn := entry.Name()
		if !strings.HasSuffix(fn, ".fits") || !strings.HasPrefix(fn, r.Prefix) {
			continue
		}
		bit := strings.TrimSuffix(strings.TrimPrefix(fn, r.Prefix), ".fits")
		n, err := strconv.Atoi(bit)
		if err != nil {
			continue
		}
		if n > count {
			count = n
		}
	}
	r.counter = count + 1
}

// Inject adds recorder manipulation routes to an HTTPer, allowing the
// folder and prefix to be changed on the fly
func Inject(h server.HTTPer, r *Recorder) {
	rt := h.RT()
	rt[pat.Get("/record/root")] = generichttp.GetString(func() (string, error) {
		return r.Root, nil
	})
	rt[pat.Post("/record/root")] = generichttp.SetString(func(s string) error {
		r.Root = s
		_, err := r.mkDir()
		return err
	})
	rt[pat.Get("/record/prefix")] = generichttp.GetString(func() (string, error) {
		return r.Prefix, nil
	})
	rt[pat.Post("/record/prefix")] = generichttp.SetString(func(s string) error {
		r.Prefix = s
		return nil
	})
}
