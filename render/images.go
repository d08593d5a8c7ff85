package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
)

// Image is a decoded bitmap resource. Only the header is decoded; the raw bytes are
// kept so surfaces that embed images (svg, html) can inline them.
type Image struct {
	Path          string
	Width, Height int
	MediaType     string
	data          []byte
}

// DataURI returns the image inlined as a base64 data uri.
func (img *Image) DataURI() string {
	return "data:" + img.MediaType + ";base64," + base64.StdEncoding.EncodeToString(img.data)
}

// ErrImageUnavailable wraps every fetch or decode failure.
var ErrImageUnavailable = errors.New("image can not be loaded")

// ImageLoader resolves image paths against a filesystem. Each path is fetched at
// most once on success; callers asking for a path that is already being fetched join
// that fetch instead of starting another. Failed fetches are not cached.
type ImageLoader struct {
	fs      afero.Fs
	group   singleflight.Group
	mu      sync.Mutex
	cache   map[string]*Image
	fetches int
}

func NewImageLoader(fs afero.Fs) *ImageLoader {
	return &ImageLoader{
		fs:    fs,
		cache: map[string]*Image{},
	}
}

// Load returns the decoded image at path, waiting for an in-flight fetch if needed.
// Cancelling ctx abandons the wait, not the fetch, which other callers may share.
func (loader *ImageLoader) Load(ctx context.Context, path string) (*Image, error) {
	if img, ok := loader.Cached(path); ok {
		return img, nil
	}

	results := loader.group.DoChan(path, func() (interface{}, error) {
		// A flight that finished between the cache check above and this call already stored it.
		if img, ok := loader.Cached(path); ok {
			return img, nil
		}
		img, err := loader.fetch(path)
		if err != nil {
			return nil, err
		}
		loader.mu.Lock()
		loader.cache[path] = img
		loader.mu.Unlock()
		return img, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Image), nil
	}
}

// Cached returns the image if it has already been loaded.
func (loader *ImageLoader) Cached(path string) (*Image, bool) {
	loader.mu.Lock()
	defer loader.mu.Unlock()
	img, ok := loader.cache[path]
	return img, ok
}

// Fetches returns the number of filesystem reads performed so far.
func (loader *ImageLoader) Fetches() int {
	loader.mu.Lock()
	defer loader.mu.Unlock()
	return loader.fetches
}

func (loader *ImageLoader) fetch(path string) (*Image, error) {
	loader.mu.Lock()
	loader.fetches++
	loader.mu.Unlock()

	data, err := afero.ReadFile(loader.fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrImageUnavailable, path, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrImageUnavailable, path, err)
	}

	return &Image{
		Path:      path,
		Width:     cfg.Width,
		Height:    cfg.Height,
		MediaType: "image/" + format,
		data:      data,
	}, nil
}
