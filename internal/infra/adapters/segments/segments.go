// The segments adapter implements ports.ForSegmentDownloading. It
// fetches the segments of an HLS media playlist in parallel batches
// and writes them in playlist order into a single file.
package segments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/grafov/m3u8"
	"github.com/sa6mwa/funidl/internal/app/humanreadable"
	"github.com/sa6mwa/funidl/internal/app/ports"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotMedia   = errors.New("not a media playlist")
	ErrNoSegments = errors.New("media playlist has no segments")
	ErrEncrypted  = errors.New("encrypted segments are not supported")
)

const DefaultWorkers = 10

type Options struct {
	// Workers is the number of segments fetched at the same time.
	Workers int
	// Client defaults to http.DefaultClient.
	Client *http.Client
	// Progress receives the progress bar, os.Stderr when nil.
	Progress io.Writer
}

type forSegmentDownloading struct {
	workers  int
	client   *http.Client
	progress io.Writer
}

func New(opts Options) ports.ForSegmentDownloading {
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Progress == nil {
		opts.Progress = os.Stderr
	}
	return &forSegmentDownloading{
		workers:  opts.Workers,
		client:   opts.Client,
		progress: opts.Progress,
	}
}

func (d *forSegmentDownloading) Download(ctx context.Context, r *ports.SegmentDownloadRequest) error {
	l := logger.FromContext(ctx)
	uris, err := SegmentURLs(r.PlaylistURL, r.Playlist)
	if err != nil {
		return err
	}

	pending, err := renameio.NewPendingFile(r.Output)
	if err != nil {
		return fmt.Errorf("create %s: %w", r.Output, err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			l.Debug("Cleanup of pending file", "file", r.Output, "error", err)
		}
	}()

	bar := progressbar.NewOptions(len(uris),
		progressbar.OptionSetWriter(d.progress),
		progressbar.OptionSetDescription(filepath.Base(r.Output)),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var written int64
	for start := 0; start < len(uris); start += d.workers {
		end := min(start+d.workers, len(uris))
		batch := make([][]byte, end-start)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.workers)
		for i := start; i < end; i++ {
			g.Go(func() error {
				b, err := d.fetch(gctx, uris[i])
				if err != nil {
					return fmt.Errorf("segment %d of %d: %w", i+1, len(uris), err)
				}
				batch[i-start] = b
				bar.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for _, b := range batch {
			n, err := pending.Write(b)
			if err != nil {
				return fmt.Errorf("write %s: %w", r.Output, err)
			}
			written += int64(n)
		}
	}
	bar.Finish()

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", r.Output, err)
	}
	l.Info("Downloaded", "file", r.Output, "segments", len(uris), "size", humanreadable.IEC(written))
	return nil
}

func (d *forSegmentDownloading) fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", uri, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// SegmentURLs returns the absolute urls of every segment of a media
// playlist fetched from playlistURL.
func SegmentURLs(playlistURL string, playlist []byte) ([]string, error) {
	base, err := url.Parse(playlistURL)
	if err != nil {
		return nil, fmt.Errorf("playlist url: %w", err)
	}
	p, listType, err := m3u8.DecodeFrom(bytes.NewReader(playlist), false)
	if err != nil {
		return nil, fmt.Errorf("decode media playlist: %w", err)
	}
	media, ok := p.(*m3u8.MediaPlaylist)
	if listType != m3u8.MEDIA || !ok {
		return nil, ErrNotMedia
	}
	if encrypted(media.Key) {
		return nil, ErrEncrypted
	}
	var uris []string
	for _, seg := range media.Segments {
		if seg == nil {
			break
		}
		if encrypted(seg.Key) {
			return nil, ErrEncrypted
		}
		ref, err := url.Parse(strings.TrimSpace(seg.URI))
		if err != nil {
			return nil, fmt.Errorf("segment uri %q: %w", seg.URI, err)
		}
		uris = append(uris, base.ResolveReference(ref).String())
	}
	if len(uris) == 0 {
		return nil, ErrNoSegments
	}
	return uris, nil
}

func encrypted(k *m3u8.Key) bool {
	return k != nil && k.Method != "" && !strings.EqualFold(k.Method, "NONE")
}
