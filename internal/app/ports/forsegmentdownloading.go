package ports

import "context"

type SegmentDownloadRequest struct {
	// PlaylistURL is where Playlist was fetched from, relative segment
	// uris are resolved against it.
	PlaylistURL string
	// Playlist is the body of an HLS media playlist.
	Playlist []byte
	// Output is the file the segments are concatenated into.
	Output string
}

// ForSegmentDownloading downloads every segment of a media playlist.
// Download blocks until the output file is complete or failed, a
// failed download leaves no output file behind.
type ForSegmentDownloading interface {
	Download(ctx context.Context, request *SegmentDownloadRequest) error
}
