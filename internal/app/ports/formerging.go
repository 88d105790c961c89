package ports

import (
	"context"
	"errors"

	"github.com/sa6mwa/funidl/internal/app/model"
)

// ErrNoMerger is returned by Merge when no usable multiplexing tool
// is installed.
var ErrNoMerger = errors.New("no merger found")

type MergeRequest struct {
	OnlyVideo     []model.DownloadArtifact
	OnlyAudio     []model.DownloadArtifact
	VideoAndAudio []model.DownloadArtifact
	Subtitles     []model.SubtitleFile
	// Output path including the container extension.
	Output string
	MP4    bool
}

// ForMerging multiplexes downloaded artifacts into a single file using
// an external tool. Merge returns the name of the tool used.
type ForMerging interface {
	Merge(ctx context.Context, request *MergeRequest) (tool string, err error)
}
