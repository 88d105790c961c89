package model

// ArtifactKind tells what a downloaded file contains.
type ArtifactKind int

const (
	KindVideo ArtifactKind = iota
	KindAudio
	KindCombined
)

func (k ArtifactKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	}
	return "combined"
}

// DownloadArtifact is an intermediate file handed to the merger.
type DownloadArtifact struct {
	FilePath     string
	LanguageCode string
	Kind         ArtifactKind
}

// SubtitleFile is a converted subtitle written next to the
// artifacts.
type SubtitleFile struct {
	Track SubtitleTrack
	Path  string
}
