package ports

import "context"

type ConvertRequest struct {
	// WebVTT source.
	VTT []byte
	// Format is either ass or srt.
	Format string
	// Title is written into formats that support a script title.
	Title    string
	FontSize int
}

// ForConverting converts WebVTT subtitles into ass or srt.
type ForConverting interface {
	Convert(ctx context.Context, request *ConvertRequest) ([]byte, error)
}
