package model

import "time"

// Config is the content of the main configuration file. The Cli
// section holds the defaults for every download flag, a flag given on
// the command line always wins.
type Config struct {
	Bin   BinConfig `yaml:"bin"`
	Dir   DirConfig `yaml:"dir"`
	Cli   CliConfig `yaml:"cli"`
	Aws   AwsConfig `yaml:"aws"`
	Proxy string    `yaml:"proxy,omitempty"`
}

type BinConfig struct {
	FFmpeg   string `yaml:"ffmpeg,omitempty"`
	MKVMerge string `yaml:"mkvmerge,omitempty"`
}

type DirConfig struct {
	Content string `yaml:"content"`
}

type CliConfig struct {
	All        bool          `yaml:"all"`
	PartSize   int           `yaml:"partsize"`
	VideoLayer int           `yaml:"videoLayer"`
	AltList    bool          `yaml:"altList"`
	Dub        []string      `yaml:"dub"`
	SubLang    []string      `yaml:"subLang"`
	FontSize   int           `yaml:"fontSize"`
	ForceSimul bool          `yaml:"forceSimul"`
	Server     int           `yaml:"nServer"`
	MP4Mux     bool          `yaml:"mp4mux"`
	FileName   string        `yaml:"fileName"`
	Numbers    int           `yaml:"numbers"`
	NoCleanUp  bool          `yaml:"noCleanUp"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Token is the content of the token file written by the auth command.
type Token struct {
	Token string `yaml:"token"`
}
