// configurator is an adapter for loading the main configuration file
// and for loading and saving the authentication token. It implements
// the ports.ForConfiguring interface.
package configurator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/sa6mwa/funidl/internal/app/model"
	"github.com/sa6mwa/funidl/internal/app/ports"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "funidl.yaml"
	DefaultTokenFile  = "funi_token.yaml"
	DefaultContentDir = "videos"
)

// configurator.New returns a local file-based configurator that
// satisfies the ports.ForConfiguring port interface. Empty file names
// select the defaults.
func New(configFile, tokenFile string) ports.ForConfiguring {
	if configFile == "" {
		configFile = DefaultConfigFile
	}
	if tokenFile == "" {
		tokenFile = DefaultTokenFile
	}
	return &forConfiguring{
		configFile: configFile,
		tokenFile:  tokenFile,
		lookPath:   exec.LookPath,
	}
}

// Implements the ports.ForConfiguring interface.
type forConfiguring struct {
	configFile string
	tokenFile  string
	lookPath   func(string) (string, error)
}

// Load reads the configuration file. A missing file is not an error,
// every value then gets its default.
func (c *forConfiguring) Load(ctx context.Context) (*model.Config, error) {
	l := logger.FromContext(ctx)
	var cfg model.Config
	f, err := os.Open(c.configFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		l.Debug("No configuration file, using defaults", "file", c.configFile)
	case err != nil:
		return nil, err
	default:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("unable to parse %s: %w", c.configFile, err)
		}
	}
	c.setDefaults(&cfg)
	return &cfg, nil
}

func (c *forConfiguring) setDefaults(cfg *model.Config) {
	if strings.TrimSpace(cfg.Dir.Content) == "" {
		cfg.Dir.Content = DefaultContentDir
	}
	if cfg.Bin.FFmpeg == "" {
		if p, err := c.lookPath("ffmpeg"); err == nil {
			cfg.Bin.FFmpeg = p
		}
	}
	if cfg.Bin.MKVMerge == "" {
		if p, err := c.lookPath("mkvmerge"); err == nil {
			cfg.Bin.MKVMerge = p
		}
	}
	cli := &cfg.Cli
	if cli.PartSize == 0 {
		cli.PartSize = model.DefaultPartSize
	}
	if cli.VideoLayer == 0 {
		cli.VideoLayer = model.DefaultVideoLayer
	}
	if cli.Server == 0 {
		cli.Server = model.DefaultServer
	}
	if cli.FontSize == 0 {
		cli.FontSize = model.DefaultFontSize
	}
	if cli.Numbers == 0 {
		cli.Numbers = model.DefaultNumbers
	}
	if cli.Timeout == 0 {
		cli.Timeout = model.DefaultTimeout
	}
	if strings.TrimSpace(cli.FileName) == "" {
		cli.FileName = model.DefaultFileName
	}
	if len(cli.Dub) == 0 {
		cli.Dub = []string{string(model.DubEnUS)}
	}
	if len(cli.SubLang) == 0 {
		cli.SubLang = []string{string(model.DubEnUS)}
	}
}

// LoadToken returns the saved token or an empty string when there is
// none.
func (c *forConfiguring) LoadToken(ctx context.Context) (string, error) {
	b, err := os.ReadFile(c.tokenFile)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var t model.Token
	if err := yaml.Unmarshal(b, &t); err != nil {
		return "", fmt.Errorf("unable to parse %s: %w", c.tokenFile, err)
	}
	return strings.TrimSpace(t.Token), nil
}

func (c *forConfiguring) SaveToken(ctx context.Context, token string) error {
	b, err := yaml.Marshal(&model.Token{Token: token})
	if err != nil {
		return fmt.Errorf("unable to marshall yaml: %w", err)
	}
	if err := renameio.WriteFile(c.tokenFile, b, 0o600); err != nil {
		return fmt.Errorf("unable to write %s: %w", c.tokenFile, err)
	}
	return nil
}
