package medium

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/0xmhha/sdlogger/pkg/logger"
)

// dirDriver exposes a mounted filesystem as a medium. Enable and Disable
// only gate access; mounting is left to the host (udev, automount).
type dirDriver struct {
	cfg    DirConfig
	logger logger.Logger

	mu      sync.Mutex
	enabled bool
}

// NewDirDriver creates a Driver for the filesystem at cfg.MountPath.
// The driver starts disabled.
func NewDirDriver(cfg DirConfig, log logger.Logger) Driver {
	if log == nil {
		log = logger.Noop()
	}
	return &dirDriver{cfg: cfg, logger: log.With("component", "medium-driver")}
}

func (d *dirDriver) Probe() error {
	if err := d.inserted(); err != nil {
		return err
	}

	d.mu.Lock()
	enabled := d.enabled
	d.mu.Unlock()
	if !enabled {
		return ErrUninitialized
	}

	f, err := os.Open(d.cfg.MountPath)
	if err != nil {
		return fmt.Errorf("failed to open medium root: %w", err)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to list medium root: %w", err)
	}
	return nil
}

func (d *dirDriver) Enable() error {
	if err := d.inserted(); err != nil {
		return err
	}
	d.mu.Lock()
	d.enabled = true
	d.mu.Unlock()
	d.logger.Debug("medium enabled", "root", d.cfg.MountPath)
	return nil
}

func (d *dirDriver) Disable() error {
	d.mu.Lock()
	d.enabled = false
	d.mu.Unlock()
	d.logger.Debug("medium disabled", "root", d.cfg.MountPath)
	return nil
}

func (d *dirDriver) Root() string {
	return d.cfg.MountPath
}

// inserted checks that the mount path exists and, if required, carries a
// mounted filesystem.
func (d *dirDriver) inserted() error {
	info, err := os.Stat(d.cfg.MountPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotPresent
		}
		return fmt.Errorf("failed to stat medium root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("medium root %s is not a directory", d.cfg.MountPath)
	}
	if !d.cfg.RequireMountpoint {
		return nil
	}

	mounted, err := isMountpoint(d.cfg.MountPath)
	if err != nil {
		return fmt.Errorf("failed to check mountpoint: %w", err)
	}
	if !mounted {
		return ErrNotPresent
	}
	return nil
}
