package fitstream

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/sirupsen/logrus"
)

// Snapshot queues a labeled PNG capture of the next delivered output. The file
// is written to Config.SnapshotDir with a timestamped name. Ebitengine
// textures can only be read back while the game loop is running.
func (p *Pump) Snapshot(label string) {
	p.snapshotQueue = append(p.snapshotQueue, label)
}

// flushSnapshots writes every queued label for tex. Failures are logged and
// the queue is cleared either way.
func (p *Pump) flushSnapshots(tex Texture) {
	if len(p.snapshotQueue) == 0 {
		return
	}
	defer func() { p.snapshotQueue = p.snapshotQueue[:0] }()

	if err := p.writeSnapshots(tex, time.Now()); err != nil {
		log().WithFields(logrus.Fields{
			"dir":   p.cfg.SnapshotDir,
			"count": len(p.snapshotQueue),
		}).WithError(err).Warn("snapshot failed")
	}
}

func (p *Pump) writeSnapshots(tex Texture, now time.Time) error {
	exporter, ok := tex.(ImageExporter)
	if !ok {
		return fmt.Errorf("snapshot %T: %w", tex, ErrUnsupportedTexture)
	}
	img, err := exporter.ToImage()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	dir := p.cfg.SnapshotDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: mkdir %s: %w", dir, err)
	}

	stamp := now.Format("20060102_150405")
	for _, label := range p.snapshotQueue {
		path := filepath.Join(dir, snapshotName(stamp, label))
		if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
			return fmt.Errorf("snapshot %s: %w", path, err)
		}
	}
	return nil
}

// snapshotName returns "<stamp>_<label>.png". Label runes outside
// [A-Za-z0-9.-] become '_'; a blank label names the file after the frame.
func snapshotName(stamp, label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "frame"
	}
	safe := strings.Map(func(r rune) rune {
		if r == '-' || r == '.' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			return r
		}
		return '_'
	}, label)
	return stamp + "_" + safe + ".png"
}
