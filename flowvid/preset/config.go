package preset

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/raster"
)

// Config holds every option a preset reads. Each preset uses a subset and
// ignores the rest; Defaults fills in the values that preset expects.
type Config struct {
	// Sources
	FloDir    string `yaml:"flo_dir,omitempty"`
	FloEstDir string `yaml:"flo_est_dir,omitempty"`
	FloGTDir  string `yaml:"flo_gt_dir,omitempty"`
	RGBDir    string `yaml:"rgb_dir,omitempty"`
	First     int    `yaml:"first"`
	Count     int    `yaml:"count"` // 0 means every file

	// Normalization: "frame", "video" or "none".
	Normalize string  `yaml:"normalize,omitempty"`
	ClampPct  float64 `yaml:"clamp_pct"`
	Gamma     float64 `yaml:"gamma"`
	// AccumulateFlow integrates the flow before it is colored.
	AccumulateFlow bool `yaml:"accumulate_flow"`

	EPEColor raster.Color `yaml:"epe_color"`

	// Arrows
	FlowBackground bool    `yaml:"flow_background"`
	Subsample      int     `yaml:"subsample"`
	ArrowMinAlpha  float64 `yaml:"arrow_min_alpha"`

	// Tracking
	PointsFile  string       `yaml:"points_file,omitempty"`
	NumPoints   int          `yaml:"num_points"`
	Seed        uint64       `yaml:"seed"`
	PointColor  raster.Color `yaml:"point_color"`
	NumTrail    int          `yaml:"num_trail"`
	Interpolate bool         `yaml:"interpolate"`
	Accumulate  bool         `yaml:"accumulate"`
	DrawLines   bool         `yaml:"draw_lines"`

	// EPE plot
	Cumulative bool `yaml:"cumulative"`
	Density    bool `yaml:"density"`

	// StatsDB, when set, records per-frame endpoint error statistics in
	// this SQLite database.
	StatsDB string `yaml:"stats_db,omitempty"`

	// Workers bounds how many frames are rendered concurrently. Values
	// below 2 render one frame at a time.
	Workers int `yaml:"workers"`

	Output Output `yaml:"output"`
}

// Output says where a preset writes its result.
type Output struct {
	// Type is "video" or "images".
	Type       string  `yaml:"type,omitempty"`
	Path       string  `yaml:"path,omitempty"`
	Framerate  float64 `yaml:"framerate"`
	NameFormat string  `yaml:"name_format,omitempty"`
	FirstID    int     `yaml:"first_id"`
}

var (
	white      = raster.FixedColor(color.RGBA{255, 255, 255, 255})
	colorBlack = color.RGBA{0, 0, 0, 255}
)

// Defaults returns the configuration preset runs with when nothing is
// overridden.
func Defaults(preset string) (Config, error) {
	video := func(name string, fps float64) Output {
		return Output{Type: "video", Path: "output_" + name + ".mp4", Framerate: fps}
	}
	tracking := Config{
		FloDir:      "flo",
		RGBDir:      "png",
		NumPoints:   10,
		PointColor:  raster.Color{Mode: raster.Random},
		NumTrail:    4,
		Interpolate: true,
		Accumulate:  true,
		DrawLines:   true,
	}

	var c Config
	switch preset {
	case ColorFlow:
		c = Config{FloDir: "flo", Normalize: "frame", ClampPct: 1, Gamma: 1}
		c.Output = video(preset, 24)
	case ColorEPE:
		c = Config{FloEstDir: "flo_est", FloGTDir: "flo_gt", Normalize: "frame", ClampPct: 1, Gamma: 1, EPEColor: white}
		c.Output = video(preset, 24)
	case FlowArrows:
		c = Config{FloDir: "flo", RGBDir: "png", Subsample: 16, ArrowMinAlpha: 0.7}
		c.Output = video(preset, 10)
	case PlotEPE:
		c = Config{FloEstDir: "flo_est", FloGTDir: "flo_gt", Cumulative: true, Density: true}
		c.Output = Output{Path: "plot_epe.png"}
	case TrackPoints, TrackSideBySide:
		c = tracking
		c.Output = video(preset, 24)
	default:
		return Config{}, unknown(preset)
	}
	// Colors always hold a valid value so a saved config reads back as is.
	if c.EPEColor == (raster.Color{}) {
		c.EPEColor = white
	}
	if c.PointColor == (raster.Color{}) {
		c.PointColor = raster.Color{Mode: raster.Random}
	}
	return c, nil
}

// LoadConfig reads a YAML configuration for preset. Keys absent from the
// file keep their default value.
func LoadConfig(path, preset string) (Config, error) {
	c, err := Defaults(preset)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("%w: config %s: %v", core.ErrInvalidArgument, path, err)
	}
	return c, nil
}

// SaveConfig writes c as YAML, headed by a comment that says how to run
// it again.
func SaveConfig(path, preset string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# flowvid configuration file\n")
	fmt.Fprintf(&buf, "# Created on %s for preset %s\n", time.Now().Format(time.RFC3339), preset)
	fmt.Fprintf(&buf, "#\n# You can edit or delete this file as you like.\n")
	fmt.Fprintf(&buf, "# Usage: flowvid -config %s %s\n\n", path, preset)
	buf.Write(data)
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
