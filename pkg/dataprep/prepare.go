// Package dataprep builds the JSON manifests for a LibriSpeech-style
// gender-ID corpus: it parses the speaker metadata table, walks the
// train/val/test audio folders, probes durations, and writes one
// manifest per split.
package dataprep

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/haivivi/genderid/pkg/dataio"
)

// ErrUnknownSpeaker is returned when an audio file references a speaker
// id that is missing from the metadata table.
var ErrUnknownSpeaker = errors.New("dataprep: unknown speaker")

// CorpusDirName is the directory under the data folder that holds the
// speakers file and the split subfolders.
const CorpusDirName = "LibriSpeech"

// SpeakersFileName is the metadata table inside the corpus directory.
const SpeakersFileName = "SPEAKERS.TXT"

// Options configures manifest preparation.
type Options struct {
	// DataFolder is the corpus location; the corpus itself lives in
	// DataFolder/LibriSpeech.
	DataFolder string

	// SaveJSONTrain, SaveJSONValid and SaveJSONTest are the manifest
	// output paths. When all three already exist, Prepare is a no-op.
	SaveJSONTrain string
	SaveJSONValid string
	SaveJSONTest  string

	// Extension selects the audio files to index (default ".flac").
	Extension string

	// SkipUnknown downgrades unknown-speaker lookups from a hard error
	// to a counted skip. Off by default: a gap in the metadata table
	// usually means the wrong corpus or a truncated download, and
	// silently dropping utterances would hide that.
	SkipUnknown bool

	// Logger receives progress output. Defaults to slog.Default().
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) extension() string {
	if o.Extension != "" {
		return o.Extension
	}
	return ".flac"
}

// Prepare creates the train/valid/test manifests for the corpus under
// opts.DataFolder. If all three output files already exist the previous
// run's results are kept and nothing is touched.
func Prepare(ctx context.Context, opts Options) error {
	log := opts.logger()

	if allExist(opts.SaveJSONTrain, opts.SaveJSONValid, opts.SaveJSONTest) {
		log.Info("manifest preparation already done, skipping")
		return nil
	}

	corpusDir := filepath.Join(opts.DataFolder, CorpusDirName)
	genders, err := LoadSpeakers(filepath.Join(corpusDir, SpeakersFileName))
	if err != nil {
		return err
	}
	log.Info("loaded speaker metadata", "speakers", len(genders))

	splits := []struct {
		folder string
		out    string
	}{
		{"train", opts.SaveJSONTrain},
		{"val", opts.SaveJSONValid},
		{"test", opts.SaveJSONTest},
	}
	for _, split := range splits {
		if err := ctx.Err(); err != nil {
			return err
		}
		files, err := listAudioFiles(filepath.Join(corpusDir, split.folder), opts.extension())
		if err != nil {
			return err
		}
		manifest, skipped, err := buildManifest(files, genders, opts.SkipUnknown)
		if err != nil {
			return err
		}
		if err := writeManifest(manifest, split.out); err != nil {
			return err
		}
		log.Info("manifest created", "path", split.out, "utterances", len(manifest), "skipped", skipped)
	}
	return nil
}

// buildManifest turns a list of audio files into manifest entries.
// skipUnknown counts and drops files whose speaker is not in the table
// instead of failing.
func buildManifest(files []string, genders map[string]string, skipUnknown bool) (dataio.Manifest, int, error) {
	manifest := make(dataio.Manifest, len(files))
	skipped := 0
	for _, path := range files {
		uttID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		spkID, _, _ := strings.Cut(uttID, "-")

		gender, ok := genders[spkID]
		if !ok {
			if skipUnknown {
				skipped++
				continue
			}
			return nil, 0, fmt.Errorf("%w: %s (from %s)", ErrUnknownSpeaker, spkID, path)
		}

		duration, err := dataio.ProbeDuration(path)
		if err != nil {
			return nil, 0, fmt.Errorf("dataprep: probe %s: %w", path, err)
		}

		manifest[uttID] = dataio.Entry{
			Wav:      templatePath(path),
			Duration: duration,
			SpkID:    spkID,
			GenderID: gender,
		}
	}
	return manifest, skipped, nil
}

// templatePath rewrites an absolute audio path as a portable manifest
// path: the {data_root} placeholder followed by the last five path
// components (corpus dir, split, speaker, chapter, file).
func templatePath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) > 5 {
		parts = parts[len(parts)-5:]
	}
	return dataio.DataRootVar + "/" + strings.Join(parts, "/")
}

// listAudioFiles walks dir recursively and returns all files with the
// given extension in sorted order.
func listAudioFiles(dir, ext string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dataprep: scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func writeManifest(m dataio.Manifest, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("dataprep: create manifest dir: %w", err)
		}
	}
	return m.Save(path)
}

// allExist reports whether every named file exists.
func allExist(paths ...string) bool {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}
