package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/haivivi/genderid/pkg/dataio"
	"github.com/haivivi/genderid/pkg/dataprep"
	"github.com/haivivi/genderid/pkg/hparams"
	"github.com/haivivi/genderid/pkg/storage"
)

// loadHparams interprets args as `<hparams.yaml> [key=value...]`.
func loadHparams(args []string) (*hparams.Hparams, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("hyperparameter file required")
	}
	return hparams.Load(args[0], args[1:])
}

// archiveStore builds the FileStore the corpus archive is fetched
// through: S3 when a bucket is configured, the archive's directory
// otherwise. The returned path is relative to the store.
func archiveStore(ctx context.Context, h *hparams.Hparams) (storage.FileStore, string, error) {
	if h.S3Bucket != "" {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("load aws config: %w", err)
		}
		return storage.NewS3(s3.NewFromConfig(cfg), h.S3Bucket, h.S3Prefix), h.CorpusArchive, nil
	}
	store, err := storage.NewLocal(filepath.Dir(h.CorpusArchive))
	if err != nil {
		return nil, "", err
	}
	return store, filepath.Base(h.CorpusArchive), nil
}

// ensureData fetches the corpus (when an archive is configured) and
// writes the manifests (unless skip_prep is set or they already exist).
func ensureData(ctx context.Context, h *hparams.Hparams) error {
	log := slog.Default()

	if h.CorpusArchive != "" {
		store, path, err := archiveStore(ctx, h)
		if err != nil {
			return err
		}
		if err := dataprep.Fetch(ctx, store, path, h.DataFolder, log); err != nil {
			return err
		}
	}

	if h.SkipPrep {
		return nil
	}
	if err := os.MkdirAll(h.OutputFolder, 0o755); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}
	train, valid, test := h.ManifestPaths()
	return dataprep.Prepare(ctx, dataprep.Options{
		DataFolder:    h.DataFolder,
		SaveJSONTrain: train,
		SaveJSONValid: valid,
		SaveJSONTest:  test,
		Extension:     h.AudioExtension,
		SkipUnknown:   h.SkipUnknown,
		Logger:        log,
	})
}

// loadEncoder derives or reloads the label encoder from the train
// manifest so gender indices stay stable across runs.
func loadEncoder(h *hparams.Hparams, trainManifest string) (*dataio.CategoricalEncoder, error) {
	m, err := dataio.LoadManifest(trainManifest)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(m))
	for _, entry := range m {
		labels = append(labels, entry.GenderID)
	}
	enc := dataio.NewCategoricalEncoder()
	if err := enc.LoadOrCreate(filepath.Join(h.SaveFolder, "label_encoder.txt"), labels); err != nil {
		return nil, err
	}
	return enc, nil
}

// datasets opens the three splits with the shared pipeline options.
func datasets(h *hparams.Hparams, enc *dataio.CategoricalEncoder) (train, valid, test *dataio.Dataset, err error) {
	trainPath, validPath, testPath := h.ManifestPaths()
	opts := dataio.Options{
		DataRoot:    h.DataFolder,
		SampleRate:  h.SampleRate,
		SentenceLen: h.SentenceLen,
		RandomChunk: h.RandomChunk,
		Encoder:     enc,
	}
	if train, err = dataio.LoadDataset(trainPath, opts, true); err != nil {
		return nil, nil, nil, err
	}
	if valid, err = dataio.LoadDataset(validPath, opts, false); err != nil {
		return nil, nil, nil, err
	}
	if test, err = dataio.LoadDataset(testPath, opts, false); err != nil {
		return nil, nil, nil, err
	}
	return train, valid, test, nil
}
