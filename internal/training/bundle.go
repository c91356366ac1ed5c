package training

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// Pipeline is the serialized serving artifact: the fitted preprocessor plus
// exactly one of the two model shapes, discriminated by ModelType.
type Pipeline struct {
	Preprocessor *Preprocessor `json:"preprocessor"`
	ModelType    string        `json:"model_type"`
	Forest       *Forest       `json:"forest,omitempty"`
	Boosting     *Boosting     `json:"boosting,omitempty"`
}

// PredictProba applies the preprocessor and the selected model to one raw
// feature vector.
func (p *Pipeline) PredictProba(row []float64) float64 {
	transformed := p.Preprocessor.TransformRow(row)
	switch p.ModelType {
	case ModelRandomForest:
		return p.Forest.PredictProba(transformed)
	case ModelHistGB:
		return p.Boosting.PredictProba(transformed)
	}
	return 0.5
}

// Scores holds one candidate's validation metrics.
type Scores struct {
	AUC      float64 `json:"auc"`
	Accuracy float64 `json:"accuracy"`
}

// Meta describes the training run embedded in the bundle.
type Meta struct {
	TrainedAt     string            `json:"trained_at"`
	DataFile      string            `json:"data_file"`
	RowCount      int               `json:"n_rows"`
	SelectedModel string            `json:"selected_model"`
	Validation    map[string]Scores `json:"validation"`
	TargetMapping map[string]int    `json:"target_mapping"`
}

// Bundle is the model artifact written by the trainer.
type Bundle struct {
	Pipeline       Pipeline `json:"pipeline"`
	FeatureColumns []string `json:"feature_columns"`
	Meta           Meta     `json:"meta"`
}

// Save writes the bundle as gzip-compressed JSON. The write goes to a temp
// file in the target directory followed by a rename, so an interrupted run
// never leaves a truncated bundle at the destination path.
func (b *Bundle) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp bundle file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	gz := gzip.NewWriter(tmp)
	if err := json.NewEncoder(gz).Encode(b); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding bundle: %w", err)
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("compressing bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp bundle file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming bundle into place: %w", err)
	}
	return nil
}

// LoadBundle reads a bundle written by Save. Nothing in the serving path
// calls this yet; it exists for inference consumers of the artifact.
func LoadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bundle: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing bundle: %w", err)
	}
	defer gz.Close()

	var b Bundle
	if err := json.NewDecoder(gz).Decode(&b); err != nil {
		return nil, fmt.Errorf("decoding bundle: %w", err)
	}
	return &b, nil
}
