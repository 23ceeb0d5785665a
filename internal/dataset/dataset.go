// Package dataset loads and batches image classification datasets.
//
// Datasets are held in memory as flat float32 feature vectors with int32
// class labels. The MNIST IDX binary format is supported directly; a
// synthetic generator provides separable data for tests and smoke runs.
package dataset

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// Dataset holds samples as flattened feature vectors in [0, 1] with their
// class labels.
type Dataset struct {
	Features [][]float32 // [samples][features]
	Labels   []int32     // [samples]
	Classes  int
}

// Load reads an MNIST-style IDX dataset from dir. With train set it expects
// train-images-idx3-ubyte and train-labels-idx1-ubyte, otherwise the t10k
// pair. Pixel bytes are normalized to [0, 1]. maxSamples of 0 loads
// everything.
func Load(dir string, train bool, maxSamples int) (*Dataset, error) {
	var imageFile, labelFile string
	if train {
		imageFile = filepath.Join(dir, "train-images-idx3-ubyte")
		labelFile = filepath.Join(dir, "train-labels-idx1-ubyte")
	} else {
		imageFile = filepath.Join(dir, "t10k-images-idx3-ubyte")
		labelFile = filepath.Join(dir, "t10k-labels-idx1-ubyte")
	}

	images, err := readIDXImages(imageFile)
	if err != nil {
		return nil, fmt.Errorf("loading images: %w", err)
	}
	labels, err := readIDXLabels(labelFile)
	if err != nil {
		return nil, fmt.Errorf("loading labels: %w", err)
	}

	if len(images) != len(labels) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", len(images), len(labels))
	}

	numSamples := len(images)
	if maxSamples > 0 && numSamples > maxSamples {
		numSamples = maxSamples
	}

	d := &Dataset{
		Features: make([][]float32, numSamples),
		Labels:   make([]int32, numSamples),
	}
	for i := 0; i < numSamples; i++ {
		features := make([]float32, len(images[i]))
		for j, pixel := range images[i] {
			features[j] = float32(pixel) / 255.0
		}
		d.Features[i] = features
		d.Labels[i] = int32(labels[i])
		if int(labels[i])+1 > d.Classes {
			d.Classes = int(labels[i]) + 1
		}
	}
	return d, nil
}

// NumSamples returns the number of samples.
func (d *Dataset) NumSamples() int {
	return len(d.Features)
}

// NumFeatures returns the per-sample feature count, 0 for an empty dataset.
func (d *Dataset) NumFeatures() int {
	if len(d.Features) == 0 {
		return 0
	}
	return len(d.Features[0])
}

// Split cuts the dataset in two, putting the trailing ratio of samples into
// the second part. A non-nil rng shuffles the sample order first; nil keeps
// the original order. Sample data is not copied; both parts share the
// per-sample feature slices.
func (d *Dataset) Split(ratio float64, rng *rand.Rand) (*Dataset, *Dataset) {
	n := d.NumSamples()
	features := d.Features
	labels := d.Labels
	if rng != nil {
		features = make([][]float32, n)
		labels = make([]int32, n)
		for i, j := range rng.Perm(n) {
			features[i] = d.Features[j]
			labels[i] = d.Labels[j]
		}
	}
	splitIdx := int(float64(n) * (1.0 - ratio))
	return &Dataset{
			Features: features[:splitIdx],
			Labels:   labels[:splitIdx],
			Classes:  d.Classes,
		}, &Dataset{
			Features: features[splitIdx:],
			Labels:   labels[splitIdx:],
			Classes:  d.Classes,
		}
}

// Summary returns a one-line description, e.g.
// "60,000 samples, 784 features, 10 classes".
func (d *Dataset) Summary() string {
	return fmt.Sprintf("%s samples, %d features, %d classes",
		humanize.Comma(int64(d.NumSamples())), d.NumFeatures(), d.Classes)
}
